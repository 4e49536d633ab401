package structures

import (
	"net/http"
	"time"
)

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type TransportConfig struct {
	Url               string        `yaml:"url" validate:"required"`
	Token             string        `yaml:"token"`
	ReconnectInterval time.Duration `yaml:"reconnectInterval" validate:"required|min:1"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	HistoryLimit      int           `yaml:"historyLimit"`
}

type PersistenceConfig struct {
	DataDir       string        `yaml:"dataDir" validate:"required|unixPath"`
	Debounce      time.Duration `yaml:"debounce" validate:"required|min:1"`
	FlushInterval time.Duration `yaml:"flushInterval" validate:"required|min:1"`
}

type JournalConfig struct {
	Dir           string        `yaml:"dir"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server            `yaml:"webServer"`
	Transport   TransportConfig   `yaml:"transport"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Journal     JournalConfig     `yaml:"journal"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Method  string
	Url     string
	Handler http.Handler
}
