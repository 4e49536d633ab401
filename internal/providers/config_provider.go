package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"ard/internal/structures"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("persistence.debounce", "200ms")
	viper.SetDefault("persistence.flushInterval", "30s")
	viper.SetDefault("transport.reconnectInterval", "5s")

	viper.BindEnv("logger.level", "ARD_LOG_LEVEL")
	viper.BindEnv("transport.url", "ARD_TRANSPORT_URL")
	viper.BindEnv("transport.token", "ARD_TRANSPORT_TOKEN")
	viper.BindEnv("persistence.dataDir", "ARD_DATA_DIR")
	viper.BindEnv("persistence.debounce", "ARD_PERSIST_DEBOUNCE")
	viper.BindEnv("cache.enabled", "ARD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "ARD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "AutoReplyDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	if conf.Transport.HistoryLimit <= 0 {
		conf.Transport.HistoryLimit = 100
	}

	return &conf, nil
}
