package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"ard/internal/structures"

	"github.com/rs/zerolog"
)

type TypeEnum uint8

const (
	TypeApp TypeEnum = iota
	TypeEvent
	TypeGet
	TypePost
)

func GetLogTypeByRequestType(method string) TypeEnum {
	if method == "POST" {
		return TypePost
	}
	return TypeGet
}

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	SetDebug(debug bool)
	Close()
}

type LogProvider struct {
	app    zerolog.Logger
	event  zerolog.Logger
	access zerolog.Logger
	level  zerolog.Level
	files  []*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	mode := os.FileMode(conf.Logger.Mode)
	lp := &LogProvider{level: level}

	for _, target := range []struct {
		name string
		dst  *zerolog.Logger
	}{
		{"app.log", &lp.app},
		{"event.log", &lp.event},
		{"access.log", &lp.access},
	} {
		file, err := os.OpenFile(filepath.Join(conf.Logger.Dir, target.name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, mode)
		if err != nil {
			lp.Close()
			return nil, fmt.Errorf("open log file %s: %w", target.name, err)
		}
		lp.files = append(lp.files, file)
		*target.dst = zerolog.New(file).With().Timestamp().Logger().Level(level)
	}

	return lp, nil
}

func (lp *LogProvider) byType(t TypeEnum) *zerolog.Logger {
	switch t {
	case TypeEvent:
		return &lp.event
	case TypeGet, TypePost:
		return &lp.access
	default:
		return &lp.app
	}
}

func (lp *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	lp.byType(t).Error().Msgf(format, args...)
}

func (lp *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	lp.byType(t).Warn().Msgf(format, args...)
}

func (lp *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	lp.byType(t).Info().Msgf(format, args...)
}

func (lp *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	lp.byType(t).Debug().Msgf(format, args...)
}

func (lp *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	lp.byType(t).Fatal().Msgf(format, args...)
}

// SetDebug follows the account record's debug flag: on lowers the level to
// debug, off restores the configured level.
func (lp *LogProvider) SetDebug(debug bool) {
	level := lp.level
	if debug {
		level = zerolog.DebugLevel
	}
	lp.app = lp.app.Level(level)
	lp.event = lp.event.Level(level)
	lp.access = lp.access.Level(level)
}

func (lp *LogProvider) Close() {
	for _, f := range lp.files {
		_ = f.Close()
	}
	lp.files = nil
}
