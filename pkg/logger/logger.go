// Package logx configures the process-wide zerolog logger.
package logx

import (
	"os"

	"github.com/foxxcyber/deal-finder/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default when set ("debug", "warn", ...).
	Level string
}

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

// Init replaces the global logger. Production logs JSON at info level,
// everything else gets a console writer with callers at debug level.
func Init(opts ...LoggerOpts) {
	o := safe(opts...)

	level := zerolog.DebugLevel
	if o.Environment.IsProduction() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		level = zerolog.InfoLevel
	} else {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger()
	}

	if o.Level != "" {
		if parsed, err := zerolog.ParseLevel(o.Level); err == nil {
			level = parsed
		}
	}
	log.Logger = log.Logger.Level(level)
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
