// Package logger provides leveled structured logging.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var defaultLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	With().Timestamp().Logger()

// Init initializes the default logger with the specified level and format.
// Format "json" writes machine-readable lines; "text" writes the console
// format.
func Init(level string, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if strings.ToLower(format) == "json" {
		out = zerolog.New(os.Stderr)
	} else {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	defaultLogger = out.With().Timestamp().Logger().Level(lvl)
}

func Debug(format string, args ...any) {
	defaultLogger.Debug().Msgf(format, args...)
}

func Info(format string, args ...any) {
	defaultLogger.Info().Msgf(format, args...)
}

func Warn(format string, args ...any) {
	defaultLogger.Warn().Msgf(format, args...)
}

func Error(format string, args ...any) {
	defaultLogger.Error().Msgf(format, args...)
}

// Fatal logs the message and exits the process.
func Fatal(format string, args ...any) {
	defaultLogger.Fatal().Msgf(format, args...)
}
