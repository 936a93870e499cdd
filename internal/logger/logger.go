package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // trace, debug, info, warn, error
	Pretty bool   // console writer instead of JSON
	Output io.Writer
}

// Setup initializes the global logger
func Setup(config LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	if config.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return nil
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// Nop returns a disabled logger, used by tests
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
