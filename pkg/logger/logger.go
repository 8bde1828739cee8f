package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	zerologadapter "logur.dev/adapter/zerolog"
)

type (
	// Logger defines the interface for a logger.
	Logger interface {
		Trace(msg string, fields ...map[string]interface{})
		Debug(msg string, fields ...map[string]interface{})
		Info(msg string, fields ...map[string]interface{})
		Warn(msg string, fields ...map[string]interface{})
		Error(msg string, fields ...map[string]interface{})
	}

	Options struct {
		Pretty bool
		// Level is a zerolog level name. Empty means info.
		Level string
		// Writer defaults to stderr.
		Writer io.Writer
	}
)

func New(opts *Options) (Logger, error) {
	if opts == nil {
		opts = &Options{}
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer
	if opts.Pretty {
		writer = zerolog.ConsoleWriter{Out: out}
	} else {
		writer = out
	}

	return zerologadapter.New(zerolog.New(writer).Level(level).With().Timestamp().Logger()), nil
}

func NoOp() Logger {
	return zerologadapter.New(zerolog.Nop())
}
