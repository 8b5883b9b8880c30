package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the level and output format of the process logger.
type Options struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// New builds the root logger. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	return NewWithWriter(opts, os.Stderr)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(opts Options, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
