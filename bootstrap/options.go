package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/cemint/cemint-insights/logger"
)

// Option overrides what NewApp would otherwise derive from the config.
type Option func(*settings)

// settings starts from the config and is then adjusted by options.
type settings struct {
	log      *logger.Logger
	shutdown time.Duration
	summary  io.Writer
}

func newSettings(shutdown time.Duration, opts []Option) settings {
	s := settings{shutdown: shutdown, summary: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger built from the logging block. Tests pass
// logger.NewNop().
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithShutdownTimeout overrides shutdown_timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.shutdown = d
		}
	}
}

// WithSummaryOutput sends the startup summary to w. cemint writes it to
// stderr so stdout stays free for command output.
func WithSummaryOutput(w io.Writer) Option {
	return func(s *settings) { s.summary = w }
}
