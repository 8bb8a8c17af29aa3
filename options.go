package mobi

import (
	"io"
	"log/slog"
)

// Option configures parsing.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	workers       int
	stripTrailers bool
}

func defaultConfig() config {
	return config{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:       1,
		stripTrailers: true,
	}
}

// WithLogger sets the logger that receives parse warnings and progress at
// debug level. By default nothing is logged; warnings are still available
// from Book.Warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWorkers sets the number of goroutines used to decompress text records.
// A value of zero or less selects runtime.NumCPU. The default is 1.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithTrailingEntries controls whether trailing entries described by the
// MOBI extra data flags are removed before decompression. Enabled by default.
func WithTrailingEntries(strip bool) Option {
	return func(c *config) {
		c.stripTrailers = strip
	}
}
