package client

import (
	"log/slog"
	"time"
)

// Config contains all client configuration options.
type Config struct {
	// StorageDir is the base path for logical database files. Required.
	StorageDir string

	// Readonly opens every database file in read-only mode.
	// Default: false.
	Readonly bool

	// Verbose enables statement-level logging to stderr.
	// Default: false.
	Verbose bool

	// Timeout is the SQLite busy timeout.
	// Default: 5 seconds.
	Timeout time.Duration

	// Logger, when set, receives statement logs instead of stderr and
	// implies Verbose.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

// Option is a function that configures the client.
type Option func(*Config)

// WithStorageDir sets the base path for database files.
func WithStorageDir(dir string) Option {
	return func(c *Config) {
		c.StorageDir = dir
	}
}

// WithReadonly opens databases in read-only mode.
func WithReadonly(readonly bool) Option {
	return func(c *Config) {
		c.Readonly = readonly
	}
}

// WithVerbose enables statement-level logging.
func WithVerbose(verbose bool) Option {
	return func(c *Config) {
		c.Verbose = verbose
	}
}

// WithTimeout sets the busy timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithLogger routes statement logs to a custom slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
