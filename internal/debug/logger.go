// Package debug provides statement-level logging on log/slog, switched on by
// the client's verbose option.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	enabled bool
)

// Init switches statement logging on or off. When enabled, logs go to
// stderr at debug level; when disabled they are discarded.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = enable
	if enable {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Enabled reports whether statement logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetLogger installs a custom logger, replacing the stderr default.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	enabled = true
}

// Statement logs one executed statement with its bound arguments.
func Statement(db, sql string, args []any) {
	mu.RLock()
	l, on := logger, enabled
	mu.RUnlock()
	if !on {
		return
	}
	l.Debug("statement", "db", db, "sql", sql, "args", args)
}

// Event logs a lifecycle event such as open, close, begin, commit, rollback.
func Event(msg string, args ...any) {
	mu.RLock()
	l, on := logger, enabled
	mu.RUnlock()
	if !on {
		return
	}
	l.Debug(msg, args...)
}
