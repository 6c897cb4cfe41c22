// Package client is the public entry point: it opens a storage directory,
// hands out database and table facades, and delegates every operation to the
// driver capability contract.
package client

import (
	"context"

	"github.com/quarrydb/quarry/driver"
	"github.com/quarrydb/quarry/driver/sqlite"
	"github.com/quarrydb/quarry/internal/debug"
)

// Client owns the driver and its connection registry. Table facades hold
// only a reference back to the client; they never touch storage handles.
type Client struct {
	drv driver.Driver
}

// Open connects a client over the file-backed SQLite adapter. Logical
// database files are created lazily on first reference, not here.
func Open(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	drv := sqlite.New(sqlite.Config{
		StorageDir: cfg.StorageDir,
		Readonly:   cfg.Readonly,
		Verbose:    cfg.Verbose,
		Timeout:    cfg.Timeout,
	})
	if err := drv.Connect(context.Background()); err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		debug.SetLogger(cfg.Logger)
	}
	return &Client{drv: drv}, nil
}

// NewWithDriver wraps an already-connected driver. Useful for tests and for
// alternative adapters.
func NewWithDriver(drv driver.Driver) *Client {
	return &Client{drv: drv}
}

// Driver exposes the underlying capability contract.
func (c *Client) Driver() driver.Driver {
	return c.drv
}

// Info reports driver metadata for diagnostics.
func (c *Client) Info() driver.Info {
	return c.drv.Info()
}

// Close disconnects every logical database. The client is terminal
// afterwards; operations fail with a connection error.
func (c *Client) Close(ctx context.Context) error {
	return c.drv.Disconnect(ctx)
}

// Transaction runs fn as one atomic unit of work. All mutations issued
// through the context fn receives commit together, or roll back together if
// fn fails. Nested calls join the active unit. Atomicity covers only the
// first logical database touched inside the unit; see driver.Driver.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.drv.Transaction(ctx, fn)
}

// Database returns a facade for the named logical database. No I/O happens
// until the first operation.
func (c *Client) Database(name string) *Database {
	return &Database{client: c, name: name}
}

// Database is a named group of tables bound to one storage file.
type Database struct {
	client *Client
	name   string
}

// Name returns the logical database name.
func (d *Database) Name() string {
	return d.name
}
