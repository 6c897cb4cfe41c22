// Package sqlite is the synchronous storage adapter: one SQLite file per
// logical database under a storage directory, executed on the caller's
// goroutine through mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/driver"
	"github.com/quarrydb/quarry/internal/debug"
	"github.com/quarrydb/quarry/schema"
)

// FileExtension is the suffix of every logical database file.
const FileExtension = ".sqlite"

// Config configures the adapter. The zero value is not usable; StorageDir is
// required.
type Config struct {
	// StorageDir is the base path holding one <name>.sqlite file per logical
	// database. Files are created on first reference, not at Connect.
	StorageDir string

	// Readonly opens every database file in read-only mode.
	Readonly bool

	// Verbose enables statement-level logging.
	Verbose bool

	// Timeout is the SQLite busy timeout applied to every handle.
	Timeout time.Duration
}

type state int

const (
	stateNew state = iota
	stateOpen
	stateClosed
)

// Conn implements driver.Driver. Every logical database handle is owned
// exclusively by the Conn; table facades never touch them directly.
type Conn struct {
	cfg Config

	mu      sync.Mutex
	st      state
	handles map[string]*sql.DB
	schemas map[string]*schema.Table
}

var _ driver.Driver = (*Conn)(nil)

// New builds an unconnected adapter. No I/O happens here; Connect creates
// the storage directory and first references create the files.
func New(cfg Config) *Conn {
	return &Conn{
		cfg:     cfg,
		handles: make(map[string]*sql.DB),
		schemas: make(map[string]*schema.Table),
	}
}

// Info reports the adapter name and the linked SQLite library version.
func (c *Conn) Info() driver.Info {
	version, _, _ := sqlite3.Version()
	return driver.Info{Name: "sqlite", Version: version}
}

// Connect validates the configuration and creates the storage directory.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.st {
	case stateClosed:
		return &quarry.Error{Kind: quarry.ErrConnClosed, Op: "connect", Message: "driver already disconnected"}
	case stateOpen:
		return nil
	}
	if c.cfg.StorageDir == "" {
		return quarry.Validationf("storage directory is required")
	}
	if err := os.MkdirAll(c.cfg.StorageDir, 0o755); err != nil {
		return &quarry.Error{Op: "connect", Message: "creating storage directory", Cause: err}
	}
	debug.Init(c.cfg.Verbose)
	c.st = stateOpen
	debug.Event("connected", "storageDir", c.cfg.StorageDir, "readonly", c.cfg.Readonly)
	return nil
}

// Disconnect closes every open logical database. The adapter is terminal
// afterwards: any further reference fails with a connection error. It never
// silently reopens, since that would leak handles past an explicit teardown.
func (c *Conn) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st == stateClosed {
		return nil
	}
	var firstErr error
	for name, db := range c.handles {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.handles, name)
		debug.Event("closed", "db", name)
	}
	c.st = stateClosed
	return firstErr
}

// Path returns the file backing the named logical database.
func (c *Conn) Path(db string) string {
	return filepath.Join(c.cfg.StorageDir, db+FileExtension)
}

// handle returns the open *sql.DB for the logical database, opening it
// lazily on first reference.
func (c *Conn) handle(db string) (*sql.DB, error) {
	if err := schema.CheckIdentifier(db); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.st {
	case stateNew:
		return nil, &quarry.Error{Kind: quarry.ErrConnClosed, Op: "open", Database: db, Message: "driver not connected"}
	case stateClosed:
		return nil, &quarry.Error{Kind: quarry.ErrConnClosed, Op: "open", Database: db, Message: "driver disconnected"}
	}

	if h, ok := c.handles[db]; ok {
		return h, nil
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", c.Path(db))
	if c.cfg.Timeout > 0 {
		dsn += fmt.Sprintf("&_busy_timeout=%d", c.cfg.Timeout.Milliseconds())
	}
	if c.cfg.Readonly {
		dsn += "&mode=ro"
	}

	h, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, &quarry.Error{Op: "open", Database: db, Cause: err}
	}
	// One connection per file keeps writes serialized and transactions bound
	// to a single underlying connection.
	h.SetMaxOpenConns(1)

	c.handles[db] = h
	debug.Event("opened", "db", db, "path", c.Path(db))
	return h, nil
}

// schemaFor returns the registered schema for (db, table), or nil.
func (c *Conn) schemaFor(db, table string) *schema.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schemas[db+"."+table]
}

// TableExists probes sqlite_master for the table.
func (c *Conn) TableExists(ctx context.Context, db, table string) (bool, error) {
	if err := schema.CheckIdentifier(table); err != nil {
		return false, err
	}
	q, err := c.target(ctx, db)
	if err != nil {
		return false, err
	}
	var name string
	err = q.QueryRowContext(ctx, schema.TableExistsSQL, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, c.wrap("tableExists", db, table, err)
	}
	return true, nil
}

// CreateTable creates the table if absent. Re-declaring an existing table is
// a no-op; the first registered schema stays authoritative.
func (c *Conn) CreateTable(ctx context.Context, db, table string, tbl *schema.Table) error {
	ddl, err := schema.CreateTableSQL(table, tbl)
	if err != nil {
		return err
	}
	q, err := c.target(ctx, db)
	if err != nil {
		return err
	}
	debug.Statement(db, ddl, nil)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return c.wrap("createTable", db, table, err)
	}

	c.mu.Lock()
	key := db + "." + table
	if _, ok := c.schemas[key]; !ok {
		c.schemas[key] = tbl
	}
	c.mu.Unlock()
	return nil
}

// DropTable drops the table if present and releases its registered schema,
// so the name can be re-created with a different shape.
func (c *Conn) DropTable(ctx context.Context, db, table string) error {
	ddl, err := schema.DropTableSQL(table)
	if err != nil {
		return err
	}
	q, err := c.target(ctx, db)
	if err != nil {
		return err
	}
	debug.Statement(db, ddl, nil)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return c.wrap("dropTable", db, table, err)
	}
	c.mu.Lock()
	delete(c.schemas, db+"."+table)
	c.mu.Unlock()
	return nil
}

// CreateIndex creates the index if absent; calling it twice is a no-op.
func (c *Conn) CreateIndex(ctx context.Context, db, table, name string, opts schema.IndexOptions) error {
	ddl, err := schema.CreateIndexSQL(table, name, opts)
	if err != nil {
		return err
	}
	q, err := c.target(ctx, db)
	if err != nil {
		return err
	}
	debug.Statement(db, ddl, nil)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return c.wrap("createIndex", db, table, err)
	}
	return nil
}

// DropIndex drops the index if present. SQLite index names are global to a
// database file; the table argument is validated but not consulted.
func (c *Conn) DropIndex(ctx context.Context, db, table, name string) error {
	if err := schema.CheckIdentifier(table); err != nil {
		return err
	}
	ddl, err := schema.DropIndexSQL(name)
	if err != nil {
		return err
	}
	q, err := c.target(ctx, db)
	if err != nil {
		return err
	}
	debug.Statement(db, ddl, nil)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return c.wrap("dropIndex", db, table, err)
	}
	return nil
}

// wrap attaches operation context and classifies storage-engine errors.
// Constraint violations keep their identity; nothing is re-interpreted.
func (c *Conn) wrap(op, db, table string, err error) error {
	if err == nil {
		return nil
	}
	kind := error(nil)
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		kind = quarry.ErrConstraint
	}
	return &quarry.Error{Kind: kind, Op: op, Database: db, Table: table, Cause: err}
}
