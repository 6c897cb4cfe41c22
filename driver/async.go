package driver

import (
	"context"
	"sync"

	"github.com/quarrydb/quarry/query/sqlgen"
	"github.com/quarrydb/quarry/schema"
)

// Deferred is the result wrapper of the asynchronous adapter. Dispatching a
// call returns immediately; the caller observes the outcome with Await.
type Deferred[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Await blocks until the dispatched call has finished and returns its result.
func (d *Deferred[T]) Await() (T, error) {
	<-d.done
	return d.val, d.err
}

// Async wraps a Driver so every call is dispatched to a single worker
// goroutine and returns a Deferred the caller must await. One adapter
// instance is either direct or deferred, never both: callers pick the
// execution model once, at construction. The single worker preserves
// dispatch order; the contract itself adds no cross-call ordering guarantee
// beyond that.
type Async struct {
	d    Driver
	jobs chan func()

	closeOnce sync.Once
}

// NewAsync starts the worker and returns the adapter. Close releases the
// worker; the wrapped driver's Disconnect is still the caller's job.
func NewAsync(d Driver) *Async {
	a := &Async{d: d, jobs: make(chan func(), 16)}
	go func() {
		for job := range a.jobs {
			job()
		}
	}()
	return a
}

// Close stops the worker goroutine. Calls dispatched before Close still run.
func (a *Async) Close() {
	a.closeOnce.Do(func() { close(a.jobs) })
}

// Info reports the wrapped driver's metadata.
func (a *Async) Info() Info {
	return a.d.Info()
}

func dispatch[T any](a *Async, fn func() (T, error)) *Deferred[T] {
	d := &Deferred[T]{done: make(chan struct{})}
	a.jobs <- func() {
		d.val, d.err = fn()
		close(d.done)
	}
	return d
}

func dispatchErr(a *Async, fn func() error) *Deferred[struct{}] {
	return dispatch(a, func() (struct{}, error) { return struct{}{}, fn() })
}

func (a *Async) Connect(ctx context.Context) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.Connect(ctx) })
}

func (a *Async) Disconnect(ctx context.Context) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.Disconnect(ctx) })
}

func (a *Async) TableExists(ctx context.Context, db, table string) *Deferred[bool] {
	return dispatch(a, func() (bool, error) { return a.d.TableExists(ctx, db, table) })
}

func (a *Async) CreateTable(ctx context.Context, db, table string, tbl *schema.Table) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.CreateTable(ctx, db, table, tbl) })
}

func (a *Async) DropTable(ctx context.Context, db, table string) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.DropTable(ctx, db, table) })
}

func (a *Async) CreateIndex(ctx context.Context, db, table, name string, opts schema.IndexOptions) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.CreateIndex(ctx, db, table, name, opts) })
}

func (a *Async) DropIndex(ctx context.Context, db, table, name string) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.DropIndex(ctx, db, table, name) })
}

func (a *Async) FindOne(ctx context.Context, db, table string, q sqlgen.Query) *Deferred[Record] {
	return dispatch(a, func() (Record, error) { return a.d.FindOne(ctx, db, table, q) })
}

func (a *Async) FindAll(ctx context.Context, db, table string, q sqlgen.Query) *Deferred[[]Record] {
	return dispatch(a, func() ([]Record, error) { return a.d.FindAll(ctx, db, table, q) })
}

func (a *Async) Count(ctx context.Context, db, table string, where sqlgen.Where) *Deferred[int64] {
	return dispatch(a, func() (int64, error) { return a.d.Count(ctx, db, table, where) })
}

func (a *Async) Insert(ctx context.Context, db, table string, data map[string]any) *Deferred[Record] {
	return dispatch(a, func() (Record, error) { return a.d.Insert(ctx, db, table, data) })
}

func (a *Async) BulkInsert(ctx context.Context, db, table string, rows []map[string]any) *Deferred[[]Record] {
	return dispatch(a, func() ([]Record, error) { return a.d.BulkInsert(ctx, db, table, rows) })
}

func (a *Async) Update(ctx context.Context, db, table string, data map[string]any, where sqlgen.Where) *Deferred[int64] {
	return dispatch(a, func() (int64, error) { return a.d.Update(ctx, db, table, data, where) })
}

func (a *Async) BulkUpdate(ctx context.Context, db, table string, ops []UpdateOp) *Deferred[int64] {
	return dispatch(a, func() (int64, error) { return a.d.BulkUpdate(ctx, db, table, ops) })
}

func (a *Async) Delete(ctx context.Context, db, table string, where sqlgen.Where) *Deferred[int64] {
	return dispatch(a, func() (int64, error) { return a.d.Delete(ctx, db, table, where) })
}

func (a *Async) Aggregate(ctx context.Context, db, table string, op sqlgen.AggregateOp, field string, where sqlgen.Where) *Deferred[float64] {
	return dispatch(a, func() (float64, error) { return a.d.Aggregate(ctx, db, table, op, field, where) })
}

// Transaction dispatches the whole unit of work to the worker. The unit runs
// sequentially on the worker goroutine; its sub-operations must go through
// the driver handle given to fn directly, not through this adapter, or they
// would deadlock waiting for the busy worker.
func (a *Async) Transaction(ctx context.Context, fn func(ctx context.Context) error) *Deferred[struct{}] {
	return dispatchErr(a, func() error { return a.d.Transaction(ctx, fn) })
}
