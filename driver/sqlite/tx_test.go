package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/driver"
	"github.com/quarrydb/quarry/query/sqlgen"
)

func TestTransactionCommits(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	err := c.Transaction(ctx, func(ctx context.Context) error {
		if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "d", "age": 40}); err != nil {
			return err
		}
		_, err := c.Insert(ctx, "app", "users", map[string]any{"name": "e", "age": 50})
		return err
	})
	require.NoError(t, err)

	n, err := c.Count(ctx, "app", "users", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	boom := errors.New("boom")
	err := c.Transaction(ctx, func(ctx context.Context) error {
		if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "d", "age": 40}); err != nil {
			return err
		}
		if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "e", "age": 50}); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, quarry.IsTxAborted(err))
	assert.ErrorIs(t, err, boom)

	// Indistinguishable from "never started" at the data level.
	n, err := c.Count(ctx, "app", "users", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	assert.Panics(t, func() {
		_ = c.Transaction(ctx, func(ctx context.Context) error {
			_, _ = c.Insert(ctx, "app", "users", map[string]any{"name": "d", "age": 40})
			panic("unit of work exploded")
		})
	})

	n, err := c.Count(ctx, "app", "users", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestNestedTransactionReusesUnit(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	boom := errors.New("inner failure")
	err := c.Transaction(ctx, func(ctx context.Context) error {
		if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "d", "age": 40}); err != nil {
			return err
		}
		// The inner call joins the active unit; its failure aborts the whole.
		return c.Transaction(ctx, func(ctx context.Context) error {
			if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "e", "age": 50}); err != nil {
				return err
			}
			return boom
		})
	})
	require.Error(t, err)
	assert.True(t, quarry.IsTxAborted(err))

	n, err := c.Count(ctx, "app", "users", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestReadsInsideTransactionSeeUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	err := c.Transaction(ctx, func(ctx context.Context) error {
		if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "d", "age": 40}); err != nil {
			return err
		}
		n, err := c.Count(ctx, "app", "users", nil)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(4), n)
		return nil
	})
	require.NoError(t, err)
}

func TestBulkInsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))

	// The middle record violates the unique name constraint.
	_, err := c.Insert(ctx, "app", "users", map[string]any{"name": "dup", "age": 1})
	require.NoError(t, err)

	_, err = c.BulkInsert(ctx, "app", "users", []map[string]any{
		{"name": "n1", "age": 10},
		{"name": "dup", "age": 20},
		{"name": "n3", "age": 30},
	})
	require.Error(t, err)
	assert.True(t, quarry.IsTxAborted(err))
	assert.True(t, quarry.IsConstraint(err))

	// Zero rows of the failed batch are present.
	n, err := c.Count(ctx, "app", "users", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBulkInsertSuccessReturnsStoredRecords(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))

	records, err := c.BulkInsert(ctx, "app", "users", []map[string]any{
		{"name": "n1", "age": 10},
		{"name": "n2", "age": 20},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0]["id"])
	assert.Equal(t, int64(2), records[1]["id"])
}

func TestBulkUpdateSumsAffectedCounts(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	n, err := c.BulkUpdate(ctx, "app", "users", []driver.UpdateOp{
		{Where: sqlgen.Where{"name": sqlgen.Eq("a")}, Data: map[string]any{"age": 11}},
		{Where: sqlgen.Where{"name": sqlgen.Eq("zzz")}, Data: map[string]any{"age": 99}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	rows, err := c.FindAll(ctx, "app", "users", sqlgen.Query{
		Where:   sqlgen.Where{"age": sqlgen.Ops().Gte(15)},
		OrderBy: []sqlgen.OrderBy{{Column: "age", Direction: "DESC"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[0]["name"])
	assert.Equal(t, "b", rows[1]["name"])

	n, err := c.BulkUpdate(ctx, "app", "users", []driver.UpdateOp{
		{Where: sqlgen.Where{"name": sqlgen.Eq("a")}, Data: map[string]any{"age": 11}},
		{Where: sqlgen.Where{"name": sqlgen.Eq("zzz")}, Data: map[string]any{"age": 99}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	err = c.Transaction(ctx, func(ctx context.Context) error {
		if _, err := c.Insert(ctx, "app", "users", map[string]any{"name": "d", "age": 40}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	count, err := c.Count(ctx, "app", "users", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
