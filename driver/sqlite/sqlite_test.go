package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/query/sqlgen"
	"github.com/quarrydb/quarry/schema"
)

func newTestConn(t *testing.T) *Conn {
	t.Helper()
	c := New(Config{StorageDir: t.TempDir()})
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Disconnect(context.Background()) })
	return c
}

func usersSchema() *schema.Table {
	return schema.NewTable().
		Column("id", schema.Column{Type: schema.Increments}).
		Column("age", schema.Column{Type: schema.Integer}).
		Column("name", schema.Column{Type: schema.Text, Unique: true})
}

func seedUsers(t *testing.T, c *Conn) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))
	for _, u := range []map[string]any{
		{"name": "a", "age": 10},
		{"name": "b", "age": 20},
		{"name": "c", "age": 30},
	} {
		_, err := c.Insert(ctx, "app", "users", u)
		require.NoError(t, err)
	}
}

func TestConnectIsRequired(t *testing.T) {
	c := New(Config{StorageDir: t.TempDir()})
	_, err := c.Count(context.Background(), "app", "users", nil)
	require.Error(t, err)
	assert.True(t, quarry.IsConnClosed(err))
}

func TestDisconnectIsTerminal(t *testing.T) {
	ctx := context.Background()
	c := New(Config{StorageDir: t.TempDir()})
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))
	require.NoError(t, c.Disconnect(ctx))

	// No silent reopen after explicit teardown.
	_, err := c.Count(ctx, "app", "users", nil)
	require.Error(t, err)
	assert.True(t, quarry.IsConnClosed(err))

	err = c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, quarry.IsConnClosed(err))

	// Disconnecting again is harmless.
	require.NoError(t, c.Disconnect(ctx))
}

func TestStorageFileCreatedLazily(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)

	assert.NoFileExists(t, c.Path("lazy"))
	require.NoError(t, c.CreateTable(ctx, "lazy", "items", schema.NewTable().
		Column("id", schema.Column{Type: schema.Increments})))
	assert.FileExists(t, c.Path("lazy"))
}

func TestDDLIdempotence(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)

	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))

	exists, err := c.TableExists(ctx, "app", "users")
	require.NoError(t, err)
	assert.True(t, exists)

	idx := schema.IndexOptions{Columns: []string{"age"}}
	require.NoError(t, c.CreateIndex(ctx, "app", "users", "users_age", idx))
	require.NoError(t, c.CreateIndex(ctx, "app", "users", "users_age", idx))
	require.NoError(t, c.DropIndex(ctx, "app", "users", "users_age"))
	require.NoError(t, c.DropIndex(ctx, "app", "users", "users_age"))

	require.NoError(t, c.DropTable(ctx, "app", "users"))
	require.NoError(t, c.DropTable(ctx, "app", "users"))

	exists, err = c.TableExists(ctx, "app", "users")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedeclareExistingTableIsNoOp(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))

	altered := schema.NewTable().
		Column("id", schema.Column{Type: schema.Increments}).
		Column("nickname", schema.Column{Type: schema.Text})
	require.NoError(t, c.CreateTable(ctx, "app", "users", altered))

	// The original shape still accepts inserts; the redeclared one never
	// took effect.
	_, err := c.Insert(ctx, "app", "users", map[string]any{"name": "a", "age": 1})
	require.NoError(t, err)
}

func TestInsertReturnsStoredRecord(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)

	tbl := schema.NewTable().
		Column("id", schema.Column{Type: schema.Increments}).
		Column("age", schema.Column{Type: schema.Integer, Default: 18}).
		Column("name", schema.Column{Type: schema.Text})
	require.NoError(t, c.CreateTable(ctx, "app", "users", tbl))

	rec, err := c.Insert(ctx, "app", "users", map[string]any{"name": "frank"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec["id"])
	assert.Equal(t, "frank", rec["name"])
	// The engine-applied default is reflected, not the caller's input.
	assert.Equal(t, int64(18), rec["age"])
}

func TestFilterCorrectness(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))
	for i, age := range []int{10, 18, 30, 65, 70} {
		_, err := c.Insert(ctx, "app", "users", map[string]any{"name": string(rune('a' + i)), "age": age})
		require.NoError(t, err)
	}

	rows, err := c.FindAll(ctx, "app", "users", sqlgen.Query{
		Where:   sqlgen.Where{"age": sqlgen.Ops().Gte(18).Lt(65)},
		OrderBy: []sqlgen.OrderBy{{Column: "age"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(18), rows[0]["age"])
	assert.Equal(t, int64(30), rows[1]["age"])
}

func TestOrderingAndTiebreak(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))
	for _, u := range []map[string]any{
		{"name": "x", "age": 30},
		{"name": "y", "age": 10},
		{"name": "z", "age": 20},
		{"name": "w", "age": 20},
	} {
		_, err := c.Insert(ctx, "app", "users", u)
		require.NoError(t, err)
	}

	rows, err := c.FindAll(ctx, "app", "users", sqlgen.Query{
		OrderBy: []sqlgen.OrderBy{{Column: "age"}, {Column: "name"}},
	})
	require.NoError(t, err)
	ages := make([]int64, len(rows))
	for i, r := range rows {
		ages[i] = r["age"].(int64)
	}
	assert.Equal(t, []int64{10, 20, 20, 30}, ages)
	assert.Equal(t, "w", rows[1]["name"])
	assert.Equal(t, "z", rows[2]["name"])
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	require.NoError(t, c.CreateTable(ctx, "app", "users", usersSchema()))
	for i := 0; i < 5; i++ {
		_, err := c.Insert(ctx, "app", "users", map[string]any{"name": string(rune('a' + i)), "age": i})
		require.NoError(t, err)
	}

	rows, err := c.FindAll(ctx, "app", "users", sqlgen.Query{
		OrderBy: []sqlgen.OrderBy{{Column: "age"}},
		Limit:   2,
		Offset:  1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["age"])
	assert.Equal(t, int64(2), rows[1]["age"])
}

func TestFindOneReturnsNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	rec, err := c.FindOne(ctx, "app", "users", sqlgen.Query{
		Where: sqlgen.Where{"name": sqlgen.Eq("zzz")},
	})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUpdateReturnsAffectedCount(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	n, err := c.Update(ctx, "app", "users", map[string]any{"age": 99}, sqlgen.Where{"age": sqlgen.Ops().Gte(20)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.Delete(ctx, "app", "users", sqlgen.Where{"age": sqlgen.Eq(99)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUniqueConstraintIsClassified(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	_, err := c.Insert(ctx, "app", "users", map[string]any{"name": "a", "age": 50})
	require.Error(t, err)
	assert.True(t, quarry.IsConstraint(err))
	assert.Contains(t, err.Error(), "users")
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	sum, err := c.Aggregate(ctx, "app", "users", sqlgen.AggSum, "age", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(60), sum)

	avg, err := c.Aggregate(ctx, "app", "users", sqlgen.AggAvg, "age", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(20), avg)

	min, err := c.Aggregate(ctx, "app", "users", sqlgen.AggMin, "age", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(10), min)

	max, err := c.Aggregate(ctx, "app", "users", sqlgen.AggMax, "age", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(30), max)
}

func TestAggregateOverEmptySetIsZero(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)
	seedUsers(t, c)

	none := sqlgen.Where{"age": sqlgen.Ops().Gt(1000)}
	for _, op := range []sqlgen.AggregateOp{sqlgen.AggSum, sqlgen.AggAvg, sqlgen.AggMin, sqlgen.AggMax} {
		v, err := c.Aggregate(ctx, "app", "users", op, "age", none)
		require.NoError(t, err, "aggregate %s", op)
		assert.Equal(t, float64(0), v, "aggregate %s", op)
	}
}

func TestSeparateLogicalDatabases(t *testing.T) {
	ctx := context.Background()
	c := newTestConn(t)

	require.NoError(t, c.CreateTable(ctx, "one", "items", usersSchema()))
	require.NoError(t, c.CreateTable(ctx, "two", "items", usersSchema()))

	_, err := c.Insert(ctx, "one", "items", map[string]any{"name": "only-in-one", "age": 1})
	require.NoError(t, err)

	n, err := c.Count(ctx, "two", "items", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.FileExists(t, c.Path("one"))
	assert.FileExists(t, c.Path("two"))
}
