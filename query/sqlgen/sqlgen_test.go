package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quarry "github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/schema"
)

func usersSchema() *schema.Table {
	return schema.NewTable().
		Column("id", schema.Column{Type: schema.Increments}).
		Column("age", schema.Column{Type: schema.Integer}).
		Column("name", schema.Column{Type: schema.Text, Unique: true}).
		Column("active", schema.Column{Type: schema.Boolean})
}

func TestBuildSelectDefaults(t *testing.T) {
	stmt, err := BuildSelect("users", usersSchema(), Query{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users"`, stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestBuildSelectFull(t *testing.T) {
	stmt, err := BuildSelect("users", usersSchema(), Query{
		Where:   Where{"age": Ops().Gte(18)},
		OrderBy: []OrderBy{{Column: "age", Direction: "desc"}, {Column: "id"}},
		Limit:   2,
		Offset:  1,
		Select:  []string{"name", "age"},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name", "age" FROM "users" WHERE "age" >= ? ORDER BY "age" DESC, "id" ASC LIMIT ? OFFSET ?`, stmt.SQL)
	assert.Equal(t, []any{18, 2, 1}, stmt.Args)
}

func TestBuildSelectOffsetWithoutLimit(t *testing.T) {
	stmt, err := BuildSelect("users", nil, Query{Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" LIMIT -1 OFFSET ?`, stmt.SQL)
	assert.Equal(t, []any{3}, stmt.Args)
}

func TestBuildSelectBadDirection(t *testing.T) {
	_, err := BuildSelect("users", nil, Query{OrderBy: []OrderBy{{Column: "age", Direction: "sideways"}}})
	require.Error(t, err)
	assert.True(t, quarry.IsValidation(err))
}

func TestBuildInsertSerializesBySchema(t *testing.T) {
	stmt, err := BuildInsert("users", usersSchema(), map[string]any{
		"name":   "frank",
		"age":    30,
		"active": true,
	})
	require.NoError(t, err)
	// Columns in sorted order; boolean stored as 1.
	assert.Equal(t, `INSERT INTO "users" ("active", "age", "name") VALUES (?, ?, ?)`, stmt.SQL)
	assert.Equal(t, []any{int64(1), 30, "frank"}, stmt.Args)
}

func TestBuildInsertEmptyData(t *testing.T) {
	_, err := BuildInsert("users", nil, map[string]any{})
	require.Error(t, err)
	assert.True(t, quarry.IsValidation(err))
}

func TestBuildUpdate(t *testing.T) {
	stmt, err := BuildUpdate("users", usersSchema(), map[string]any{"age": 31}, Where{"name": Eq("frank")})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "users" SET "age" = ? WHERE "name" = ?`, stmt.SQL)
	assert.Equal(t, []any{31, "frank"}, stmt.Args)
}

func TestBuildDeleteWithoutWhereDeletesAll(t *testing.T) {
	stmt, err := BuildDelete("users", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "users"`, stmt.SQL)
	assert.Empty(t, stmt.Args)
}

func TestBuildCount(t *testing.T) {
	stmt, err := BuildCount("users", usersSchema(), Where{"age": Ops().Lt(65)})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "age" < ?`, stmt.SQL)
	assert.Equal(t, []any{65}, stmt.Args)
}

func TestBuildAggregateCoalescesToZero(t *testing.T) {
	stmt, err := BuildAggregate("users", usersSchema(), AggSum, "age", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COALESCE(SUM("age"), 0) FROM "users"`, stmt.SQL)
}

func TestBuildAggregateCountStar(t *testing.T) {
	stmt, err := BuildAggregate("users", nil, AggCount, "*", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COALESCE(COUNT(*), 0) FROM "users"`, stmt.SQL)
}

func TestBuildAggregateUnknownOp(t *testing.T) {
	_, err := BuildAggregate("users", nil, AggregateOp("median"), "age", nil)
	require.Error(t, err)
	assert.True(t, quarry.IsValidation(err))
}

func TestUnsafeTableName(t *testing.T) {
	_, err := BuildSelect("users; --", nil, Query{})
	require.Error(t, err)
	assert.True(t, quarry.IsValidation(err))
}
