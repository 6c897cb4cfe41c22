package commands

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/schema"
)

func writeSchemaFile(t *testing.T, fs afero.Fs, content string) string {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "users.yaml", []byte(content), 0o644))
	return "users.yaml"
}

func TestLoadSchemaFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeSchemaFile(t, fs, `
columns:
  - name: id
    type: increments
  - name: name
    type: text
    unique: true
    notNull: true
  - name: age
    type: integer
    default: 18
`)

	tbl, err := LoadSchemaFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "age"}, tbl.Columns())
	assert.Equal(t, schema.Increments, tbl.Type("id"))
	assert.Equal(t, "id", tbl.PrimaryKey())

	name, ok := tbl.Get("name")
	require.True(t, ok)
	assert.True(t, name.Unique)
	assert.True(t, name.NotNull)

	age, ok := tbl.Get("age")
	require.True(t, ok)
	assert.Equal(t, 18, age.Default)
}

func TestLoadSchemaFileMissing(t *testing.T) {
	_, err := LoadSchemaFile(afero.NewMemMapFs(), "absent.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading schema file")
}

func TestLoadSchemaFileEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeSchemaFile(t, fs, "columns: []\n")
	_, err := LoadSchemaFile(fs, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no columns")
}

func TestLoadSchemaFileRejectsUnknownType(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := writeSchemaFile(t, fs, `
columns:
  - name: payload
    type: varchar
`)
	_, err := LoadSchemaFile(fs, path)
	require.Error(t, err)
}
