package commands

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/quarrydb/quarry/schema"
)

// schemaFile is the YAML shape accepted by create-table:
//
//	columns:
//	  - name: id
//	    type: increments
//	  - name: name
//	    type: text
//	    unique: true
//	    notNull: true
//	  - name: age
//	    type: integer
//	    default: 0
type schemaFile struct {
	Columns []schemaFileColumn `yaml:"columns"`
}

type schemaFileColumn struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	PrimaryKey    bool   `yaml:"primaryKey"`
	AutoIncrement bool   `yaml:"autoIncrement"`
	NotNull       bool   `yaml:"notNull"`
	Unique        bool   `yaml:"unique"`
	Default       any    `yaml:"default"`
	References    string `yaml:"references"`
}

// LoadSchemaFile reads a table schema from a YAML file.
func LoadSchemaFile(fs afero.Fs, path string) (*schema.Table, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}
	if len(file.Columns) == 0 {
		return nil, fmt.Errorf("schema file %s declares no columns", path)
	}

	tbl := schema.NewTable()
	for _, col := range file.Columns {
		tbl.Column(col.Name, schema.Column{
			Type:          schema.ColumnType(col.Type),
			PrimaryKey:    col.PrimaryKey,
			AutoIncrement: col.AutoIncrement,
			NotNull:       col.NotNull,
			Unique:        col.Unique,
			Default:       col.Default,
			References:    col.References,
		})
	}
	if err := tbl.Validate(); err != nil {
		return nil, err
	}
	return tbl, nil
}
