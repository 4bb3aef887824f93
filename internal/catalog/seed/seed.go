// Package seed loads declarative catalog definitions from YAML files:
// databases, tables, column types, and literal rows. Seeds back demos and
// tests that do not want a live database.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// File is the top-level seed document.
type File struct {
	Databases []DatabaseSpec `yaml:"databases"`
}

// DatabaseSpec declares one database and its tables.
type DatabaseSpec struct {
	Name   string      `yaml:"name"`
	Tables []TableSpec `yaml:"tables"`
}

// TableSpec declares one table: columns plus literal rows.
type TableSpec struct {
	Name    string       `yaml:"name"`
	Columns []ColumnSpec `yaml:"columns"`
	Rows    [][]any      `yaml:"rows"`
}

// ColumnSpec declares one column.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Load reads and parses a seed file into an in-memory catalog.
func Load(path string) (*catalog.MemCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse builds an in-memory catalog from seed YAML.
func Parse(data []byte) (*catalog.MemCatalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid seed yaml: %w", err)
	}
	cat := catalog.NewMemCatalog()
	for _, db := range f.Databases {
		if db.Name == "" {
			return nil, fmt.Errorf("database with no name")
		}
		cat.AddDatabase(db.Name)
		for _, spec := range db.Tables {
			table, err := buildTable(spec)
			if err != nil {
				return nil, fmt.Errorf("table %s.%s: %w", db.Name, spec.Name, err)
			}
			if err := cat.AddTable(db.Name, table); err != nil {
				return nil, err
			}
		}
	}
	return cat, nil
}

func buildTable(spec TableSpec) (*catalog.Table, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("table with no name")
	}
	cols := make([]codec.Column, len(spec.Columns))
	for i, c := range spec.Columns {
		typ, err := codec.ParseType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		cols[i] = codec.Column{Name: c.Name, Type: typ}
	}
	schema := codec.NewSchema(cols...)

	rows := make([]codec.Row, len(spec.Rows))
	for i, raw := range spec.Rows {
		if len(raw) != schema.Len() {
			return nil, fmt.Errorf("row %d has %d values, schema has %d", i, len(raw), schema.Len())
		}
		row := make(codec.Row, len(raw))
		for j, v := range raw {
			nv, err := codec.Normalize(v)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, cols[j].Name, err)
			}
			row[j], err = coerce(nv, cols[j].Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, cols[j].Name, err)
			}
		}
		rows[i] = row
	}

	return &catalog.Table{Name: spec.Name, Schema: schema, Rows: rows}, nil
}

// coerce aligns a YAML scalar with the declared column type. YAML decodes
// whole numbers as ints even for float columns.
func coerce(v any, typ codec.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch typ {
	case codec.TypeFloat:
		if f, ok := codec.AsFloat64(v); ok {
			return f, nil
		}
	case codec.TypeInt:
		if i, ok := v.(int64); ok {
			return i, nil
		}
	case codec.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case codec.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	if codec.TypeOf(v) == typ {
		return v, nil
	}
	return nil, fmt.Errorf("cannot store %T in %s column", v, typ)
}
