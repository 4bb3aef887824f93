// Package codec defines the in-memory row and schema model shared by the
// catalog, compiler, and execution engine. Binary encodings live with the
// storage collaborators, not here.
package codec

import (
	"fmt"
	"strings"
)

// Type identifies the value type of a column.
type Type int

// Column value types supported by the engine.
const (
	TypeNull Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType resolves a type name (as used in seed files and SQL column
// metadata) to a Type. Common SQL spellings are accepted.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool", "boolean":
		return TypeBool, nil
	case "int", "integer", "bigint", "smallint", "int2", "int4", "int8":
		return TypeInt, nil
	case "float", "double", "real", "numeric", "decimal", "float4", "float8":
		return TypeFloat, nil
	case "string", "text", "varchar", "char":
		return TypeString, nil
	default:
		return TypeNull, fmt.Errorf("unknown column type %q", name)
	}
}

// Column describes one column of a schema.
type Column struct {
	Name string
	Type Type
}

// Schema is an ordered list of columns.
type Schema struct {
	Columns []Column
}

// NewSchema builds a schema from columns.
func NewSchema(cols ...Column) Schema {
	return Schema{Columns: cols}
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.Columns) }

// ColumnIndex returns the position of the named column.
func (s Schema) ColumnIndex(name string) (int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s Schema) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Row is one tuple of values, positionally aligned with a Schema.
// Values are nil, bool, int64, float64, or string.
type Row []any

// Clone returns a copy of the row. The values themselves are immutable
// scalars, so a shallow copy suffices.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}
