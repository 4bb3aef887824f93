package exec

import "github.com/leapstack-labs/featsql/pkg/codec"

// RowIterator walks a table result. A nil iterator means zero rows, not an
// error.
type RowIterator interface {
	// Next advances to the next row, reporting whether one exists.
	Next() bool
	// Row returns the current row. Only valid after Next returned true.
	Row() codec.Row
}

// TableHandler is the iterable-rows result shape.
type TableHandler interface {
	Handler
	Schema() codec.Schema
	Iterator() RowIterator
}

// RowHandler is the single-row result shape.
type RowHandler interface {
	Handler
	Schema() codec.Schema
	Value() codec.Row
}

// PartitionHandler is the grouped intermediate result shape.
type PartitionHandler interface {
	Handler
	Schema() codec.Schema
	// Groups returns the partitions in first-seen key order.
	Groups() []Group
}

// Group is one partition: its key values and member rows.
type Group struct {
	Keys codec.Row
	Rows TableHandler
}

// MemTable is an in-memory table result supporting row append. It backs
// table scans and the row-to-table normalization performed by batch
// sessions.
type MemTable struct {
	schema codec.Schema
	rows   []codec.Row
}

// NewMemTable creates an empty in-memory table.
func NewMemTable(schema codec.Schema) *MemTable {
	return &MemTable{schema: schema}
}

// NewMemTableFromRows creates a read-only table view over existing rows
// without copying them.
func NewMemTableFromRows(schema codec.Schema, rows []codec.Row) *MemTable {
	return &MemTable{schema: schema, rows: rows}
}

func (*MemTable) handlerNode() {}

// Kind implements Handler.
func (*MemTable) Kind() HandlerKind { return KindTable }

// Schema implements TableHandler.
func (t *MemTable) Schema() codec.Schema { return t.schema }

// Append adds a row.
func (t *MemTable) Append(row codec.Row) {
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *MemTable) Len() int { return len(t.rows) }

// Iterator implements TableHandler.
func (t *MemTable) Iterator() RowIterator {
	return &memTableIterator{rows: t.rows, idx: -1}
}

type memTableIterator struct {
	rows []codec.Row
	idx  int
}

func (it *memTableIterator) Next() bool {
	if it.idx+1 >= len(it.rows) {
		return false
	}
	it.idx++
	return true
}

func (it *memTableIterator) Row() codec.Row {
	return it.rows[it.idx]
}

// MemRow is the single-row result shape.
type MemRow struct {
	schema codec.Schema
	row    codec.Row
}

// NewMemRow creates a row result.
func NewMemRow(schema codec.Schema, row codec.Row) *MemRow {
	return &MemRow{schema: schema, row: row}
}

func (*MemRow) handlerNode() {}

// Kind implements Handler.
func (*MemRow) Kind() HandlerKind { return KindRow }

// Schema implements RowHandler.
func (r *MemRow) Schema() codec.Schema { return r.schema }

// Value implements RowHandler.
func (r *MemRow) Value() codec.Row { return r.row }

// MemPartition groups rows by key, preserving first-seen key order.
type MemPartition struct {
	schema codec.Schema
	order  []string
	groups map[string]*partitionGroup
}

type partitionGroup struct {
	keys  codec.Row
	table *MemTable
}

// NewMemPartition creates an empty partition result whose member rows have
// the given schema.
func NewMemPartition(schema codec.Schema) *MemPartition {
	return &MemPartition{schema: schema, groups: make(map[string]*partitionGroup)}
}

func (*MemPartition) handlerNode() {}

// Kind implements Handler.
func (*MemPartition) Kind() HandlerKind { return KindPartition }

// Schema implements PartitionHandler.
func (p *MemPartition) Schema() codec.Schema { return p.schema }

// Add appends a row to the partition identified by the encoded key and its
// key values.
func (p *MemPartition) Add(encodedKey string, keys codec.Row, row codec.Row) {
	g, ok := p.groups[encodedKey]
	if !ok {
		g = &partitionGroup{keys: keys, table: NewMemTable(p.schema)}
		p.groups[encodedKey] = g
		p.order = append(p.order, encodedKey)
	}
	g.table.Append(row)
}

// Groups implements PartitionHandler.
func (p *MemPartition) Groups() []Group {
	out := make([]Group, 0, len(p.order))
	for _, k := range p.order {
		g := p.groups[k]
		out = append(out, Group{Keys: g.keys, Rows: g.table})
	}
	return out
}
