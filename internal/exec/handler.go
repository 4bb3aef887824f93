// Package exec provides plan execution: the closed result-shape variants
// produced by runners (table, row, partition) and the runner tree that
// executes compiled physical plans.
package exec

import "fmt"

// HandlerKind discriminates the three result shapes of plan execution.
type HandlerKind int

// Result shapes. A partition is only ever legal as an intermediate feeding
// a grouped aggregation, never as a top-level answer.
const (
	KindTable HandlerKind = iota
	KindRow
	KindPartition
)

func (k HandlerKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindRow:
		return "row"
	case KindPartition:
		return "partition"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Handler is the result of executing a plan. The variant set is closed:
// only MemTable, MemRow, and MemPartition implement it, and every
// consumption site switches over the three shape interfaces with an error
// default.
type Handler interface {
	Kind() HandlerKind
	handlerNode()
}
