package exec

import (
	"context"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// RunnerContext carries the per-call execution state: the optional input
// row (request mode) and the debug flag. It is created and discarded
// within one session Run call.
type RunnerContext struct {
	Row    codec.Row
	HasRow bool
	Debug  bool
}

// NewBatchContext creates an execution context with no input row.
func NewBatchContext(debug bool) *RunnerContext {
	return &RunnerContext{Debug: debug}
}

// NewRequestContext creates an execution context wrapping one input row.
func NewRequestContext(row codec.Row, debug bool) *RunnerContext {
	return &RunnerContext{Row: row, HasRow: true, Debug: debug}
}

// Runner is one node of the executable plan tree.
type Runner interface {
	Run(ctx context.Context, rc *RunnerContext) (Handler, error)
}

// asTable normalizes an upstream result into table shape for row-at-a-time
// operators. A row result becomes a one-row table; a partition is invalid
// here.
func asTable(h Handler) (TableHandler, error) {
	switch v := h.(type) {
	case TableHandler:
		return v, nil
	case RowHandler:
		t := NewMemTable(v.Schema())
		t.Append(v.Value())
		return t, nil
	case PartitionHandler:
		return nil, base.New(base.CodeInvalidOutputShape, "partition input is invalid here")
	default:
		return nil, base.Errorf(base.CodeInvalidOutputShape, "unexpected handler kind %s", h.Kind())
	}
}
