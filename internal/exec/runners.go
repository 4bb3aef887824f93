package exec

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/codegen"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// TableScanRunner emits every stored row of a table.
type TableScanRunner struct {
	TableName string
	Schema    codec.Schema
	Rows      []codec.Row
}

// Run implements Runner.
func (r *TableScanRunner) Run(_ context.Context, _ *RunnerContext) (Handler, error) {
	return NewMemTableFromRows(r.Schema, r.Rows), nil
}

// RequestScanRunner emits the single input row carried by the execution
// context.
type RequestScanRunner struct {
	Schema codec.Schema
}

// Run implements Runner.
func (r *RequestScanRunner) Run(_ context.Context, rc *RunnerContext) (Handler, error) {
	if !rc.HasRow {
		return nil, base.New(base.CodeRunError, "request plan executed without an input row")
	}
	if len(rc.Row) != r.Schema.Len() {
		return nil, base.Errorf(base.CodeRunError,
			"input row has %d values, request schema has %d", len(rc.Row), r.Schema.Len())
	}
	t := NewMemTable(r.Schema)
	t.Append(rc.Row)
	return t, nil
}

// FilterRunner drops rows whose predicate does not evaluate to true.
type FilterRunner struct {
	Child Runner
	Pred  *codegen.Program
}

// Run implements Runner.
func (r *FilterRunner) Run(ctx context.Context, rc *RunnerContext) (Handler, error) {
	in, err := r.Child.Run(ctx, rc)
	if err != nil {
		return nil, err
	}
	table, err := asTable(in)
	if err != nil {
		return nil, err
	}
	out := NewMemTable(table.Schema())
	it := table.Iterator()
	if it == nil {
		return out, nil
	}
	for it.Next() {
		row := it.Row()
		v, err := r.Pred.Eval(row)
		if err != nil {
			return nil, base.Errorf(base.CodeRunError, "filter: %v", err)
		}
		if codegen.Truthy(v) {
			out.Append(row)
		}
	}
	return out, nil
}

// ProjectRunner evaluates the scalar projection programs for each row.
type ProjectRunner struct {
	Child  Runner
	Progs  []*codegen.Program
	Schema codec.Schema
}

// Run implements Runner.
func (r *ProjectRunner) Run(ctx context.Context, rc *RunnerContext) (Handler, error) {
	in, err := r.Child.Run(ctx, rc)
	if err != nil {
		return nil, err
	}
	table, err := asTable(in)
	if err != nil {
		return nil, err
	}
	out := NewMemTable(r.Schema)
	it := table.Iterator()
	if it == nil {
		return out, nil
	}
	for it.Next() {
		row := it.Row()
		projected := make(codec.Row, len(r.Progs))
		for i, p := range r.Progs {
			v, err := p.Eval(row)
			if err != nil {
				return nil, base.Errorf(base.CodeRunError, "project: %v", err)
			}
			projected[i] = v
		}
		out.Append(projected)
	}
	return out, nil
}

// GroupRunner partitions its input by key programs. Its partition result is
// consumed by AggRunner and is never a legal top-level answer.
type GroupRunner struct {
	Child    Runner
	KeyProgs []*codegen.Program
}

// Run implements Runner.
func (r *GroupRunner) Run(ctx context.Context, rc *RunnerContext) (Handler, error) {
	in, err := r.Child.Run(ctx, rc)
	if err != nil {
		return nil, err
	}
	table, err := asTable(in)
	if err != nil {
		return nil, err
	}
	part := NewMemPartition(table.Schema())
	it := table.Iterator()
	if it == nil {
		return part, nil
	}
	for it.Next() {
		row := it.Row()
		keys := make(codec.Row, len(r.KeyProgs))
		for i, p := range r.KeyProgs {
			v, err := p.Eval(row)
			if err != nil {
				return nil, base.Errorf(base.CodeRunError, "group key: %v", err)
			}
			keys[i] = v
		}
		part.Add(encodeKey(keys), keys, row)
	}
	return part, nil
}

// encodeKey renders group key values into a stable map key.
func encodeKey(keys codec.Row) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%T:%v", k, k)
	}
	return strings.Join(parts, "\x00")
}

// LimitRunner truncates its input to at most Count rows.
type LimitRunner struct {
	Child Runner
	Count int64
}

// Run implements Runner.
func (r *LimitRunner) Run(ctx context.Context, rc *RunnerContext) (Handler, error) {
	in, err := r.Child.Run(ctx, rc)
	if err != nil {
		return nil, err
	}
	table, err := asTable(in)
	if err != nil {
		return nil, err
	}
	out := NewMemTable(table.Schema())
	it := table.Iterator()
	if it == nil {
		return out, nil
	}
	var n int64
	for n < r.Count && it.Next() {
		out.Append(it.Row())
		n++
	}
	return out, nil
}
