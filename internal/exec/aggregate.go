package exec

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/codegen"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// AggSpec is one aggregate of the output row.
type AggSpec struct {
	Fn   string // COUNT, SUM, MIN, MAX, AVG
	Arg  *codegen.Program
	Star bool // COUNT(*)
}

// IsAggregateFunc reports whether a function name is an aggregate.
func IsAggregateFunc(name string) bool {
	switch name {
	case "COUNT", "SUM", "MIN", "MAX", "AVG":
		return true
	}
	return false
}

// AggResultType returns the static result type of an aggregate over an
// argument of the given type.
func AggResultType(fn string, arg codec.Type) (codec.Type, error) {
	switch fn {
	case "COUNT":
		return codec.TypeInt, nil
	case "AVG":
		return codec.TypeFloat, nil
	case "SUM", "MIN", "MAX":
		return arg, nil
	default:
		return codec.TypeNull, fmt.Errorf("unknown aggregate %q", fn)
	}
}

// AggRunner folds its input into one row per group. With no key programs
// it consumes a table and produces a single row result; with keys it
// consumes the partition result of a GroupRunner and produces one table
// row per group (key values first, aggregates after).
type AggRunner struct {
	Child    Runner
	KeyProgs []*codegen.Program
	Aggs     []AggSpec
	Schema   codec.Schema
}

// Run implements Runner.
func (r *AggRunner) Run(ctx context.Context, rc *RunnerContext) (Handler, error) {
	in, err := r.Child.Run(ctx, rc)
	if err != nil {
		return nil, err
	}

	if len(r.KeyProgs) == 0 {
		table, err := asTable(in)
		if err != nil {
			return nil, err
		}
		row, err := r.foldGroup(table)
		if err != nil {
			return nil, err
		}
		return NewMemRow(r.Schema, row), nil
	}

	part, ok := in.(PartitionHandler)
	if !ok {
		return nil, base.Errorf(base.CodeInvalidOutputShape,
			"grouped aggregation expects a partition input, got %s", in.Kind())
	}
	out := NewMemTable(r.Schema)
	for _, g := range part.Groups() {
		aggs, err := r.foldGroup(g.Rows)
		if err != nil {
			return nil, err
		}
		row := make(codec.Row, 0, len(g.Keys)+len(aggs))
		row = append(row, g.Keys...)
		row = append(row, aggs...)
		out.Append(row)
	}
	return out, nil
}

// foldGroup computes all aggregate values over one group of rows.
func (r *AggRunner) foldGroup(rows TableHandler) (codec.Row, error) {
	states := make([]aggState, len(r.Aggs))
	for i, spec := range r.Aggs {
		st, err := newAggState(spec.Fn)
		if err != nil {
			return nil, base.Errorf(base.CodeRunError, "aggregate: %v", err)
		}
		states[i] = st
	}
	it := rows.Iterator()
	if it != nil {
		for it.Next() {
			row := it.Row()
			for i, spec := range r.Aggs {
				var v any
				if spec.Star {
					v = int64(1) // COUNT(*) counts rows, value unused otherwise
				} else {
					ev, err := spec.Arg.Eval(row)
					if err != nil {
						return nil, base.Errorf(base.CodeRunError, "aggregate %s: %v", spec.Fn, err)
					}
					v = ev
				}
				if err := states[i].add(v, spec.Star); err != nil {
					return nil, base.Errorf(base.CodeRunError, "aggregate %s: %v", spec.Fn, err)
				}
			}
		}
	}
	out := make(codec.Row, len(states))
	for i, st := range states {
		out[i] = st.result()
	}
	return out, nil
}

// aggState accumulates one aggregate.
type aggState interface {
	add(v any, star bool) error
	result() any
}

func newAggState(fn string) (aggState, error) {
	switch fn {
	case "COUNT":
		return &countState{}, nil
	case "SUM":
		return &sumState{}, nil
	case "AVG":
		return &avgState{}, nil
	case "MIN":
		return &extremeState{min: true}, nil
	case "MAX":
		return &extremeState{}, nil
	default:
		return nil, fmt.Errorf("unknown aggregate %q", fn)
	}
}

type countState struct {
	n int64
}

func (s *countState) add(v any, star bool) error {
	if star || v != nil {
		s.n++
	}
	return nil
}

func (s *countState) result() any { return s.n }

type sumState struct {
	intSum   int64
	floatSum float64
	isFloat  bool
	seen     bool
}

func (s *sumState) add(v any, _ bool) error {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		if s.isFloat {
			s.floatSum += float64(x)
		} else {
			s.intSum += x
		}
	case float64:
		if !s.isFloat {
			s.isFloat = true
			s.floatSum = float64(s.intSum)
		}
		s.floatSum += x
	default:
		return fmt.Errorf("cannot sum %T", v)
	}
	s.seen = true
	return nil
}

func (s *sumState) result() any {
	if !s.seen {
		return nil
	}
	if s.isFloat {
		return s.floatSum
	}
	return s.intSum
}

type avgState struct {
	sum float64
	n   int64
}

func (s *avgState) add(v any, _ bool) error {
	if v == nil {
		return nil
	}
	f, ok := codec.AsFloat64(v)
	if !ok {
		return fmt.Errorf("cannot average %T", v)
	}
	s.sum += f
	s.n++
	return nil
}

func (s *avgState) result() any {
	if s.n == 0 {
		return nil
	}
	return s.sum / float64(s.n)
}

type extremeState struct {
	min  bool
	best any
}

func (s *extremeState) add(v any, _ bool) error {
	if v == nil {
		return nil
	}
	if s.best == nil {
		s.best = v
		return nil
	}
	c, err := codec.Compare(v, s.best)
	if err != nil {
		return err
	}
	if (s.min && c < 0) || (!s.min && c > 0) {
		s.best = v
	}
	return nil
}

func (s *extremeState) result() any { return s.best }
