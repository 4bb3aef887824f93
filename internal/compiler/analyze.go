package compiler

import (
	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/codegen"
	"github.com/leapstack-labs/featsql/internal/exec"
	"github.com/leapstack-labs/featsql/internal/plan"
	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

// analyzed is the semantic analysis of one statement against its input
// schema: projection classification, aggregate extraction, and the output
// schema.
type analyzed struct {
	star     bool
	inSchema codec.Schema

	// Non-aggregated statements.
	scalarExprs []parser.Expr

	// Aggregated statements.
	keys          []parser.Expr
	aggs          []plan.AggCall
	groupedSchema codec.Schema  // intermediate: keys first, aggregates after
	reorderExprs  []parser.Expr // maps grouped schema back to SELECT order

	outSchema codec.Schema
}

func analyze(stmt *parser.SelectStmt, in codec.Schema) (*analyzed, error) {
	an := &analyzed{inSchema: in, keys: stmt.GroupBy}

	for _, it := range stmt.Items {
		if it.Star {
			if len(stmt.Items) > 1 {
				return nil, base.New(base.CodeCompileError, "SELECT * cannot be combined with other projections")
			}
			if len(stmt.GroupBy) > 0 {
				return nil, base.New(base.CodeCompileError, "SELECT * cannot be grouped")
			}
			an.star = true
			an.outSchema = in
			return an, nil
		}
	}

	hasAgg := false
	for _, it := range stmt.Items {
		if isAggCall(it.Expr) {
			hasAgg = true
		} else if containsAgg(it.Expr) {
			return nil, base.Errorf(base.CodeCompileError, "aggregate in %q must be a top-level projection", it.Expr)
		}
	}
	for _, key := range stmt.GroupBy {
		if containsAgg(key) {
			return nil, base.New(base.CodeCompileError, "aggregates are not allowed in GROUP BY")
		}
	}

	if !hasAgg && len(stmt.GroupBy) == 0 {
		return analyzeScalar(an, stmt, in)
	}
	return analyzeGrouped(an, stmt, in)
}

// analyzeScalar handles plain row-wise projection.
func analyzeScalar(an *analyzed, stmt *parser.SelectStmt, in codec.Schema) (*analyzed, error) {
	cols := make([]codec.Column, 0, len(stmt.Items))
	for _, it := range stmt.Items {
		typ, err := codegen.InferType(it.Expr, in)
		if err != nil {
			return nil, base.Errorf(base.CodeCompileError, "SELECT: %v", err)
		}
		an.scalarExprs = append(an.scalarExprs, it.Expr)
		cols = append(cols, codec.Column{Name: it.Name(), Type: typ})
	}
	an.outSchema = codec.NewSchema(cols...)
	return an, nil
}

// analyzeGrouped handles aggregation, grouped or scalar. Every projection
// must be either an aggregate call or an expression matching a GROUP BY key.
func analyzeGrouped(an *analyzed, stmt *parser.SelectStmt, in codec.Schema) (*analyzed, error) {
	// Intermediate schema: keys first, aggregates after, named by their
	// expression text.
	keyCols := make([]codec.Column, len(an.keys))
	for i, key := range an.keys {
		typ, err := codegen.InferType(key, in)
		if err != nil {
			return nil, base.Errorf(base.CodeCompileError, "GROUP BY: %v", err)
		}
		keyCols[i] = codec.Column{Name: key.String(), Type: typ}
	}

	outCols := make([]codec.Column, 0, len(stmt.Items))
	var aggCols []codec.Column

	for _, it := range stmt.Items {
		switch {
		case isAggCall(it.Expr):
			call := it.Expr.(*parser.FuncCall)
			agg := plan.AggCall{Fn: call.Name, Star: call.Star}
			argType := codec.TypeInt
			if !call.Star {
				if len(call.Args) != 1 {
					return nil, base.Errorf(base.CodeCompileError, "%s expects one argument", call.Name)
				}
				agg.Arg = call.Args[0]
				t, err := codegen.InferType(agg.Arg, in)
				if err != nil {
					return nil, base.Errorf(base.CodeCompileError, "%s: %v", call.Name, err)
				}
				argType = t
			}
			resType, err := exec.AggResultType(agg.Fn, argType)
			if err != nil {
				return nil, base.Errorf(base.CodeCompileError, "%v", err)
			}
			an.aggs = append(an.aggs, agg)
			aggCols = append(aggCols, codec.Column{Name: agg.String(), Type: resType})
			outCols = append(outCols, codec.Column{Name: it.Name(), Type: resType})
			an.reorderExprs = append(an.reorderExprs, &parser.ColumnRef{Name: agg.String()})

		default:
			idx := keyIndex(an.keys, it.Expr)
			if idx < 0 {
				return nil, base.Errorf(base.CodeCompileError,
					"%q must appear in GROUP BY or inside an aggregate", it.Expr)
			}
			outCols = append(outCols, codec.Column{Name: it.Name(), Type: keyCols[idx].Type})
			an.reorderExprs = append(an.reorderExprs, &parser.ColumnRef{Name: keyCols[idx].Name})
		}
	}

	if len(an.keys) == 0 {
		// Scalar aggregation produces a single row directly in SELECT order.
		an.reorderExprs = nil
		an.outSchema = codec.NewSchema(outCols...)
		return an, nil
	}

	an.groupedSchema = codec.NewSchema(append(keyCols, aggCols...)...)
	an.outSchema = codec.NewSchema(outCols...)
	return an, nil
}

func isAggCall(e parser.Expr) bool {
	call, ok := e.(*parser.FuncCall)
	return ok && exec.IsAggregateFunc(call.Name)
}

// containsAgg reports whether an aggregate call appears anywhere in the
// expression.
func containsAgg(e parser.Expr) bool {
	switch x := e.(type) {
	case *parser.FuncCall:
		if exec.IsAggregateFunc(x.Name) {
			return true
		}
		for _, a := range x.Args {
			if containsAgg(a) {
				return true
			}
		}
	case *parser.BinaryExpr:
		return containsAgg(x.Left) || containsAgg(x.Right)
	case *parser.UnaryExpr:
		return containsAgg(x.Expr)
	}
	return false
}

// keyIndex finds the GROUP BY key matching an expression by text.
func keyIndex(keys []parser.Expr, e parser.Expr) int {
	text := e.String()
	for i, key := range keys {
		if key.String() == text {
			return i
		}
	}
	return -1
}
