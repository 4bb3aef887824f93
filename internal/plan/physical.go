package plan

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

// PhysicalNode is a node of the executable plan tree. Batch and request
// plans for the same statement differ structurally in their scan root,
// which is why they are compiled and cached independently.
type PhysicalNode interface {
	physicalNode()
	Label() string
	Input() PhysicalNode // nil for leaves
	OutputSchema() codec.Schema
}

// PhysTableScan reads every row of a stored table (batch mode root).
type PhysTableScan struct {
	DB     string
	Table  string
	Schema codec.Schema
}

func (*PhysTableScan) physicalNode()                {}
func (n *PhysTableScan) Input() PhysicalNode        { return nil }
func (n *PhysTableScan) OutputSchema() codec.Schema { return n.Schema }

func (n *PhysTableScan) Label() string {
	return fmt.Sprintf("TableScan(%s.%s)", n.DB, n.Table)
}

// PhysRequestScan emits the single externally supplied input row
// (request mode root). The schema is the request schema of the statement.
type PhysRequestScan struct {
	DB     string
	Table  string
	Schema codec.Schema
}

func (*PhysRequestScan) physicalNode()                {}
func (n *PhysRequestScan) Input() PhysicalNode        { return nil }
func (n *PhysRequestScan) OutputSchema() codec.Schema { return n.Schema }

func (n *PhysRequestScan) Label() string {
	return fmt.Sprintf("RequestScan(%s.%s)", n.DB, n.Table)
}

// PhysFilter drops rows failing the predicate.
type PhysFilter struct {
	Child PhysicalNode
	Cond  parser.Expr
}

func (*PhysFilter) physicalNode()                {}
func (n *PhysFilter) Input() PhysicalNode        { return n.Child }
func (n *PhysFilter) OutputSchema() codec.Schema { return n.Child.OutputSchema() }

func (n *PhysFilter) Label() string {
	return fmt.Sprintf("Filter(%s)", n.Cond)
}

// PhysProject evaluates scalar projections.
type PhysProject struct {
	Child  PhysicalNode
	Exprs  []parser.Expr
	Schema codec.Schema
}

func (*PhysProject) physicalNode()                {}
func (n *PhysProject) Input() PhysicalNode        { return n.Child }
func (n *PhysProject) OutputSchema() codec.Schema { return n.Schema }

func (n *PhysProject) Label() string {
	return fmt.Sprintf("Project%s", n.Schema)
}

// PhysGroup partitions its input by key expressions. Its result is only
// legal as input to PhysAggregate, never as a top-level answer.
type PhysGroup struct {
	Child PhysicalNode
	Keys  []parser.Expr
}

func (*PhysGroup) physicalNode()                {}
func (n *PhysGroup) Input() PhysicalNode        { return n.Child }
func (n *PhysGroup) OutputSchema() codec.Schema { return n.Child.OutputSchema() }

func (n *PhysGroup) Label() string {
	keys := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("Group(%s)", strings.Join(keys, ", "))
}

// AggCall is one aggregate of the output row.
type AggCall struct {
	Fn   string // COUNT, SUM, MIN, MAX, AVG
	Arg  parser.Expr
	Star bool // COUNT(*)
}

func (a AggCall) String() string {
	if a.Star {
		return a.Fn + "(*)"
	}
	return fmt.Sprintf("%s(%s)", a.Fn, a.Arg)
}

// PhysAggregate folds its input into one row per group (grouped input) or a
// single row (plain input).
type PhysAggregate struct {
	Child  PhysicalNode
	Keys   []parser.Expr // empty for scalar aggregation
	Aggs   []AggCall
	Schema codec.Schema
}

func (*PhysAggregate) physicalNode()                {}
func (n *PhysAggregate) Input() PhysicalNode        { return n.Child }
func (n *PhysAggregate) OutputSchema() codec.Schema { return n.Schema }

func (n *PhysAggregate) Label() string {
	aggs := make([]string, len(n.Aggs))
	for i, a := range n.Aggs {
		aggs[i] = a.String()
	}
	return fmt.Sprintf("Aggregate(%s)", strings.Join(aggs, ", "))
}

// PhysLimit bounds the row count.
type PhysLimit struct {
	Child PhysicalNode
	Count int64
}

func (*PhysLimit) physicalNode()                {}
func (n *PhysLimit) Input() PhysicalNode        { return n.Child }
func (n *PhysLimit) OutputSchema() codec.Schema { return n.Child.OutputSchema() }

func (n *PhysLimit) Label() string {
	return fmt.Sprintf("Limit(%d)", n.Count)
}

// ExplainPhysical renders a physical plan tree, root first, one node per line.
func ExplainPhysical(root PhysicalNode) string {
	return renderTree(func(yield func(string)) {
		for n := root; n != nil; n = n.Input() {
			yield(n.Label())
		}
	})
}
