// Package plan defines the logical and physical plan trees produced by the
// compiler and the textual rendering used by EXPLAIN.
package plan

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/featsql/pkg/parser"
)

// LogicalNode is a node of the logical plan tree.
type LogicalNode interface {
	logicalNode()
	Label() string
	Input() LogicalNode // nil for leaves
}

// LogicalScan reads a stored table.
type LogicalScan struct {
	DB    string
	Table string
}

func (*LogicalScan) logicalNode()         {}
func (n *LogicalScan) Input() LogicalNode { return nil }

func (n *LogicalScan) Label() string {
	return fmt.Sprintf("Scan(%s.%s)", n.DB, n.Table)
}

// LogicalFilter applies a predicate.
type LogicalFilter struct {
	Child LogicalNode
	Cond  parser.Expr
}

func (*LogicalFilter) logicalNode()         {}
func (n *LogicalFilter) Input() LogicalNode { return n.Child }

func (n *LogicalFilter) Label() string {
	return fmt.Sprintf("Filter(%s)", n.Cond)
}

// LogicalProject computes the SELECT list.
type LogicalProject struct {
	Child LogicalNode
	Items []parser.SelectItem
}

func (*LogicalProject) logicalNode()         {}
func (n *LogicalProject) Input() LogicalNode { return n.Child }

func (n *LogicalProject) Label() string {
	names := make([]string, len(n.Items))
	for i, it := range n.Items {
		names[i] = it.Name()
	}
	return fmt.Sprintf("Project(%s)", strings.Join(names, ", "))
}

// LogicalGroup groups rows by key expressions before aggregation.
type LogicalGroup struct {
	Child LogicalNode
	Keys  []parser.Expr
}

func (*LogicalGroup) logicalNode()         {}
func (n *LogicalGroup) Input() LogicalNode { return n.Child }

func (n *LogicalGroup) Label() string {
	keys := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("Group(%s)", strings.Join(keys, ", "))
}

// LogicalLimit bounds the row count.
type LogicalLimit struct {
	Child LogicalNode
	Count int64
}

func (*LogicalLimit) logicalNode()         {}
func (n *LogicalLimit) Input() LogicalNode { return n.Child }

func (n *LogicalLimit) Label() string {
	return fmt.Sprintf("Limit(%d)", n.Count)
}

// ExplainLogical renders a logical plan tree, root first, one node per line.
func ExplainLogical(root LogicalNode) string {
	return renderTree(func(yield func(string)) {
		for n := root; n != nil; n = n.Input() {
			yield(n.Label())
		}
	})
}

func renderTree(walk func(yield func(string))) string {
	var b strings.Builder
	depth := 0
	walk(func(label string) {
		if depth > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("+- ")
		}
		b.WriteString(label)
		depth++
	})
	return b.String()
}
