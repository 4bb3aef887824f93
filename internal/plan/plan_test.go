package plan

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

func TestExplainLogical(t *testing.T) {
	var node LogicalNode = &LogicalScan{DB: "d", Table: "t"}
	node = &LogicalFilter{Child: node, Cond: &parser.ColumnRef{Name: "flag"}}
	node = &LogicalProject{Child: node, Items: []parser.SelectItem{
		{Expr: &parser.ColumnRef{Name: "a"}},
		{Expr: &parser.ColumnRef{Name: "b"}, Alias: "bee"},
	}}
	node = &LogicalLimit{Child: node, Count: 5}

	got := ExplainLogical(node)
	want := "Limit(5)\n" +
		"  +- Project(a, bee)\n" +
		"    +- Filter(flag)\n" +
		"      +- Scan(d.t)"
	if got != want {
		t.Errorf("ExplainLogical =\n%s\nwant\n%s", got, want)
	}
}

func TestExplainPhysicalModeRoots(t *testing.T) {
	schema := codec.NewSchema(codec.Column{Name: "a", Type: codec.TypeInt})

	batch := ExplainPhysical(&PhysTableScan{DB: "d", Table: "t", Schema: schema})
	if !strings.Contains(batch, "TableScan(d.t)") {
		t.Errorf("batch plan = %s", batch)
	}

	request := ExplainPhysical(&PhysRequestScan{DB: "d", Table: "t", Schema: schema})
	if !strings.Contains(request, "RequestScan(d.t)") {
		t.Errorf("request plan = %s", request)
	}
}

func TestAggCallString(t *testing.T) {
	star := AggCall{Fn: "COUNT", Star: true}
	if star.String() != "COUNT(*)" {
		t.Errorf("String = %q", star.String())
	}
	sum := AggCall{Fn: "SUM", Arg: &parser.ColumnRef{Name: "v"}}
	if sum.String() != "SUM(v)" {
		t.Errorf("String = %q", sum.String())
	}
}

func TestPhysicalSchemasPropagate(t *testing.T) {
	schema := codec.NewSchema(codec.Column{Name: "a", Type: codec.TypeInt})
	scan := &PhysTableScan{DB: "d", Table: "t", Schema: schema}
	filter := &PhysFilter{Child: scan, Cond: &parser.ColumnRef{Name: "a"}}
	limit := &PhysLimit{Child: filter, Count: 1}

	if limit.OutputSchema().String() != schema.String() {
		t.Error("pass-through nodes should inherit the child schema")
	}
}
