package codegen

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

func exprSchema() codec.Schema {
	return codec.NewSchema(
		codec.Column{Name: "a", Type: codec.TypeInt},
		codec.Column{Name: "b", Type: codec.TypeFloat},
		codec.Column{Name: "s", Type: codec.TypeString},
		codec.Column{Name: "flag", Type: codec.TypeBool},
	)
}

// compileExpr parses a SELECT item and compiles its expression.
func compileExpr(t *testing.T, expr string) *Program {
	t.Helper()
	stmt, err := parser.Parse("SELECT " + expr + " FROM t")
	if err != nil {
		t.Fatalf("parse %q: %v", expr, err)
	}
	p, err := Compile(stmt.Items[0].Expr, exprSchema())
	if err != nil {
		t.Fatalf("compile %q: %v", expr, err)
	}
	return p
}

func TestEvalExpressions(t *testing.T) {
	row := codec.Row{int64(6), 2.5, "Go", true}

	tests := []struct {
		expr string
		want any
	}{
		{"a + 1", int64(7)},
		{"a - 10", int64(-4)},
		{"a * a", int64(36)},
		{"a / 4", int64(1)},
		{"a % 4", int64(2)},
		{"a + b", 8.5},
		{"b * 2", 5.0},
		{"-a", int64(-6)},
		{"s + '!'", "Go!"},
		{"a > 5", true},
		{"a >= 7", false},
		{"a != 6", false},
		{"s = 'Go'", true},
		{"a > 5 AND b < 3.0", true},
		{"a > 10 OR b < 3.0", true},
		{"NOT a > 10", true},
		{"NULL + 1", nil},
		{"NULL = 1", nil},
		{"(a + 2) * 2", int64(16)},
		{"UPPER(s)", "GO"},
		{"LOWER('ABC')", "abc"},
		{"LENGTH(s)", int64(2)},
		{"ABS(0 - a)", int64(6)},
		{"ROUND(b)", 2.0},
		{"COALESCE(NULL, a)", int64(6)},
		{"COALESCE(NULL, NULL)", nil},
	}
	for _, tt := range tests {
		p := compileExpr(t, tt.expr)
		got, err := p.Eval(row)
		if err != nil {
			t.Errorf("%q: eval error = %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q = %v (%T), want %v (%T)", tt.expr, got, got, tt.want, tt.want)
		}
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	row := codec.Row{int64(6), 2.5, "Go", true}
	for _, expr := range []string{"a / 0", "a % 0", "b / 0.0"} {
		p := compileExpr(t, expr)
		if _, err := p.Eval(row); err == nil {
			t.Errorf("%q: expected division error", expr)
		}
	}
}

func TestResultTypes(t *testing.T) {
	tests := []struct {
		expr string
		want codec.Type
	}{
		{"a + 1", codec.TypeInt},
		{"a + b", codec.TypeFloat},
		{"a > 1", codec.TypeBool},
		{"s + 'x'", codec.TypeString},
		{"UPPER(s)", codec.TypeString},
		{"LENGTH(s)", codec.TypeInt},
		{"COALESCE(NULL, b)", codec.TypeFloat},
	}
	for _, tt := range tests {
		p := compileExpr(t, tt.expr)
		if p.ResultType() != tt.want {
			t.Errorf("%q: type = %s, want %s", tt.expr, p.ResultType(), tt.want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		"missing_col",
		"s * 2",
		"-s",
		"NOPE(a)",
		"UPPER(s, s)",
		"UPPER()",
	}
	schema := exprSchema()
	for _, expr := range tests {
		stmt, err := parser.Parse("SELECT " + expr + " FROM t")
		if err != nil {
			t.Fatalf("parse %q: %v", expr, err)
		}
		if _, err := Compile(stmt.Items[0].Expr, schema); err == nil {
			t.Errorf("compile %q: expected error", expr)
		}
	}
}

func TestEvalShortRow(t *testing.T) {
	p := compileExpr(t, "flag")
	if _, err := p.Eval(codec.Row{int64(1)}); err == nil {
		t.Error("expected error for row shorter than the schema")
	}
}

func TestTruthy(t *testing.T) {
	if !Truthy(true) {
		t.Error("true should be truthy")
	}
	for _, v := range []any{false, nil, int64(1), "x"} {
		if Truthy(v) {
			t.Errorf("%v (%T) should not be truthy", v, v)
		}
	}
}

func TestDisassemble(t *testing.T) {
	p := compileExpr(t, "a + 1")
	text := p.Disassemble()

	if !strings.Contains(text, "a + 1 -> int") {
		t.Errorf("header missing from listing:\n%s", text)
	}
	for _, op := range []string{"column", "const", "add"} {
		if !strings.Contains(text, op) {
			t.Errorf("listing missing %q:\n%s", op, text)
		}
	}
}

func TestInferType(t *testing.T) {
	stmt, err := parser.Parse("SELECT a * b FROM t")
	if err != nil {
		t.Fatal(err)
	}
	typ, err := InferType(stmt.Items[0].Expr, exprSchema())
	if err != nil {
		t.Fatal(err)
	}
	if typ != codec.TypeFloat {
		t.Errorf("type = %s, want float", typ)
	}
}
