package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr represents an expression in SQL.
type Expr interface {
	exprNode()
	String() string
}

// SelectStmt is a parsed SELECT statement.
type SelectStmt struct {
	Items   []SelectItem
	From    string
	Where   Expr
	GroupBy []Expr
	Limit   *int64
	Text    string // original statement text
}

// SelectItem is one projection of the SELECT list.
type SelectItem struct {
	Expr  Expr
	Alias string
	Star  bool // SELECT *
}

// Name returns the output column name for the item: the alias when present,
// otherwise the expression text.
func (it SelectItem) Name() string {
	if it.Alias != "" {
		return it.Alias
	}
	if it.Star {
		return "*"
	}
	return it.Expr.String()
}

// ColumnRef references a column, optionally table-qualified.
type ColumnRef struct {
	Table string
	Name  string
}

func (*ColumnRef) exprNode() {}

func (c *ColumnRef) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

// Literal is a constant value: nil, bool, int64, float64, or string.
type Literal struct {
	Value any
}

func (*Literal) exprNode() {}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", b.Left, b.Op, b.Right)
}

// UnaryExpr applies a prefix operator (NOT, unary minus).
type UnaryExpr struct {
	Op   string
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

func (u *UnaryExpr) String() string {
	if u.Op == "NOT" {
		return "NOT " + u.Expr.String()
	}
	return u.Op + u.Expr.String()
}

// FuncCall is a function invocation, scalar or aggregate.
type FuncCall struct {
	Name string // upper-cased
	Args []Expr
	Star bool // COUNT(*)
}

func (*FuncCall) exprNode() {}

func (f *FuncCall) String() string {
	if f.Star {
		return f.Name + "(*)"
	}
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}
