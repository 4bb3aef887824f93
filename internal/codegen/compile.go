package codegen

import (
	"fmt"

	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

// Compile translates a parsed scalar expression into an evaluator program
// bound to the given input schema. Column references are resolved to row
// positions and the result type is inferred statically.
func Compile(expr parser.Expr, schema codec.Schema) (*Program, error) {
	Initialize()
	c := &compilerState{schema: schema}
	typ, err := c.compile(expr)
	if err != nil {
		return nil, err
	}
	return &Program{
		source:   expr.String(),
		result:   typ,
		insts:    c.insts,
		maxStack: c.maxDepth,
	}, nil
}

// InferType returns the static result type of an expression against a
// schema without keeping the compiled program.
func InferType(expr parser.Expr, schema codec.Schema) (codec.Type, error) {
	p, err := Compile(expr, schema)
	if err != nil {
		return codec.TypeNull, err
	}
	return p.ResultType(), nil
}

type compilerState struct {
	schema   codec.Schema
	insts    []Instruction
	depth    int
	maxDepth int
}

func (c *compilerState) emit(in Instruction, stackDelta int) {
	c.insts = append(c.insts, in)
	c.depth += stackDelta
	if c.depth > c.maxDepth {
		c.maxDepth = c.depth
	}
}

func (c *compilerState) compile(expr parser.Expr) (codec.Type, error) {
	switch e := expr.(type) {
	case *parser.Literal:
		v, err := codec.Normalize(e.Value)
		if err != nil {
			return codec.TypeNull, err
		}
		c.emit(Instruction{Op: OpConst, Const: v}, 1)
		return codec.TypeOf(v), nil

	case *parser.ColumnRef:
		idx, ok := c.schema.ColumnIndex(e.Name)
		if !ok {
			return codec.TypeNull, fmt.Errorf("unknown column %q", e.Name)
		}
		c.emit(Instruction{Op: OpColumn, Col: idx, Name: e.Name}, 1)
		return c.schema.Columns[idx].Type, nil

	case *parser.UnaryExpr:
		typ, err := c.compile(e.Expr)
		if err != nil {
			return codec.TypeNull, err
		}
		switch e.Op {
		case "NOT":
			c.emit(Instruction{Op: OpNot}, 0)
			return codec.TypeBool, nil
		case "-":
			if typ != codec.TypeInt && typ != codec.TypeFloat && typ != codec.TypeNull {
				return codec.TypeNull, fmt.Errorf("cannot negate %s", typ)
			}
			c.emit(Instruction{Op: OpNeg}, 0)
			return typ, nil
		default:
			return codec.TypeNull, fmt.Errorf("unknown unary operator %q", e.Op)
		}

	case *parser.BinaryExpr:
		return c.compileBinary(e)

	case *parser.FuncCall:
		return c.compileCall(e)

	default:
		return codec.TypeNull, fmt.Errorf("unsupported expression %T", expr)
	}
}

var binaryOps = map[string]OpCode{
	"+":   OpAdd,
	"-":   OpSub,
	"*":   OpMul,
	"/":   OpDiv,
	"%":   OpMod,
	"=":   OpEq,
	"!=":  OpNe,
	"<":   OpLt,
	"<=":  OpLe,
	">":   OpGt,
	">=":  OpGe,
	"AND": OpAnd,
	"OR":  OpOr,
}

func (c *compilerState) compileBinary(e *parser.BinaryExpr) (codec.Type, error) {
	op, ok := binaryOps[e.Op]
	if !ok {
		return codec.TypeNull, fmt.Errorf("unknown operator %q", e.Op)
	}
	lt, err := c.compile(e.Left)
	if err != nil {
		return codec.TypeNull, err
	}
	rt, err := c.compile(e.Right)
	if err != nil {
		return codec.TypeNull, err
	}
	c.emit(Instruction{Op: op}, -1)

	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr:
		return codec.TypeBool, nil
	default:
		return arithType(e.Op, lt, rt)
	}
}

func arithType(op string, lt, rt codec.Type) (codec.Type, error) {
	if lt == codec.TypeString && rt == codec.TypeString && op == "+" {
		return codec.TypeString, nil
	}
	numeric := func(t codec.Type) bool {
		return t == codec.TypeInt || t == codec.TypeFloat || t == codec.TypeNull
	}
	if !numeric(lt) || !numeric(rt) {
		return codec.TypeNull, fmt.Errorf("cannot apply %s to %s and %s", op, lt, rt)
	}
	if lt == codec.TypeFloat || rt == codec.TypeFloat {
		return codec.TypeFloat, nil
	}
	return codec.TypeInt, nil
}

func (c *compilerState) compileCall(e *parser.FuncCall) (codec.Type, error) {
	if e.Star {
		return codec.TypeNull, fmt.Errorf("%s(*) is only valid as an aggregate", e.Name)
	}
	b, ok := LookupBuiltin(e.Name)
	if !ok {
		return codec.TypeNull, fmt.Errorf("unknown function %q", e.Name)
	}
	if len(e.Args) < b.MinArgs || (b.MaxArgs >= 0 && len(e.Args) > b.MaxArgs) {
		return codec.TypeNull, fmt.Errorf("%s expects %d-%d arguments, got %d", e.Name, b.MinArgs, b.MaxArgs, len(e.Args))
	}
	argTypes := make([]codec.Type, len(e.Args))
	for i, a := range e.Args {
		t, err := c.compile(a)
		if err != nil {
			return codec.TypeNull, err
		}
		argTypes[i] = t
	}
	c.emit(Instruction{Op: OpCall, Name: e.Name, Argc: len(e.Args), fn: b}, 1-len(e.Args))
	return b.Result(argTypes), nil
}
