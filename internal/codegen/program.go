// Package codegen compiles parsed scalar expressions into stack-based
// evaluator programs executed over rows. The disassembled program listing
// is the "generated code" text carried by compiled artifacts.
package codegen

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/featsql/pkg/codec"
)

// OpCode identifies one evaluator instruction.
type OpCode int

// Evaluator opcodes.
const (
	OpConst OpCode = iota
	OpColumn
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpCall
)

var opNames = map[OpCode]string{
	OpConst:  "const",
	OpColumn: "column",
	OpAdd:    "add",
	OpSub:    "sub",
	OpMul:    "mul",
	OpDiv:    "div",
	OpMod:    "mod",
	OpEq:     "eq",
	OpNe:     "ne",
	OpLt:     "lt",
	OpLe:     "le",
	OpGt:     "gt",
	OpGe:     "ge",
	OpAnd:    "and",
	OpOr:     "or",
	OpNot:    "not",
	OpNeg:    "neg",
	OpCall:   "call",
}

func (op OpCode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Instruction is one step of an evaluator program.
type Instruction struct {
	Op    OpCode
	Const any      // OpConst operand
	Col   int      // OpColumn operand: input row index
	Name  string   // OpColumn column name, OpCall function name
	Argc  int      // OpCall argument count
	fn    *Builtin // resolved at compile time
}

// Program is a compiled scalar expression.
type Program struct {
	source   string
	result   codec.Type
	insts    []Instruction
	maxStack int
}

// Source returns the expression text this program was compiled from.
func (p *Program) Source() string { return p.source }

// ResultType returns the static result type of the program.
func (p *Program) ResultType() codec.Type { return p.result }

// Eval runs the program against one input row. A nil operand propagates to
// a nil result for arithmetic and comparison; the logical operators treat
// nil as false.
func (p *Program) Eval(row codec.Row) (any, error) {
	stack := make([]any, 0, p.maxStack)
	push := func(v any) { stack = append(stack, v) }
	pop := func() any {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for i := range p.insts {
		in := &p.insts[i]
		switch in.Op {
		case OpConst:
			push(in.Const)

		case OpColumn:
			if in.Col >= len(row) {
				return nil, fmt.Errorf("row has %d values, column %s is at %d", len(row), in.Name, in.Col)
			}
			push(row[in.Col])

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			right := pop()
			left := pop()
			v, err := evalArith(in.Op, left, right)
			if err != nil {
				return nil, err
			}
			push(v)

		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			right := pop()
			left := pop()
			if left == nil || right == nil {
				push(nil)
				continue
			}
			c, err := codec.Compare(left, right)
			if err != nil {
				return nil, err
			}
			push(evalCompare(in.Op, c))

		case OpAnd, OpOr:
			right := truthy(pop())
			left := truthy(pop())
			if in.Op == OpAnd {
				push(left && right)
			} else {
				push(left || right)
			}

		case OpNot:
			push(!truthy(pop()))

		case OpNeg:
			v := pop()
			switch x := v.(type) {
			case nil:
				push(nil)
			case int64:
				push(-x)
			case float64:
				push(-x)
			default:
				return nil, fmt.Errorf("cannot negate %T", v)
			}

		case OpCall:
			args := make([]any, in.Argc)
			for j := in.Argc - 1; j >= 0; j-- {
				args[j] = pop()
			}
			v, err := in.fn.Eval(args)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", in.Name, err)
			}
			push(v)

		default:
			return nil, fmt.Errorf("unknown opcode %s", in.Op)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("program left %d values on the stack", len(stack))
	}
	return stack[0], nil
}

// Truthy reports whether a value is true under filter semantics: only a
// true bool passes; nil and everything else do not.
func Truthy(v any) bool { return truthy(v) }

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func evalArith(op OpCode, left, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	// String concatenation rides on add.
	if op == OpAdd {
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, fmt.Errorf("cannot add string and %T", right)
			}
			return ls + rs, nil
		}
	}
	li, lok := left.(int64)
	ri, rok := right.(int64)
	if lok && rok {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		case OpDiv:
			if ri == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return li / ri, nil
		case OpMod:
			if ri == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return li % ri, nil
		}
	}
	lf, lok := codec.AsFloat64(left)
	rf, rok := codec.AsFloat64(right)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot apply %s to %T and %T", op, left, right)
	}
	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul:
		return lf * rf, nil
	case OpDiv:
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	default:
		return nil, fmt.Errorf("cannot apply %s to floats", op)
	}
}

func evalCompare(op OpCode, c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	default: // OpGe
		return c >= 0
	}
}

// Disassemble renders the program as a numbered instruction listing.
func (p *Program) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; %s -> %s\n", p.source, p.result)
	for i, in := range p.insts {
		switch in.Op {
		case OpConst:
			fmt.Fprintf(&b, "%02d  %-6s %v\n", i, in.Op, in.Const)
		case OpColumn:
			fmt.Fprintf(&b, "%02d  %-6s %d  ; %s\n", i, in.Op, in.Col, in.Name)
		case OpCall:
			fmt.Fprintf(&b, "%02d  %-6s %s/%d\n", i, in.Op, in.Name, in.Argc)
		default:
			fmt.Fprintf(&b, "%02d  %s\n", i, in.Op)
		}
	}
	return b.String()
}
