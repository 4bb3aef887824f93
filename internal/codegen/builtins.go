package codegen

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/leapstack-labs/featsql/pkg/codec"
)

// Builtin is one scalar function available to compiled programs.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 = variadic
	// Result infers the result type from argument types.
	Result func(args []codec.Type) codec.Type
	// Eval applies the function to canonical scalar values.
	Eval func(args []any) (any, error)
}

var (
	initOnce sync.Once
	builtins map[string]*Builtin
)

// Initialize registers the builtin function table. It is safe to call from
// any goroutine at any time, including before the first compilation; only
// the first call does work.
func Initialize() {
	initOnce.Do(func() {
		builtins = make(map[string]*Builtin)
		for _, b := range builtinTable() {
			builtins[b.Name] = b
		}
	})
}

// LookupBuiltin resolves a scalar function by upper-cased name.
func LookupBuiltin(name string) (*Builtin, bool) {
	Initialize()
	b, ok := builtins[name]
	return b, ok
}

func firstNonNullType(args []codec.Type) codec.Type {
	for _, t := range args {
		if t != codec.TypeNull {
			return t
		}
	}
	return codec.TypeNull
}

func builtinTable() []*Builtin {
	return []*Builtin{
		{
			Name: "ABS", MinArgs: 1, MaxArgs: 1,
			Result: func(args []codec.Type) codec.Type { return args[0] },
			Eval: func(args []any) (any, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case int64:
					if v < 0 {
						return -v, nil
					}
					return v, nil
				case float64:
					return math.Abs(v), nil
				default:
					return nil, fmt.Errorf("expected number, got %T", v)
				}
			},
		},
		{
			Name: "UPPER", MinArgs: 1, MaxArgs: 1,
			Result: func([]codec.Type) codec.Type { return codec.TypeString },
			Eval:   stringFn(strings.ToUpper),
		},
		{
			Name: "LOWER", MinArgs: 1, MaxArgs: 1,
			Result: func([]codec.Type) codec.Type { return codec.TypeString },
			Eval:   stringFn(strings.ToLower),
		},
		{
			Name: "LENGTH", MinArgs: 1, MaxArgs: 1,
			Result: func([]codec.Type) codec.Type { return codec.TypeInt },
			Eval: func(args []any) (any, error) {
				if args[0] == nil {
					return nil, nil
				}
				s, ok := codec.AsString(args[0])
				if !ok {
					return nil, fmt.Errorf("expected string, got %T", args[0])
				}
				return int64(len(s)), nil
			},
		},
		{
			Name: "ROUND", MinArgs: 1, MaxArgs: 1,
			Result: func([]codec.Type) codec.Type { return codec.TypeFloat },
			Eval: func(args []any) (any, error) {
				if args[0] == nil {
					return nil, nil
				}
				f, ok := codec.AsFloat64(args[0])
				if !ok {
					return nil, fmt.Errorf("expected number, got %T", args[0])
				}
				return math.Round(f), nil
			},
		},
		{
			Name: "COALESCE", MinArgs: 1, MaxArgs: -1,
			Result: firstNonNullType,
			Eval: func(args []any) (any, error) {
				for _, a := range args {
					if a != nil {
						return a, nil
					}
				}
				return nil, nil
			},
		},
	}
}

func stringFn(fn func(string) string) func([]any) (any, error) {
	return func(args []any) (any, error) {
		if args[0] == nil {
			return nil, nil
		}
		s, ok := codec.AsString(args[0])
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", args[0])
		}
		return fn(s), nil
	}
}
