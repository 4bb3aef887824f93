// Package compiler turns SQL text into compiled artifacts: parsed
// statement, logical and physical plans, generated evaluator programs, and
// finally an executable runner tree.
package compiler

import (
	"github.com/leapstack-labs/featsql/internal/codegen"
	"github.com/leapstack-labs/featsql/internal/exec"
	"github.com/leapstack-labs/featsql/internal/plan"
	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

// Context is the compilation context for one statement. The caller fills
// SQL, DB, and BatchMode; Compile and BuildRunner populate the rest. Once
// a context is published inside a cached compile artifact it is never
// mutated again.
type Context struct {
	SQL       string
	DB        string
	BatchMode bool

	// Populated by Compile.
	Stmt          *parser.SelectStmt
	LogicalPlan   plan.LogicalNode
	PhysicalPlan  plan.PhysicalNode
	Schema        codec.Schema // output schema
	RequestSchema codec.Schema // input row schema (request mode only)
	Program       string       // generated evaluator listing (when kept)

	// Populated by BuildRunner.
	Runner exec.Runner

	// Intermediate compile state carried from Compile to BuildRunner.
	analysis  *analyzed
	predProg  *codegen.Program
	projProgs []*codegen.Program
	keyProgs  []*codegen.Program
	aggSpecs  []exec.AggSpec
	scanRows  []codec.Row
}
