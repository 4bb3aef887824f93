package compiler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/internal/codegen"
	"github.com/leapstack-labs/featsql/internal/exec"
	"github.com/leapstack-labs/featsql/internal/plan"
	"github.com/leapstack-labs/featsql/pkg/codec"
	"github.com/leapstack-labs/featsql/pkg/parser"
)

// Compiler compiles one statement against a fixed catalog snapshot.
type Compiler struct {
	cl          catalog.Catalog
	keepProgram bool
	dumpPlan    bool
	planOnly    bool
	logger      *slog.Logger
}

// New creates a compiler over a catalog snapshot. keepProgram retains the
// generated evaluator listing in the context; dumpPlan logs plans at debug
// level; planOnly stops compilation after plan construction, producing an
// artifact that cannot build a runner.
func New(cl catalog.Catalog, keepProgram, dumpPlan, planOnly bool) *Compiler {
	return &Compiler{
		cl:          cl,
		keepProgram: keepProgram,
		dumpPlan:    dumpPlan,
		planOnly:    planOnly,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// WithLogger sets the compiler's logger.
func (c *Compiler) WithLogger(logger *slog.Logger) *Compiler {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Compile parses and plans the statement in sctx, populating schemas,
// plans, and the generated program listing. It does not build a runner.
func (c *Compiler) Compile(_ context.Context, sctx *Context) error {
	codegen.Initialize()

	if c.cl == nil {
		return base.New(base.CodeCompileError, "no catalog available")
	}

	stmt, err := parser.Parse(sctx.SQL)
	if err != nil {
		return base.Errorf(base.CodeCompileError, "%v", err)
	}
	sctx.Stmt = stmt

	if stmt.From == "" {
		return base.New(base.CodeCompileError, "statement has no FROM table")
	}
	tbl, ok := c.cl.Table(sctx.DB, stmt.From)
	if !ok {
		return base.Errorf(base.CodeNotFound, "table %s.%s not found", sctx.DB, stmt.From)
	}
	sctx.scanRows = tbl.Rows

	an, err := analyze(stmt, tbl.Schema)
	if err != nil {
		return err
	}
	sctx.analysis = an
	sctx.Schema = an.outSchema
	if !sctx.BatchMode {
		sctx.RequestSchema = tbl.Schema
	}

	sctx.LogicalPlan = buildLogicalPlan(sctx.DB, stmt)
	sctx.PhysicalPlan = buildPhysicalPlan(sctx, tbl.Schema, an)

	if c.dumpPlan {
		c.logger.Debug("compiled plans",
			"sql", sctx.SQL,
			"logical", plan.ExplainLogical(sctx.LogicalPlan),
			"physical", plan.ExplainPhysical(sctx.PhysicalPlan))
	}

	if c.planOnly {
		return nil
	}
	if err := c.generatePrograms(sctx, tbl.Schema, an); err != nil {
		return err
	}
	return nil
}

// BuildRunner assembles the executable runner tree from the programs
// generated by Compile.
func (c *Compiler) BuildRunner(_ context.Context, sctx *Context) error {
	an := sctx.analysis
	if an == nil {
		return base.New(base.CodeCompileError, "statement was not compiled")
	}
	if c.planOnly {
		return base.New(base.CodeCompileError, "plan-only compilation cannot build a runner")
	}

	var root exec.Runner
	if sctx.BatchMode {
		root = &exec.TableScanRunner{
			TableName: sctx.Stmt.From,
			Schema:    an.inSchema,
			Rows:      sctx.scanRows,
		}
	} else {
		root = &exec.RequestScanRunner{Schema: an.inSchema}
	}

	if sctx.predProg != nil {
		root = &exec.FilterRunner{Child: root, Pred: sctx.predProg}
	}

	switch {
	case len(an.keys) > 0:
		// Aggregate-free grouped statements still collapse to one row per
		// group; AggRunner with no aggregates emits the key values alone.
		root = &exec.GroupRunner{Child: root, KeyProgs: sctx.keyProgs}
		root = &exec.AggRunner{
			Child:    root,
			KeyProgs: sctx.keyProgs,
			Aggs:     sctx.aggSpecs,
			Schema:   an.groupedSchema,
		}
		// Reorder grouped output (keys first, aggregates after) back into
		// SELECT-list order.
		root = &exec.ProjectRunner{Child: root, Progs: sctx.projProgs, Schema: an.outSchema}
	case len(an.aggs) > 0:
		root = &exec.AggRunner{Child: root, Aggs: sctx.aggSpecs, Schema: an.outSchema}
	case !an.star:
		root = &exec.ProjectRunner{Child: root, Progs: sctx.projProgs, Schema: an.outSchema}
	}

	if sctx.Stmt.Limit != nil {
		root = &exec.LimitRunner{Child: root, Count: *sctx.Stmt.Limit}
	}

	sctx.Runner = root
	return nil
}

// generatePrograms compiles every scalar expression the plan needs and,
// when requested, renders the combined listing.
func (c *Compiler) generatePrograms(sctx *Context, in codec.Schema, an *analyzed) error {
	var listing strings.Builder
	keep := func(section string, p *codegen.Program) {
		if !c.keepProgram {
			return
		}
		listing.WriteString("-- ")
		listing.WriteString(section)
		listing.WriteByte('\n')
		listing.WriteString(p.Disassemble())
	}

	if sctx.Stmt.Where != nil {
		p, err := codegen.Compile(sctx.Stmt.Where, in)
		if err != nil {
			return base.Errorf(base.CodeCompileError, "WHERE: %v", err)
		}
		sctx.predProg = p
		keep("predicate", p)
	}

	for _, key := range an.keys {
		p, err := codegen.Compile(key, in)
		if err != nil {
			return base.Errorf(base.CodeCompileError, "GROUP BY: %v", err)
		}
		sctx.keyProgs = append(sctx.keyProgs, p)
		keep("group key", p)
	}

	for _, agg := range an.aggs {
		spec := exec.AggSpec{Fn: agg.Fn, Star: agg.Star}
		if !agg.Star {
			p, err := codegen.Compile(agg.Arg, in)
			if err != nil {
				return base.Errorf(base.CodeCompileError, "%s: %v", agg.Fn, err)
			}
			spec.Arg = p
			keep("aggregate argument", p)
		}
		sctx.aggSpecs = append(sctx.aggSpecs, spec)
	}

	// Projection programs: over the input schema for scalar statements,
	// over the grouped intermediate schema for grouped ones.
	projSchema := in
	projExprs := an.scalarExprs
	if len(an.keys) > 0 {
		projSchema = an.groupedSchema
		projExprs = an.reorderExprs
	}
	for _, e := range projExprs {
		p, err := codegen.Compile(e, projSchema)
		if err != nil {
			return base.Errorf(base.CodeCompileError, "SELECT: %v", err)
		}
		sctx.projProgs = append(sctx.projProgs, p)
		keep("projection", p)
	}

	if c.keepProgram {
		sctx.Program = listing.String()
	}
	return nil
}

// buildLogicalPlan constructs the canonical logical tree for a statement.
func buildLogicalPlan(db string, stmt *parser.SelectStmt) plan.LogicalNode {
	var node plan.LogicalNode = &plan.LogicalScan{DB: db, Table: stmt.From}
	if stmt.Where != nil {
		node = &plan.LogicalFilter{Child: node, Cond: stmt.Where}
	}
	if len(stmt.GroupBy) > 0 {
		node = &plan.LogicalGroup{Child: node, Keys: stmt.GroupBy}
	}
	node = &plan.LogicalProject{Child: node, Items: stmt.Items}
	if stmt.Limit != nil {
		node = &plan.LogicalLimit{Child: node, Count: *stmt.Limit}
	}
	return node
}

// buildPhysicalPlan constructs the mode-specific executable plan shape.
// Batch and request plans differ structurally at the root, which is why
// the two modes never share compiled artifacts.
func buildPhysicalPlan(sctx *Context, in codec.Schema, an *analyzed) plan.PhysicalNode {
	var node plan.PhysicalNode
	if sctx.BatchMode {
		node = &plan.PhysTableScan{DB: sctx.DB, Table: sctx.Stmt.From, Schema: in}
	} else {
		node = &plan.PhysRequestScan{DB: sctx.DB, Table: sctx.Stmt.From, Schema: in}
	}
	if sctx.Stmt.Where != nil {
		node = &plan.PhysFilter{Child: node, Cond: sctx.Stmt.Where}
	}
	switch {
	case len(an.keys) > 0:
		node = &plan.PhysGroup{Child: node, Keys: an.keys}
		node = &plan.PhysAggregate{Child: node, Keys: an.keys, Aggs: an.aggs, Schema: an.groupedSchema}
		node = &plan.PhysProject{Child: node, Exprs: an.reorderExprs, Schema: an.outSchema}
	case len(an.aggs) > 0:
		node = &plan.PhysAggregate{Child: node, Aggs: an.aggs, Schema: an.outSchema}
	case !an.star:
		node = &plan.PhysProject{Child: node, Exprs: an.scalarExprs, Schema: an.outSchema}
	}
	if sctx.Stmt.Limit != nil {
		node = &plan.PhysLimit{Child: node, Count: *sctx.Stmt.Limit}
	}
	return node
}
