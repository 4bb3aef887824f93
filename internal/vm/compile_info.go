// Package vm is the execution core of the engine: the memoizing compile
// cache, the compiled-artifact type, and the run sessions that execute
// compiled plans and normalize their results.
package vm

import (
	"github.com/leapstack-labs/featsql/internal/compiler"
	"github.com/leapstack-labs/featsql/internal/exec"
	"github.com/leapstack-labs/featsql/internal/plan"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// CompileInfo is the compiled artifact for one (db, sql, mode) key. It is
// written by exactly one compile and becomes immutable the moment it is
// reachable from the cache or a session, so concurrent readers share it
// without locks.
type CompileInfo struct {
	ctx compiler.Context
}

func newCompileInfo(sql, db string, batch bool) *CompileInfo {
	return &CompileInfo{ctx: compiler.Context{SQL: sql, DB: db, BatchMode: batch}}
}

// SQL returns the statement text.
func (ci *CompileInfo) SQL() string { return ci.ctx.SQL }

// DB returns the database name.
func (ci *CompileInfo) DB() string { return ci.ctx.DB }

// IsBatch reports the execution mode the artifact was compiled for.
func (ci *CompileInfo) IsBatch() bool { return ci.ctx.BatchMode }

// OutputSchema returns the result schema.
func (ci *CompileInfo) OutputSchema() codec.Schema { return ci.ctx.Schema }

// RequestSchema returns the input row schema (request mode only).
func (ci *CompileInfo) RequestSchema() codec.Schema { return ci.ctx.RequestSchema }

// LogicalPlan returns the logical plan root.
func (ci *CompileInfo) LogicalPlan() plan.LogicalNode { return ci.ctx.LogicalPlan }

// PhysicalPlan returns the physical plan root.
func (ci *CompileInfo) PhysicalPlan() plan.PhysicalNode { return ci.ctx.PhysicalPlan }

// Program returns the generated evaluator listing, when it was kept.
func (ci *CompileInfo) Program() string { return ci.ctx.Program }

// Runner returns the executable plan, or nil for compile-only artifacts.
func (ci *CompileInfo) Runner() exec.Runner { return ci.ctx.Runner }
