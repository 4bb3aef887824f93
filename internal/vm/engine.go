package vm

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/internal/codegen"
	"github.com/leapstack-labs/featsql/internal/compiler"
	"github.com/leapstack-labs/featsql/internal/plan"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// Options controls how far compilation proceeds.
type Options struct {
	// KeepProgram retains the generated evaluator listing on artifacts.
	KeepProgram bool
	// CompileOnly skips runner construction; artifacts cannot execute.
	CompileOnly bool
	// PlanOnly stops compilation after plan construction.
	PlanOnly bool
}

var runtimeOnce sync.Once

// InitializeGlobalRuntime performs the process-wide one-time initialization
// of the expression runtime. It is safe to call concurrently and before any
// compilation; repeat calls are no-ops.
func InitializeGlobalRuntime() {
	runtimeOnce.Do(codegen.Initialize)
}

// cacheMap maps database name -> statement text -> compiled artifact.
type cacheMap map[string]map[string]*CompileInfo

func (m cacheMap) lookup(db, sql string) *CompileInfo {
	if perDB, ok := m[db]; ok {
		return perDB[sql]
	}
	return nil
}

// Engine owns the per-mode compile caches and a hot-swappable catalog
// handle shared by concurrent compiles.
type Engine struct {
	cl     *catalog.Holder
	opts   Options
	logger *slog.Logger

	mu           sync.Mutex
	batchCache   cacheMap
	requestCache cacheMap
}

// NewEngine creates an engine over a catalog handle. A nil logger discards.
func NewEngine(cl *catalog.Holder, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cl:           cl,
		opts:         opts,
		logger:       logger,
		batchCache:   make(cacheMap),
		requestCache: make(cacheMap),
	}
}

// Get binds session to the compiled artifact for (db, sql, session mode),
// compiling on a cache miss.
//
// The protocol is deliberately two-phase: a locked cache lookup, an
// UNLOCKED compile, then a locked commit that re-checks the cache. The
// lock is never held across compilation, so concurrent misses for the same
// key may compile redundantly; the first commit wins and later duplicates
// are discarded, never treated as an error.
func (e *Engine) Get(ctx context.Context, sqlText, db string, session Session) error {
	if info := e.getCacheLocked(db, sqlText, session.IsBatch()); info != nil {
		session.SetCompileInfo(info)
		return nil
	}

	info := newCompileInfo(sqlText, db, session.IsBatch())
	comp := compiler.New(e.cl.Load(), e.opts.KeepProgram, false, e.opts.PlanOnly).
		WithLogger(e.logger)
	if err := comp.Compile(ctx, &info.ctx); err != nil {
		e.logger.Warn("compile failed", "db", db, "sql", sqlText, "error", err)
		return err
	}
	if !e.opts.CompileOnly {
		if err := comp.BuildRunner(ctx, &info.ctx); err != nil {
			e.logger.Warn("build runner failed", "db", db, "sql", sqlText, "error", err)
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cache := e.requestCache
	if session.IsBatch() {
		cache = e.batchCache
	}
	perDB, ok := cache[db]
	if !ok {
		perDB = make(map[string]*CompileInfo)
		cache[db] = perDB
	}
	if existing, ok := perDB[sqlText]; ok {
		// Another caller compiled and committed while we were unlocked;
		// drop our artifact and share theirs.
		session.SetCompileInfo(existing)
		return nil
	}
	perDB[sqlText] = info
	session.SetCompileInfo(info)
	return nil
}

// ExplainOutput carries the compile-time artifacts of one statement.
type ExplainOutput struct {
	InputSchema  codec.Schema
	OutputSchema codec.Schema
	LogicalPlan  string
	PhysicalPlan string
	Program      string
}

// Explain compiles the statement once, without touching the cache or
// building a runner, and reports its schemas, plans, and generated program.
func (e *Engine) Explain(ctx context.Context, sqlText, db string, batch bool) (*ExplainOutput, error) {
	if sqlText == "" || db == "" {
		return nil, base.New(base.CodeInvalidArgument, "explain requires a statement and a database")
	}
	sctx := compiler.Context{SQL: sqlText, DB: db, BatchMode: batch}
	comp := compiler.New(e.cl.Load(), true, true, false).WithLogger(e.logger)
	if err := comp.Compile(ctx, &sctx); err != nil {
		e.logger.Warn("explain compile failed", "db", db, "sql", sqlText, "error", err)
		return nil, err
	}
	return &ExplainOutput{
		InputSchema:  sctx.RequestSchema,
		OutputSchema: sctx.Schema,
		LogicalPlan:  plan.ExplainLogical(sctx.LogicalPlan),
		PhysicalPlan: plan.ExplainPhysical(sctx.PhysicalPlan),
		Program:      sctx.Program,
	}, nil
}

// ClearCacheLocked removes the batch and request cache entries for db
// under one critical section.
func (e *Engine) ClearCacheLocked(db string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.batchCache, db)
	delete(e.requestCache, db)
}

// SwapCatalog publishes a new catalog snapshot for future compiles.
// Cached artifacts compiled against the old snapshot stay valid until the
// caller clears them.
func (e *Engine) SwapCatalog(cl catalog.Catalog) {
	e.cl.Swap(cl)
}

// getCacheLocked looks up an artifact under the cache lock.
func (e *Engine) getCacheLocked(db, sqlText string, batch bool) *CompileInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if batch {
		return e.batchCache.lookup(db, sqlText)
	}
	return e.requestCache.lookup(db, sqlText)
}
