package vm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/internal/testutil"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

func testCatalog(t *testing.T) *catalog.MemCatalog {
	t.Helper()
	cat := catalog.NewMemCatalog()
	schema := codec.NewSchema(
		codec.Column{Name: "user_id", Type: codec.TypeInt},
		codec.Column{Name: "region", Type: codec.TypeString},
		codec.Column{Name: "score", Type: codec.TypeFloat},
	)
	err := cat.AddTable("feat", &catalog.Table{
		Name:   "events",
		Schema: schema,
		Rows: []codec.Row{
			{int64(1), "us", 0.5},
			{int64(2), "eu", 0.9},
			{int64(3), "us", 0.1},
		},
	})
	require.NoError(t, err)
	return cat
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	InitializeGlobalRuntime()
	holder := catalog.NewHolder(testCatalog(t))
	return NewEngine(holder, opts, testutil.NewTestLogger(t))
}

func TestEngineGetCachesArtifact(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()
	sql := "SELECT user_id FROM events"

	s1 := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", s1))
	require.NotNil(t, s1.CompileInfo())

	s2 := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", s2))

	assert.Same(t, s1.CompileInfo(), s2.CompileInfo(),
		"second lookup should bind the cached artifact")
}

func TestEngineModeIsolation(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()
	sql := "SELECT user_id FROM events"

	batch := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", batch))

	request := NewRequestRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", request))

	assert.NotSame(t, batch.CompileInfo(), request.CompileInfo(),
		"batch and request artifacts must never be shared")
	assert.True(t, batch.CompileInfo().IsBatch())
	assert.False(t, request.CompileInfo().IsBatch())
}

func TestEngineConcurrentMissesConverge(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()
	sql := "SELECT user_id, score FROM events WHERE score > 0.2"

	const n = 16
	sessions := make([]*BatchRunSession, n)
	var g errgroup.Group
	for i := range n {
		s := NewBatchRunSession(nil)
		sessions[i] = s
		g.Go(func() error {
			return eng.Get(ctx, sql, "feat", s)
		})
	}
	require.NoError(t, g.Wait())

	// Every session must end bound to the single committed artifact,
	// no matter who compiled first.
	cached := eng.getCacheLocked("feat", sql, true)
	require.NotNil(t, cached)
	for i, s := range sessions {
		assert.Same(t, cached, s.CompileInfo(), "session %d", i)
	}
}

func TestEngineClearCache(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()
	sql := "SELECT user_id FROM events"

	batch := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", batch))
	request := NewRequestRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", request))
	first := batch.CompileInfo()

	eng.ClearCacheLocked("feat")
	assert.Nil(t, eng.getCacheLocked("feat", sql, true))
	assert.Nil(t, eng.getCacheLocked("feat", sql, false))

	// The old binding stays usable; a new lookup recompiles.
	s := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", s))
	assert.NotSame(t, first, s.CompileInfo())
}

func TestEngineClearCacheOtherDatabaseUntouched(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()
	sql := "SELECT user_id FROM events"

	s := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx, sql, "feat", s))

	eng.ClearCacheLocked("other")
	assert.Same(t, s.CompileInfo(), eng.getCacheLocked("feat", sql, true))
}

func TestEngineCompileFailureNotCached(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()
	sql := "SELECT user_id FROM missing"

	s := NewBatchRunSession(nil)
	err := eng.Get(ctx, sql, "feat", s)
	require.Error(t, err)
	assert.Equal(t, base.CodeNotFound, base.CodeOf(err))
	assert.Nil(t, s.CompileInfo(), "a failed compile must not bind the session")
	assert.Nil(t, eng.getCacheLocked("feat", sql, true))

	// Publish a catalog that has the table; the same key must now compile.
	cat := catalog.NewMemCatalog()
	schema := codec.NewSchema(codec.Column{Name: "user_id", Type: codec.TypeInt})
	require.NoError(t, cat.AddTable("feat", &catalog.Table{
		Name:   "missing",
		Schema: schema,
		Rows:   []codec.Row{{int64(42)}},
	}))
	eng.SwapCatalog(cat)

	require.NoError(t, eng.Get(ctx, sql, "feat", s))
	require.NotNil(t, s.CompileInfo())
}

func TestEngineSyntaxErrorCode(t *testing.T) {
	eng := newTestEngine(t, Options{})

	s := NewBatchRunSession(nil)
	err := eng.Get(context.Background(), "SELECT FROM WHERE", "feat", s)
	require.Error(t, err)
	assert.Equal(t, base.CodeCompileError, base.CodeOf(err))
}

func TestEngineLogsCompileFailure(t *testing.T) {
	logger, buf := testutil.NewCaptureLogger()
	holder := catalog.NewHolder(testCatalog(t))
	eng := NewEngine(holder, Options{}, logger)

	s := NewBatchRunSession(nil)
	err := eng.Get(context.Background(), "SELECT x FROM missing", "feat", s)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "compile failed")
	assert.Contains(t, out, "db=feat")
}

func TestEngineCompileOnlySkipsRunner(t *testing.T) {
	eng := newTestEngine(t, Options{CompileOnly: true})

	s := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(context.Background(), "SELECT user_id FROM events", "feat", s))
	assert.Nil(t, s.CompileInfo().Runner())

	_, err := s.RunRows(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, base.CodeInvalidArgument, base.CodeOf(err))
}

func TestEngineExplain(t *testing.T) {
	eng := newTestEngine(t, Options{})

	out, err := eng.Explain(context.Background(),
		"SELECT region, COUNT(*) FROM events GROUP BY region", "feat", true)
	require.NoError(t, err)
	assert.Contains(t, out.PhysicalPlan, "TableScan(feat.events)")
	assert.Contains(t, out.PhysicalPlan, "Group(region)")
	assert.NotEmpty(t, out.LogicalPlan)
	assert.NotEmpty(t, out.Program)
	assert.Equal(t, 2, out.OutputSchema.Len())

	// Explain never warms the cache.
	assert.Nil(t, eng.getCacheLocked("feat", "SELECT region, COUNT(*) FROM events GROUP BY region", true))
}

func TestEngineExplainRequestMode(t *testing.T) {
	eng := newTestEngine(t, Options{})

	out, err := eng.Explain(context.Background(), "SELECT score FROM events", "feat", false)
	require.NoError(t, err)
	assert.Contains(t, out.PhysicalPlan, "RequestScan(feat.events)")
	assert.Equal(t, 3, out.InputSchema.Len())
}

func TestEngineExplainInvalidArguments(t *testing.T) {
	eng := newTestEngine(t, Options{})

	_, err := eng.Explain(context.Background(), "", "feat", true)
	require.Error(t, err)
	assert.Equal(t, base.CodeInvalidArgument, base.CodeOf(err))

	_, err = eng.Explain(context.Background(), "SELECT user_id FROM events", "", true)
	require.Error(t, err)
	assert.Equal(t, base.CodeInvalidArgument, base.CodeOf(err))
}

func TestInitializeGlobalRuntimeConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			InitializeGlobalRuntime()
		}()
	}
	wg.Wait()
}
