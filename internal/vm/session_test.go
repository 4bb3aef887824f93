package vm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/exec"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// stubRunner returns a fixed handler, standing in for a compiled plan.
type stubRunner struct {
	out exec.Handler
	err error
}

func (r *stubRunner) Run(context.Context, *exec.RunnerContext) (exec.Handler, error) {
	return r.out, r.err
}

func stubInfo(batch bool, out exec.Handler, err error) *CompileInfo {
	info := newCompileInfo("SELECT 1 FROM t", "d", batch)
	info.ctx.Runner = &stubRunner{out: out, err: err}
	return info
}

func sessionSchema() codec.Schema {
	return codec.NewSchema(
		codec.Column{Name: "a", Type: codec.TypeInt},
		codec.Column{Name: "b", Type: codec.TypeString},
	)
}

func TestBatchRunWrapsRowResult(t *testing.T) {
	schema := sessionSchema()
	row := exec.NewMemRow(schema, codec.Row{int64(7), "x"})

	s := NewBatchRunSession(nil)
	s.SetCompileInfo(stubInfo(true, row, nil))

	table, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count(table))

	it := table.Iterator()
	require.True(t, it.Next())
	assert.Equal(t, codec.Row{int64(7), "x"}, it.Row())
}

func TestBatchRunPassesTableThrough(t *testing.T) {
	schema := sessionSchema()
	in := exec.NewMemTableFromRows(schema, []codec.Row{
		{int64(1), "a"},
		{int64(2), "b"},
	})

	s := NewBatchRunSession(nil)
	s.SetCompileInfo(stubInfo(true, in, nil))

	table, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, in, table, "table results pass through unwrapped")
}

func TestBatchRunRejectsPartition(t *testing.T) {
	part := exec.NewMemPartition(sessionSchema())
	part.Add("k", codec.Row{"k"}, codec.Row{int64(1), "a"})

	s := NewBatchRunSession(nil)
	s.SetCompileInfo(stubInfo(true, part, nil))

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, base.CodeInvalidOutputShape, base.CodeOf(err))
}

func TestBatchRunWithoutArtifact(t *testing.T) {
	s := NewBatchRunSession(nil)

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, base.CodeInvalidArgument, base.CodeOf(err))
}

func TestBatchRunNilOutput(t *testing.T) {
	s := NewBatchRunSession(nil)
	s.SetCompileInfo(stubInfo(true, nil, nil))

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, base.CodeRunError, base.CodeOf(err))
}

func TestBatchRunRowsCollects(t *testing.T) {
	schema := sessionSchema()
	in := exec.NewMemTableFromRows(schema, []codec.Row{
		{int64(1), "a"},
		{int64(2), "b"},
		{int64(3), "c"},
	})

	s := NewBatchRunSession(nil)
	s.SetCompileInfo(stubInfo(true, in, nil))

	rows, err := s.RunRows(context.Background(), 2)
	require.NoError(t, err)
	// The limit argument is a hint; collection returns whatever the plan
	// produced.
	assert.Len(t, rows, 3)
}

func TestRequestRunReturnsFirstRow(t *testing.T) {
	schema := sessionSchema()
	in := exec.NewMemTableFromRows(schema, []codec.Row{
		{int64(1), "a"},
		{int64(2), "b"},
	})

	s := NewRequestRunSession(nil)
	s.SetCompileInfo(stubInfo(false, in, nil))

	out, found, err := s.Run(context.Background(), codec.Row{int64(9), "in"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, codec.Row{int64(1), "a"}, out)
}

func TestRequestRunEmptyTableIsSuccess(t *testing.T) {
	s := NewRequestRunSession(nil)
	s.SetCompileInfo(stubInfo(false, exec.NewMemTable(sessionSchema()), nil))

	out, found, err := s.Run(context.Background(), codec.Row{int64(9), "in"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestRequestRunUnwrapsRowResult(t *testing.T) {
	row := exec.NewMemRow(sessionSchema(), codec.Row{int64(5), "y"})

	s := NewRequestRunSession(nil)
	s.SetCompileInfo(stubInfo(false, row, nil))

	out, found, err := s.Run(context.Background(), codec.Row{int64(9), "in"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, codec.Row{int64(5), "y"}, out)
}

func TestRequestRunRejectsPartition(t *testing.T) {
	part := exec.NewMemPartition(sessionSchema())

	s := NewRequestRunSession(nil)
	s.SetCompileInfo(stubInfo(false, part, nil))

	_, _, err := s.Run(context.Background(), codec.Row{int64(9), "in"})
	require.Error(t, err)
	assert.Equal(t, base.CodeInvalidOutputShape, base.CodeOf(err))
}

func TestSessionRebind(t *testing.T) {
	schema := sessionSchema()
	first := stubInfo(true, exec.NewMemTableFromRows(schema, []codec.Row{{int64(1), "a"}}), nil)
	second := stubInfo(true, exec.NewMemTableFromRows(schema, []codec.Row{{int64(2), "b"}, {int64(3), "c"}}), nil)

	s := NewBatchRunSession(nil)
	s.SetCompileInfo(first)
	rows, err := s.RunRows(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	s.SetCompileInfo(second)
	rows, err = s.RunRows(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestEndToEndBatchAggregation(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()

	s := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx,
		"SELECT region, COUNT(*) AS n FROM events GROUP BY region", "feat", s))

	rows, err := s.RunRows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byRegion := map[string]int64{}
	for _, r := range rows {
		byRegion[r[0].(string)] = r[1].(int64)
	}
	assert.Equal(t, map[string]int64{"us": 2, "eu": 1}, byRegion)
}

func TestEndToEndBatchGroupByWithoutAggregates(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()

	s := NewBatchRunSession(nil)
	require.NoError(t, eng.Get(ctx,
		"SELECT region FROM events GROUP BY region", "feat", s))

	rows, err := s.RunRows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2, "one row per distinct region")
	assert.Equal(t, codec.Row{"us"}, rows[0])
	assert.Equal(t, codec.Row{"eu"}, rows[1])
}

func TestEndToEndRequestMode(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()

	s := NewRequestRunSession(nil)
	require.NoError(t, eng.Get(ctx,
		"SELECT user_id, score * 2 AS doubled FROM events", "feat", s))

	out, found, err := s.Run(ctx, codec.Row{int64(10), "ap", 0.25})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, codec.Row{int64(10), 0.5}, out)
}

func TestEndToEndRequestFilteredOut(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ctx := context.Background()

	s := NewRequestRunSession(nil)
	require.NoError(t, eng.Get(ctx,
		"SELECT user_id FROM events WHERE score > 0.9", "feat", s))

	out, found, err := s.Run(ctx, codec.Row{int64(10), "ap", 0.25})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func count(table exec.TableHandler) int {
	n := 0
	it := table.Iterator()
	if it == nil {
		return 0
	}
	for it.Next() {
		n++
	}
	return n
}
