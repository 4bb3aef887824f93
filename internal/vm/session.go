package vm

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/featsql/internal/base"
	"github.com/leapstack-labs/featsql/internal/exec"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// Session is the binding target of Engine.Get. A session is owned by a
// single caller goroutine; it is reusable and may be rebound to another
// artifact at any time between runs.
type Session interface {
	SetCompileInfo(info *CompileInfo)
	IsBatch() bool
}

// RunSession holds the state shared by both session modes.
type RunSession struct {
	compileInfo *CompileInfo
	debug       bool
	logger      *slog.Logger
}

// SetCompileInfo binds the session to a compiled artifact. Overwriting a
// previous binding is permitted.
func (s *RunSession) SetCompileInfo(info *CompileInfo) {
	s.compileInfo = info
}

// CompileInfo returns the bound artifact, or nil.
func (s *RunSession) CompileInfo() *CompileInfo {
	return s.compileInfo
}

// SetDebug toggles debug execution for subsequent runs.
func (s *RunSession) SetDebug(debug bool) {
	s.debug = debug
}

func (s *RunSession) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// runner returns the bound executable plan or a coded error.
func (s *RunSession) runner() (exec.Runner, error) {
	if s.compileInfo == nil {
		return nil, base.New(base.CodeInvalidArgument, "session has no compiled artifact")
	}
	r := s.compileInfo.Runner()
	if r == nil {
		return nil, base.New(base.CodeInvalidArgument, "artifact was compiled without a runner")
	}
	return r, nil
}

// RequestRunSession executes a request-mode plan over one input row.
type RequestRunSession struct {
	RunSession
}

// NewRequestRunSession creates a request-mode session. A nil logger
// discards.
func NewRequestRunSession(logger *slog.Logger) *RequestRunSession {
	return &RequestRunSession{RunSession{logger: logger}}
}

// IsBatch implements Session.
func (s *RequestRunSession) IsBatch() bool { return false }

// Run executes the bound plan over in and returns the first result row.
// found is false when the plan legitimately produced no row, which is a
// success. A partition result is an invalid top-level shape and fails.
func (s *RequestRunSession) Run(ctx context.Context, in codec.Row) (out codec.Row, found bool, err error) {
	r, err := s.runner()
	if err != nil {
		return nil, false, err
	}
	rc := exec.NewRequestContext(in, s.debug)
	output, err := r.Run(ctx, rc)
	if err != nil {
		return nil, false, err
	}
	if output == nil {
		s.log().Warn("run request plan output is null")
		return nil, false, base.New(base.CodeRunError, "run request plan output is null")
	}
	switch h := output.(type) {
	case exec.TableHandler:
		it := h.Iterator()
		if it == nil || !it.Next() {
			return nil, false, nil
		}
		return it.Row(), true, nil
	case exec.RowHandler:
		return h.Value(), true, nil
	case exec.PartitionHandler:
		s.log().Warn("partition output is invalid")
		return nil, false, base.New(base.CodeInvalidOutputShape, "partition output is invalid")
	default:
		return nil, false, base.Errorf(base.CodeInvalidOutputShape, "unexpected handler kind %s", output.Kind())
	}
}

// BatchRunSession executes a batch-mode plan over a stored table.
type BatchRunSession struct {
	RunSession
}

// NewBatchRunSession creates a batch-mode session. A nil logger discards.
func NewBatchRunSession(logger *slog.Logger) *BatchRunSession {
	return &BatchRunSession{RunSession{logger: logger}}
}

// IsBatch implements Session.
func (s *BatchRunSession) IsBatch() bool { return true }

// Run executes the bound plan and returns its result in table shape. A row
// result is wrapped into a one-row in-memory table; a partition result is
// an invalid top-level shape and fails.
func (s *BatchRunSession) Run(ctx context.Context) (exec.TableHandler, error) {
	output, err := s.execute(ctx)
	if err != nil {
		return nil, err
	}
	switch h := output.(type) {
	case exec.TableHandler:
		return h, nil
	case exec.RowHandler:
		table := exec.NewMemTable(h.Schema())
		table.Append(h.Value())
		return table, nil
	case exec.PartitionHandler:
		s.log().Warn("partition output is invalid")
		return nil, base.New(base.CodeInvalidOutputShape, "partition output is invalid")
	default:
		return nil, base.Errorf(base.CodeInvalidOutputShape, "unexpected handler kind %s", output.Kind())
	}
}

// RunRows executes the bound plan and collects every result row. The limit
// argument is part of the call contract but enforcement belongs to the
// execution engine, not this method.
func (s *BatchRunSession) RunRows(ctx context.Context, limit uint64) ([]codec.Row, error) {
	_ = limit
	output, err := s.execute(ctx)
	if err != nil {
		return nil, err
	}
	switch h := output.(type) {
	case exec.TableHandler:
		var rows []codec.Row
		it := h.Iterator()
		if it == nil {
			return rows, nil
		}
		for it.Next() {
			rows = append(rows, it.Row())
		}
		return rows, nil
	case exec.RowHandler:
		return []codec.Row{h.Value()}, nil
	case exec.PartitionHandler:
		s.log().Warn("partition output is invalid")
		return nil, base.New(base.CodeInvalidOutputShape, "partition output is invalid")
	default:
		return nil, base.Errorf(base.CodeInvalidOutputShape, "unexpected handler kind %s", output.Kind())
	}
}

func (s *BatchRunSession) execute(ctx context.Context) (exec.Handler, error) {
	r, err := s.runner()
	if err != nil {
		return nil, err
	}
	rc := exec.NewBatchContext(s.debug)
	output, err := r.Run(ctx, rc)
	if err != nil {
		return nil, err
	}
	if output == nil {
		s.log().Warn("run batch plan output is null")
		return nil, base.New(base.CodeRunError, "run batch plan output is null")
	}
	return output, nil
}
