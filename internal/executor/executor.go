// Package executor drives a submitted query through the engine's poll state
// machine and assembles its paged results.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatlake/chatlake/internal/engine"
)

// ErrTimeout is returned when the poll budget is exhausted before the engine
// reaches a terminal state. Callers distinguish it from engine-reported
// failure with errors.Is.
var ErrTimeout = errors.New("query did not complete in time")

// EngineError is an engine-reported terminal failure. The message carries
// the engine state and its reason verbatim.
type EngineError struct {
	State  engine.State
	Reason string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("query %s: %s", e.State, e.Reason)
}

type Executor struct {
	engine   engine.Engine
	interval time.Duration
	maxPolls int
	logger   *slog.Logger
}

func New(eng engine.Engine, interval time.Duration, maxPolls int, logger *slog.Logger) *Executor {
	return &Executor{engine: eng, interval: interval, maxPolls: maxPolls, logger: logger}
}

// Run submits sql, polls until the engine reaches a terminal state, and
// returns the assembled rows. Failed or cancelled executions surface
// immediately with the engine's reason; no retries happen at this layer.
// Total wall clock is bounded by interval x maxPolls, enforced both by the
// poll counter and a context deadline.
func (e *Executor) Run(ctx context.Context, sql string) ([]map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.interval*time.Duration(e.maxPolls+1))
	defer cancel()

	id, err := e.engine.Submit(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("submit query: %w", err)
	}
	e.logger.Debug("query submitted", "execution_id", id)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for i := 0; i < e.maxPolls; i++ {
		st, err := e.engine.Status(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("poll status: %w", err)
		}
		switch st.State {
		case engine.StateSucceeded:
			return Assemble(ctx, e.engine, id)
		case engine.StateFailed, engine.StateCancelled:
			return nil, &EngineError{State: st.State, Reason: st.Reason}
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
	return nil, fmt.Errorf("%w after %d status checks", ErrTimeout, e.maxPolls)
}
