package executor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/chatlake/chatlake/internal/engine"
)

// fakeEngine scripts the engine side of the poll state machine: Status pops
// one scripted status per call, FetchPage serves pages keyed by token.
type fakeEngine struct {
	statuses    []engine.Status
	pages       map[string]engine.Page
	submitErr   error
	statusCalls int
}

func (f *fakeEngine) Submit(ctx context.Context, sql string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "exec-1", nil
}

func (f *fakeEngine) Status(ctx context.Context, id string) (engine.Status, error) {
	f.statusCalls++
	if len(f.statuses) == 0 {
		return engine.Status{State: engine.StateRunning}, nil
	}
	st := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return st, nil
}

func (f *fakeEngine) FetchPage(ctx context.Context, id, token string) (engine.Page, error) {
	return f.pages[token], nil
}

func newTestExecutor(eng engine.Engine, maxPolls int) *Executor {
	return New(eng, time.Millisecond, maxPolls, slog.Default())
}

func TestRun_SucceedsAfterPolling(t *testing.T) {
	eng := &fakeEngine{
		statuses: []engine.Status{
			{State: engine.StateRunning},
			{State: engine.StateRunning},
			{State: engine.StateSucceeded},
		},
		pages: map[string]engine.Page{
			"": {
				Columns: []string{"sender", "message"},
				Rows: [][]string{
					{"sender", "message"}, // header row
					{"Alice", "hello"},
					{"Bob", "hi"},
				},
			},
		},
	}

	rows, err := newTestExecutor(eng, 10).Run(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows (header excluded), got %d", len(rows))
	}
	if rows[0]["sender"] != "Alice" || rows[0]["message"] != "hello" {
		t.Errorf("row[0] = %v", rows[0])
	}
	if eng.statusCalls != 3 {
		t.Errorf("expected 3 status checks, got %d", eng.statusCalls)
	}
}

func TestRun_EngineCancellationSurfacesStateAndReason(t *testing.T) {
	eng := &fakeEngine{
		statuses: []engine.Status{
			{State: engine.StateCancelled, Reason: "user requested"},
		},
	}

	_, err := newTestExecutor(eng, 10).Run(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("expected error for cancelled execution")
	}
	if !strings.Contains(err.Error(), "CANCELLED") {
		t.Errorf("error should carry the engine state: %v", err)
	}
	if !strings.Contains(err.Error(), "user requested") {
		t.Errorf("error should carry the verbatim reason: %v", err)
	}
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		t.Errorf("expected an *EngineError, got %T", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("engine failure must not look like a timeout")
	}
}

func TestRun_EngineFailure(t *testing.T) {
	eng := &fakeEngine{
		statuses: []engine.Status{
			{State: engine.StateFailed, Reason: "SYNTAX_ERROR: line 1"},
		},
	}

	_, err := newTestExecutor(eng, 10).Run(context.Background(), "SELEC 1")
	if err == nil {
		t.Fatal("expected error for failed execution")
	}
	if !strings.Contains(err.Error(), "SYNTAX_ERROR: line 1") {
		t.Errorf("error should carry the verbatim reason: %v", err)
	}
}

func TestRun_TimeoutIsDistinctErrorKind(t *testing.T) {
	eng := &fakeEngine{} // never leaves Running

	_, err := newTestExecutor(eng, 3).Run(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	var engErr *EngineError
	if errors.As(err, &engErr) {
		t.Error("timeout must not be an engine-reported failure")
	}
}

func TestRun_SubmitError(t *testing.T) {
	eng := &fakeEngine{submitErr: errors.New("engine unavailable")}

	_, err := newTestExecutor(eng, 3).Run(context.Background(), "SELECT 1")
	if err == nil || !strings.Contains(err.Error(), "engine unavailable") {
		t.Errorf("expected submit error to propagate, got %v", err)
	}
}

func TestAssemble_PagesThroughContinuationTokens(t *testing.T) {
	eng := &fakeEngine{
		pages: map[string]engine.Page{
			"": {
				Columns: []string{"sender"},
				Rows: [][]string{
					{"sender"}, // header, first page only
					{"Alice"},
				},
				NextToken: "p2",
			},
			"p2": {
				Columns: []string{"sender"},
				Rows:    [][]string{{"Bob"}, {"Carol"}},
			},
		},
	}

	rows, err := Assemble(context.Background(), eng, "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows across pages, got %d", len(rows))
	}
	got := []string{rows[0]["sender"], rows[1]["sender"], rows[2]["sender"]}
	want := []string{"Alice", "Bob", "Carol"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d sender = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAssemble_EmptyResultSetIsNotAnError(t *testing.T) {
	eng := &fakeEngine{
		pages: map[string]engine.Page{
			"": {
				Columns: []string{"sender"},
				Rows:    [][]string{{"sender"}}, // header only
			},
		},
	}

	rows, err := Assemble(context.Background(), eng, "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty result set, got %d rows", len(rows))
	}
}

func TestAssemble_ShortRowsPadWithEmptyValues(t *testing.T) {
	eng := &fakeEngine{
		pages: map[string]engine.Page{
			"": {
				Columns: []string{"sender", "message"},
				Rows: [][]string{
					{"sender", "message"},
					{"Alice"}, // missing message value
				},
			},
		},
	}

	rows, err := Assemble(context.Background(), eng, "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0]["message"] != "" {
		t.Errorf("missing value should map to empty string, got %q", rows[0]["message"])
	}
}
