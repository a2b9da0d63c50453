package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatlake/chatlake/internal/executor"
)

type fakeRunner struct {
	rows    []map[string]string
	err     error
	lastSQL string
}

func (f *fakeRunner) Run(ctx context.Context, sql string) ([]map[string]string, error) {
	f.lastSQL = sql
	return f.rows, f.err
}

func serveChats(t *testing.T, runner *fakeRunner, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(8460, runner, slog.Default())
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := serveChats(t, &fakeRunner{}, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestChats_ReturnsMessages(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]string{
		{
			"message_id": "a1b2c3d4e5f60718",
			"date":       "2024-01-01",
			"time":       "10:00 AM",
			"sender":     "Alice",
			"message":    "Hello: world!",
			"word_count": "3",
		},
	}}
	w := serveChats(t, runner, "/api/v1/chats?sender=Alice")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected 1 message, got %d", len(body))
	}
	if body[0]["sender"] != "Alice" {
		t.Errorf("sender = %v", body[0]["sender"])
	}
	if body[0]["word_count"] != float64(3) {
		t.Errorf("word_count should be numeric, got %v", body[0]["word_count"])
	}
	if !strings.Contains(runner.lastSQL, "LOWER(sender) LIKE '%alice%'") {
		t.Errorf("sender filter not in query: %q", runner.lastSQL)
	}
}

func TestChats_LimitParamClamped(t *testing.T) {
	runner := &fakeRunner{}
	serveChats(t, runner, "/api/v1/chats?sender=Alice&limit=9999")

	if !strings.Contains(runner.lastSQL, "LIMIT 1000") {
		t.Errorf("limit should clamp to the maximum: %q", runner.lastSQL)
	}
}

func TestChats_BadLimitFallsBackToDefault(t *testing.T) {
	runner := &fakeRunner{}
	serveChats(t, runner, "/api/v1/chats?limit=abc")

	if !strings.Contains(runner.lastSQL, "LIMIT 200") {
		t.Errorf("non-numeric limit should use the default: %q", runner.lastSQL)
	}
}

func TestChats_EmptyResultIsEmptyArray(t *testing.T) {
	w := serveChats(t, &fakeRunner{}, "/api/v1/chats")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %q", got)
	}
}

func TestChats_EngineFailureIs500(t *testing.T) {
	runner := &fakeRunner{err: &executor.EngineError{State: "FAILED", Reason: "table not found"}}
	w := serveChats(t, runner, "/api/v1/chats")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(body["error"], "table not found") {
		t.Errorf("error payload should carry the reason: %q", body["error"])
	}
}

func TestChats_TimeoutIs504(t *testing.T) {
	runner := &fakeRunner{err: executor.ErrTimeout}
	w := serveChats(t, runner, "/api/v1/chats")

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", w.Code)
	}
}

func TestChats_CORSHeaders(t *testing.T) {
	w := serveChats(t, &fakeRunner{}, "/api/v1/chats")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("missing CORS origin header, got %q", got)
	}
}
