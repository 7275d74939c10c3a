package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coursegenie/genie/internal/orchestrator"
	"github.com/coursegenie/genie/internal/session"
	"github.com/coursegenie/genie/pkg/models"
)

// fakeRunner is a stub TurnRunner that records requests.
type fakeRunner struct {
	result *orchestrator.TurnResult
	err    error
	events chan orchestrator.Event
	last   orchestrator.TurnRequest
}

func newFakeRunner(reply string) *fakeRunner {
	return &fakeRunner{
		result: &orchestrator.TurnResult{
			SessionID: "sess-1",
			Reply:     reply,
		},
		events: make(chan orchestrator.Event, 8),
	}
}

func (f *fakeRunner) RunTurn(ctx context.Context, req orchestrator.TurnRequest) (*orchestrator.TurnResult, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	if result.SessionID == "" {
		result.SessionID = req.SessionID
	}
	result.Messages = append(append([]models.Message{}, req.History...),
		models.UserMessage(req.Message),
		models.AssistantMessage(result.Reply))
	return &result, nil
}

func (f *fakeRunner) Events() <-chan orchestrator.Event { return f.events }

func newTestServer(t *testing.T, runner TurnRunner, sessions *session.Store) *Server {
	t.Helper()
	registry := orchestrator.NewRegistry()
	srv, err := New(Config{Runner: runner, Registry: registry, Sessions: sessions})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatReturnsReply(t *testing.T) {
	runner := newFakeRunner("The deadline is Friday.")
	srv := newTestServer(t, runner, nil)

	rec := postJSON(t, srv.Handler(), "/chat", chatRequest{Message: "when is the deadline?"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Reply != "The deadline is Friday." {
		t.Errorf("unexpected reply: %q", resp.Reply)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("unexpected session id: %q", resp.SessionID)
	}
	if runner.last.Message != "when is the deadline?" {
		t.Errorf("runner saw message %q", runner.last.Message)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(t, newFakeRunner("x"), nil)

	rec := postJSON(t, srv.Handler(), "/chat", chatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatRejectsInvalidJSON(t *testing.T) {
	srv := newTestServer(t, newFakeRunner("x"), nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newFakeRunner("x"), nil)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestChatRunnerError(t *testing.T) {
	runner := newFakeRunner("")
	runner.err = fmt.Errorf("provider unavailable")
	srv := newTestServer(t, runner, nil)

	rec := postJSON(t, srv.Handler(), "/chat", chatRequest{Message: "hi"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestChatPersistsHistory(t *testing.T) {
	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("opening session store: %v", err)
	}
	defer store.Close()

	runner := newFakeRunner("first reply")
	srv := newTestServer(t, runner, store)

	rec := postJSON(t, srv.Handler(), "/chat", chatRequest{Message: "first question"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	msgs, err := store.Messages(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("loading messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}

	// Second turn in the same session must rehydrate the stored history.
	rec = postJSON(t, srv.Handler(), "/chat", chatRequest{SessionID: "sess-1", Message: "second question"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(runner.last.History) != 2 {
		t.Errorf("expected 2 history messages on second turn, got %d", len(runner.last.History))
	}

	msgs, err = store.Messages(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("loading messages: %v", err)
	}
	if len(msgs) != 4 {
		t.Errorf("expected 4 persisted messages after second turn, got %d", len(msgs))
	}
}

func TestChatStreamEmitsResult(t *testing.T) {
	runner := newFakeRunner("streamed reply")
	runner.events <- orchestrator.Event{Type: orchestrator.EventTurnStarted}
	srv := newTestServer(t, runner, nil)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, _ := json.Marshal(chatRequest{Message: "stream this"})
	resp, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /chat/stream failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}

	var sawResult bool
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: result" {
			sawResult = true
		}
		if sawResult && strings.HasPrefix(line, "data: ") {
			var result chatResponse
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &result); err != nil {
				t.Fatalf("decoding result event: %v", err)
			}
			if result.Reply != "streamed reply" {
				t.Errorf("unexpected streamed reply: %q", result.Reply)
			}
			return
		}
	}
	t.Fatal("never saw a result event")
}

func TestAgentsEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeRunner("x"), nil)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "agents") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, newFakeRunner("x"), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, newFakeRunner("x"), nil)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}
