// Package server exposes the orchestrator over HTTP: a JSON chat endpoint,
// an SSE variant that streams orchestration events, and small read-only
// endpoints for the agent pool and health checks.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coursegenie/genie/internal/orchestrator"
	"github.com/coursegenie/genie/internal/session"
	"github.com/coursegenie/genie/pkg/models"
)

// TurnRunner runs one conversation turn. Satisfied by
// *orchestrator.Orchestrator.
type TurnRunner interface {
	RunTurn(ctx context.Context, req orchestrator.TurnRequest) (*orchestrator.TurnResult, error)
	Events() <-chan orchestrator.Event
}

// Config configures the HTTP server.
type Config struct {
	Host string
	Port int
	// Runner executes turns. Required.
	Runner TurnRunner
	// Registry exposes the agent pool to GET /agents. Required.
	Registry *orchestrator.Registry
	// Sessions, when non-nil, persists conversation history across turns.
	Sessions *session.Store
}

// Server is the HTTP front end.
type Server struct {
	cfg  Config
	http *http.Server

	// turnMu serializes turns: the orchestrator's event stream is a
	// single channel, so concurrent turns would interleave events.
	turnMu sync.Mutex
}

// New builds a Server. It fails on missing dependencies.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("server: runner is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("server: registry is required")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8731
	}

	s := &Server{cfg: cfg}
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the router with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/chat/stream", s.handleChatStream)
	mux.HandleFunc("/agents", s.handleAgents)
	mux.HandleFunc("/healthz", s.handleHealth)
	return corsMiddleware(mux)
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// chatRequest is the body of POST /chat and POST /chat/stream.
type chatRequest struct {
	SessionID string             `json:"session_id,omitempty"`
	ThreadID  string             `json:"thread_id,omitempty"`
	UserID    string             `json:"user_id,omitempty"`
	Message   string             `json:"message"`
	Profile   models.UserProfile `json:"profile,omitempty"`
}

// chatResponse is the body of a successful POST /chat.
type chatResponse struct {
	SessionID   string              `json:"session_id"`
	Reply       string              `json:"reply"`
	Plan        *models.Plan        `json:"plan,omitempty"`
	Todos       []models.Todo       `json:"todos,omitempty"`
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	result, err := s.runTurn(r.Context(), req)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:   result.SessionID,
		Reply:       result.Reply,
		Plan:        result.Plan,
		Todos:       result.Todos,
		ToolResults: result.ToolResults,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	sse := newSSEWriter(w)
	if sse == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	type turnOutcome struct {
		result *orchestrator.TurnResult
		err    error
	}
	done := make(chan turnOutcome, 1)

	go func() {
		result, err := s.runTurn(r.Context(), req)
		done <- turnOutcome{result: result, err: err}
	}()

	events := s.cfg.Runner.Events()
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			sse.sendEvent(string(ev.Type), ev)
		case <-ticker.C:
			sse.sendComment("keep-alive")
		case outcome := <-done:
			// Drain events already queued before the turn finished.
			for {
				select {
				case ev := <-events:
					sse.sendEvent(string(ev.Type), ev)
					continue
				default:
				}
				break
			}
			if outcome.err != nil {
				sse.sendEvent("error", map[string]string{"error": outcome.err.Error()})
				return
			}
			sse.sendEvent("result", chatResponse{
				SessionID:   outcome.result.SessionID,
				Reply:       outcome.result.Reply,
				Plan:        outcome.result.Plan,
				Todos:       outcome.result.Todos,
				ToolResults: outcome.result.ToolResults,
			})
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.cfg.Registry.Descriptions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeChatRequest parses and validates the request body, writing an
// error response and returning ok=false on failure.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return req, false
	}
	return req, true
}

// runTurn executes one turn, rehydrating and persisting history when a
// session store is configured.
func (s *Server) runTurn(ctx context.Context, req chatRequest) (*orchestrator.TurnResult, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	turn := orchestrator.TurnRequest{
		SessionID: req.SessionID,
		ThreadID:  req.ThreadID,
		UserID:    req.UserID,
		Message:   req.Message,
		Profile:   req.Profile,
	}

	if s.cfg.Sessions != nil && req.SessionID != "" {
		history, err := s.cfg.Sessions.Messages(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		turn.History = history
	}

	result, err := s.cfg.Runner.RunTurn(ctx, turn)
	if err != nil {
		return nil, err
	}

	if s.cfg.Sessions != nil {
		if _, err := s.cfg.Sessions.EnsureSession(ctx, result.SessionID, req.ThreadID, req.UserID); err != nil {
			return nil, fmt.Errorf("ensuring session: %w", err)
		}
		added := result.Messages[len(turn.History):]
		if err := s.cfg.Sessions.AppendMessages(ctx, result.SessionID, added); err != nil {
			return nil, fmt.Errorf("persisting messages: %w", err)
		}
	}

	return result, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware allows browser clients from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
