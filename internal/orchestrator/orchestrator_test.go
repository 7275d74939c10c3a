package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/coursegenie/genie/internal/agents"
	"github.com/coursegenie/genie/internal/config"
	"github.com/coursegenie/genie/pkg/models"
)

func TestNewRequiresRegistry(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error without a registry")
	}
}

func TestNewRequiresAgents(t *testing.T) {
	if _, err := New(Config{Registry: NewRegistry()}); err == nil {
		t.Fatal("expected an error with an empty agent pool")
	}
}

func TestNewWithoutAPIKey(t *testing.T) {
	reg := NewRegistry()
	reg.Register(doneAgent(AgentGeneral, "ok"))

	_, err := New(Config{Agents: []string{AgentGeneral}, Registry: reg})
	if !errors.Is(err, config.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func newTestOrchestrator(t *testing.T, client *scriptClient, pool ...*stubAgent) *Orchestrator {
	t.Helper()

	reg := NewRegistry()
	names := make([]string, 0, len(pool))
	for _, a := range pool {
		reg.Register(a)
		names = append(names, a.name)
	}

	o, err := New(Config{Agents: names, Registry: reg, Client: client})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func TestRunTurnTwoStepPlan(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"two lookups needed","requires_tools":true,"steps":["search the catalog for algorithms courses","browse the course materials for the syllabus"]}`,
		"Here is the syllabus for CS201 Algorithms.",
	}}
	searcher := doneAgent(AgentSearch, "found CS201 Algorithms")
	browser := doneAgent(AgentBrowse, "syllabus: sorting, graphs, DP")
	o := newTestOrchestrator(t, client, searcher, browser, doneAgent(AgentGeneral, "ok"))

	result, err := o.RunTurn(context.Background(), TurnRequest{
		SessionID: "sess-42",
		Message:   "find the algorithms course and get its syllabus",
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if result.SessionID != "sess-42" {
		t.Errorf("session id not echoed: %q", result.SessionID)
	}
	if result.Reply != "Here is the syllabus for CS201 Algorithms." {
		t.Errorf("unexpected reply: %q", result.Reply)
	}

	// Each planned step dispatches exactly once.
	if searcher.calls != 1 || browser.calls != 1 {
		t.Errorf("dispatch counts: search=%d browse=%d, want 1 each", searcher.calls, browser.calls)
	}

	if result.Plan == nil || len(result.Plan.Steps) != 2 {
		t.Fatalf("plan not carried through: %+v", result.Plan)
	}
	if len(result.Todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(result.Todos))
	}
	for i, todo := range result.Todos {
		if !todo.Completed {
			t.Errorf("todo %d not completed: %+v", i, todo)
		}
	}

	// Tool results accumulate in dispatch order and are never dropped.
	if len(result.ToolResults) != 2 {
		t.Fatalf("expected 2 tool results, got %d", len(result.ToolResults))
	}
	if result.ToolResults[0].Agent != AgentSearch || result.ToolResults[1].Agent != AgentBrowse {
		t.Errorf("tool results out of order: %+v", result.ToolResults)
	}
}

func TestRunTurnThreadsIdentityToAgents(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"store it","requires_tools":true,"steps":["remember my locker code is 1234"]}`,
		"Noted.",
	}}

	var seen agents.Input
	reg := NewRegistry()
	reg.Register(&capturingAgent{
		name:  AgentMemory,
		inner: doneAgent(AgentMemory, "stored"),
		seen:  &seen,
	})

	o, err := New(Config{Agents: []string{AgentMemory}, Registry: reg, Client: client})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Close()

	req := TurnRequest{
		SessionID: "sess-77",
		ThreadID:  "thread-9",
		UserID:    "student-42",
		Message:   "remember my locker code is 1234",
	}
	if _, err := o.RunTurn(context.Background(), req); err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if got := seen.Metadata["user_id"]; got != "student-42" {
		t.Errorf("agent saw user_id %q, want %q", got, "student-42")
	}
	if got := seen.Metadata["thread_id"]; got != "thread-9" {
		t.Errorf("agent saw thread_id %q, want %q", got, "thread-9")
	}
	if seen.SessionID != "sess-77" {
		t.Errorf("agent saw session %q, want %q", seen.SessionID, "sess-77")
	}
}

func TestRunTurnExtraKeywordsRouteDispatch(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"store it","requires_tools":true,"steps":["jot down my locker code"]}`,
		"Done.",
	}}
	rememberer := doneAgent(AgentMemory, "stored")
	fallback := doneAgent(AgentGeneral, "ok")

	reg := NewRegistry()
	reg.Register(rememberer)
	reg.Register(fallback)

	o, err := New(Config{
		Agents:        []string{AgentMemory, AgentGeneral},
		ExtraKeywords: map[string][]string{AgentMemory: {"jot down"}},
		Registry:      reg,
		Client:        client,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Close()

	if _, err := o.RunTurn(context.Background(), TurnRequest{Message: "jot down my locker code"}); err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if rememberer.calls != 1 {
		t.Errorf("memory agent dispatched %d times, want 1", rememberer.calls)
	}
	if fallback.calls != 0 {
		t.Errorf("general agent dispatched %d times, want 0", fallback.calls)
	}
}

func TestRunTurnGeneratesSessionID(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"say hi","requires_tools":false,"steps":["greet the user"]}`,
		"Hello there.",
	}}
	o := newTestOrchestrator(t, client, doneAgent(AgentGeneral, "hi"))

	result, err := o.RunTurn(context.Background(), TurnRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if result.SessionID == "" {
		t.Error("expected a generated session id")
	}
}

func TestRunTurnStepLimit(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"one step","requires_tools":true,"steps":["search for something"]}`,
	}}
	// Never signals done, so the same todo is re-dispatched forever.
	stuck := &stubAgent{
		name: AgentSearch,
		result: &agents.Result{
			Messages: []models.Message{models.AssistantMessage("still looking")},
		},
	}

	reg := NewRegistry()
	reg.Register(stuck)
	o, err := New(Config{Agents: []string{AgentSearch}, Registry: reg, Client: client, StepLimit: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.Close()

	if _, err := o.RunTurn(context.Background(), TurnRequest{Message: "search for something"}); !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if stuck.calls < 2 {
		t.Errorf("stuck todo should have been re-dispatched, calls=%d", stuck.calls)
	}

	if !sawEvent(o.Events(), EventTurnFailed) {
		t.Error("expected a turn-failed event")
	}
}

func TestRunTurnEmitsEvents(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"one lookup","requires_tools":true,"steps":["search for office hours"]}`,
		"Office hours are posted on the course page.",
	}}
	o := newTestOrchestrator(t, client, doneAgent(AgentSearch, "found them"), doneAgent(AgentGeneral, "ok"))

	if _, err := o.RunTurn(context.Background(), TurnRequest{Message: "when are office hours?"}); err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	seen := drainEvents(o.Events())
	for _, want := range []EventType{
		EventTurnStarted,
		EventPlanCreated,
		EventAgentDispatched,
		EventTodoCompleted,
		EventSynthesisStarted,
		EventTurnCompleted,
	} {
		if !seen[want] {
			t.Errorf("event %q not emitted", want)
		}
	}
}

func TestRouteFromPlanner(t *testing.T) {
	client := &scriptClient{}
	o := newTestOrchestrator(t, client, doneAgent(AgentSearch, "ok"), doneAgent(AgentGeneral, "ok"))

	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"planner keeps control", State{ActiveAgent: NodePlanner}, NodePlanner},
		{"synthesis flag wins", State{NeedsSynthesis: true, ActiveAgent: AgentSearch}, NodeSynthesis},
		{"named synthesis", State{ActiveAgent: NodeSynthesis}, NodeSynthesis},
		{"configured agent", State{ActiveAgent: AgentSearch}, AgentSearch},
		{"unknown agent falls back to first", State{ActiveAgent: "ghost_agent"}, AgentSearch},
		{"empty falls back to first", State{}, AgentSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.routeFromPlanner(&tt.state); got != tt.want {
				t.Errorf("routeFromPlanner() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunTurnCompletedTodosStayCompleted(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"three steps","requires_tools":true,"steps":["search one","search two","search three"]}`,
		"All three done.",
	}}
	searcher := doneAgent(AgentSearch, "step result")
	o := newTestOrchestrator(t, client, searcher)

	result, err := o.RunTurn(context.Background(), TurnRequest{Message: "do three searches"})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if searcher.calls != 3 {
		t.Errorf("expected 3 dispatches, got %d", searcher.calls)
	}
	for i, todo := range result.Todos {
		if !todo.Completed {
			t.Errorf("todo %d regressed to incomplete", i)
		}
	}
}

// sawEvent scans buffered events for one of the given type without blocking.
func sawEvent(ch <-chan Event, want EventType) bool {
	return drainEvents(ch)[want]
}

// drainEvents collects every buffered event type without blocking.
func drainEvents(ch <-chan Event) map[EventType]bool {
	seen := make(map[EventType]bool)
	for {
		select {
		case ev := <-ch:
			seen[ev.Type] = true
		default:
			return seen
		}
	}
}
