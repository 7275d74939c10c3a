package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/coursegenie/genie/pkg/models"
)

func TestPlannerFreshRequestTwoStepPlan(t *testing.T) {
	client := &scriptClient{responses: []string{
		"STEPS:\n- search for office hours\n- summarize findings",
	}}
	registry := NewRegistry()
	registry.Register(doneAgent("search", "x"))
	p := NewPlanner(client, registry, "")

	s := NewState("sess", "", "", nil)
	s.Messages = append(s.Messages, models.UserMessage("find the professor's office hours and summarize them"))

	update, err := p.Node(context.Background(), s)
	if err != nil {
		t.Fatalf("Node failed: %v", err)
	}

	if update.Plan == nil {
		t.Fatal("expected a plan")
	}
	if len(update.Todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(update.Todos))
	}
	if update.CurrentTodoIndex == nil || *update.CurrentTodoIndex != 0 {
		t.Errorf("expected cursor 0, got %v", update.CurrentTodoIndex)
	}
	if update.ActiveAgent == nil || *update.ActiveAgent != NodePlanner {
		t.Errorf("expected active agent planner, got %v", update.ActiveAgent)
	}
	if update.Todos[0].Text != "search for office hours" {
		t.Errorf("unexpected first todo: %q", update.Todos[0].Text)
	}
	if update.Todos[0].Order != 0 || update.Todos[1].Order != 1 {
		t.Errorf("unexpected todo ordering: %+v", update.Todos)
	}
}

func TestPlannerDispatchesCurrentTodo(t *testing.T) {
	p := NewPlanner(&scriptClient{}, NewRegistry(), "")

	s := NewState("sess", "", "", nil)
	s.Todos = []models.Todo{
		{ID: "t0", Text: "search for office hours"},
		{ID: "t1", Text: "summarize findings"},
	}
	s.CurrentTodoIndex = 0

	update, err := p.Node(context.Background(), s)
	if err != nil {
		t.Fatalf("Node failed: %v", err)
	}

	if update.ActiveAgent == nil || *update.ActiveAgent != AgentSearch {
		t.Errorf("expected search dispatch, got %v", update.ActiveAgent)
	}
	if update.CurrentTodoIndex == nil || *update.CurrentTodoIndex != 0 {
		t.Errorf("cursor must not move on dispatch, got %v", update.CurrentTodoIndex)
	}
}

func TestPlannerAllTodosCompleteRoutesToSynthesis(t *testing.T) {
	client := &scriptClient{}
	p := NewPlanner(client, NewRegistry(), "")

	s := NewState("sess", "", "", nil)
	s.Todos = []models.Todo{
		{ID: "t0", Completed: true},
		{ID: "t1", Completed: true},
	}
	s.CurrentTodoIndex = 2

	update, err := p.Node(context.Background(), s)
	if err != nil {
		t.Fatalf("Node failed: %v", err)
	}

	if update.NeedsSynthesis == nil || !*update.NeedsSynthesis {
		t.Error("expected NeedsSynthesis true")
	}
	if update.ActiveAgent == nil || *update.ActiveAgent != NodeSynthesis {
		t.Errorf("expected synthesis routing, got %v", update.ActiveAgent)
	}
	if len(client.prompts) != 0 {
		t.Errorf("planner must not call the model with an exhausted cursor, saw %d prompt(s)", len(client.prompts))
	}
}

func TestPlannerCompletionFailureFallsBackToKeywords(t *testing.T) {
	client := &scriptClient{err: fmt.Errorf("provider down")}
	registry := NewRegistry()
	registry.Register(doneAgent("search", "x"))
	registry.Register(doneAgent("general", "y"))
	p := NewPlanner(client, registry, "")

	s := NewState("sess", "", "", nil)
	s.Messages = append(s.Messages, models.UserMessage("find the biology course"))

	update, err := p.Node(context.Background(), s)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}

	if update.ActiveAgent == nil || *update.ActiveAgent != "search" {
		t.Errorf("expected keyword fallback to search, got %v", update.ActiveAgent)
	}
	if update.Plan != nil {
		t.Error("fallback path must not fabricate a plan")
	}
}

func TestPlannerCompletionFailureEmptyRegistry(t *testing.T) {
	client := &scriptClient{err: fmt.Errorf("provider down")}
	p := NewPlanner(client, NewRegistry(), "general")

	s := NewState("sess", "", "", nil)
	s.Messages = append(s.Messages, models.UserMessage("anything"))

	update, err := p.Node(context.Background(), s)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if update.ActiveAgent == nil || *update.ActiveAgent != "general" {
		t.Errorf("expected configured default agent, got %v", update.ActiveAgent)
	}
}

func TestPlannerJSONPlan(t *testing.T) {
	client := &scriptClient{responses: []string{
		`{"reasoning":"one lookup","requires_tools":true,"selected_agent":"search","steps":["find the deadline"]}`,
	}}
	p := NewPlanner(client, NewRegistry(), "")

	s := NewState("sess-123", "", "", nil)
	s.Messages = append(s.Messages, models.UserMessage("when is the essay due?"))

	update, err := p.Node(context.Background(), s)
	if err != nil {
		t.Fatalf("Node failed: %v", err)
	}

	if update.Plan.Reasoning != "one lookup" {
		t.Errorf("unexpected reasoning: %q", update.Plan.Reasoning)
	}
	if len(update.Todos) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(update.Todos))
	}
	if update.Todos[0].ID != models.TodoID("sess-123", 0) {
		t.Errorf("unexpected todo id: %q", update.Todos[0].ID)
	}
}
