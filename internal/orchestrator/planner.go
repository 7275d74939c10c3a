package orchestrator

import (
	"context"

	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/prompts"
	"github.com/coursegenie/genie/pkg/models"
)

// Planner decides the next hop of a turn: generate a fresh plan, dispatch
// the current todo to an agent, or declare the plan done and route to
// synthesis.
type Planner struct {
	client       llm.Client
	registry     *Registry
	keywords     AgentKeywords
	defaultAgent string
}

// NewPlanner creates a planner over the given completion client and pool.
func NewPlanner(client llm.Client, registry *Registry, defaultAgent string) *Planner {
	if defaultAgent == "" {
		defaultAgent = AgentGeneral
	}
	return &Planner{
		client:       client,
		registry:     registry,
		keywords:     DefaultAgentKeywords,
		defaultAgent: defaultAgent,
	}
}

// Node is the planner's graph node function.
func (p *Planner) Node(ctx context.Context, s *State) (*Update, error) {
	// A todo list exists: we are mid-dispatch.
	if s.Todos != nil {
		if s.CurrentTodoIndex >= len(s.Todos) {
			// All todos consumed; terminal for this loop.
			return &Update{
				NeedsSynthesis: boolPtr(true),
				ActiveAgent:    strPtr(NodeSynthesis),
			}, nil
		}

		todo := s.Todos[s.CurrentTodoIndex]
		return &Update{
			ActiveAgent:      strPtr(p.keywords.Classify(todo.Text)),
			CurrentTodoIndex: intPtr(s.CurrentTodoIndex),
		}, nil
	}

	// Fresh request: build a plan from the last message.
	query := lastMessageText(s.Messages)

	raw, err := p.client.Complete(ctx, prompts.Planning(p.registry.Descriptions(), query))
	if err != nil {
		// Degraded fallback: best-effort agent selection on the raw
		// query, no retry.
		debugLog("planner: completion failed, falling back to keyword selection: %v", err)
		return &Update{ActiveAgent: strPtr(p.fallbackAgent(query))}, nil
	}

	plan := ParsePlan(raw, p.defaultAgent)
	todos := models.TodosFromSteps(s.SessionID, plan.Steps)

	// Loop back into the planner to begin dispatch on the first todo.
	return &Update{
		Plan:             plan,
		Todos:            todos,
		CurrentTodoIndex: intPtr(0),
		CompletedTodos:   []int{},
		ActiveAgent:      strPtr(NodePlanner),
	}, nil
}

// fallbackAgent selects an agent from raw query text when plan generation
// fails.
func (p *Planner) fallbackAgent(query string) string {
	if a := p.registry.FindBest(query); a != nil {
		return a.Name()
	}
	return p.defaultAgent
}

// lastMessageText returns the text of the newest message regardless of
// role; for a fresh request this is the user's query.
func lastMessageText(msgs []models.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
