package models

import "fmt"

// Plan is the planner's structured output for one user request.
// It is replaced wholesale whenever the planner regenerates it.
type Plan struct {
	// Steps is the ordered list of work items that seeds the todo list.
	Steps []string `json:"steps"`
	// Reasoning explains why the planner chose these steps.
	Reasoning string `json:"reasoning"`
	// RequiresTools reports whether any step needs an agent with tools.
	RequiresTools bool `json:"requires_tools"`
	// SelectedAgent is the agent the planner considers the best overall
	// fit for the request. May be empty.
	SelectedAgent string `json:"selected_agent,omitempty"`
}

// Todo is one atomic unit of planned work.
type Todo struct {
	// ID uniquely identifies the todo. It embeds the session id and the
	// todo's position so ids stay stable across state copies.
	ID string `json:"id"`
	// Text describes the work to perform.
	Text string `json:"text"`
	// Completed reports whether the todo has been finished.
	// It transitions false to true exactly once per turn.
	Completed bool `json:"completed"`
	// Order is the todo's position in the original plan.
	Order int `json:"order"`
}

// TodoID builds the synthetic todo id for a session and step index.
func TodoID(sessionID string, index int) string {
	return fmt.Sprintf("todo_%s_%d", sessionID, index)
}

// TodosFromSteps builds a todo list one-to-one from plan steps.
func TodosFromSteps(sessionID string, steps []string) []Todo {
	todos := make([]Todo, 0, len(steps))
	for i, step := range steps {
		todos = append(todos, Todo{
			ID:    TodoID(sessionID, i),
			Text:  step,
			Order: i,
		})
	}
	return todos
}
