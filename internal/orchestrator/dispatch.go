package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursegenie/genie/internal/agents"
	"github.com/coursegenie/genie/internal/prompts"
	"github.com/coursegenie/genie/pkg/models"
)

// dispatcher wraps pool agents as graph nodes: it injects todo-execution
// context, runs the agent, detects completion, and converts failures into
// recoverable tool results.
type dispatcher struct {
	registry *Registry
	marker   string
	events   *emitter
}

// node builds the graph node for one configured agent name. The registry
// lookup happens at execution time, so a configured name with no
// registered agent is a recoverable runtime condition, not a wiring error.
func (d *dispatcher) node(name string) NodeFunc {
	return func(ctx context.Context, s *State) (*Update, error) {
		agent := d.registry.Get(name)
		if agent == nil {
			// Recoverable: report and let control return to the planner.
			return &Update{
				ToolResults: []models.ToolResult{{
					Type:    models.ToolResultError,
					Content: fmt.Sprintf("agent %q is not registered", name),
					Agent:   name,
				}},
				Messages: []models.Message{
					models.AssistantMessage(fmt.Sprintf("I couldn't reach the %s agent for this step.", name)),
				},
			}, nil
		}

		input := agents.Input{
			Messages:  s.Messages,
			SessionID: s.SessionID,
			Metadata: map[string]string{
				"agent":     name,
				"user_id":   s.UserID,
				"thread_id": s.ThreadID,
			},
		}

		// Inject the todo-execution context when a todo is in progress.
		todo, inProgress := s.CurrentTodo()
		if inProgress {
			ctxMsg := models.Message{
				Role:    models.RoleSystem,
				Content: prompts.TodoExecution(todo, s.CurrentTodoIndex, len(s.Todos), s.ToolResults),
			}
			input.Messages = append(append([]models.Message{}, s.Messages...), ctxMsg)
		}

		result, err := agent.Execute(ctx, input)
		if err != nil {
			// Force early synthesis rather than looping against a
			// known-broken agent.
			debugLog("dispatch: agent %s failed: %v", name, err)
			return &Update{
				ToolResults: []models.ToolResult{{
					Type:    models.ToolResultError,
					Content: err.Error(),
					Agent:   name,
				}},
				Messages: []models.Message{
					models.AssistantMessage(fmt.Sprintf("The %s agent ran into a problem: %v", name, err)),
				},
				NeedsSynthesis: boolPtr(true),
			}, nil
		}

		if result == nil {
			// Contract violation, contained like any other agent fault.
			return &Update{
				ToolResults: []models.ToolResult{{
					Type:    models.ToolResultError,
					Content: fmt.Sprintf("agent %q returned no result", name),
					Agent:   name,
				}},
			}, nil
		}

		// Explicit handoff bypasses the normal merge.
		if result.Command != nil {
			return &Update{Goto: result.Command.Goto}, nil
		}

		return d.merge(s, name, result), nil
	}
}

// merge converts a normal agent result into a state update, handling
// completion detection and the unconditional agent_output record.
func (d *dispatcher) merge(s *State, name string, result *agents.Result) *Update {
	update := &Update{ToolResults: result.ToolResults}

	finalText := ""
	if n := len(result.Messages); n > 0 {
		finalText = result.Messages[n-1].Content
	}

	// Structured completion is preferred; scanning the last message for
	// the legacy marker remains as a compatibility shim.
	done := result.Done || strings.Contains(finalText, d.marker)
	finalText = stripMarker(finalText, d.marker)

	msgs := make([]models.Message, len(result.Messages))
	copy(msgs, result.Messages)
	for i := range msgs {
		msgs[i].Content = stripMarker(msgs[i].Content, d.marker)
		if msgs[i].Agent == "" {
			msgs[i].Agent = name
		}
	}
	update.Messages = msgs

	if todo, inProgress := s.CurrentTodo(); inProgress && done {
		idx := s.CurrentTodoIndex
		todos := make([]models.Todo, len(s.Todos))
		copy(todos, s.Todos)
		todos[idx].Completed = true
		update.Todos = todos
		update.CompletedTodos = []int{idx}
		update.CurrentTodoIndex = intPtr(idx + 1)
		d.events.emit(Event{Type: EventTodoCompleted, Agent: name, TodoID: todo.ID, Message: todo.Text})
	}
	// On non-completion the cursor deliberately does not advance; a todo
	// whose agent never signals done will be re-dispatched until the
	// graph's step limit trips. See DESIGN.md.

	// Synthesis always gets the agent's final text, even when the
	// primary result channel was empty.
	if finalText != "" {
		update.ToolResults = append(update.ToolResults, models.ToolResult{
			Type:    models.ToolResultAgentOutput,
			Content: finalText,
			Agent:   name,
		})
	}

	return update
}

// stripMarker removes the completion marker and trailing whitespace from
// visible text.
func stripMarker(text, marker string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, marker, ""))
}
