package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/prompts"
	"github.com/coursegenie/genie/pkg/models"
)

// fallbackTruncateLen bounds the degraded response built from raw gathered
// content when the synthesis completion call fails.
const fallbackTruncateLen = 500

// genericReply is the last-resort final message.
const genericReply = "Your request has been processed."

// Synthesizer produces the user-visible final message of a turn.
type Synthesizer struct {
	client llm.Client
	marker string
}

// NewSynthesizer creates the synthesis node implementation.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client, marker: prompts.CompletionMarker}
}

// Node runs the priority-ordered synthesis branches. Every branch clears
// NeedsSynthesis: this is the turn's terminal step.
func (sy *Synthesizer) Node(ctx context.Context, s *State) (*Update, error) {
	update := sy.respond(ctx, s)
	update.NeedsSynthesis = boolPtr(false)
	return update, nil
}

func (sy *Synthesizer) respond(ctx context.Context, s *State) *Update {
	// Legacy per-todo path. The planner/agent loop should never route
	// here with an open todo, but the old direct route is defended
	// against.
	if todo, ok := s.CurrentTodo(); ok && !todo.Completed {
		return sy.respondForTodo(ctx, s, todo)
	}

	// Aggregate path: flatten everything the agents gathered.
	if len(s.ToolResults) > 0 {
		return sy.respondAggregate(ctx, s, flattenResults(s.ToolResults))
	}

	// No tool results but completed todos: reconstruct from the most
	// recent assistant messages, one per todo.
	if len(s.CompletedTodos) > 0 {
		if gathered := recentAssistantText(s.Messages, len(s.Todos)); gathered != "" {
			return sy.respondAggregate(ctx, s, gathered)
		}
	}

	// No tools were required: answer directly.
	if s.Plan != nil && !s.Plan.RequiresTools {
		return sy.respondDirect(ctx, s)
	}

	// Default: last assistant message verbatim, or a placeholder.
	reply := s.LastAssistantText()
	if reply == "" {
		reply = genericReply
	}
	return &Update{Messages: []models.Message{models.AssistantMessage(reply)}}
}

// respondForTodo generates a response for a single open todo, detecting
// and stripping the completion marker.
func (sy *Synthesizer) respondForTodo(ctx context.Context, s *State, todo models.Todo) *Update {
	prompt := prompts.TodoExecution(todo, s.CurrentTodoIndex, len(s.Todos), s.ToolResults)

	text, err := sy.client.Complete(ctx, prompt)
	if err != nil {
		debugLog("synthesis: per-todo completion failed: %v", err)
		text = fmt.Sprintf("I couldn't finish the step %q. %s", todo.Text, genericReply)
	}

	idx := s.CurrentTodoIndex
	todos := make([]models.Todo, len(s.Todos))
	copy(todos, s.Todos)
	todos[idx].Completed = true

	return &Update{
		Messages:         []models.Message{models.AssistantMessage(stripMarker(text, sy.marker))},
		Todos:            todos,
		CompletedTodos:   []int{idx},
		CurrentTodoIndex: intPtr(idx + 1),
	}
}

// respondAggregate turns gathered content into one final answer, degrading
// to truncated raw content when the completion call fails.
func (sy *Synthesizer) respondAggregate(ctx context.Context, s *State, gathered string) *Update {
	reasoning := ""
	if s.Plan != nil {
		reasoning = s.Plan.Reasoning
	}

	text, err := sy.client.Complete(ctx, prompts.Synthesis(s.LastUserText(), reasoning, gathered))
	if err != nil {
		debugLog("synthesis: aggregate completion failed: %v", err)
		text = truncate(gathered, fallbackTruncateLen)
	}

	return &Update{Messages: []models.Message{models.AssistantMessage(strings.TrimSpace(text))}}
}

// respondDirect answers a request whose plan required no tools.
func (sy *Synthesizer) respondDirect(ctx context.Context, s *State) *Update {
	reasoning := ""
	if s.Plan != nil {
		reasoning = s.Plan.Reasoning
	}

	text, err := sy.client.Complete(ctx, prompts.DirectResponse(s.LastUserText(), reasoning))
	if err != nil {
		debugLog("synthesis: direct completion failed: %v", err)
		text = genericReply
	}

	return &Update{Messages: []models.Message{models.AssistantMessage(strings.TrimSpace(text))}}
}

// flattenResults renders the heterogeneous tool results as one text block.
// Known types contribute their content; anything else is serialized.
func flattenResults(results []models.ToolResult) string {
	var sb strings.Builder
	for _, r := range results {
		switch r.Type {
		case models.ToolResultAgentOutput, models.ToolResultRawOutput:
			sb.WriteString(r.Content)
		case models.ToolResultError:
			fmt.Fprintf(&sb, "error: %s", r.Content)
		default:
			raw, err := json.Marshal(r)
			if err != nil {
				sb.WriteString(r.Content)
			} else {
				sb.Write(raw)
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// recentAssistantText joins the last n assistant messages, oldest first.
func recentAssistantText(msgs []models.Message, n int) string {
	if n <= 0 {
		return ""
	}
	var picked []string
	for i := len(msgs) - 1; i >= 0 && len(picked) < n; i-- {
		if msgs[i].Role == models.RoleAssistant {
			picked = append(picked, msgs[i].Content)
		}
	}
	// Reverse into chronological order.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return strings.TrimSpace(strings.Join(picked, "\n"))
}

// truncate limits text to max characters.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
