// Package agents defines the specialized executors the orchestrator
// dispatches to, and the contract they implement.
package agents

import (
	"context"

	"github.com/coursegenie/genie/pkg/models"
)

// Input is what an agent receives for one execution.
type Input struct {
	// Messages is the conversation so far, possibly augmented with an
	// injected todo-execution context message.
	Messages []models.Message
	// SessionID identifies the conversation.
	SessionID string
	// Metadata carries optional execution hints.
	Metadata map[string]string
}

// Command is an explicit handoff instruction naming the next node.
// When an agent returns one, it is propagated verbatim and the normal
// state merge is bypassed.
type Command struct {
	// Goto is the name of the node that should receive control.
	Goto string
}

// Result is an agent's normal (non-handoff) output.
type Result struct {
	// Messages are appended to the conversation.
	Messages []models.Message
	// ToolResults are appended to the turn's accumulated results.
	ToolResults []models.ToolResult
	// Metadata carries optional result annotations.
	Metadata map[string]string
	// Command, if set, requests a handoff instead of a normal merge.
	Command *Command
	// Done reports that the current todo is finished. This is the
	// preferred completion signal; the text marker in the last message
	// is honored as a legacy fallback.
	Done bool
}

// Agent is one named executor in the pool.
type Agent interface {
	// Name returns the agent's registry name.
	Name() string
	// Description explains what the agent does, for the planner prompt.
	Description() string
	// Execute performs the agent's work for the current state.
	Execute(ctx context.Context, in Input) (*Result, error)
}

// lastUserText returns the text of the most recent user message.
func lastUserText(msgs []models.Message) string {
	if m, ok := models.LastOfRole(msgs, models.RoleUser); ok {
		return m.Content
	}
	return ""
}

// lastText returns the text of the most recent message of any role.
func lastText(msgs []models.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
