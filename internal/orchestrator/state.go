// Package orchestrator implements the planner/agent/synthesis loop that
// drives one assistant turn.
package orchestrator

import (
	"github.com/coursegenie/genie/pkg/models"
)

// Node names fixed by the routing table. Agent nodes are named after the
// configured agents.
const (
	NodePlanner   = "planner"
	NodeSynthesis = "synthesis"
)

// State is the per-turn record threaded through every node. It is owned by
// the graph runtime; nodes receive it read-only and return partial Updates
// which are merged by the reducer table in reducers.go.
type State struct {
	// Messages is the append-only conversation for this turn.
	Messages []models.Message
	// ActiveAgent names the node that should receive control next.
	ActiveAgent string
	// SessionID, ThreadID and UserID are opaque identifiers.
	SessionID string
	ThreadID  string
	UserID    string
	// UserProfile is a shallow record describing the user.
	UserProfile models.UserProfile
	// Plan is the planner's output, replaced wholesale when regenerated.
	Plan *models.Plan
	// Todos is the planned work list. The whole slice is replaced on
	// mutation; entries are never edited in place.
	Todos []models.Todo
	// CurrentTodoIndex is the cursor into Todos. It only advances when
	// the indexed todo is marked completed, and never decreases within
	// a turn.
	CurrentTodoIndex int
	// CompletedTodos records todo indices in completion order.
	CompletedTodos []int
	// ToolResults accumulates monotonically across the turn.
	ToolResults []models.ToolResult
	// NeedsSynthesis routes control to the synthesis node.
	NeedsSynthesis bool
}

// NewState creates the state for one turn, rehydrated from any prior
// conversation history.
func NewState(sessionID, threadID, userID string, history []models.Message) *State {
	msgs := make([]models.Message, len(history))
	copy(msgs, history)
	return &State{
		Messages:  msgs,
		SessionID: sessionID,
		ThreadID:  threadID,
		UserID:    userID,
	}
}

// LastAssistantText returns the most recent assistant message text, or "".
func (s *State) LastAssistantText() string {
	if m, ok := models.LastOfRole(s.Messages, models.RoleAssistant); ok {
		return m.Content
	}
	return ""
}

// LastUserText returns the most recent user message text, or "".
func (s *State) LastUserText() string {
	if m, ok := models.LastOfRole(s.Messages, models.RoleUser); ok {
		return m.Content
	}
	return ""
}

// CurrentTodo returns the todo under the cursor, or false when the cursor
// is exhausted or no plan exists.
func (s *State) CurrentTodo() (models.Todo, bool) {
	if s.Todos == nil || s.CurrentTodoIndex < 0 || s.CurrentTodoIndex >= len(s.Todos) {
		return models.Todo{}, false
	}
	return s.Todos[s.CurrentTodoIndex], true
}

// Update is a partial state returned by a node. Nil slices and nil
// pointers mean "field untouched"; the reducer table decides how each set
// field merges into State.
type Update struct {
	// Messages are appended to State.Messages.
	Messages []models.Message
	// ActiveAgent replaces State.ActiveAgent (last write wins).
	ActiveAgent *string
	// UserProfile is shallow-merged key by key.
	UserProfile models.UserProfile
	// Plan replaces State.Plan wholesale.
	Plan *models.Plan
	// Todos replaces State.Todos wholesale.
	Todos []models.Todo
	// CurrentTodoIndex replaces the cursor.
	CurrentTodoIndex *int
	// CompletedTodos are appended in completion order.
	CompletedTodos []int
	// ToolResults are appended.
	ToolResults []models.ToolResult
	// NeedsSynthesis replaces the flag.
	NeedsSynthesis *bool
	// Goto routes control directly to the named node, bypassing the
	// conditional router. Used for explicit agent handoffs.
	Goto string
}

// strPtr, intPtr and boolPtr build pointer fields for Updates.
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
