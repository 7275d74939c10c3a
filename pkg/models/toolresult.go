package models

// ToolResultType classifies a tool result record.
type ToolResultType string

const (
	// ToolResultAgentOutput is the final text an agent produced.
	ToolResultAgentOutput ToolResultType = "agent_output"
	// ToolResultRawOutput is unprocessed output from a tool call.
	ToolResultRawOutput ToolResultType = "raw_output"
	// ToolResultError records a recoverable failure.
	ToolResultError ToolResultType = "error"
)

// Valid returns true if the type is a known value.
func (t ToolResultType) Valid() bool {
	switch t {
	case ToolResultAgentOutput, ToolResultRawOutput, ToolResultError:
		return true
	default:
		return false
	}
}

// ToolResult is one record of work performed during a turn. Records
// accumulate monotonically across the turn and are consumed by synthesis.
type ToolResult struct {
	// Type classifies the record.
	Type ToolResultType `json:"type"`
	// Content is the record payload.
	Content string `json:"content"`
	// Agent names the agent that produced the record, if any.
	Agent string `json:"agent,omitempty"`
}

// UserProfile is a shallow key/value record describing the user.
// Merging overwrites per key.
type UserProfile map[string]string
