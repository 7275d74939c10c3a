package models

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message written by the student or teacher.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the assistant.
	RoleAssistant Role = "assistant"
	// RoleSystem marks an instruction message injected by the orchestrator.
	RoleSystem Role = "system"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message is one role-tagged text entry in a conversation.
type Message struct {
	// Role identifies who authored the message.
	Role Role `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// Agent is the name of the agent that produced the message, if any.
	Agent string `json:"agent,omitempty"`
	// CreatedAt is when the message was produced.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: time.Now()}
}

// LastOfRole returns the most recent message with the given role,
// or false if none exists.
func LastOfRole(msgs []Message, role Role) (Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return msgs[i], true
		}
	}
	return Message{}, false
}
