// Package prompts contains the prompt builders for the orchestration loop.
// Builders are pure functions from structured inputs to prompt text.
package prompts

import (
	"fmt"
	"strings"

	"github.com/coursegenie/genie/pkg/models"
)

// AgentDescription pairs an agent name with what it does, for the
// planner's candidate list.
type AgentDescription struct {
	Name        string
	Description string
}

// Planning builds the prompt the planner sends to generate a fresh plan.
// The model is asked for JSON first; the labeled-section format is the
// documented fallback it may produce instead.
func Planning(agents []AgentDescription, query string) string {
	var sb strings.Builder

	sb.WriteString("You are a planning assistant for a university learning platform.\n")
	sb.WriteString("Break the user's request into a short ordered list of concrete steps\n")
	sb.WriteString("and pick the agent best suited to the request overall.\n\n")

	sb.WriteString("Available agents:\n")
	for _, a := range agents {
		fmt.Fprintf(&sb, "- %s: %s\n", a.Name, a.Description)
	}

	sb.WriteString("\nRespond with ONLY a JSON object in this exact format:\n")
	sb.WriteString(`{
  "reasoning": "why you chose these steps",
  "requires_tools": true,
  "selected_agent": "one of the agent names above",
  "steps": ["first step", "second step"]
}
`)
	sb.WriteString("\nIf you cannot produce JSON, use labeled sections instead:\n")
	sb.WriteString("REASONING: ...\nREQUIRES_TOOLS: yes|no\nSELECTED_AGENT: ...\nSTEPS:\n- first step\n- second step\n")

	sb.WriteString("\nUser request:\n")
	sb.WriteString(query)

	return sb.String()
}

// TodoExecution builds the context message injected ahead of an agent run
// so the agent knows which todo it is executing.
func TodoExecution(todo models.Todo, index, total int, results []models.ToolResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are executing step %d of %d in a plan.\n", index+1, total)
	fmt.Fprintf(&sb, "Current task: %s\n", todo.Text)

	if len(results) > 0 {
		sb.WriteString("\nResults gathered so far:\n")
		for _, r := range results {
			if r.Agent != "" {
				fmt.Fprintf(&sb, "- [%s] %s\n", r.Agent, r.Content)
			} else {
				fmt.Fprintf(&sb, "- %s\n", r.Content)
			}
		}
	}

	fmt.Fprintf(&sb, "\nWhen the task is fully done, end your answer with %s.", CompletionMarker)

	return sb.String()
}

// Synthesis builds the prompt that turns accumulated tool output into the
// final user-facing answer.
func Synthesis(userQuery, reasoning, gathered string) string {
	var sb strings.Builder

	sb.WriteString("You are the final answer writer for a learning assistant.\n")
	sb.WriteString("Combine the gathered results below into one clear, helpful answer\n")
	sb.WriteString("to the user's request. Do not mention the internal steps.\n\n")

	fmt.Fprintf(&sb, "User request: %s\n", userQuery)
	if reasoning != "" {
		fmt.Fprintf(&sb, "Plan reasoning: %s\n", reasoning)
	}

	sb.WriteString("\nGathered results:\n")
	sb.WriteString(gathered)

	return sb.String()
}

// DirectResponse builds the prompt for requests that need no tool use.
func DirectResponse(userQuery, reasoning string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant for a university learning platform.\n")
	sb.WriteString("Answer the user's request directly and concisely.\n\n")

	fmt.Fprintf(&sb, "User request: %s\n", userQuery)
	if reasoning != "" {
		fmt.Fprintf(&sb, "Context: %s\n", reasoning)
	}

	return sb.String()
}

// CompletionMarker is the sentinel token agents append to signal that the
// current todo is finished. Structured completion (Result.Done) is
// preferred; scanning for this marker remains as a compatibility shim.
const CompletionMarker = "[TASK_COMPLETE]"
