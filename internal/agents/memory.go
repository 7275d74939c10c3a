package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/memory"
	"github.com/coursegenie/genie/pkg/models"
)

// MemoryAgent stores facts the student wants kept and recalls them later.
type MemoryAgent struct {
	store  *memory.Store
	client llm.Client
}

// NewMemoryAgent creates a MemoryAgent over the given note store.
func NewMemoryAgent(store *memory.Store, client llm.Client) *MemoryAgent {
	return &MemoryAgent{store: store, client: client}
}

// Name implements Agent.
func (a *MemoryAgent) Name() string { return "memory" }

// Description implements Agent.
func (a *MemoryAgent) Description() string {
	return "Remembers facts on request and recalls previously stored notes"
}

// Execute implements Agent. A request phrased as "remember ..." stores a
// note; anything else is treated as a recall query.
func (a *MemoryAgent) Execute(ctx context.Context, in Input) (*Result, error) {
	query := lastText(in.Messages)
	if query == "" {
		return nil, fmt.Errorf("memory agent: empty request")
	}

	userID := in.Metadata["user_id"]

	if fact, ok := extractFact(query); ok {
		if _, err := a.store.Remember(userID, fact, "chat"); err != nil {
			return nil, fmt.Errorf("memory agent: %w", err)
		}
		reply := fmt.Sprintf("Noted. I'll remember that %s.", fact)
		return &Result{
			Messages: []models.Message{models.AssistantMessage(reply)},
			ToolResults: []models.ToolResult{{
				Type:    models.ToolResultRawOutput,
				Content: "stored: " + fact,
				Agent:   a.Name(),
			}},
			Done: true,
		}, nil
	}

	results, err := a.store.Recall(query, userID, 5)
	if err != nil {
		return nil, fmt.Errorf("memory agent: %w", err)
	}

	recalled := formatNotes(results)

	prompt := fmt.Sprintf(`The student asked:

%s

Notes previously stored for them:

%s

Answer the question using the notes. If no note is relevant, say you have nothing stored about it.`, query, recalled)

	answer, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("memory agent: completion: %w", err)
	}

	return &Result{
		Messages: []models.Message{models.AssistantMessage(answer)},
		ToolResults: []models.ToolResult{{
			Type:    models.ToolResultRawOutput,
			Content: recalled,
			Agent:   a.Name(),
		}},
		Done: true,
	}, nil
}

// extractFact pulls the fact out of a "remember ..." style request.
func extractFact(query string) (string, bool) {
	lower := strings.ToLower(query)
	for _, prefix := range []string{"remember that ", "remember ", "note down that ", "note down ", "memorize "} {
		if idx := strings.Index(lower, prefix); idx >= 0 {
			fact := strings.TrimSpace(query[idx+len(prefix):])
			if fact != "" {
				return fact, true
			}
		}
	}
	return "", false
}

func formatNotes(results []memory.Result) string {
	if len(results) == 0 {
		return "(no stored notes matched)"
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s", r.Note.Text)
		if r.Note.Source != "" {
			fmt.Fprintf(&b, " (from %s)", r.Note.Source)
		}
		b.WriteString("\n")
	}
	return b.String()
}
