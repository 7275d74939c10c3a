package agents

import (
	"context"
	"fmt"

	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/pkg/models"
)

// GeneralAgent answers directly from the model with no tools. It is the
// pool's fallback when no specialized agent fits.
type GeneralAgent struct {
	client llm.Client
}

// NewGeneralAgent creates a GeneralAgent over the given completion client.
func NewGeneralAgent(client llm.Client) *GeneralAgent {
	return &GeneralAgent{client: client}
}

// Name implements Agent.
func (a *GeneralAgent) Name() string { return "general" }

// Description implements Agent.
func (a *GeneralAgent) Description() string {
	return "Answers general questions directly, without platform tools"
}

// Execute implements Agent.
func (a *GeneralAgent) Execute(ctx context.Context, in Input) (*Result, error) {
	query := lastText(in.Messages)
	if query == "" {
		return nil, fmt.Errorf("general agent: empty request")
	}

	answer, err := a.client.Complete(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("general agent: completion: %w", err)
	}

	return &Result{
		Messages: []models.Message{models.AssistantMessage(answer)},
		Done:     true,
	}, nil
}
