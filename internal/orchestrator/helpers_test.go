package orchestrator

import (
	"context"
	"fmt"

	"github.com/coursegenie/genie/internal/agents"
	"github.com/coursegenie/genie/pkg/models"
)

// scriptClient pops canned completion responses in order and records the
// prompts it was given.
type scriptClient struct {
	responses []string
	err       error
	prompts   []string
}

func (c *scriptClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", fmt.Errorf("script exhausted after %d prompt(s)", len(c.prompts))
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptClient) Model() string { return "script" }

// stubAgent is a canned pool agent that counts its executions.
type stubAgent struct {
	name   string
	result *agents.Result
	err    error
	calls  int
}

func (a *stubAgent) Name() string        { return a.name }
func (a *stubAgent) Description() string { return "stub " + a.name }

func (a *stubAgent) Execute(ctx context.Context, in agents.Input) (*agents.Result, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

// doneAgent builds a stub that answers with text and signals completion.
func doneAgent(name, text string) *stubAgent {
	return &stubAgent{
		name: name,
		result: &agents.Result{
			Messages: []models.Message{models.AssistantMessage(text)},
			Done:     true,
		},
	}
}

// testEmitter builds a throwaway emitter large enough that tests never
// block on the event channel.
func testEmitter() *emitter {
	return newEmitter(256)
}
