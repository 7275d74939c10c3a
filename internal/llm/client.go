// Package llm provides the text-completion capability used by the
// orchestrator, behind a provider-agnostic interface.
package llm

import (
	"context"
	"sync"
)

// Client is the minimal completion contract the orchestrator depends on.
// Implementations may fail; call sites handle failure locally with a
// degraded fallback, no retry is performed here.
type Client interface {
	// Complete sends a single prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
	// Model returns the configured model name.
	Model() string
}

// TokenTracker accumulates token usage across API calls.
type TokenTracker struct {
	mu     sync.Mutex
	input  int64
	output int64
	calls  int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from a single API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input += input
	t.output += output
	t.calls++
}

// Total returns the accumulated input and output token counts.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input, t.output
}

// Calls returns the number of API calls recorded.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Reset clears all recorded usage.
func (t *TokenTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input, t.output, t.calls = 0, 0, 0
}
