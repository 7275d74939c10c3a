package orchestrator

import (
	"sync"

	"github.com/coursegenie/genie/internal/agents"
	"github.com/coursegenie/genie/internal/prompts"
)

// Registry holds the named agent pool. It provides thread-safe lookup by
// name and best-effort selection from free-form query text.
type Registry struct {
	// order preserves registration order; the first registered agent is
	// the routing default.
	order []string
	// byName maps agent names to their implementations.
	byName map[string]agents.Agent
	// keywords drives FindBest classification.
	keywords AgentKeywords
	// mu protects all fields.
	mu sync.RWMutex
}

// NewRegistry creates an empty registry using the default keyword table.
func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]agents.Agent),
		keywords: DefaultAgentKeywords,
	}
}

// Register adds an agent to the pool. Re-registering a name replaces the
// previous agent but keeps its position in the order.
func (r *Registry) Register(a agents.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[a.Name()]; !exists {
		r.order = append(r.order, a.Name())
	}
	r.byName[a.Name()] = a
}

// Get retrieves an agent by name. Returns nil if the name is not
// registered; callers treat that as a recoverable condition.
func (r *Registry) Get(name string) agents.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// FindBest selects an agent for raw query text via keyword
// classification, falling back to the first registered agent when the
// classified name is not in the pool.
func (r *Registry) FindBest(query string) agents.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.byName[r.keywords.Classify(query)]; ok {
		return a
	}
	if len(r.order) > 0 {
		return r.byName[r.order[0]]
	}
	return nil
}

// Names returns the registered agent names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Descriptions returns name/description pairs for the planner prompt.
func (r *Registry) Descriptions() []prompts.AgentDescription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]prompts.AgentDescription, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, prompts.AgentDescription{Name: name, Description: r.byName[name].Description()})
	}
	return out
}
