package orchestrator

import (
	"context"
	"errors"
	"fmt"
)

// Graph sentinels. Start has no node function; End terminates the run.
const (
	Start = "__start__"
	End   = "__end__"
)

// DefaultStepLimit bounds one run. It exists so a node that keeps routing
// to itself (e.g. an agent that never signals completion on a stuck todo)
// fails loudly instead of spinning forever.
const DefaultStepLimit = 50

// ErrStepLimit is returned when a run exceeds the configured step limit.
var ErrStepLimit = errors.New("graph step limit exceeded")

// NodeFunc executes one node against the current state and returns a
// partial update, which the runtime merges via the reducer table.
type NodeFunc func(ctx context.Context, s *State) (*Update, error)

// RouterFunc picks the next node from the merged state.
type RouterFunc func(s *State) string

// Graph is a minimal sequential state graph: named nodes, one static or
// conditional outgoing edge per node, and a step limit. The routing table
// is fixed at construction time and never changes during execution.
type Graph struct {
	nodes     map[string]NodeFunc
	edges     map[string]string
	routers   map[string]RouterFunc
	entry     string
	stepLimit int
}

// NewGraph creates an empty graph with the default step limit.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]NodeFunc),
		edges:     make(map[string]string),
		routers:   make(map[string]RouterFunc),
		stepLimit: DefaultStepLimit,
	}
}

// AddNode registers a named node.
func (g *Graph) AddNode(name string, fn NodeFunc) {
	g.nodes[name] = fn
}

// AddEdge adds an unconditional transition from one node to another.
func (g *Graph) AddEdge(from, to string) {
	if from == Start {
		g.entry = to
		return
	}
	g.edges[from] = to
}

// AddConditionalEdge routes from a node through a router function.
func (g *Graph) AddConditionalEdge(from string, router RouterFunc) {
	g.routers[from] = router
}

// SetStepLimit overrides the default step limit. Values <= 0 are ignored.
func (g *Graph) SetStepLimit(n int) {
	if n > 0 {
		g.stepLimit = n
	}
}

// Run executes nodes sequentially from the entry node until End, merging
// each node's update into the state before routing. An update's Goto field
// overrides the node's configured edge.
func (g *Graph) Run(ctx context.Context, s *State) error {
	if g.entry == "" {
		return errors.New("graph has no entry edge")
	}

	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps >= g.stepLimit {
			return fmt.Errorf("%w after %d steps at node %q", ErrStepLimit, steps, current)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("graph: unknown node %q", current)
		}

		update, err := fn(ctx, s)
		if err != nil {
			return fmt.Errorf("node %q: %w", current, err)
		}

		var handoff string
		if update != nil {
			handoff = update.Goto
			apply(s, update)
		}

		switch {
		case handoff != "":
			current = handoff
		case g.routers[current] != nil:
			current = g.routers[current](s)
		case g.edges[current] != "":
			current = g.edges[current]
		default:
			return fmt.Errorf("graph: node %q has no outgoing edge", current)
		}
	}

	return nil
}
