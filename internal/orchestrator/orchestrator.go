package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coursegenie/genie/internal/config"
	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/prompts"
	"github.com/coursegenie/genie/pkg/models"
)

// Config contains everything needed to construct an Orchestrator. The
// completion client and agent pool are injected; nothing here reads
// ambient process state.
type Config struct {
	// Agents is the ordered list of agent node names forming the routing
	// table. The first entry is the routing default.
	Agents []string
	// DefaultAgent is the planner's fallback selection. Defaults to
	// AgentGeneral.
	DefaultAgent string
	// ExtraKeywords appends per-agent keywords to the classification
	// table, keyed by agent name (typically from an agent manifest).
	ExtraKeywords map[string][]string
	// Registry holds the agent pool. Required.
	Registry *Registry
	// Client is a pre-built completion client. When nil, one is built
	// from Completion; a missing API key is a fatal construction error.
	Client llm.Client
	// Completion configures the client built when Client is nil.
	Completion llm.ProviderConfig
	// StepLimit overrides the graph's default step limit.
	StepLimit int
	// LogPath enables file-backed debug logging when non-empty.
	LogPath string
	// EventBuffer sizes the event channel (default 64).
	EventBuffer int
}

// Orchestrator coordinates one conversation turn through the
// planner -> agent -> synthesis graph.
type Orchestrator struct {
	client      llm.Client
	registry    *Registry
	graph       *Graph
	agentNames  map[string]bool
	firstAgent  string
	events      *emitter
	logger      *DebugLogger
	planner     *Planner
	synthesizer *Synthesizer
}

// TurnRequest is one user message plus its conversation context.
type TurnRequest struct {
	// SessionID identifies the conversation; generated when empty.
	SessionID string
	// ThreadID and UserID are opaque identifiers passed through to state.
	ThreadID string
	UserID   string
	// Message is the user's text.
	Message string
	// History is the prior persisted conversation, if any.
	History []models.Message
	// Profile is an optional shallow description of the user.
	Profile models.UserProfile
}

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	// SessionID echoes (or reports the generated) session id.
	SessionID string
	// Reply is the final user-facing message.
	Reply string
	// Messages is the full conversation after the turn.
	Messages []models.Message
	// Plan, Todos and ToolResults expose the turn's working state for
	// observers; callers must not rely on them persisting.
	Plan        *models.Plan
	Todos       []models.Todo
	ToolResults []models.ToolResult
}

// New constructs an Orchestrator and its fixed routing table. It fails
// fast on configuration problems: a nil registry, no agents, or no way to
// build a completion client.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator: registry is required")
	}

	agentNames := cfg.Agents
	if len(agentNames) == 0 {
		agentNames = cfg.Registry.Names()
	}
	if len(agentNames) == 0 {
		return nil, fmt.Errorf("orchestrator: no agents configured")
	}

	client := cfg.Client
	if client == nil {
		if cfg.Completion.APIKey == "" {
			return nil, fmt.Errorf("orchestrator: completion client: %w", config.ErrNoAPIKey)
		}
		var err error
		client, err = llm.NewClient(cfg.Completion)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: completion client: %w", err)
		}
	}

	logger, err := NewDebugLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	setPackageLogger(logger)

	o := &Orchestrator{
		client:      client,
		registry:    cfg.Registry,
		agentNames:  make(map[string]bool, len(agentNames)),
		firstAgent:  agentNames[0],
		events:      newEmitter(cfg.EventBuffer),
		logger:      logger,
		planner:     NewPlanner(client, cfg.Registry, cfg.DefaultAgent),
		synthesizer: NewSynthesizer(client),
	}
	if len(cfg.ExtraKeywords) > 0 {
		o.planner.keywords = o.planner.keywords.WithExtra(cfg.ExtraKeywords)
	}
	for _, name := range agentNames {
		o.agentNames[name] = true
	}

	o.graph = o.buildGraph(agentNames, cfg.StepLimit)

	return o, nil
}

// buildGraph wires the static routing table: start -> planner, planner ->
// {itself, agent, synthesis} via the conditional router, every agent ->
// planner, synthesis -> end.
func (o *Orchestrator) buildGraph(agentNames []string, stepLimit int) *Graph {
	g := NewGraph()
	g.SetStepLimit(stepLimit)

	g.AddEdge(Start, NodePlanner)
	g.AddNode(NodePlanner, o.plannerNode)
	g.AddConditionalEdge(NodePlanner, o.routeFromPlanner)

	d := &dispatcher{registry: o.registry, marker: prompts.CompletionMarker, events: o.events}
	for _, name := range agentNames {
		g.AddNode(name, d.node(name))
		g.AddEdge(name, NodePlanner)
	}

	g.AddNode(NodeSynthesis, o.synthesisNode)
	g.AddEdge(NodeSynthesis, End)

	return g
}

// plannerNode wraps the planner with event emission.
func (o *Orchestrator) plannerNode(ctx context.Context, s *State) (*Update, error) {
	update, err := o.planner.Node(ctx, s)
	if err != nil || update == nil {
		return update, err
	}

	if update.Plan != nil {
		o.events.emit(Event{
			Type:    EventPlanCreated,
			Message: fmt.Sprintf("%d step(s): %s", len(update.Plan.Steps), update.Plan.Reasoning),
		})
	}
	if update.ActiveAgent != nil {
		if name := *update.ActiveAgent; name != NodePlanner && name != NodeSynthesis {
			o.events.emit(Event{Type: EventAgentDispatched, Agent: name})
		}
	}

	return update, nil
}

// synthesisNode wraps the synthesizer with event emission.
func (o *Orchestrator) synthesisNode(ctx context.Context, s *State) (*Update, error) {
	o.events.emit(Event{Type: EventSynthesisStarted})
	return o.synthesizer.Node(ctx, s)
}

// routeFromPlanner implements the planner's conditional edge: loop to
// itself while it holds control, route to synthesis when flagged, else to
// the named agent, defaulting to the first configured agent.
func (o *Orchestrator) routeFromPlanner(s *State) string {
	switch {
	case s.ActiveAgent == NodePlanner:
		return NodePlanner
	case s.NeedsSynthesis || s.ActiveAgent == NodeSynthesis:
		return NodeSynthesis
	case o.agentNames[s.ActiveAgent]:
		return s.ActiveAgent
	default:
		return o.firstAgent
	}
}

// RunTurn processes one user message to completion. The state lives only
// for the duration of this call; persistence is the caller's concern.
func (o *Orchestrator) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	s := NewState(req.SessionID, req.ThreadID, req.UserID, req.History)
	s.UserProfile = req.Profile
	s.Messages = append(s.Messages, models.UserMessage(req.Message))

	o.events.emit(Event{Type: EventTurnStarted, Message: req.Message})
	o.logger.Log("turn started: session=%s message=%q", req.SessionID, req.Message)

	if err := o.graph.Run(ctx, s); err != nil {
		o.events.emit(Event{Type: EventTurnFailed, Err: err})
		o.logger.Log("turn failed: %v", err)
		return nil, err
	}

	reply := s.LastAssistantText()
	if reply == "" {
		reply = genericReply
	}

	o.events.emit(Event{Type: EventTurnCompleted, Message: reply})
	o.logger.Log("turn completed: %d message(s), %d tool result(s)", len(s.Messages), len(s.ToolResults))

	return &TurnResult{
		SessionID:   req.SessionID,
		Reply:       reply,
		Messages:    s.Messages,
		Plan:        s.Plan,
		Todos:       s.Todos,
		ToolResults: s.ToolResults,
	}, nil
}

// Logger returns the orchestrator's debug logger, for sharing with other
// components that log to the same file.
func (o *Orchestrator) Logger() *DebugLogger {
	return o.logger
}

// Events returns the orchestrator's event stream.
func (o *Orchestrator) Events() <-chan Event {
	return o.events.ch
}

// Close releases the orchestrator's resources.
func (o *Orchestrator) Close() error {
	return o.logger.Close()
}
