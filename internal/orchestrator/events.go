package orchestrator

import "time"

// EventType represents the kind of orchestrator event.
type EventType string

const (
	// EventTurnStarted indicates a user turn began processing.
	EventTurnStarted EventType = "turn_started"
	// EventPlanCreated indicates the planner produced a fresh plan.
	EventPlanCreated EventType = "plan_created"
	// EventAgentDispatched indicates control was routed to an agent.
	EventAgentDispatched EventType = "agent_dispatched"
	// EventTodoCompleted indicates a todo was marked done.
	EventTodoCompleted EventType = "todo_completed"
	// EventSynthesisStarted indicates the terminal synthesis step began.
	EventSynthesisStarted EventType = "synthesis_started"
	// EventTurnCompleted indicates the turn finished with a final message.
	EventTurnCompleted EventType = "turn_completed"
	// EventTurnFailed indicates the turn aborted with an error.
	EventTurnFailed EventType = "turn_failed"
)

// Event is emitted by the orchestrator as a turn progresses. Observers
// (CLI, HTTP stream) use it for progress display; dropping events is
// acceptable, they carry no state.
type Event struct {
	// Type is the kind of event.
	Type EventType `json:"type"`
	// Agent is the related agent name, if applicable.
	Agent string `json:"agent,omitempty"`
	// TodoID is the related todo, if applicable.
	TodoID string `json:"todo_id,omitempty"`
	// Message provides additional context.
	Message string `json:"message,omitempty"`
	// Err carries the error for failure events.
	Err error `json:"-"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}

// emitter fans events out to an optional buffered channel without ever
// blocking the turn.
type emitter struct {
	ch chan Event
}

func newEmitter(buffer int) *emitter {
	if buffer <= 0 {
		buffer = 64
	}
	return &emitter{ch: make(chan Event, buffer)}
}

// emit sends the event if the channel has room, otherwise drops it.
func (e *emitter) emit(ev Event) {
	if e == nil || e.ch == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case e.ch <- ev:
	default:
	}
}
