package orchestrator

// reducer merges one field of an Update into the State. The runtime applies
// the whole table after every node call, so merge behavior lives here as an
// explicit per-field dispatch table rather than inside the nodes.
type reducer func(s *State, u *Update)

// reducerTable lists one merge function per state field.
var reducerTable = []reducer{
	reduceMessages,
	reduceActiveAgent,
	reduceUserProfile,
	reducePlan,
	reduceTodos,
	reduceCurrentTodoIndex,
	reduceCompletedTodos,
	reduceToolResults,
	reduceNeedsSynthesis,
}

// apply merges an Update into the State through the reducer table.
func apply(s *State, u *Update) {
	if u == nil {
		return
	}
	for _, r := range reducerTable {
		r(s, u)
	}
}

// reduceMessages appends new entries; messages are append-only in a turn.
func reduceMessages(s *State, u *Update) {
	s.Messages = append(s.Messages, u.Messages...)
}

// reduceActiveAgent is last-write-wins.
func reduceActiveAgent(s *State, u *Update) {
	if u.ActiveAgent != nil {
		s.ActiveAgent = *u.ActiveAgent
	}
}

// reduceUserProfile shallow-merges keys, overwriting on conflict.
func reduceUserProfile(s *State, u *Update) {
	if len(u.UserProfile) == 0 {
		return
	}
	if s.UserProfile == nil {
		s.UserProfile = make(map[string]string, len(u.UserProfile))
	}
	for k, v := range u.UserProfile {
		s.UserProfile[k] = v
	}
}

// reducePlan replaces the plan wholesale.
func reducePlan(s *State, u *Update) {
	if u.Plan != nil {
		s.Plan = u.Plan
	}
}

// reduceTodos replaces the whole list; upstream mutates by copy-and-splice.
func reduceTodos(s *State, u *Update) {
	if u.Todos != nil {
		s.Todos = u.Todos
	}
}

// reduceCurrentTodoIndex is last-write-wins. Nodes only ever move the
// cursor forward; see the invariant on State.CurrentTodoIndex.
func reduceCurrentTodoIndex(s *State, u *Update) {
	if u.CurrentTodoIndex != nil {
		s.CurrentTodoIndex = *u.CurrentTodoIndex
	}
}

// reduceCompletedTodos appends completion events in arrival order.
func reduceCompletedTodos(s *State, u *Update) {
	s.CompletedTodos = append(s.CompletedTodos, u.CompletedTodos...)
}

// reduceToolResults appends; results are never pruned within a turn.
func reduceToolResults(s *State, u *Update) {
	s.ToolResults = append(s.ToolResults, u.ToolResults...)
}

// reduceNeedsSynthesis is last-write-wins.
func reduceNeedsSynthesis(s *State, u *Update) {
	if u.NeedsSynthesis != nil {
		s.NeedsSynthesis = *u.NeedsSynthesis
	}
}
