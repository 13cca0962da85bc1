package dag

// StepState is the runtime state of a step in one execution attempt.
type StepState string

const (
	StepPending   StepState = "PENDING"
	StepRunning   StepState = "RUNNING"
	StepCompleted StepState = "COMPLETED"
	StepFailed    StepState = "FAILED"
	StepSkipped   StepState = "SKIPPED"

	// StepCached marks a step that was up to date and not executed.
	StepCached StepState = "CACHED"
)

// ExecutionState maps step name to its current StepState.
type ExecutionState map[string]StepState

// NewExecutionState returns a state with every step of g PENDING.
func NewExecutionState(g *Graph) ExecutionState {
	state := make(ExecutionState, len(g.nodes))
	for _, n := range g.nodes {
		state[n.Name] = StepPending
	}
	return state
}

// Count returns the number of steps in state s.
func (st ExecutionState) Count(s StepState) int {
	n := 0
	for _, v := range st {
		if v == s {
			n++
		}
	}
	return n
}
