package dag

import (
	"container/heap"

	"github.com/pkg/errors"
)

// IsTerminal reports whether the state is final for this execution attempt.
func IsTerminal(s StepState) bool {
	switch s {
	case StepCompleted, StepFailed, StepSkipped, StepCached:
		return true
	default:
		return false
	}
}

// IsSuccessful reports whether the state satisfies dependents.
func IsSuccessful(s StepState) bool {
	return s == StepCompleted || s == StepCached
}

// Transition moves a single step from one state to another.
//
// The caller supplies the expected prior state so races are observable. The
// map is mutated if and only if the transition is allowed.
func Transition(state ExecutionState, name string, from, to StepState) error {
	cur, ok := state[name]
	if !ok {
		return errors.Errorf("unknown step in state: %q", name)
	}
	if cur != from {
		return errors.Errorf("invalid transition for %q: expected %s, got %s", name, from, cur)
	}
	if !isAllowedTransition(from, to) {
		return errors.Errorf("disallowed transition for %q: %s -> %s", name, from, to)
	}
	state[name] = to
	return nil
}

func isAllowedTransition(from, to StepState) bool {
	switch from {
	case StepPending:
		return to == StepRunning || to == StepCached || to == StepSkipped
	case StepRunning:
		return to == StepCompleted || to == StepFailed
	default:
		return false
	}
}

// FailAndPropagate marks name FAILED and transitively marks every PENDING
// dependent SKIPPED. It returns the newly skipped steps in canonical order.
//
// A RUNNING dependent is an invariant violation: it means a step was started
// before its dependencies succeeded.
func FailAndPropagate(g *Graph, state ExecutionState, name string) ([]string, error) {
	if g == nil {
		return nil, errors.New("nil graph")
	}
	node, ok := g.nodesByName[name]
	if !ok {
		return nil, errors.Errorf("unknown step: %q", name)
	}

	cur, ok := state[name]
	if !ok {
		return nil, errors.Errorf("unknown step in state: %q", name)
	}
	if cur != StepRunning && cur != StepFailed {
		return nil, errors.Errorf("cannot fail %q from state %s", name, cur)
	}
	state[name] = StepFailed

	visited := make([]bool, len(g.nodes))
	visited[node.canonicalIndex] = true

	hq := &indexQueue{}
	for _, d := range g.outgoing[node.canonicalIndex] {
		heap.Push(hq, d)
	}

	var skipped []string
	for hq.Len() > 0 {
		u := heap.Pop(hq).(int)
		if visited[u] {
			continue
		}
		visited[u] = true

		dep := g.nodes[u].Name
		switch state[dep] {
		case StepPending:
			state[dep] = StepSkipped
			skipped = append(skipped, dep)
		case StepRunning:
			return skipped, errors.Errorf("invariant violation: dependent %q of failed %q is RUNNING", dep, name)
		}

		for _, v := range g.outgoing[u] {
			if !visited[v] {
				heap.Push(hq, v)
			}
		}
	}

	return skipped, nil
}

// SkipPending marks every remaining PENDING step SKIPPED and returns them
// sorted by canonical order. RUNNING steps are left to finish.
func SkipPending(g *Graph, state ExecutionState) []string {
	var skipped []string
	for _, n := range g.nodes {
		if state[n.Name] == StepPending {
			state[n.Name] = StepSkipped
			skipped = append(skipped, n.Name)
		}
	}
	return skipped
}
