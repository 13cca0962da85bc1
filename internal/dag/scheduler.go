package dag

import (
	"sort"
)

// ReadySteps returns the steps eligible to run, ordered by (depth, name).
//
// A step is ready iff it is PENDING and all its dependencies are COMPLETED or
// CACHED. ReadySteps does not mutate g or state.
func ReadySteps(g *Graph, state ExecutionState) []string {
	if g == nil {
		return nil
	}

	ready := make([]string, 0)
	for _, node := range g.nodes {
		if st, ok := state[node.Name]; !ok || st != StepPending {
			continue
		}
		if g.dependenciesSatisfied(node.canonicalIndex, state) {
			ready = append(ready, node.Name)
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		ad, _ := g.Depth(a)
		bd, _ := g.Depth(b)
		if ad != bd {
			return ad < bd
		}
		return a < b
	})

	return ready
}

func (g *Graph) dependenciesSatisfied(idx int, state ExecutionState) bool {
	for _, p := range g.incoming[idx] {
		if !IsSuccessful(state[g.nodes[p].Name]) {
			return false
		}
	}
	return true
}
