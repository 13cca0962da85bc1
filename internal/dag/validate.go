package dag

import "container/heap"

// indexQueue pops node indices smallest first, which keeps every traversal
// in canonical order.
type indexQueue []int

func (q indexQueue) Len() int           { return len(q) }
func (q indexQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q indexQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *indexQueue) Push(x any)        { *q = append(*q, x.(int)) }
func (q *indexQueue) Pop() any {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}

// kahnOrder returns node indices in topological order, breaking ties by
// canonical index. When the graph has a cycle the result is shorter than the
// node count and contains none of the nodes on or behind the cycle.
func (g *Graph) kahnOrder() []int {
	remaining := append([]int(nil), g.indeg...)

	ready := &indexQueue{}
	for i, d := range remaining {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]int, 0, len(remaining))
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		order = append(order, u)
		for _, v := range g.outgoing[u] {
			if remaining[v]--; remaining[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}
	return order
}

// checkAcyclic returns a cycle error naming one cycle when the graph is not
// a DAG.
func (g *Graph) checkAcyclic() error {
	order := g.kahnOrder()
	if len(order) == len(g.nodes) {
		return nil
	}
	return cycleError(g.cycleWitness(order))
}

// cycleWitness walks predecessors among the nodes Kahn's algorithm could not
// order. Each of them has a predecessor in that set, so the walk must revisit
// a node; the loop it closes is the witness. Starting from the smallest
// unordered index and always taking the smallest predecessor makes the
// witness stable.
func (g *Graph) cycleWitness(ordered []int) []string {
	stuck := make([]bool, len(g.nodes))
	for i := range stuck {
		stuck[i] = true
	}
	for _, i := range ordered {
		stuck[i] = false
	}

	start := -1
	for i, s := range stuck {
		if s {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	seenAt := make(map[int]int)
	var walk []int
	for u := start; ; {
		if at, ok := seenAt[u]; ok {
			walk = walk[at:]
			break
		}
		seenAt[u] = len(walk)
		walk = append(walk, u)

		next := -1
		for _, p := range g.incoming[u] { // sorted ascending
			if stuck[p] {
				next = p
				break
			}
		}
		if next < 0 {
			return nil
		}
		u = next
	}

	// walk follows edges backwards; report it forwards and closed.
	names := make([]string, 0, len(walk)+1)
	for i := len(walk) - 1; i >= 0; i-- {
		names = append(names, g.nodes[walk[i]].Name)
	}
	return append(names, names[0])
}
