package dag

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"jsbuild/internal/core"
)

type edgeIndex struct {
	from int
	to   int
}

// Graph is an immutable, validated build graph.
//
// It is safe for concurrent read access.
type Graph struct {
	nodesByName map[string]*Node
	nodes       []*Node // canonical order

	edges []edgeIndex // sorted

	outgoing [][]int // by canonical index, sorted ascending
	incoming [][]int // by canonical index, sorted ascending
	indeg    []int
	depth    []int // longest path from any root

	hash GraphHash
}

// NewGraph builds and validates a Graph.
//
// It rejects empty or duplicate step names, edges referencing unknown steps,
// duplicate edges, self-loops and cycles.
func NewGraph(steps []core.Step, edges []Edge) (*Graph, error) {
	if len(steps) == 0 {
		return nil, invalidf("no steps")
	}

	nodesByName := make(map[string]*Node, len(steps))
	nodes := make([]*Node, 0, len(steps))

	for _, s := range steps {
		if s.Name == "" {
			return nil, invalidf("step name is required")
		}
		if _, exists := nodesByName[s.Name]; exists {
			return nil, invalidf("duplicate step name: %q", s.Name)
		}
		node := &Node{Name: s.Name, Step: s, DefinitionHash: computeStepDefHash(s)}
		nodesByName[s.Name] = node
		nodes = append(nodes, node)
	}

	// Definition hash first, name as tie-breaker.
	sort.Slice(nodes, func(i, j int) bool {
		ai, aj := nodes[i], nodes[j]
		if ai.DefinitionHash != aj.DefinitionHash {
			return ai.DefinitionHash < aj.DefinitionHash
		}
		return ai.Name < aj.Name
	})
	for i, n := range nodes {
		n.canonicalIndex = i
	}

	mapped := make([]edgeIndex, 0, len(edges))
	seen := make(map[edgeIndex]struct{}, len(edges))
	for _, e := range edges {
		fromNode, okFrom := nodesByName[e.From]
		toNode, okTo := nodesByName[e.To]
		if !okFrom {
			return nil, invalidf("edge references unknown step (from): %q", e.From)
		}
		if !okTo {
			return nil, invalidf("edge references unknown step (to): %q", e.To)
		}
		if fromNode == toNode {
			return nil, invalidf("self-loop: %q -> %q", e.From, e.To)
		}

		pair := edgeIndex{from: fromNode.canonicalIndex, to: toNode.canonicalIndex}
		if _, exists := seen[pair]; exists {
			return nil, invalidf("duplicate edge: %q -> %q", e.From, e.To)
		}
		seen[pair] = struct{}{}
		mapped = append(mapped, pair)
	}

	sort.Slice(mapped, func(i, j int) bool {
		a, b := mapped[i], mapped[j]
		if a.from != b.from {
			return a.from < b.from
		}
		return a.to < b.to
	})

	outgoing := make([][]int, len(nodes))
	incoming := make([][]int, len(nodes))
	indeg := make([]int, len(nodes))
	for _, e := range mapped {
		outgoing[e.from] = append(outgoing[e.from], e.to)
		incoming[e.to] = append(incoming[e.to], e.from)
		indeg[e.to]++
	}
	for i := range nodes {
		sort.Ints(outgoing[i])
		sort.Ints(incoming[i])
	}

	g := &Graph{
		nodesByName: nodesByName,
		nodes:       nodes,
		edges:       mapped,
		outgoing:    outgoing,
		incoming:    incoming,
		indeg:       indeg,
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	g.depth = g.computeDepth()
	g.hash = g.computeGraphHash()
	return g, nil
}

// Hash returns the stable identity for this graph.
func (g *Graph) Hash() GraphHash { return g.hash }

// Len returns the number of steps.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodesByName[name]
	return n, ok
}

// Nodes returns the nodes in canonical order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the dependency edges as (From, To) name pairs in canonical order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, Edge{From: g.nodes[e.from].Name, To: g.nodes[e.to].Name})
	}
	return out
}

// Dependencies returns the names of the steps name directly depends on,
// sorted by name.
func (g *Graph) Dependencies(name string) []string {
	n, ok := g.nodesByName[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.incoming[n.canonicalIndex]))
	for _, p := range g.incoming[n.canonicalIndex] {
		out = append(out, g.nodes[p].Name)
	}
	sort.Strings(out)
	return out
}

// Depth returns the topological depth of the named step: the length of the
// longest path from any root to it.
func (g *Graph) Depth(name string) (int, bool) {
	n, ok := g.nodesByName[name]
	if !ok {
		return 0, false
	}
	return g.depth[n.canonicalIndex], true
}

func (g *Graph) computeDepth() []int {
	depth := make([]int, len(g.nodes))
	for _, u := range g.kahnOrder() {
		maxParent := 0
		for _, p := range g.incoming[u] {
			if cand := depth[p] + 1; cand > maxParent {
				maxParent = cand
			}
		}
		depth[u] = maxParent
	}
	return depth
}

// TopologicalOrder returns a deterministic topological ordering of step names.
func (g *Graph) TopologicalOrder() []string {
	order := g.kahnOrder()
	names := make([]string, 0, len(order))
	for _, idx := range order {
		names = append(names, g.nodes[idx].Name)
	}
	return names
}

func (g *Graph) computeGraphHash() GraphHash {
	h := sha256.New()

	writeCount(h, len(g.nodes))
	for _, n := range g.nodes {
		writeField(h, []byte(n.DefinitionHash))
	}

	writeCount(h, len(g.edges))
	for _, e := range g.edges {
		writeCount(h, e.from)
		writeCount(h, e.to)
	}

	return GraphHash(hex.EncodeToString(h.Sum(nil)))
}
