package dag

import "jsbuild/internal/core"

// GraphHash is the deterministic identity of a Graph.
type GraphHash string

// StepDefHash is the identity of a step definition inside a graph.
//
// It differs from core.StepHash, which also covers input file contents and
// decides whether a step is up to date.
type StepDefHash string

// Edge is a dependency: To runs only after From succeeded.
type Edge struct {
	From string
	To   string
}

// Node is an immutable node of a Graph.
type Node struct {
	Name           string
	Step           core.Step
	DefinitionHash StepDefHash
	canonicalIndex int
}

// CanonicalIndex returns the node's position in the graph's canonical ordering.
func (n *Node) CanonicalIndex() int { return n.canonicalIndex }

func (h GraphHash) String() string { return string(h) }

func (h StepDefHash) String() string { return string(h) }
