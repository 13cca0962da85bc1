package dag

import (
	"path/filepath"

	"github.com/samber/lo"

	"jsbuild/internal/core"
)

// Builder collects steps and derives the dependency edges between them.
//
// A step that lists another step's output among its inputs depends on that
// step. Order adds edges that no file relationship expresses.
type Builder struct {
	steps     []core.Step
	names     map[string]struct{}
	producers map[string]string // normalized output path -> step name
	explicit  []Edge
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		names:     make(map[string]struct{}),
		producers: make(map[string]string),
	}
}

// Add registers a step. Step names must be unique and no two steps may
// declare the same output, since the producer of a file must be unambiguous.
func (b *Builder) Add(step core.Step) error {
	if step.Name == "" {
		return invalidf("step name is required")
	}
	if _, exists := b.names[step.Name]; exists {
		return invalidf("duplicate step name: %q", step.Name)
	}
	outputs := lo.Map(step.Outputs, normalizeStepPath)
	for _, out := range outputs {
		if owner, ok := b.producers[out]; ok {
			return invalidf("output %q of %q is already produced by %q", out, step.Name, owner)
		}
	}
	for _, in := range lo.Map(step.Inputs, normalizeStepPath) {
		if lo.Contains(outputs, in) {
			return invalidf("step %q consumes its own output %q", step.Name, in)
		}
	}

	b.names[step.Name] = struct{}{}
	for _, out := range outputs {
		b.producers[out] = step.Name
	}
	b.steps = append(b.steps, step)
	return nil
}

// Order records that after must run after before.
func (b *Builder) Order(before, after string) {
	b.explicit = append(b.explicit, Edge{From: before, To: after})
}

// Producer returns the step that declared path as an output.
func (b *Builder) Producer(path string) (string, bool) {
	name, ok := b.producers[normalizeStepPath(path, 0)]
	return name, ok
}

// Steps returns the registered steps in registration order.
func (b *Builder) Steps() []core.Step {
	return append([]core.Step(nil), b.steps...)
}

// Len returns the number of registered steps.
func (b *Builder) Len() int { return len(b.steps) }

// Edges returns the derived and explicit edges, deduplicated, in
// registration order.
func (b *Builder) Edges() []Edge {
	var edges []Edge
	for _, s := range b.steps {
		for _, in := range s.Inputs {
			if producer, ok := b.producers[normalizeStepPath(in, 0)]; ok {
				edges = append(edges, Edge{From: producer, To: s.Name})
			}
		}
	}
	edges = append(edges, b.explicit...)
	return lo.Uniq(edges)
}

// Build validates the collected steps and edges into a Graph.
func (b *Builder) Build() (*Graph, error) {
	return NewGraph(b.steps, b.Edges())
}

func normalizeStepPath(p string, _ int) string {
	return filepath.ToSlash(filepath.Clean(p))
}
