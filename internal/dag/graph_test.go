package dag

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"jsbuild/internal/core"
)

func step(name string) core.Step {
	return core.Step{Name: name, Kind: core.KindObject, Command: []string{"cc", "-c", name + ".c"}}
}

func TestNewGraph_DependencyChain(t *testing.T) {
	g, err := NewGraph(
		[]core.Step{step("C"), step("A"), step("B")},
		[]Edge{{From: "A", To: "B"}, {From: "B", To: "C"}},
	)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	order := g.TopologicalOrder()
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	if !(pos["A"] < pos["B"] && pos["B"] < pos["C"]) {
		t.Fatalf("expected A < B < C, got %v", order)
	}
	if d, _ := g.Depth("C"); d != 2 {
		t.Fatalf("expected depth 2 for C, got %d", d)
	}
	if deps := g.Dependencies("C"); len(deps) != 1 || deps[0] != "B" {
		t.Fatalf("unexpected dependencies of C: %v", deps)
	}
}

func TestNewGraph_HashIndependentOfInsertionOrder(t *testing.T) {
	g1, err := NewGraph(
		[]core.Step{step("A"), step("B"), step("C")},
		[]Edge{{From: "A", To: "C"}, {From: "B", To: "C"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := NewGraph(
		[]core.Step{step("C"), step("B"), step("A")},
		[]Edge{{From: "B", To: "C"}, {From: "A", To: "C"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if g1.Hash() != g2.Hash() {
		t.Fatalf("graph hash depends on insertion order: %s != %s", g1.Hash(), g2.Hash())
	}
}

func TestNewGraph_HashChangesWithDefinition(t *testing.T) {
	a := step("A")
	g1, _ := NewGraph([]core.Step{a}, nil)
	a.Command = []string{"cc", "-O2", "-c", "A.c"}
	g2, _ := NewGraph([]core.Step{a}, nil)
	if g1.Hash() == g2.Hash() {
		t.Fatal("changing a command did not change the graph hash")
	}
}

func TestNewGraph_Rejects(t *testing.T) {
	cases := map[string]struct {
		steps []core.Step
		edges []Edge
	}{
		"empty":          {},
		"unnamed":        {steps: []core.Step{{Command: []string{"x"}}}},
		"duplicate name": {steps: []core.Step{step("A"), step("A")}},
		"unknown from":   {steps: []core.Step{step("A")}, edges: []Edge{{From: "X", To: "A"}}},
		"unknown to":     {steps: []core.Step{step("A")}, edges: []Edge{{From: "A", To: "X"}}},
		"self loop":      {steps: []core.Step{step("A")}, edges: []Edge{{From: "A", To: "A"}}},
		"duplicate edge": {steps: []core.Step{step("A"), step("B")}, edges: []Edge{{From: "A", To: "B"}, {From: "A", To: "B"}}},
	}
	for name, tc := range cases {
		_, err := NewGraph(tc.steps, tc.edges)
		if !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("%s: expected ErrInvalidGraph, got %v", name, err)
		}
	}
}

func TestNewGraph_CycleWitness(t *testing.T) {
	_, err := NewGraph(
		[]core.Step{step("A"), step("B"), step("C")},
		[]Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "A"}},
	)
	if !errors.Is(err, ErrCycleFound) {
		t.Fatalf("expected ErrCycleFound, got %v", err)
	}
	var gerr *GraphError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GraphError, got %T", err)
	}
	if len(gerr.Cycle) != 4 || gerr.Cycle[0] != gerr.Cycle[3] {
		t.Fatalf("expected a closed three-step cycle, got %v", gerr.Cycle)
	}
	if !strings.Contains(err.Error(), " -> ") {
		t.Fatalf("expected cycle path in error message, got %q", err.Error())
	}
}
