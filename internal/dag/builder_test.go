package dag

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"jsbuild/internal/core"
)

func TestBuilder_DerivesEdgesFromOutputs(t *testing.T) {
	b := NewBuilder()
	steps := []core.Step{
		{Name: "cc-jskwgen", Kind: core.KindProgram, Inputs: []string{"src/jskwgen.c"}, Outputs: []string{"out/jskwgen"}, Command: []string{"cc"}},
		{Name: "gen-jsautokw.h", Kind: core.KindGenerate, Inputs: []string{"out/jskwgen"}, Outputs: []string{"out/jsautokw.h"}, Command: []string{"./jskwgen"}},
		{Name: "obj-jsapi.c", Kind: core.KindObject, Inputs: []string{"src/jsapi.c", "./out/jsautokw.h"}, Outputs: []string{"out/jsapi.o"}, Command: []string{"cc"}},
	}
	for _, s := range steps {
		if err := b.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", s.Name, err)
		}
	}

	want := []Edge{
		{From: "cc-jskwgen", To: "gen-jsautokw.h"},
		{From: "gen-jsautokw.h", To: "obj-jsapi.c"},
	}
	if got := b.Edges(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected edges\nwant %v\ngot  %v", want, got)
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("expected 3 steps, got %d", g.Len())
	}
	if producer, ok := b.Producer("out/jsautokw.h"); !ok || producer != "gen-jsautokw.h" {
		t.Fatalf("unexpected producer %q", producer)
	}
}

func TestBuilder_ExplicitOrderDeduplicated(t *testing.T) {
	b := NewBuilder()
	_ = b.Add(core.Step{Name: "a", Outputs: []string{"a.out"}, Command: []string{"x"}})
	_ = b.Add(core.Step{Name: "b", Inputs: []string{"a.out"}, Command: []string{"x"}})
	b.Order("a", "b")

	if got := b.Edges(); len(got) != 1 {
		t.Fatalf("expected one deduplicated edge, got %v", got)
	}
}

func TestBuilder_Rejects(t *testing.T) {
	b := NewBuilder()
	if err := b.Add(core.Step{Name: "a", Outputs: []string{"x.h"}, Command: []string{"x"}}); err != nil {
		t.Fatal(err)
	}

	cases := map[string]core.Step{
		"unnamed":        {Command: []string{"x"}},
		"duplicate name": {Name: "a", Command: []string{"x"}},
		"output clash":   {Name: "b", Outputs: []string{"./x.h"}, Command: []string{"x"}},
		"own output":     {Name: "c", Inputs: []string{"y.h"}, Outputs: []string{"y.h"}, Command: []string{"x"}},
	}
	for name, s := range cases {
		if err := b.Add(s); !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("%s: expected ErrInvalidGraph, got %v", name, err)
		}
	}
	if b.Len() != 1 {
		t.Fatalf("rejected steps were registered: %d", b.Len())
	}
}

func TestBuilder_UnknownOrderTargetFailsBuild(t *testing.T) {
	b := NewBuilder()
	_ = b.Add(core.Step{Name: "a", Command: []string{"x"}})
	b.Order("a", "ghost")
	if _, err := b.Build(); !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
}
