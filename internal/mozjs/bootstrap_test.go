package mozjs

import (
	"reflect"
	"testing"

	"jsbuild/internal/core"
	"jsbuild/internal/dag"
	"jsbuild/internal/toolchain"
)

func testBootstrapper(t *testing.T, os string, nix bool) *Bootstrapper {
	t.Helper()
	p, err := toolchain.LookupPlatform(os)
	if err != nil {
		t.Fatal(err)
	}
	c, err := toolchain.NewCompiler(p.Compiler, "")
	if err != nil {
		t.Fatal(err)
	}
	env := toolchain.NewEnv()
	env.AppendDefine(DefineUnix)
	return &Bootstrapper{Env: env, Compiler: c, Platform: p, Layout: testLayout, Nix: nix}
}

func TestBootstrapper_StepsNix(t *testing.T) {
	b := testBootstrapper(t, "linux", true)
	program, header := b.Steps(Generators[0])

	if program.Kind != core.KindProgram || header.Kind != core.KindGenerate {
		t.Fatalf("unexpected kinds %s, %s", program.Kind, header.Kind)
	}
	wantCmd := []string{"cc", "-DXP_UNIX", "src/third_party/js-1.7/jskwgen.c", "-o", "build/src/third_party/js-1.7/jskwgen"}
	if !reflect.DeepEqual(program.Command, wantCmd) {
		t.Fatalf("program command\nwant %v\ngot  %v", wantCmd, program.Command)
	}

	if !reflect.DeepEqual(header.Command, []string{"./jskwgen"}) {
		t.Fatalf("unexpected generator invocation %v", header.Command)
	}
	if header.Dir != "build/src/third_party/js-1.7" {
		t.Fatalf("generator must run from its own directory, got %q", header.Dir)
	}
	if !reflect.DeepEqual(header.Inputs, program.Outputs) {
		t.Fatalf("header step must depend on the executable: inputs %v, exe %v", header.Inputs, program.Outputs)
	}
	if header.Capture == nil || header.Capture.Path != "build/src/third_party/js-1.7/jsautokw.h" || header.Capture.Normalizer != core.NormalizeLineEndings {
		t.Fatalf("unexpected capture %+v", header.Capture)
	}
	if len(header.Env) != 0 {
		t.Fatalf("generators run with an empty environment, got %v", header.Env)
	}
}

func TestBootstrapper_StepsWindows(t *testing.T) {
	b := testBootstrapper(t, "windows", false)
	program, header := b.Steps(Generators[1])

	exe := "build/src/third_party/js-1.7/jscpucfg.exe"
	if !reflect.DeepEqual(program.Outputs, []string{exe}) {
		t.Fatalf("unexpected program outputs %v", program.Outputs)
	}
	if program.Command[0] != "cl" || program.Command[len(program.Command)-1] != "/Fe"+exe {
		t.Fatalf("unexpected program command %v", program.Command)
	}
	if !reflect.DeepEqual(header.Command, []string{exe}) || header.Dir != "" {
		t.Fatalf("unexpected generator invocation %v in %q", header.Command, header.Dir)
	}
}

func TestBootstrapper_GeneratorsAreIndependent(t *testing.T) {
	b := testBootstrapper(t, "linux", true)
	builder := dag.NewBuilder()
	headers, err := b.Register(builder, Generators)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"build/src/third_party/js-1.7/jsautokw.h", "build/src/third_party/js-1.7/jsautocfg.h"}
	if !reflect.DeepEqual(headers, want) {
		t.Fatalf("unexpected headers %v", headers)
	}

	wantEdges := []dag.Edge{
		{From: "cc-jskwgen", To: "gen-jsautokw.h"},
		{From: "cc-jscpucfg", To: "gen-jsautocfg.h"},
	}
	if got := builder.Edges(); !reflect.DeepEqual(got, wantEdges) {
		t.Fatalf("unexpected edges\nwant %v\ngot  %v", wantEdges, got)
	}
}
