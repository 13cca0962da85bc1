package dag

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jsbuild/internal/core"
	"jsbuild/internal/trace"
)

// bootstrapSteps builds the generator chain with sh standing in for the
// compiler: the "program" step copies a script into place and marks it
// executable, the generate step runs it and captures stdout.
func bootstrapSteps(t *testing.T, dir string) *Builder {
	t.Helper()
	src := filepath.Join(dir, "src", "jskwgen.sh")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("#!/bin/sh\nprintf 'KW\\r\\n'\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := map[string]string{"PATH": os.Getenv("PATH")}
	b := NewBuilder()
	steps := []core.Step{
		{
			Name:    "cc-jskwgen",
			Kind:    core.KindProgram,
			Inputs:  []string{"src/jskwgen.sh"},
			Outputs: []string{"out/jskwgen"},
			Command: []string{"sh", "-c", "cp src/jskwgen.sh out/jskwgen && chmod 755 out/jskwgen"},
			Env:     env,
		},
		{
			Name:    "gen-jsautokw.h",
			Kind:    core.KindGenerate,
			Inputs:  []string{"out/jskwgen"},
			Outputs: []string{"out/jsautokw.h"},
			Dir:     "out",
			Command: []string{"./jskwgen"},
			Capture: &core.Capture{Path: "out/jsautokw.h", Normalizer: core.NormalizeLineEndings},
		},
		{
			Name:    "obj-jsapi.c",
			Kind:    core.KindObject,
			Inputs:  []string{"out/jsautokw.h"},
			Outputs: []string{"out/jsapi.o"},
			Command: []string{"sh", "-c", "cat out/jsautokw.h > out/jsapi.o"},
			Env:     env,
		},
	}
	for _, s := range steps {
		if err := b.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	return b
}

func runBuild(t *testing.T, dir string, cache core.Cache) (*BuildResult, []byte) {
	t.Helper()
	g, err := bootstrapSteps(t, dir).Build()
	if err != nil {
		t.Fatal(err)
	}
	cr, err := NewCacheAwareRunner(core.NewRunner(dir, cache))
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewExecutor(g, cr)
	if err != nil {
		t.Fatal(err)
	}
	rec := trace.NewRecorder()
	e.Trace = rec

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := e.RunSerial(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := rec.Trace(g.Hash().String()).CanonicalJSON()
	if err != nil {
		t.Fatal(err)
	}
	return res, b
}

func TestCacheAwareRunner_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cache := core.NewFileCache(filepath.Join(t.TempDir(), "cache"))

	res, _ := runBuild(t, dir, cache)
	if !res.Succeeded() {
		t.Fatalf("first build failed: %v %v", res.FinalState, res.Errors)
	}
	got, err := os.ReadFile(filepath.Join(dir, "out", "jsapi.o"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "KW\n\n" {
		t.Fatalf("unexpected object content %q", got)
	}

	if err := os.Remove(filepath.Join(dir, "out", "jsautokw.h")); err != nil {
		t.Fatal(err)
	}

	res, _ = runBuild(t, dir, cache)
	for name, st := range res.FinalState {
		if st != StepCached {
			t.Errorf("%s: expected CACHED on rebuild, got %s", name, st)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "jsautokw.h")); err != nil {
		t.Fatalf("header not restored from cache: %v", err)
	}
}

func TestCacheAwareRunner_CleanBuildsProduceIdenticalTraces(t *testing.T) {
	_, t1 := runBuild(t, t.TempDir(), core.NoCache{})
	_, t2 := runBuild(t, t.TempDir(), core.NoCache{})
	if string(t1) != string(t2) {
		t.Fatalf("traces differ\n1=%s\n2=%s", t1, t2)
	}
}
