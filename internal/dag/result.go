package dag

import (
	"sort"

	"jsbuild/internal/core"
)

// BuildResult summarizes one graph execution attempt.
type BuildResult struct {
	GraphHash GraphHash

	// FinalState is the terminal state of each step.
	FinalState ExecutionState

	// ExecutionOrder lists the steps that were started, in dispatch order.
	ExecutionOrder []string

	StepHashes map[string]core.StepHash
	Stdout     map[string][]byte
	Stderr     map[string][]byte
	ExitCode   map[string]int

	// Errors holds the error of each step that could not produce a usable
	// result: a missing executable, an empty capture, an unreadable input.
	Errors map[string]error
}

func newBuildResult(g *Graph) *BuildResult {
	n := len(g.nodes)
	return &BuildResult{
		GraphHash:      g.Hash(),
		ExecutionOrder: make([]string, 0, n),
		StepHashes:     make(map[string]core.StepHash, n),
		Stdout:         make(map[string][]byte, n),
		Stderr:         make(map[string][]byte, n),
		ExitCode:       make(map[string]int, n),
		Errors:         make(map[string]error),
	}
}

func (r *BuildResult) record(name string, res *NodeResult) {
	if res == nil {
		return
	}
	r.StepHashes[name] = res.Hash
	r.Stdout[name] = res.Stdout
	r.Stderr[name] = res.Stderr
	r.ExitCode[name] = res.ExitCode
}

// Succeeded reports whether every step completed or was up to date.
func (r *BuildResult) Succeeded() bool {
	for _, st := range r.FinalState {
		if !IsSuccessful(st) {
			return false
		}
	}
	return true
}

// Failed returns the names of FAILED steps, sorted.
func (r *BuildResult) Failed() []string {
	return r.namesIn(StepFailed)
}

// Skipped returns the names of SKIPPED steps, sorted.
func (r *BuildResult) Skipped() []string {
	return r.namesIn(StepSkipped)
}

func (r *BuildResult) namesIn(s StepState) []string {
	var out []string
	for name, st := range r.FinalState {
		if st == s {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
