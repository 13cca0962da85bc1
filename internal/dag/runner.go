package dag

import (
	"context"

	"github.com/pkg/errors"

	"jsbuild/internal/core"
)

// NodeResult is the outcome of executing or restoring a single step.
type NodeResult struct {
	Hash core.StepHash

	Stdout   []byte
	Stderr   []byte
	ExitCode int

	FromCache         bool
	ArtifactsRestored int
}

// StepRunner executes a single step for the Executor.
//
// A non-zero ExitCode is a step failure. A non-nil error means no usable
// result could be produced; the executor fails the step with that error.
type StepRunner interface {
	// Probe reports whether the step is up to date. When cached is true the
	// result must be non-nil and the step's outputs are in place.
	Probe(ctx context.Context, step core.Step) (result *NodeResult, cached bool, err error)

	Run(ctx context.Context, step core.Step) (*NodeResult, error)
}

// CacheAwareRunner adapts core.Runner to StepRunner.
type CacheAwareRunner struct {
	Runner *core.Runner
}

func NewCacheAwareRunner(r *core.Runner) (*CacheAwareRunner, error) {
	if r == nil {
		return nil, errors.New("nil core runner")
	}
	return &CacheAwareRunner{Runner: r}, nil
}

func (r *CacheAwareRunner) Probe(ctx context.Context, step core.Step) (*NodeResult, bool, error) {
	res, cached, err := r.Runner.Probe(ctx, &step)
	if err != nil || !cached {
		return nil, false, err
	}
	return toNodeResult(res), true, nil
}

func (r *CacheAwareRunner) Run(ctx context.Context, step core.Step) (*NodeResult, error) {
	res, err := r.Runner.Run(ctx, &step)
	if err != nil {
		return nil, err
	}
	return toNodeResult(res), nil
}

func toNodeResult(res *core.RunResult) *NodeResult {
	return &NodeResult{
		Hash:              res.Hash,
		Stdout:            res.Stdout,
		Stderr:            res.Stderr,
		ExitCode:          res.ExitCode,
		FromCache:         res.FromCache,
		ArtifactsRestored: res.ArtifactsRestored,
	}
}
