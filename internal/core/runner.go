package core

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Runner orchestrates the execution of a single step with caching.
//
// The execution flow:
//  1. Resolve inputs and compute the step hash
//  2. Check cache for an existing result
//  3. If cached: restore outputs (skip execution)
//  4. If not cached: execute, capture stdout, harvest outputs, cache result
//
// Only successful executions are cached. A failed step leaves no capture
// file behind and is executed again on the next build.
type Runner struct {
	// WorkingDir is the build's working directory.
	WorkingDir string

	Cache     Cache
	Executor  *Executor
	Resolver  *InputResolver
	Hasher    *StepHasher
	Harvester *Harvester
	Replayer  *Replayer

	Log zerolog.Logger
}

// NewRunner creates a Runner with the given working directory and cache.
func NewRunner(workingDir string, cache Cache) *Runner {
	if cache == nil {
		cache = NoCache{}
	}
	return &Runner{
		WorkingDir: workingDir,
		Cache:      cache,
		Executor:   NewExecutor(workingDir),
		Resolver:   NewInputResolver(workingDir),
		Hasher:     NewStepHasher(),
		Harvester:  NewHarvester(workingDir),
		Replayer:   NewReplayer(workingDir),
		Log:        zerolog.Nop(),
	}
}

// RunResult contains the result of running a step.
type RunResult struct {
	Hash StepHash

	Stdout   []byte
	Stderr   []byte
	ExitCode int

	// FromCache indicates the step was up to date and not executed.
	FromCache bool

	// ArtifactsRestored is the number of outputs rewritten from the cache.
	ArtifactsRestored int
}

// Hash resolves the step's inputs and computes its StepHash.
func (r *Runner) Hash(step *Step) (StepHash, error) {
	if err := r.validateStep(step); err != nil {
		return "", err
	}
	inputSet, err := r.Resolver.Resolve(step.Inputs)
	if err != nil {
		return "", stepErrorf(step.Name, err, "resolving inputs")
	}
	return r.Hasher.ComputeHash(HashInput{
		Kind:       step.Kind,
		Inputs:     inputSet,
		Command:    step.Command,
		Env:        step.Env,
		Outputs:    step.Outputs,
		Dir:        step.Dir,
		Capture:    step.Capture,
		WorkingDir: r.WorkingDir,
	}), nil
}

// Probe reports whether the step is up to date. On a hit the step's outputs
// are restored and the cached result is returned with FromCache set.
func (r *Runner) Probe(ctx context.Context, step *Step) (*RunResult, bool, error) {
	hash, err := r.Hash(step)
	if err != nil {
		return nil, false, err
	}
	return r.probeHash(step, hash)
}

func (r *Runner) probeHash(step *Step, hash StepHash) (*RunResult, bool, error) {
	exists, err := r.Cache.Has(hash)
	if err != nil {
		return nil, false, stepErrorf(step.Name, err, "checking cache")
	}
	if !exists {
		return nil, false, nil
	}
	res, err := r.replayFromCache(step, hash)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Run executes a step or restores it from cache.
//
// A non-zero exit code is reported in the result with a nil error. Errors
// are reserved for conditions that make the result unusable: inputs that
// cannot be read, a command that cannot be started, an empty capture, a
// declared output that was not produced, or a failed write.
func (r *Runner) Run(ctx context.Context, step *Step) (*RunResult, error) {
	hash, err := r.Hash(step)
	if err != nil {
		return nil, err
	}
	res, cached, err := r.probeHash(step, hash)
	if err != nil {
		return nil, err
	}
	if cached {
		return res, nil
	}
	return r.executeAndCache(ctx, step, hash)
}

func (r *Runner) validateStep(step *Step) error {
	if step == nil {
		return errors.New("step is nil")
	}
	if step.Name == "" {
		return errors.New("step name is required")
	}
	if len(step.Command) == 0 || step.Command[0] == "" {
		return &StepError{Step: step.Name, Err: errors.New("step command is required")}
	}
	if step.Capture != nil {
		if step.Capture.Path == "" {
			return &StepError{Step: step.Name, Err: errors.New("capture path is required")}
		}
		if !lo.Contains(step.Outputs, step.Capture.Path) {
			return &StepError{Step: step.Name, Err: errors.Errorf("capture path %q is not a declared output", step.Capture.Path)}
		}
		if _, err := NormalizerFor(step.Capture.Normalizer); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

func (r *Runner) replayFromCache(step *Step, hash StepHash) (*RunResult, error) {
	entry, err := r.Cache.Get(hash)
	if err != nil {
		return nil, stepErrorf(step.Name, err, "retrieving cache entry")
	}
	if entry == nil {
		return nil, &StepError{Step: step.Name, Err: errors.New("cache entry disappeared")}
	}

	restored, err := r.Replayer.RestoreArtifacts(step.Name, entry)
	if err != nil {
		return nil, &StepError{Step: step.Name, Err: err}
	}

	r.Log.Debug().Str("step", step.Name).Str("hash", hash.String()).Int("restored", restored).Msg("up to date")

	return &RunResult{
		Hash:              hash,
		Stdout:            entry.Stdout,
		Stderr:            entry.Stderr,
		ExitCode:          entry.ExitCode,
		FromCache:         true,
		ArtifactsRestored: restored,
	}, nil
}

func (r *Runner) executeAndCache(ctx context.Context, step *Step, hash StepHash) (*RunResult, error) {
	if err := r.prepareOutputDirs(step.Outputs); err != nil {
		return nil, stepErrorf(step.Name, err, "preparing output directories")
	}

	r.Log.Info().Str("step", step.Name).Str("kind", string(step.Kind)).Msg("running")

	execResult, err := r.Executor.Execute(ctx, step, hash)
	if err != nil {
		return nil, stepErrorf(step.Name, err, "executing %q", step.Command[0])
	}

	result := &RunResult{
		Hash:     hash,
		Stdout:   execResult.Stdout,
		Stderr:   execResult.Stderr,
		ExitCode: execResult.ExitCode,
	}

	if execResult.ExitCode != 0 {
		r.Log.Error().
			Str("step", step.Name).
			Int("exit_code", execResult.ExitCode).
			Bytes("stderr", execResult.Stderr).
			Msg("step failed")
		// Consumers must not pick up outputs of an earlier successful run.
		if err := r.CleanOutputs(step.Outputs); err != nil {
			return nil, &StepError{Step: step.Name, Err: err}
		}
		return result, nil
	}

	if step.Capture != nil {
		if err := r.writeCapture(step, execResult.Stdout); err != nil {
			return nil, err
		}
	}

	artifacts, err := r.Harvester.Harvest(step.Outputs)
	if err != nil {
		return nil, stepErrorf(step.Name, err, "harvesting outputs")
	}

	entry := &CacheEntry{
		Hash:      hash,
		Stdout:    execResult.Stdout,
		Stderr:    execResult.Stderr,
		ExitCode:  execResult.ExitCode,
		Artifacts: make([]CachedArtifact, len(artifacts.Artifacts)),
	}
	for i, a := range artifacts.Artifacts {
		entry.Artifacts[i] = CachedArtifact{Path: a.Path, Content: a.Content, Mode: a.Mode}
	}
	if err := r.Cache.Put(entry); err != nil {
		return nil, stepErrorf(step.Name, err, "caching result")
	}

	return result, nil
}

// writeCapture normalizes stdout and writes it as the complete content of
// the capture file, replacing whatever was there.
func (r *Runner) writeCapture(step *Step, stdout []byte) error {
	normalizer, err := NormalizerFor(step.Capture.Normalizer)
	if err != nil {
		return &StepError{Step: step.Name, Err: err}
	}
	content := normalizer.Normalize(stdout)
	if len(content) == 0 {
		return &StepError{Step: step.Name, Err: ErrEmptyOutput}
	}
	target := resolvePath(r.WorkingDir, step.Capture.Path)
	if err := writeOutputFile(target, content, 0o644); err != nil {
		return stepErrorf(step.Name, err, "writing %q", step.Capture.Path)
	}
	return nil
}

func (r *Runner) prepareOutputDirs(outputs []string) error {
	for _, out := range outputs {
		if err := os.MkdirAll(filepath.Dir(resolvePath(r.WorkingDir, out)), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// CleanOutputs removes a step's declared outputs. Missing files are ignored.
func (r *Runner) CleanOutputs(outputs []string) error {
	for _, output := range outputs {
		if err := os.RemoveAll(resolvePath(r.WorkingDir, output)); err != nil {
			return errors.Wrapf(err, "removing %q", output)
		}
	}
	return nil
}
