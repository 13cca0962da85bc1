package dag

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"jsbuild/internal/core"
	"jsbuild/internal/trace"
)

// Executor runs a Graph once.
//
// By default the first failing step aborts the build: its dependents and
// every other step not yet started are SKIPPED, while steps already running
// are allowed to finish. With KeepGoing only the failing step's dependents
// are skipped and independent steps still run.
type Executor struct {
	Graph  *Graph
	Runner StepRunner

	KeepGoing bool

	Log   zerolog.Logger
	Trace trace.Sink

	mu    sync.Mutex
	state ExecutionState
}

// NewExecutor creates an executor with every step PENDING.
func NewExecutor(g *Graph, runner StepRunner) (*Executor, error) {
	if g == nil {
		return nil, errors.New("nil graph")
	}
	if runner == nil {
		return nil, errors.New("nil runner")
	}
	return &Executor{
		Graph:  g,
		Runner: runner,
		Log:    zerolog.Nop(),
		Trace:  trace.NopSink{},
		state:  NewExecutionState(g),
	}, nil
}

// StateSnapshot returns a copy of the current execution state.
func (e *Executor) StateSnapshot() ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := make(ExecutionState, len(e.state))
	for k, v := range e.state {
		cp[k] = v
	}
	return cp
}

// Run executes the graph serially when jobs <= 1 and in parallel otherwise.
func (e *Executor) Run(ctx context.Context, jobs int) (*BuildResult, error) {
	if jobs <= 1 {
		return e.RunSerial(ctx)
	}
	return e.RunParallel(ctx, jobs)
}

// RunSerial executes one step at a time, always picking the first step
// returned by ReadySteps.
//
// The returned error is reserved for cancellation and internal invariant
// violations. Step failures are reported in the BuildResult.
func (e *Executor) RunSerial(ctx context.Context) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := newBuildResult(e.Graph)

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "build cancelled")
		}

		e.mu.Lock()
		ready := ReadySteps(e.Graph, e.state)
		if len(ready) == 0 {
			done := e.allTerminal()
			e.mu.Unlock()
			if !done {
				return nil, errors.New("no ready steps but graph not finished")
			}
			res.FinalState = e.StateSnapshot()
			return res, nil
		}
		e.mu.Unlock()

		name := ready[0]
		run, err := e.dispatch(ctx, name, res)
		if err != nil {
			return nil, err
		}
		if !run {
			continue
		}

		nr, runErr := e.Runner.Run(ctx, e.Graph.nodesByName[name].Step)
		if runErr != nil && ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "build cancelled")
		}
		if err := e.complete(name, nr, runErr, res); err != nil {
			return nil, err
		}
	}
}

type workItem struct {
	name string
	step core.Step
}

type workResult struct {
	name   string
	result *NodeResult
	err    error
}

// RunParallel executes the graph with up to concurrency workers.
//
// Dispatch is staged by topological depth and, within a depth, by step name,
// so the set of decisions does not depend on completion timing.
func (e *Executor) RunParallel(ctx context.Context, concurrency int) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency <= 0 {
		return nil, errors.New("concurrency must be > 0")
	}

	maxDepth := 0
	for _, d := range e.Graph.depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	byDepth := make([][]string, maxDepth+1)
	for _, n := range e.Graph.nodes {
		d := e.Graph.depth[n.canonicalIndex]
		byDepth[d] = append(byDepth[d], n.Name)
	}
	for d := range byDepth {
		sort.Strings(byDepth[d])
	}

	workCh := make(chan workItem, concurrency)
	doneCh := make(chan workResult, concurrency)

	var wg sync.WaitGroup
	var stopOnce sync.Once
	stopWorkers := func() {
		stopOnce.Do(func() {
			close(workCh)
			wg.Wait()
		})
	}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				res, err := e.Runner.Run(ctx, w.step)
				doneCh <- workResult{name: w.name, result: res, err: err}
			}
		}()
	}
	defer stopWorkers()

	res := newBuildResult(e.Graph)
	inFlight := 0

	for depth := 0; depth <= maxDepth; depth++ {
		names := byDepth[depth]
		next := 0

		for {
			for inFlight < concurrency && next < len(names) {
				name := names[next]
				next++

				node := e.Graph.nodesByName[name]
				e.mu.Lock()
				st := e.state[name]
				depsOK := e.Graph.dependenciesSatisfied(node.canonicalIndex, e.state)
				e.mu.Unlock()

				// Skipped by an earlier failure.
				if IsTerminal(st) {
					continue
				}
				if st != StepPending {
					return nil, errors.Errorf("unexpected state for %q: %s", name, st)
				}
				if !depsOK {
					return nil, errors.Errorf("step %q at depth %d is pending but dependencies are not successful", name, depth)
				}

				run, err := e.dispatch(ctx, name, res)
				if err != nil {
					return nil, err
				}
				if !run {
					continue
				}
				inFlight++
				workCh <- workItem{name: name, step: node.Step}
			}

			if next >= len(names) && inFlight == 0 {
				break
			}

			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "build cancelled")
			case r := <-doneCh:
				inFlight--
				if r.err != nil && ctx.Err() != nil {
					return nil, errors.Wrap(ctx.Err(), "build cancelled")
				}
				if err := e.complete(r.name, r.result, r.err, res); err != nil {
					return nil, err
				}
			}
		}
	}

	res.FinalState = e.StateSnapshot()
	return res, nil
}

// dispatch probes a PENDING step. It returns true when the step is now
// RUNNING and must be executed; an up-to-date step is committed as CACHED.
func (e *Executor) dispatch(ctx context.Context, name string, res *BuildResult) (bool, error) {
	step := e.Graph.nodesByName[name].Step
	probed, cached, probeErr := e.Runner.Probe(ctx, step)

	e.mu.Lock()
	defer e.mu.Unlock()

	if probeErr == nil && cached {
		if probed == nil {
			return false, errors.Errorf("probing %q: nil result", name)
		}
		if err := Transition(e.state, name, StepPending, StepCached); err != nil {
			return false, err
		}
		res.record(name, probed)
		e.Log.Debug().Str("step", name).Str("hash", probed.Hash.String()).Msg("up to date")
		trace.SafeRecord(e.Trace, trace.Event{Kind: trace.EventStepUpToDate, StepID: name})
		if probed.ArtifactsRestored > 0 {
			trace.SafeRecord(e.Trace, trace.Event{Kind: trace.EventOutputsRestored, StepID: name, Outputs: step.Outputs})
		}
		return false, nil
	}

	if err := Transition(e.state, name, StepPending, StepRunning); err != nil {
		return false, err
	}
	res.ExecutionOrder = append(res.ExecutionOrder, name)

	if probeErr != nil {
		return false, e.fail(name, nil, probeErr, res)
	}
	return true, nil
}

// complete commits the result of a RUNNING step.
func (e *Executor) complete(name string, nr *NodeResult, runErr error, res *BuildResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cur := e.state[name]; cur != StepRunning {
		return errors.Errorf("completion for %q but state is %s", name, cur)
	}
	if runErr == nil && nr == nil {
		runErr = errors.New("nil result")
	}
	if runErr != nil || nr.ExitCode != 0 {
		return e.fail(name, nr, runErr, res)
	}

	res.record(name, nr)
	if err := Transition(e.state, name, StepRunning, StepCompleted); err != nil {
		return err
	}
	e.Log.Debug().Str("step", name).Str("hash", nr.Hash.String()).Msg("step completed")
	trace.SafeRecord(e.Trace, trace.Event{Kind: trace.EventStepExecuted, StepID: name})
	return nil
}

// fail marks a RUNNING step FAILED and skips what can no longer run.
// Callers hold e.mu.
func (e *Executor) fail(name string, nr *NodeResult, cause error, res *BuildResult) error {
	res.record(name, nr)

	ev := e.Log.Error().Str("step", name)
	reason := trace.ReasonNonZeroExit
	if cause != nil {
		res.Errors[name] = cause
		ev = ev.Err(cause)
		reason = trace.ReasonStepError
	} else {
		ev = ev.Int("exit_code", nr.ExitCode)
	}
	ev.Msg("step failed")
	trace.SafeRecord(e.Trace, trace.Event{Kind: trace.EventStepFailed, StepID: name, Reason: reason})

	skipped, err := FailAndPropagate(e.Graph, e.state, name)
	if err != nil {
		return err
	}
	e.recordSkips(skipped, trace.ReasonUpstreamFailed, name)

	if !e.KeepGoing {
		e.recordSkips(SkipPending(e.Graph, e.state), trace.ReasonBuildAborted, name)
	}
	return nil
}

func (e *Executor) recordSkips(names []string, reason, cause string) {
	for _, s := range names {
		e.Log.Warn().Str("step", s).Str("cause", cause).Str("reason", reason).Msg("step skipped")
		trace.SafeRecord(e.Trace, trace.Event{Kind: trace.EventStepSkipped, StepID: s, Reason: reason, CauseStepID: cause})
	}
}

func (e *Executor) allTerminal() bool {
	for _, st := range e.state {
		if !IsTerminal(st) {
			return false
		}
	}
	return true
}
