package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"jsbuild/internal/config"
	"jsbuild/internal/core"
	"jsbuild/internal/dag"
	"jsbuild/internal/filelist"
	"jsbuild/internal/mozjs"
	"jsbuild/internal/trace"
)

type CLIResult struct {
	ExitCode     int
	Options      config.Options
	Registration *mozjs.Registration
	Registry     *filelist.Registry
	BuildResult  *dag.BuildResult
}

// IO is where a run writes its report and its log.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (s IO) stdout() io.Writer {
	if s.Stdout == nil {
		return io.Discard
	}
	return s.Stdout
}

func (s IO) stderr() io.Writer {
	if s.Stderr == nil {
		return io.Discard
	}
	return s.Stderr
}

// NewLogger returns the console logger used by a run.
func NewLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = w
		cw.NoColor = true
	})).Level(level).With().Timestamp().Logger()
}

// Execute maps a canonical CLIInvocation to a build.
//
// Responsibilities:
//   - Resolve build options: the options file (or defaults), then flags.
//   - Register the engine with a fresh host environment and registry.
//   - Select the cache from ExecutionMode and run the graph.
//   - Write the trace, even when the build fails.
//   - Translate outcomes to semantic exit codes.
//
// With the engine disabled nothing is written and the run succeeds.
func Execute(ctx context.Context, inv CLIInvocation, stdio IO) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	log := NewLogger(stdio.stderr(), inv.Verbose)

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			res.BuildResult = nil
			execErr = errors.Errorf("panic: %v", r)
		}
	}()

	opts, err := loadOptions(inv)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	res.Options = opts

	if !opts.UseSM {
		log.Info().Msg("engine disabled (usesm=false); nothing to build")
		res.ExitCode = ExitSuccess
		return res, nil
	}
	if err := opts.Validate(); err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	registry := filelist.NewRegistry()
	builder := dag.NewBuilder()
	host := mozjs.Host{
		Env:      opts.HostEnv(),
		Registry: registry,
		Builder:  builder,
		BuildDir: inv.BuildDir,
		ToolEnv:  toolEnv(),
		Log:      log,
	}
	reg, err := mozjs.Register(opts, host)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	res.Registration = reg
	res.Registry = registry

	g, err := builder.Build()
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	cache, err := cacheForMode(inv)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	if inv.ExecutionMode == ExecutionModeClean {
		if err := os.RemoveAll(inv.absolute(reg.Layout.BuildDir)); err != nil {
			res.ExitCode = ExitConfigError
			return res, errors.Wrap(err, "cleaning engine build directory")
		}
	}

	runner := core.NewRunner(inv.WorkDir, cache)
	runner.Log = log
	cacheRunner, err := dag.NewCacheAwareRunner(runner)
	if err != nil {
		return res, err
	}
	executor, err := dag.NewExecutor(g, cacheRunner)
	if err != nil {
		return res, err
	}
	recorder := trace.NewRecorder()
	executor.Trace = recorder
	executor.KeepGoing = inv.KeepGoing
	executor.Log = log

	log.Info().
		Str("graph", g.Hash().String()).
		Int("steps", g.Len()).
		Str("mode", string(inv.ExecutionMode)).
		Int("jobs", inv.Jobs).
		Msg("build started")

	br, runErr := executor.Run(ctx, inv.Jobs)

	if inv.Trace.Enabled {
		if err := trace.WriteFile(inv.Trace.Path, recorder.Trace(g.Hash().String())); err != nil && runErr == nil {
			res.ExitCode = ExitConfigError
			return res, err
		}
	}
	if runErr != nil {
		return res, runErr
	}
	res.BuildResult = br

	if !br.Succeeded() {
		failed := br.Failed()
		for _, name := range failed {
			ev := log.Error().Str("step", name).Int("exit", br.ExitCode[name])
			if cause := br.Errors[name]; cause != nil {
				ev = ev.Err(cause)
			}
			if stderr := strings.TrimSpace(string(br.Stderr[name])); stderr != "" {
				ev = ev.Str("stderr", stderr)
			}
			ev.Msg("step failed")
		}
		res.ExitCode = ExitBuildFailure
		return res, errors.Errorf("build failed: %s", strings.Join(failed, ", "))
	}

	log.Info().Int("objects", len(reg.Objects)).Msg("build finished")
	if inv.PrintRegistry {
		printRegistry(stdio.stdout(), registry)
	}
	res.ExitCode = ExitSuccess
	return res, nil
}

func loadOptions(inv CLIInvocation) (config.Options, error) {
	opts := config.Default()
	if inv.ConfigPath != "" {
		var err error
		if opts, err = config.Load(inv.ConfigPath); err != nil {
			return config.Options{}, err
		}
	}
	inv.Overrides.Apply(&opts)
	return opts, nil
}

func cacheForMode(inv CLIInvocation) (core.Cache, error) {
	switch inv.ExecutionMode {
	case ExecutionModeClean:
		return core.NoCache{}, nil
	case ExecutionModeIncremental:
		if inv.CacheDir == "" {
			return nil, errors.New("incremental mode requires a cache directory")
		}
		return core.NewFileCache(inv.CacheDir), nil
	default:
		return nil, errors.Errorf("unknown execution mode %q", inv.ExecutionMode)
	}
}

// toolEnv is the only environment compiler invocations see.
func toolEnv() map[string]string {
	return map[string]string{"PATH": os.Getenv("PATH")}
}

func printRegistry(w io.Writer, r *filelist.Registry) {
	for _, category := range r.Categories() {
		for _, f := range r.Files(category) {
			fmt.Fprintf(w, "%s\t%s\n", category, f)
		}
	}
}
