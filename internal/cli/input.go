package cli

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"jsbuild/internal/config"
)

const (
	ExitSuccess           = 0
	ExitBuildFailure      = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

type ExecutionMode string

const (
	ExecutionModeClean       ExecutionMode = "clean"
	ExecutionModeIncremental ExecutionMode = "incremental"
)

type TraceConfig struct {
	Enabled bool
	Path    string
}

// Overrides are the build options given on the command line. A nil field was
// not set and leaves the configured value alone.
type Overrides struct {
	UseSM     *bool
	Windows   *bool
	Nix       *bool
	TargetOS  *string
	CC        *string
	EngineDir *string
}

// Apply writes the set overrides into opts.
func (o Overrides) Apply(opts *config.Options) {
	if o.UseSM != nil {
		opts.UseSM = *o.UseSM
	}
	if o.Windows != nil {
		opts.Windows = *o.Windows
	}
	if o.Nix != nil {
		opts.Nix = *o.Nix
	}
	if o.TargetOS != nil {
		opts.TargetOS = *o.TargetOS
	}
	if o.CC != nil {
		opts.CC = *o.CC
	}
	if o.EngineDir != nil {
		opts.EngineDir = *o.EngineDir
	}
}

// CLIInvocation is the fully canonicalized, deterministic description of a run.
//
// WorkDir is required and absolute. BuildDir is kept relative to WorkDir
// whenever it lies below it, so step definitions do not depend on where the
// tree is checked out.
type CLIInvocation struct {
	WorkDir       string
	BuildDir      string
	ConfigPath    string
	CacheDir      string
	ExecutionMode ExecutionMode
	Jobs          int
	KeepGoing     bool
	Verbose       bool
	PrintRegistry bool
	Trace         TraceConfig
	Overrides     Overrides
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into a canonical CLIInvocation.
//
// It does not read environment variables or the process working directory.
func ParseInvocation(args []string) (CLIInvocation, error) {
	fs := flag.NewFlagSet("jsbuild", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		workDir, buildDir, configPath, cacheDir, tracePath, mode string
		targetOS, cc, engineDir                                   string
		useSM, windows, nix                                       bool
		jobs                                                      int
		inv                                                       CLIInvocation
	)

	fs.StringVar(&workDir, "workdir", "", "Absolute working directory. Required.")
	fs.StringVar(&buildDir, "build-dir", "build", "Build output directory.")
	fs.StringVar(&configPath, "config", "", "JSON build options file (optional).")
	fs.StringVar(&cacheDir, "cache-dir", "", "Step cache directory (default <build-dir>/.cache).")
	fs.StringVar(&tracePath, "trace", "", "Trace output path (optional).")
	fs.StringVar(&mode, "mode", string(ExecutionModeIncremental), "Execution mode: clean|incremental")
	fs.BoolVar(&useSM, "usesm", true, "Build the embedded JavaScript engine.")
	fs.BoolVar(&windows, "windows", false, "Target Windows.")
	fs.BoolVar(&nix, "nix", false, "Run generators as ./<name> from their own directory.")
	fs.StringVar(&targetOS, "target-os", "", "Target operating system.")
	fs.StringVar(&cc, "cc", "", "C compiler driver.")
	fs.StringVar(&engineDir, "engine-dir", "", "Engine source directory, relative to -workdir.")
	fs.IntVar(&jobs, "jobs", 1, "Number of steps run in parallel.")
	fs.BoolVar(&inv.KeepGoing, "keep-going", false, "Keep running independent steps after a failure.")
	fs.BoolVar(&inv.Verbose, "v", false, "Debug logging.")
	fs.BoolVar(&inv.PrintRegistry, "print-registry", false, "Print the registered engine objects.")

	if err := fs.Parse(args); err != nil {
		return CLIInvocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return CLIInvocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	// Only flags given explicitly override the options file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "usesm":
			inv.Overrides.UseSM = &useSM
		case "windows":
			inv.Overrides.Windows = &windows
		case "nix":
			inv.Overrides.Nix = &nix
		case "target-os":
			inv.Overrides.TargetOS = &targetOS
		case "cc":
			inv.Overrides.CC = &cc
		case "engine-dir":
			inv.Overrides.EngineDir = &engineDir
		}
	})

	if workDir == "" {
		return CLIInvocation{}, invalidInvocationf("--workdir is required")
	}
	workDir = filepath.Clean(workDir)
	if !filepath.IsAbs(workDir) {
		return CLIInvocation{}, invalidInvocationf("--workdir must be an absolute path (got %q)", workDir)
	}
	inv.WorkDir = workDir

	parsedMode, err := parseExecutionMode(mode)
	if err != nil {
		return CLIInvocation{}, err
	}
	inv.ExecutionMode = parsedMode

	if jobs < 1 {
		return CLIInvocation{}, invalidInvocationf("--jobs must be at least 1 (got %d)", jobs)
	}
	inv.Jobs = jobs

	if inv.BuildDir, err = relativeToWorkDir(workDir, buildDir); err != nil {
		return CLIInvocation{}, err
	}

	if cacheDir == "" {
		inv.CacheDir = filepath.Join(inv.absolute(inv.BuildDir), ".cache")
	} else if inv.CacheDir, err = resolveUnderWorkDir(workDir, cacheDir); err != nil {
		return CLIInvocation{}, err
	}

	if strings.TrimSpace(configPath) != "" {
		if inv.ConfigPath, err = resolveUnderWorkDir(workDir, configPath); err != nil {
			return CLIInvocation{}, err
		}
	}

	if strings.TrimSpace(tracePath) != "" {
		resolvedTrace, err := resolveUnderWorkDir(workDir, tracePath)
		if err != nil {
			return CLIInvocation{}, err
		}
		inv.Trace = TraceConfig{Enabled: true, Path: resolvedTrace}
	}

	return inv, nil
}

// absolute resolves p against WorkDir.
func (inv CLIInvocation) absolute(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(inv.WorkDir, filepath.FromSlash(p))
}

func parseExecutionMode(raw string) (ExecutionMode, error) {
	n := strings.ToLower(strings.TrimSpace(raw))
	switch ExecutionMode(n) {
	case ExecutionModeClean, ExecutionModeIncremental:
		return ExecutionMode(n), nil
	case "":
		return "", invalidInvocationf("--mode is required")
	default:
		return "", invalidInvocationf("invalid --mode %q (expected clean|incremental)", raw)
	}
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if clean == "." {
		return "", invalidInvocationf("path must not be '.'")
	}
	if filepath.IsAbs(clean) {
		return clean, nil
	}
	return filepath.Join(workDir, clean), nil
}

// relativeToWorkDir returns p as a slash-separated path relative to workDir,
// or cleaned and absolute when it lies outside.
func relativeToWorkDir(workDir, p string) (string, error) {
	abs, err := resolveUnderWorkDir(workDir, p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(workDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs, nil
	}
	return filepath.ToSlash(rel), nil
}

// ExitCode extracts a semantic exit code from an error.
// If the error is not a known invocation error, it returns ExitInternalError.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitInternalError
}
