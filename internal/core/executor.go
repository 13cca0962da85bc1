package core

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// ExecutionResult contains the results of running a step's command.
type ExecutionResult struct {
	// Stdout is the captured standard output.
	Stdout []byte

	// Stderr is the captured standard error.
	Stderr []byte

	// ExitCode is the process exit code.
	// 0 indicates success, non-zero indicates failure.
	ExitCode int

	// Hash is the StepHash that was used for this execution.
	Hash StepHash
}

// Executor runs step commands in an isolated environment.
//
// Only the variables in Step.Env are visible to the process. The command is
// executed directly from its argv; there is no shell in between.
type Executor struct {
	// WorkingDir is the directory step paths are relative to.
	WorkingDir string
}

// NewExecutor creates a new Executor with the given working directory.
func NewExecutor(workingDir string) *Executor {
	return &Executor{WorkingDir: workingDir}
}

// Execute runs the step's command and captures its output.
//
// A non-zero exit is reported through ExitCode with a nil error. An error is
// returned only when the process could not be started (e.g. a missing
// executable) or the context was cancelled.
func (e *Executor) Execute(ctx context.Context, step *Step, hash StepHash) (*ExecutionResult, error) {
	if step == nil {
		return nil, errors.New("step is nil")
	}
	if len(step.Command) == 0 || step.Command[0] == "" {
		return nil, errors.New("step command is empty")
	}

	cmd := exec.CommandContext(ctx, step.Command[0], step.Command[1:]...)
	cmd.Dir = e.stepDir(step)

	// Start from an empty environment, never os.Environ().
	cmd.Env = buildIsolatedEnv(step.Env)

	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start command")
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return nil, errors.Wrap(ctx.Err(), "execution cancelled")
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, errors.Wrap(err, "failed to execute command")
		}
	}

	return &ExecutionResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
		Hash:     hash,
	}, nil
}

func (e *Executor) stepDir(step *Step) string {
	if step.Dir == "" {
		return e.WorkingDir
	}
	if filepath.IsAbs(step.Dir) {
		return step.Dir
	}
	return filepath.Join(e.WorkingDir, filepath.FromSlash(step.Dir))
}

// buildIsolatedEnv constructs the process environment from the declared
// variables only. Keys are sorted so the argv/env pair is reproducible.
func buildIsolatedEnv(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for _, key := range sortedKeys(env) {
		result = append(result, key+"="+env[key])
	}
	return result
}
