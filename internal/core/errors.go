package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyOutput is returned when a generate step exits successfully but
	// writes nothing to stdout.
	ErrEmptyOutput = errors.New("generator produced no output")

	// ErrMissingInput is returned when a declared input does not exist.
	ErrMissingInput = errors.New("missing input")

	// ErrMissingOutput is returned when a successful step did not produce a
	// declared output.
	ErrMissingOutput = errors.New("declared output not produced")
)

// StepError attaches the failing step's name to an execution error.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErrorf(step string, cause error, format string, args ...any) error {
	return &StepError{Step: step, Err: errors.Wrapf(cause, format, args...)}
}
