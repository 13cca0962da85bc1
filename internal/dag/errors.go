package dag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidGraph = errors.New("invalid build graph")
	ErrCycleFound   = errors.New("cycle detected")
)

// GraphError reports a set of steps that cannot form a build graph.
// errors.Is matches it against Kind.
type GraphError struct {
	Kind error
	Msg  string

	// Cycle is the witness of ErrCycleFound, first step repeated last.
	Cycle []string
}

func (e *GraphError) Error() string {
	switch {
	case e == nil:
		return ""
	case len(e.Cycle) > 0:
		return e.Kind.Error() + ": " + strings.Join(e.Cycle, " -> ")
	case e.Msg != "":
		return e.Kind.Error() + ": " + e.Msg
	default:
		return e.Kind.Error()
	}
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	return &GraphError{Kind: ErrCycleFound, Cycle: path}
}
