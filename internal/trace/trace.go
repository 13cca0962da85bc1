// Package trace records the logical decisions of a build as a canonical,
// byte-stable document.
package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// BuildTrace is the canonical record of one graph execution.
//
// It holds no timestamps, durations, error strings or absolute paths, so two
// builds of the same graph that took the same decisions produce the same
// bytes regardless of scheduling.
type BuildTrace struct {
	GraphHash string
	Events    []Event
}

// EventKind discriminates Event. The string values are part of the canonical
// bytes; do not rename.
type EventKind string

const (
	EventStepExecuted    EventKind = "StepExecuted"
	EventStepUpToDate    EventKind = "StepUpToDate"
	EventOutputsRestored EventKind = "OutputsRestored"
	EventStepFailed      EventKind = "StepFailed"
	EventStepSkipped     EventKind = "StepSkipped"
)

// Reason codes attached to events.
const (
	ReasonUpstreamFailed = "UpstreamFailed"
	ReasonBuildAborted   = "BuildAborted"
	ReasonNonZeroExit    = "NonZeroExit"
	ReasonStepError      = "StepError"
)

// Event is a single decision about one step.
type Event struct {
	Kind EventKind

	// StepID is the name of the step the event refers to.
	StepID string

	// Reason is a stable reason code, e.g. ReasonUpstreamFailed.
	Reason string

	// CauseStepID names the upstream step that caused a skip.
	CauseStepID string

	// Outputs lists restored output paths, relative to the working directory.
	Outputs []string
}

// Validate checks that every event names a kind and a step.
func (t *BuildTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.GraphHash == "" {
		return errors.New("graphHash is required")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return errors.Errorf("events[%d].kind is required", i)
		}
		if kindOrder(e.Kind) == unknownKind {
			return errors.Errorf("events[%d].kind %q is unknown", i, e.Kind)
		}
		if e.StepID == "" {
			return errors.Errorf("events[%d].stepId is required", i)
		}
		for j, out := range e.Outputs {
			if out == "" {
				return errors.Errorf("events[%d].outputs[%d] is empty", i, j)
			}
		}
	}
	return nil
}

// Canonicalize sorts outputs within each event and orders events by
// (stepId, kind, reason, causeStepId, outputs).
func (t *BuildTrace) Canonicalize() {
	if t == nil {
		return
	}
	for i := range t.Events {
		if len(t.Events[i].Outputs) == 0 {
			t.Events[i].Outputs = nil
			continue
		}
		outs := append([]string(nil), t.Events[i].Outputs...)
		sort.Strings(outs)
		t.Events[i].Outputs = outs
	}

	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		if a.StepID != b.StepID {
			return a.StepID < b.StepID
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		if a.CauseStepID != b.CauseStepID {
			return a.CauseStepID < b.CauseStepID
		}
		return lessStrings(a.Outputs, b.Outputs)
	})
}

const unknownKind = 1000

func kindOrder(k EventKind) int {
	switch k {
	case EventStepUpToDate:
		return 10
	case EventOutputsRestored:
		return 20
	case EventStepExecuted:
		return 30
	case EventStepFailed:
		return 40
	case EventStepSkipped:
		return 50
	default:
		return unknownKind
	}
}

func lessStrings(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// CanonicalJSON returns the canonical encoding of a canonicalized copy of t.
func (t BuildTrace) CanonicalJSON() ([]byte, error) {
	cp := BuildTrace{GraphHash: t.GraphHash, Events: append([]Event(nil), t.Events...)}
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&cp)
}

// Hash returns the hex sha256 of the canonical encoding.
func (t BuildTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// WriteFile writes the canonical encoding of t to path, followed by a
// newline. Parent directories are created.
func WriteFile(path string, t BuildTrace) error {
	b, err := t.CanonicalJSON()
	if err != nil {
		return errors.Wrap(err, "encoding trace")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating trace directory")
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "writing trace %q", path)
	}
	return nil
}

// MarshalJSON fixes field order: graphHash, then events.
func (t BuildTrace) MarshalJSON() ([]byte, error) {
	if t.GraphHash == "" {
		return nil, errors.New("graphHash is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"graphHash":`)
	writeString(&buf, t.GraphHash)
	buf.WriteString(`,"events":[`)
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"kind":`)
	writeString(&buf, string(e.Kind))

	optional := []struct{ key, val string }{
		{"stepId", e.StepID},
		{"reason", e.Reason},
		{"causeStepId", e.CauseStepID},
	}
	for _, f := range optional {
		if f.val == "" {
			continue
		}
		buf.WriteString(`,"` + f.key + `":`)
		writeString(&buf, f.val)
	}

	if len(e.Outputs) > 0 {
		outs := append([]string(nil), e.Outputs...)
		sort.Strings(outs)
		buf.WriteString(`,"outputs":[`)
		for i, o := range outs {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(&buf, o)
		}
		buf.WriteByte(']')
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
