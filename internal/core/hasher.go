package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/samber/lo"
)

// StepHash represents a deterministic identifier for a step execution.
//
// Any change to the command, environment, declared outputs, capture target,
// working directory or input contents produces a different StepHash.
type StepHash string

// String returns the string representation of the StepHash.
func (h StepHash) String() string {
	return string(h)
}

// StepHasher computes deterministic hashes for step executions.
type StepHasher struct{}

// NewStepHasher creates a new StepHasher.
func NewStepHasher() *StepHasher {
	return &StepHasher{}
}

// HashInput contains all components required for computing a StepHash.
type HashInput struct {
	// Kind is the step kind.
	Kind StepKind

	// Inputs is the resolved InputSet (already sorted by InputResolver).
	Inputs *InputSet

	// Command is the argv of the step.
	Command []string

	// Env is the map of explicit environment variables.
	Env map[string]string

	// Outputs is the list of declared output paths.
	Outputs []string

	// Dir is the step's command directory, as declared.
	Dir string

	// Capture is the capture target and normalizer, if any.
	Capture *Capture

	// WorkingDir is the working directory identity.
	WorkingDir string
}

// ComputeHash computes a deterministic StepHash from the given inputs.
//
// Fields are written in a fixed order, each length-prefixed:
//  1. Working directory, kind, dir
//  2. Command argv (count, then each argument)
//  3. Sorted environment variables (key, value)
//  4. Sorted declared outputs
//  5. Capture path and normalizer
//  6. For each input (already sorted): path + content
func (h *StepHasher) ComputeHash(input HashInput) StepHash {
	hasher := sha256.New()

	writeField(hasher, []byte(input.WorkingDir))
	writeField(hasher, []byte(input.Kind))
	writeField(hasher, []byte(input.Dir))

	writeCount(hasher, len(input.Command))
	for _, arg := range input.Command {
		writeField(hasher, []byte(arg))
	}

	envKeys := sortedKeys(input.Env)
	writeCount(hasher, len(envKeys))
	for _, k := range envKeys {
		writeField(hasher, []byte(k))
		writeField(hasher, []byte(input.Env[k]))
	}

	sortedOutputs := append([]string(nil), input.Outputs...)
	sort.Strings(sortedOutputs)
	writeCount(hasher, len(sortedOutputs))
	for _, out := range sortedOutputs {
		writeField(hasher, []byte(out))
	}

	if input.Capture != nil {
		writeCount(hasher, 1)
		writeField(hasher, []byte(input.Capture.Path))
		writeField(hasher, []byte(input.Capture.Normalizer))
	} else {
		writeCount(hasher, 0)
	}

	var inputs []Input
	if input.Inputs != nil {
		inputs = input.Inputs.Inputs
	}
	writeCount(hasher, len(inputs))
	for _, inp := range inputs {
		writeField(hasher, []byte(inp.Path))
		writeField(hasher, inp.Content)
	}

	return StepHash(hex.EncodeToString(hasher.Sum(nil)))
}

// writeField writes an 8-byte big-endian length prefix followed by data.
func writeField(h hash.Hash, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	h.Write(length[:])
	h.Write(data)
}

func writeCount(h hash.Hash, n int) {
	var count [8]byte
	binary.BigEndian.PutUint64(count[:], uint64(n))
	writeField(h, count[:])
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
