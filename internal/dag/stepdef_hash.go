package dag

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	"jsbuild/internal/core"
)

// computeStepDefHash hashes the declarative fields of a step: kind, sorted
// inputs, sorted outputs, dir, argv, sorted env and capture. The name is
// excluded so renaming a step does not change the graph identity.
func computeStepDefHash(step core.Step) StepDefHash {
	h := sha256.New()

	writeField(h, []byte(step.Kind))
	writeStrings(h, sortedCopy(step.Inputs))
	writeStrings(h, sortedCopy(step.Outputs))
	writeField(h, []byte(step.Dir))
	writeStrings(h, step.Command)

	keys := make([]string, 0, len(step.Env))
	for k := range step.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	writeCount(h, len(keys))
	for _, k := range keys {
		writeField(h, []byte(k))
		writeField(h, []byte(step.Env[k]))
	}

	if step.Capture != nil {
		writeField(h, []byte{1})
		writeField(h, []byte(step.Capture.Path))
		writeField(h, []byte(step.Capture.Normalizer))
	} else {
		writeField(h, []byte{0})
	}

	return StepDefHash(hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	h.Write(length[:])
	h.Write(data)
}

func writeCount(h hash.Hash, n int) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	writeField(h, b[:])
}

func writeStrings(h hash.Hash, values []string) {
	writeCount(h, len(values))
	for _, v := range values {
		writeField(h, []byte(v))
	}
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
