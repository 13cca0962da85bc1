package core

import (
	"bytes"

	"github.com/pkg/errors"
)

// Normalizer names accepted by NormalizerFor.
const (
	NormalizeRaw         = "raw"
	NormalizeLineEndings = "crlf"
)

// OutputNormalizer rewrites captured output before it is written to disk.
type OutputNormalizer interface {
	Normalize(content []byte) []byte
}

// NormalizerFor returns the normalizer registered under name.
// An empty name selects the raw normalizer.
func NormalizerFor(name string) (OutputNormalizer, error) {
	switch name {
	case "", NormalizeRaw:
		return NewRawNormalizer(), nil
	case NormalizeLineEndings:
		return NewLineEndingNormalizer(), nil
	default:
		return nil, errors.Errorf("unknown normalizer %q", name)
	}
}

// RawNormalizer performs no normalization, preserving raw bytes exactly.
type RawNormalizer struct{}

// NewRawNormalizer creates a normalizer that preserves content unchanged.
func NewRawNormalizer() *RawNormalizer {
	return &RawNormalizer{}
}

// Normalize returns content unchanged.
func (n *RawNormalizer) Normalize(content []byte) []byte {
	return content
}

// LineEndingNormalizer replaces every carriage return with a newline.
//
// This is a byte-for-byte substitution, not a CRLF collapse: "A\r\nB\r"
// becomes "A\n\nB\n". Generated headers keep the same number of lines on
// every platform, and no '\r' survives.
type LineEndingNormalizer struct {
	// Inner normalizer to apply after line ending normalization.
	Inner OutputNormalizer
}

// NewLineEndingNormalizer creates a normalizer that standardizes line endings.
func NewLineEndingNormalizer() *LineEndingNormalizer {
	return &LineEndingNormalizer{}
}

// Normalize replaces '\r' with '\n' and optionally applies the inner normalizer.
func (n *LineEndingNormalizer) Normalize(content []byte) []byte {
	result := bytes.ReplaceAll(content, []byte{'\r'}, []byte{'\n'})

	if n.Inner != nil {
		result = n.Inner.Normalize(result)
	}

	return result
}
