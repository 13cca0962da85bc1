package core

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// InputResolver reads a step's declared inputs into a deterministic InputSet.
//
// Inputs are literal paths. They are normalized to forward slashes, sorted,
// deduplicated and read by content, so the directory iteration order of the
// host filesystem never leaks into a StepHash.
type InputResolver struct {
	// BaseDir is the working directory for resolving relative paths.
	BaseDir string
}

// NewInputResolver creates a new InputResolver with the given base directory.
func NewInputResolver(baseDir string) *InputResolver {
	return &InputResolver{BaseDir: baseDir}
}

// Resolve reads every declared input.
//
// Returns an error wrapping ErrMissingInput if an input does not exist, and
// a plain error if it is a directory or cannot be read.
func (r *InputResolver) Resolve(paths []string) (*InputSet, error) {
	normalized := lo.Uniq(lo.Map(paths, func(p string, _ int) string {
		return filepath.ToSlash(filepath.Clean(p))
	}))
	sort.Strings(normalized)

	inputs := make([]Input, 0, len(normalized))
	for _, path := range normalized {
		content, err := r.readFileContent(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading input %q", path)
		}
		inputs = append(inputs, Input{Path: path, Content: content})
	}

	return &InputSet{Inputs: inputs}, nil
}

func (r *InputResolver) readFileContent(path string) ([]byte, error) {
	full := resolvePath(r.BaseDir, path)
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissingInput
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("input is a directory")
	}
	return os.ReadFile(full)
}

// resolvePath joins a slash-separated step path onto base unless it is
// already absolute.
func resolvePath(base, path string) string {
	osPath := filepath.FromSlash(path)
	if filepath.IsAbs(osPath) {
		return osPath
	}
	return filepath.Join(base, osPath)
}
