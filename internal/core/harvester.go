package core

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Harvester collects the declared outputs of a step after it succeeded.
//
// Only files explicitly listed in Step.Outputs are collected; nothing scans
// the build directory for other modified files.
type Harvester struct {
	// BaseDir is the working directory outputs are relative to.
	BaseDir string
}

// NewHarvester creates a new Harvester with the given base directory.
func NewHarvester(baseDir string) *Harvester {
	return &Harvester{BaseDir: baseDir}
}

// Harvest reads every declared output.
//
// Returns an error wrapping ErrMissingOutput if a declared output does not
// exist, since the step then did not do what it promised.
func (h *Harvester) Harvest(declaredOutputs []string) (*ArtifactSet, error) {
	paths := lo.Uniq(lo.Map(declaredOutputs, func(p string, _ int) string {
		return filepath.ToSlash(filepath.Clean(p))
	}))
	sort.Strings(paths)

	artifacts := make([]Artifact, 0, len(paths))
	for _, path := range paths {
		full := resolvePath(h.BaseDir, path)
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrapf(ErrMissingOutput, "%s", path)
			}
			return nil, errors.Wrapf(err, "stat output %q", path)
		}
		if info.IsDir() {
			return nil, errors.Errorf("declared output %q is a directory", path)
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return nil, errors.Wrapf(err, "reading artifact %q", path)
		}
		artifacts = append(artifacts, Artifact{Path: path, Content: content, Mode: info.Mode().Perm()})
	}

	return &ArtifactSet{Artifacts: artifacts}, nil
}
