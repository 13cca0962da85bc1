package core

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Replayer writes cached artifacts back into the working directory.
type Replayer struct {
	WorkingDir string
}

func NewReplayer(workingDir string) *Replayer {
	return &Replayer{WorkingDir: workingDir}
}

// RestoreArtifacts makes the workspace match the cache entry.
//
// An artifact already on disk with identical content is left alone so its
// mtime does not move. A missing or different one is replaced atomically.
// RestoreArtifacts returns how many files it wrote.
func (r *Replayer) RestoreArtifacts(stepName string, entry *CacheEntry) (int, error) {
	if r == nil {
		return 0, errors.New("replayer is nil")
	}
	if entry == nil {
		return 0, errors.New("cache entry is nil")
	}

	written := 0
	for _, a := range entry.Artifacts {
		switch {
		case a.Path == "":
			return written, errors.Errorf("step %q: cached artifact without a path", stepName)
		case a.Content == nil:
			return written, errors.Errorf("step %q: cached artifact %q has no content", stepName, a.Path)
		}

		target := resolvePath(r.WorkingDir, a.Path)
		same, err := hasContent(target, a.Content)
		if err != nil {
			return written, errors.Wrapf(err, "step %q: reading %q", stepName, a.Path)
		}
		if same {
			continue
		}
		if err := writeOutputFile(target, a.Content, a.Mode); err != nil {
			return written, errors.Wrapf(err, "step %q: restoring %q", stepName, a.Path)
		}
		written++
	}
	return written, nil
}

// hasContent reports whether path exists and holds exactly want.
func hasContent(path string, want []byte) (bool, error) {
	have, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(have, want), nil
}

// writeOutputFile replaces path with content, creating parent directories.
// A zero perm means 0644.
func writeOutputFile(path string, content []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}
	return atomicWriteFile(path, content, perm)
}

// atomicWriteFile writes a sibling temp file and renames it over path, so
// readers never observe a partial file.
func atomicWriteFile(path string, content []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
