package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// CacheEntry represents a stored result of a successful step execution.
type CacheEntry struct {
	// Hash is the StepHash that identifies this cache entry.
	Hash StepHash `json:"hash"`

	// Stdout is the captured standard output.
	Stdout []byte `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr []byte `json:"stderr"`

	// ExitCode is the process exit code.
	ExitCode int `json:"exit_code"`

	// Artifacts contains the harvested output files.
	Artifacts []CachedArtifact `json:"artifacts"`
}

// CachedArtifact represents a single artifact stored in the cache.
type CachedArtifact struct {
	Path    string      `json:"path"`
	Content []byte      `json:"content"`
	Mode    os.FileMode `json:"mode"`
}

// Cache provides storage and retrieval of step results.
//
// A step whose StepHash has an entry is up to date: it is not executed again
// and its outputs are restored from the entry.
type Cache interface {
	// Has checks if a cache entry exists for the given hash.
	Has(hash StepHash) (bool, error)

	// Get retrieves a cache entry by hash.
	// Returns nil if the entry does not exist.
	Get(hash StepHash) (*CacheEntry, error)

	// Put stores a cache entry.
	Put(entry *CacheEntry) error
}

// FileCache implements Cache using the filesystem.
//
// Structure:
//
//	{CacheDir}/
//	  {hash[0:2]}/
//	    {hash}/
//	      metadata.json  (stdout, stderr, exit_code, artifact paths)
//	      artifacts/
//	        {index}.blob
type FileCache struct {
	// CacheDir is the root directory for cache storage.
	CacheDir string
}

// NewFileCache creates a new filesystem-based cache.
func NewFileCache(cacheDir string) *FileCache {
	return &FileCache{CacheDir: cacheDir}
}

// Has checks if a cache entry exists for the given hash.
func (c *FileCache) Has(hash StepHash) (bool, error) {
	metadataPath := filepath.Join(c.entryPath(hash), "metadata.json")

	if _, err := os.Stat(metadataPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "checking cache entry")
	}
	return true, nil
}

// Get retrieves a cache entry by hash.
func (c *FileCache) Get(hash StepHash) (*CacheEntry, error) {
	entryDir := c.entryPath(hash)

	data, err := os.ReadFile(filepath.Join(entryDir, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading cache metadata")
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrap(err, "parsing cache metadata")
	}

	artifactsDir := filepath.Join(entryDir, "artifacts")
	for i := range entry.Artifacts {
		content, err := os.ReadFile(filepath.Join(artifactsDir, fmt.Sprintf("%d.blob", i)))
		if err != nil {
			return nil, errors.Wrapf(err, "reading artifact %d", i)
		}
		entry.Artifacts[i].Content = content
	}

	return &entry, nil
}

// Put stores a cache entry.
//
// The entry is written into a temporary directory next to its final
// location and renamed into place, so a crash leaves either the old entry,
// no entry, or the complete new one.
func (c *FileCache) Put(entry *CacheEntry) error {
	if entry == nil {
		return errors.New("cache entry is nil")
	}

	entryDir := c.entryPath(entry.Hash)
	parentDir := filepath.Dir(entryDir)

	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return errors.Wrap(err, "creating cache directory")
	}

	tmpDir, err := os.MkdirTemp(parentDir, "tmp-entry-"+string(entry.Hash)+"-")
	if err != nil {
		return errors.Wrap(err, "creating temp cache entry dir")
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmpDir)
		}
	}()

	artifactsDir := filepath.Join(tmpDir, "artifacts")
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return errors.Wrap(err, "creating cache artifacts dir")
	}

	// Blobs first, so metadata only appears after every blob succeeded.
	for i, artifact := range entry.Artifacts {
		blobPath := filepath.Join(artifactsDir, fmt.Sprintf("%d.blob", i))
		if err := atomicWriteFile(blobPath, artifact.Content, 0o644); err != nil {
			return errors.Wrapf(err, "writing artifact %d", i)
		}
	}

	metadata := CacheEntry{
		Hash:      entry.Hash,
		Stdout:    entry.Stdout,
		Stderr:    entry.Stderr,
		ExitCode:  entry.ExitCode,
		Artifacts: make([]CachedArtifact, len(entry.Artifacts)),
	}
	for i, a := range entry.Artifacts {
		metadata.Artifacts[i] = CachedArtifact{Path: a.Path, Mode: a.Mode}
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling cache metadata")
	}
	if err := atomicWriteFile(filepath.Join(tmpDir, "metadata.json"), data, 0o644); err != nil {
		return errors.Wrap(err, "writing cache metadata")
	}

	// A crash between remove and rename yields a cache miss, not corruption.
	_ = os.RemoveAll(entryDir)
	if err := os.Rename(tmpDir, entryDir); err != nil {
		return errors.Wrap(err, "committing cache entry")
	}
	committed = true
	return nil
}

// entryPath returns the directory path for a cache entry, fanned out by the
// first two characters of the hash.
func (c *FileCache) entryPath(hash StepHash) string {
	hashStr := string(hash)
	if len(hashStr) < 2 {
		return filepath.Join(c.CacheDir, hashStr)
	}
	return filepath.Join(c.CacheDir, hashStr[:2], hashStr)
}

// MemoryCache implements Cache using in-memory storage.
// It is safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[StepHash]*CacheEntry
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[StepHash]*CacheEntry)}
}

// Has checks if a cache entry exists.
func (c *MemoryCache) Has(hash StepHash) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.entries[hash]
	return exists, nil
}

// Get retrieves a copy of a cache entry.
func (c *MemoryCache) Get(hash StepHash) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, exists := c.entries[hash]
	if !exists {
		return nil, nil
	}
	return copyEntry(entry), nil
}

// Put stores a copy of a cache entry.
func (c *MemoryCache) Put(entry *CacheEntry) error {
	if entry == nil {
		return errors.New("cache entry is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Hash] = copyEntry(entry)
	return nil
}

// Len reports how many entries are stored.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func copyEntry(entry *CacheEntry) *CacheEntry {
	out := &CacheEntry{
		Hash:      entry.Hash,
		Stdout:    append([]byte(nil), entry.Stdout...),
		Stderr:    append([]byte(nil), entry.Stderr...),
		ExitCode:  entry.ExitCode,
		Artifacts: make([]CachedArtifact, len(entry.Artifacts)),
	}
	for i, a := range entry.Artifacts {
		out.Artifacts[i] = CachedArtifact{
			Path:    a.Path,
			Content: append([]byte{}, a.Content...),
			Mode:    a.Mode,
		}
	}
	return out
}

// NoCache never remembers anything; every step executes.
type NoCache struct{}

func (NoCache) Has(StepHash) (bool, error) { return false, nil }
func (NoCache) Get(StepHash) (*CacheEntry, error) { return nil, nil }
func (NoCache) Put(*CacheEntry) error { return nil }
