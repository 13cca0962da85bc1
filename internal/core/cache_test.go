package core

import (
	"bytes"
	"testing"
)

func sampleEntry(hash StepHash) *CacheEntry {
	return &CacheEntry{
		Hash:     hash,
		Stdout:   []byte("#define JS_BYTES_PER_WORD 8\n"),
		Stderr:   []byte{},
		ExitCode: 0,
		Artifacts: []CachedArtifact{
			{Path: "build/js/jsautocfg.h", Content: []byte("#define JS_BYTES_PER_WORD 8\n"), Mode: 0o644},
			{Path: "build/js/jscpucfg", Content: []byte("\x7fELF"), Mode: 0o755},
		},
	}
}

func TestFileCache_PutGet(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	hash := StepHash("ab12cd34ef")

	has, err := cache.Has(hash)
	if err != nil || has {
		t.Fatalf("expected empty cache, has=%v err=%v", has, err)
	}
	if err := cache.Put(sampleEntry(hash)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	has, err = cache.Has(hash)
	if err != nil || !has {
		t.Fatalf("expected hit, has=%v err=%v", has, err)
	}

	got, err := cache.Get(hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := sampleEntry(hash)
	if got.Hash != hash || !bytes.Equal(got.Stdout, want.Stdout) {
		t.Errorf("unexpected entry %+v", got)
	}
	if len(got.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(got.Artifacts))
	}
	for i := range want.Artifacts {
		if got.Artifacts[i].Path != want.Artifacts[i].Path ||
			!bytes.Equal(got.Artifacts[i].Content, want.Artifacts[i].Content) ||
			got.Artifacts[i].Mode != want.Artifacts[i].Mode {
			t.Errorf("artifact %d mismatch: got %+v want %+v", i, got.Artifacts[i], want.Artifacts[i])
		}
	}
}

func TestFileCache_GetMissingReturnsNil(t *testing.T) {
	got, err := NewFileCache(t.TempDir()).Get(StepHash("ffff00"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil entry, got %+v", got)
	}
}

func TestFileCache_PutIsIdempotent(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	hash := StepHash("0011aa")
	if err := cache.Put(sampleEntry(hash)); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(sampleEntry(hash)); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
}

func TestMemoryCache_IsolatesEntries(t *testing.T) {
	cache := NewMemoryCache()
	hash := StepHash("mem")
	entry := sampleEntry(hash)
	if err := cache.Put(entry); err != nil {
		t.Fatal(err)
	}
	entry.Artifacts[0].Content[0] = 'X'

	got, err := cache.Get(hash)
	if err != nil {
		t.Fatal(err)
	}
	if got.Artifacts[0].Content[0] == 'X' {
		t.Fatal("mutating the stored entry leaked into the cache")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}
}
