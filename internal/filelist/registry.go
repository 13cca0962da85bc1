// Package filelist holds the host build's named lists of object files.
package filelist

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// ScriptingFiles is the category the JavaScript engine's objects are
// appended to.
const ScriptingFiles = "scriptingFiles"

// Registry is an append-only set of ordered file lists keyed by category.
//
// A Registry is created by the host build and passed to every component that
// contributes files. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	lists map[string][]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{lists: make(map[string][]string)}
}

// Append adds files to the end of category, preserving their order.
func (r *Registry) Append(category string, files ...string) {
	if len(files) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[category] = append(r.lists[category], files...)
}

// Files returns a copy of the files in category.
func (r *Registry) Files(category string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lists[category]...)
}

// Categories returns the non-empty categories, sorted.
func (r *Registry) Categories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := lo.Keys(r.lists)
	sort.Strings(names)
	return names
}

// Len returns the number of files in category.
func (r *Registry) Len(category string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists[category])
}
