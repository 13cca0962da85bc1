package toolchain

import (
	"strings"

	"github.com/samber/lo"
)

// Define is a preprocessor symbol, optionally with a value.
type Define struct {
	Name     string
	Value    string
	HasValue bool
}

// ParseDefine parses "NAME" or "NAME=VALUE".
func ParseDefine(s string) Define {
	name, value, ok := strings.Cut(s, "=")
	return Define{Name: name, Value: value, HasValue: ok}
}

// String renders the define as NAME or NAME=VALUE.
func (d Define) String() string {
	if !d.HasValue {
		return d.Name
	}
	return d.Name + "=" + d.Value
}

// Env is a compilation environment: ordered defines, ordered include paths
// and compiler flags.
//
// Environments are copy-on-modify: derive a child with Clone and change the
// child; the parent never observes the change.
type Env struct {
	defines      []Define
	includePaths []string
	Flags        *FlagSet
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{Flags: NewFlagSet()}
}

// Clone returns a deep copy of e.
func (e *Env) Clone() *Env {
	flags := NewFlagSet()
	if e.Flags != nil {
		flags = e.Flags.Clone()
	}
	return &Env{
		defines:      append([]Define(nil), e.defines...),
		includePaths: append([]string(nil), e.includePaths...),
		Flags:        flags,
	}
}

// AppendDefine adds a valueless define. A define of the same name is
// replaced in place.
func (e *Env) AppendDefine(name string) {
	e.setDefine(Define{Name: name})
}

// AppendDefineValue adds NAME=VALUE. A define of the same name is replaced
// in place.
func (e *Env) AppendDefineValue(name, value string) {
	e.setDefine(Define{Name: name, Value: value, HasValue: true})
}

func (e *Env) setDefine(d Define) {
	if _, idx, ok := lo.FindIndexOf(e.defines, func(x Define) bool { return x.Name == d.Name }); ok {
		e.defines[idx] = d
		return
	}
	e.defines = append(e.defines, d)
}

// RemoveDefine deletes the named define and reports whether it was present.
func (e *Env) RemoveDefine(name string) bool {
	before := len(e.defines)
	e.defines = lo.Reject(e.defines, func(d Define, _ int) bool { return d.Name == name })
	return len(e.defines) != before
}

// Define returns the named define.
func (e *Env) Define(name string) (Define, bool) {
	return lo.Find(e.defines, func(d Define) bool { return d.Name == name })
}

// HasDefine reports whether the named define is set.
func (e *Env) HasDefine(name string) bool {
	_, ok := e.Define(name)
	return ok
}

// Defines returns the defines in order.
func (e *Env) Defines() []Define {
	return append([]Define(nil), e.defines...)
}

// AppendIncludePath adds a directory to the end of the include path.
// A path already present is not added twice.
func (e *Env) AppendIncludePath(path string) {
	if path == "" || lo.Contains(e.includePaths, path) {
		return
	}
	e.includePaths = append(e.includePaths, path)
}

// IncludePaths returns the include path in order.
func (e *Env) IncludePaths() []string {
	return append([]string(nil), e.includePaths...)
}
