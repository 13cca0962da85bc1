package toolchain

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Platform describes a target operating system.
type Platform struct {
	OS string

	// Windows selects the XP_WIN symbol instead of XP_UNIX.
	Windows bool

	// VaCopy reports whether the engine is told the C library provides
	// va_copy (HAVE_VA_COPY, VA_COPY=va_copy).
	VaCopy bool

	ExeSuffix string

	// Compiler is the default compiler style.
	Compiler string
}

var platforms = map[string]*Platform{
	"linux":   {OS: "linux", VaCopy: true, Compiler: StyleGCC},
	"darwin":  {OS: "darwin", VaCopy: true, Compiler: StyleGCC},
	"freebsd": {OS: "freebsd", Compiler: StyleGCC},
	"openbsd": {OS: "openbsd", Compiler: StyleGCC},
	"netbsd":  {OS: "netbsd", Compiler: StyleGCC},
	"solaris": {OS: "solaris", Compiler: StyleGCC},
	"windows": {OS: "windows", Windows: true, ExeSuffix: ".exe", Compiler: StyleMSVC},
}

// LookupPlatform returns the platform for a GOOS-style OS name.
func LookupPlatform(os string) (*Platform, error) {
	p, ok := platforms[os]
	if !ok {
		return nil, errors.Errorf("unsupported target OS %q (known: %v)", os, KnownPlatforms())
	}
	cp := *p
	return &cp, nil
}

// KnownPlatforms returns the supported OS names, sorted.
func KnownPlatforms() []string {
	names := lo.Keys(platforms)
	sort.Strings(names)
	return names
}

// ExeName appends the platform's executable suffix to base.
func (p *Platform) ExeName(base string) string {
	return base + p.ExeSuffix
}
