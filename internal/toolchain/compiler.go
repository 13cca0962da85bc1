package toolchain

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Compiler styles accepted by NewCompiler.
const (
	StyleGCC  = "gcc"
	StyleMSVC = "msvc"
)

// Compiler turns an Env into command lines.
type Compiler interface {
	// Style returns StyleGCC or StyleMSVC.
	Style() string

	// ObjectCommand compiles src into the object file obj.
	ObjectCommand(env *Env, src, obj string) []string

	// ProgramCommand compiles and links the single source src into exe.
	ProgramCommand(env *Env, src, exe string) []string

	// ObjectSuffix is the object file extension, including the dot.
	ObjectSuffix() string
}

// NewCompiler returns the compiler for style, invoked as path. An empty path
// selects the style's usual driver name.
func NewCompiler(style, path string) (Compiler, error) {
	switch style {
	case StyleGCC, "":
		return &GCC{CC: lo.Ternary(path == "", "cc", path)}, nil
	case StyleMSVC:
		return &MSVC{CL: lo.Ternary(path == "", "cl", path)}, nil
	default:
		return nil, errors.Errorf("unknown compiler style %q", style)
	}
}

// GCC emits gcc/clang style command lines.
type GCC struct {
	CC string
}

func (c *GCC) Style() string { return StyleGCC }

func (c *GCC) ObjectSuffix() string { return ".o" }

func (c *GCC) ObjectCommand(env *Env, src, obj string) []string {
	cmd := c.base(env)
	return append(cmd, "-c", src, "-o", obj)
}

func (c *GCC) ProgramCommand(env *Env, src, exe string) []string {
	cmd := c.base(env)
	return append(cmd, src, "-o", exe)
}

func (c *GCC) base(env *Env) []string {
	cmd := []string{c.CC}
	cmd = append(cmd, env.Flags.Tokens()...)
	cmd = append(cmd, prefixEach("-D", lo.Map(env.defines, defineString))...)
	return append(cmd, prefixEach("-I", env.includePaths)...)
}

// MSVC emits cl.exe style command lines.
type MSVC struct {
	CL string
}

func (c *MSVC) Style() string { return StyleMSVC }

func (c *MSVC) ObjectSuffix() string { return ".obj" }

func (c *MSVC) ObjectCommand(env *Env, src, obj string) []string {
	cmd := c.base(env)
	return append(cmd, "/c", src, "/Fo"+obj)
}

func (c *MSVC) ProgramCommand(env *Env, src, exe string) []string {
	cmd := c.base(env)
	return append(cmd, src, "/Fe"+exe)
}

func (c *MSVC) base(env *Env) []string {
	cmd := []string{c.CL, "/nologo"}
	cmd = append(cmd, env.Flags.Tokens()...)
	cmd = append(cmd, prefixEach("/D", lo.Map(env.defines, defineString))...)
	return append(cmd, prefixEach("/I", env.includePaths)...)
}

func defineString(d Define, _ int) string { return d.String() }

func prefixEach(prefix string, values []string) []string {
	return lo.Map(values, func(v string, _ int) string { return prefix + v })
}
