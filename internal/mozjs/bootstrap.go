package mozjs

import (
	"path"

	"github.com/pkg/errors"

	"jsbuild/internal/core"
	"jsbuild/internal/dag"
	"jsbuild/internal/toolchain"
)

// Generator is a helper program whose stdout becomes a header.
type Generator struct {
	// Program is the executable's base name, without suffix.
	Program string

	// Source is the program's single C file, relative to the engine sources.
	Source string

	// Header is the generated file, relative to the engine build directory.
	Header string
}

// Generators are the engine's two header generators: the keyword table and
// the CPU configuration. Neither depends on the other.
var Generators = []Generator{
	{Program: "jskwgen", Source: "jskwgen.c", Header: "jsautokw.h"},
	{Program: "jscpucfg", Source: "jscpucfg.c", Header: "jsautocfg.h"},
}

// Bootstrapper produces the steps that build and run header generators.
type Bootstrapper struct {
	Env      *toolchain.Env
	Compiler toolchain.Compiler
	Platform *toolchain.Platform
	Layout   Layout

	// Nix runs generators as ./<program> from the directory they were built
	// in, rather than by their path from the working directory.
	Nix bool

	// ToolEnv is the environment of compiler invocations. Generators run
	// with an empty environment.
	ToolEnv map[string]string
}

// ProgramStepName and HeaderStepName name the two steps of a generator.
func ProgramStepName(g Generator) string { return "cc-" + g.Program }

func HeaderStepName(g Generator) string { return "gen-" + g.Header }

// Executable returns the path of the compiled generator.
func (b *Bootstrapper) Executable(g Generator) string {
	return b.Layout.Output(b.Platform.ExeName(g.Program))
}

// HeaderPath returns the path of the generated header.
func (b *Bootstrapper) HeaderPath(g Generator) string {
	return b.Layout.Output(g.Header)
}

// Steps returns the compile step and the header step for g.
//
// The header step lists the executable as its only input, so it always runs
// after the compile step and reruns whenever the executable changes.
func (b *Bootstrapper) Steps(g Generator) (program, header core.Step) {
	src := b.Layout.Source(g.Source)
	exe := b.Executable(g)
	hdr := b.HeaderPath(g)

	program = core.Step{
		Name:    ProgramStepName(g),
		Kind:    core.KindProgram,
		Inputs:  []string{src},
		Outputs: []string{exe},
		Command: b.Compiler.ProgramCommand(b.Env, src, exe),
		Env:     b.ToolEnv,
	}

	header = core.Step{
		Name:    HeaderStepName(g),
		Kind:    core.KindGenerate,
		Inputs:  []string{exe},
		Outputs: []string{hdr},
		Command: []string{exe},
		Capture: &core.Capture{Path: hdr, Normalizer: core.NormalizeLineEndings},
	}
	if b.Nix {
		header.Dir = path.Dir(exe)
		header.Command = []string{"./" + path.Base(exe)}
	}
	return program, header
}

// Register adds the steps of every generator to builder and returns the
// header paths in generator order.
func (b *Bootstrapper) Register(builder *dag.Builder, generators []Generator) ([]string, error) {
	headers := make([]string, 0, len(generators))
	for _, g := range generators {
		program, header := b.Steps(g)
		if err := builder.Add(program); err != nil {
			return nil, errors.Wrapf(err, "registering generator %s", g.Program)
		}
		if err := builder.Add(header); err != nil {
			return nil, errors.Wrapf(err, "registering header %s", g.Header)
		}
		headers = append(headers, b.HeaderPath(g))
	}
	return headers, nil
}
