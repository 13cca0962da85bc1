package mozjs

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"jsbuild/internal/config"
	"jsbuild/internal/core"
	"jsbuild/internal/dag"
	"jsbuild/internal/filelist"
	"jsbuild/internal/toolchain"
)

// Host is what the surrounding build hands to the engine adapter.
type Host struct {
	Env      *toolchain.Env
	Registry *filelist.Registry
	Builder  *dag.Builder

	// BuildDir is the root of the host's build outputs.
	BuildDir string

	// ToolEnv is the environment of compiler invocations.
	ToolEnv map[string]string

	Log zerolog.Logger
}

// Registration describes what Register added to the host.
type Registration struct {
	Layout  Layout
	Env     *toolchain.Env
	Headers []string
	Objects []string
}

// Register configures the engine, adds its generator and object steps to the
// host's builder and appends the objects to the scriptingFiles list.
//
// Every object step lists both generated headers among its inputs, so no
// engine source compiles before the headers exist. With UseSM false
// Register returns nil and changes nothing.
func Register(opts config.Options, host Host) (*Registration, error) {
	if !opts.UseSM {
		host.Log.Debug().Msg("engine disabled; nothing to register")
		return nil, nil
	}
	if host.Env == nil || host.Registry == nil || host.Builder == nil {
		return nil, errors.New("host environment, registry and builder are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	layout, err := NewLayout(opts, host.BuildDir)
	if err != nil {
		return nil, err
	}
	platform, err := opts.Platform()
	if err != nil {
		return nil, err
	}
	style, err := opts.CompilerStyle()
	if err != nil {
		return nil, err
	}
	compiler, err := toolchain.NewCompiler(style, opts.CC)
	if err != nil {
		return nil, errors.Wrap(config.ErrInvalidConfig, err.Error())
	}

	// Option errors are reported before the host is touched.
	env := Configure(opts, layout, host.Env)

	boot := &Bootstrapper{
		Env:      env,
		Compiler: compiler,
		Platform: platform,
		Layout:   layout,
		Nix:      opts.Nix,
		ToolEnv:  host.ToolEnv,
	}
	headers, err := boot.Register(host.Builder, Generators)
	if err != nil {
		return nil, err
	}

	sources := lo.Ternary(len(opts.Sources) > 0, opts.Sources, DefaultSources)
	objects := make([]string, 0, len(sources))
	for _, name := range sources {
		src := layout.Source(name)
		obj := layout.Output(replaceExtension(name, compiler.ObjectSuffix()))
		step := core.Step{
			Name:    "obj-" + name,
			Kind:    core.KindObject,
			Inputs:  append([]string{src}, headers...),
			Outputs: []string{obj},
			Command: compiler.ObjectCommand(env, src, obj),
			Env:     host.ToolEnv,
		}
		if err := host.Builder.Add(step); err != nil {
			return nil, errors.Wrapf(err, "registering engine source %s", name)
		}
		objects = append(objects, obj)
	}

	host.Registry.Append(filelist.ScriptingFiles, objects...)

	host.Log.Info().
		Str("engine", layout.SourceDir).
		Str("compiler", style).
		Int("sources", len(objects)).
		Msg("engine registered")

	return &Registration{Layout: layout, Env: env, Headers: headers, Objects: objects}, nil
}
