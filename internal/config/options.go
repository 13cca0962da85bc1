// Package config holds the build options of the engine adapter and loads
// them from a JSON file.
package config

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"jsbuild/internal/toolchain"
)

// DefaultEngineVersion is the vendored engine release.
const DefaultEngineVersion = "1.7.0"

// SupportedEngines is the range of engine releases whose source layout and
// generator programs this adapter knows.
const SupportedEngines = ">= 1.7.0, < 2.0.0"

// ErrInvalidConfig marks option values that cannot be used.
var ErrInvalidConfig = errors.New("invalid build options")

// Options are the host build options the engine adapter consumes.
type Options struct {
	// UseSM enables the embedded engine. When false nothing is configured,
	// compiled or generated.
	UseSM bool `json:"usesm"`

	// Windows selects the Windows platform symbol and strips Windows-only
	// strictness flags.
	Windows bool `json:"windows"`

	// Nix invokes generator programs as ./<name> from their own directory.
	Nix bool `json:"nix"`

	// TargetOS is a GOOS-style name, e.g. linux or darwin.
	TargetOS string `json:"target_os"`

	// Compiler is the command-line style, gcc or msvc. Empty selects the
	// target platform's default.
	Compiler string `json:"compiler"`

	// CC is the compiler driver. Empty selects cc or cl.
	CC string `json:"cc"`

	// CFlags, IncludePaths and Defines seed the host compilation
	// environment the engine environment is cloned from.
	CFlags       []string `json:"cflags"`
	IncludePaths []string `json:"include_paths"`
	Defines      []string `json:"defines"`

	// EngineDir is the engine source directory relative to the working
	// directory. Empty derives js-<major>.<minor> from EngineVersion.
	EngineDir string `json:"engine_dir"`

	EngineVersion string `json:"engine_version"`

	// Sources overrides the engine source list, relative to EngineDir.
	Sources []string `json:"sources"`
}

// Default returns the options for building on the current machine.
func Default() Options {
	opts := Options{
		UseSM:         true,
		Windows:       runtime.GOOS == "windows",
		Nix:           runtime.GOOS != "windows",
		TargetOS:      runtime.GOOS,
		EngineVersion: DefaultEngineVersion,
	}
	return opts
}

// Validate checks the options against the known platforms, compiler styles
// and engine releases.
func (o Options) Validate() error {
	if _, err := toolchain.LookupPlatform(o.TargetOS); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	switch o.Compiler {
	case "", toolchain.StyleGCC, toolchain.StyleMSVC:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown compiler style %q", o.Compiler)
	}
	v, err := o.Version()
	if err != nil {
		return err
	}
	constraint, err := semver.NewConstraint(SupportedEngines)
	if err != nil {
		return errors.Wrap(err, "parsing supported engine range")
	}
	if !constraint.Check(v) {
		return errors.Wrapf(ErrInvalidConfig, "engine version %s is outside %s", v, SupportedEngines)
	}
	for _, d := range o.Defines {
		if toolchain.ParseDefine(d).Name == "" {
			return errors.Wrapf(ErrInvalidConfig, "empty define name in %q", d)
		}
	}
	return nil
}

// Version parses EngineVersion.
func (o Options) Version() (*semver.Version, error) {
	v, err := semver.NewVersion(o.EngineVersion)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "engine version %q: %v", o.EngineVersion, err)
	}
	return v, nil
}

// EngineDirName returns EngineDir, or js-<major>.<minor> when it is empty.
func (o Options) EngineDirName() (string, error) {
	if o.EngineDir != "" {
		return o.EngineDir, nil
	}
	v, err := o.Version()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("js-%d.%d", v.Major(), v.Minor()), nil
}

// Platform returns the target platform.
func (o Options) Platform() (*toolchain.Platform, error) {
	p, err := toolchain.LookupPlatform(o.TargetOS)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return p, nil
}

// CompilerStyle returns Compiler, or the target platform's default.
func (o Options) CompilerStyle() (string, error) {
	if o.Compiler != "" {
		return o.Compiler, nil
	}
	p, err := o.Platform()
	if err != nil {
		return "", err
	}
	return p.Compiler, nil
}

// HostEnv builds the host compilation environment from CFlags,
// IncludePaths and Defines.
func (o Options) HostEnv() *toolchain.Env {
	env := toolchain.NewEnv()
	env.Flags.Add(o.CFlags...)
	for _, p := range o.IncludePaths {
		env.AppendIncludePath(p)
	}
	for _, s := range o.Defines {
		d := toolchain.ParseDefine(s)
		if d.HasValue {
			env.AppendDefineValue(d.Name, d.Value)
		} else {
			env.AppendDefine(d.Name)
		}
	}
	return env
}
