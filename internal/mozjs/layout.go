package mozjs

import (
	"path"
	"path/filepath"
	"strings"

	"jsbuild/internal/config"
)

// Layout locates the engine's sources and outputs. Paths are slash-separated
// and relative to the build's working directory unless absolute.
type Layout struct {
	// SourceDir holds the vendored engine sources.
	SourceDir string

	// BuildDir receives generator programs, generated headers and objects.
	BuildDir string
}

// NewLayout places the engine's outputs under buildDir, mirroring the
// engine's source directory.
func NewLayout(opts config.Options, buildDir string) (Layout, error) {
	engineDir, err := opts.EngineDirName()
	if err != nil {
		return Layout{}, err
	}
	engineDir = path.Clean(filepath.ToSlash(engineDir))
	return Layout{
		SourceDir: engineDir,
		BuildDir:  path.Join(filepath.ToSlash(buildDir), strings.TrimPrefix(engineDir, "/")),
	}, nil
}

// Source returns the path of an engine source file.
func (l Layout) Source(name string) string {
	return path.Join(l.SourceDir, name)
}

// Output returns the path of a file in the engine's build directory.
func (l Layout) Output(name string) string {
	return path.Join(l.BuildDir, name)
}

// replaceExtension swaps the extension of name for ext.
func replaceExtension(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
