// Package toolchain describes how C sources are compiled: the compilation
// environment (defines, include paths, flags), compiler command-line styles
// and the per-OS target table.
package toolchain
