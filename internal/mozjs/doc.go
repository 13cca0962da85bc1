// Package mozjs wires the vendored SpiderMonkey engine into the host build.
//
// Configure derives the engine's compilation environment from the host's.
// The Bootstrapper turns each header generator into two steps: compile the
// generator program, then run it and capture its stdout as the header.
// Register puts it all together: generator steps, one object step per
// engine source, and the objects appended to the scriptingFiles list.
package mozjs
