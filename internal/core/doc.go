// Package core provides the step model and the primitives that execute a
// single build step deterministically.
//
// A Step is plain data: the argv to run, the files it reads and writes, the
// environment it may observe and, optionally, a capture target that turns
// the process's standard output into a file. Everything that can change the
// result of a step contributes to its StepHash, so an unchanged hash means
// the recorded outputs can be reused.
//
// # Core Types
//
// Step: A declarative definition of one compile, link or generate action.
// Input: A resolved file whose content contributes to step identity.
// Artifact: A declared output file produced by a step.
// Runner: Hash, probe the cache, execute, capture and record one step.
package core
