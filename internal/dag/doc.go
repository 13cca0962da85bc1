// Package dag models a build as an immutable, validated graph of core.Step
// definitions and executes it deterministically.
//
// The package is split into:
//   - Graph: steps plus dependency edges, with a stable GraphHash
//   - Builder: derives edges from declared outputs and inputs
//   - ExecutionState and the state machine: per-run step status
//   - Executor: serial and parallel dispatch over a StepRunner
//
// The graph identity is computed from step definitions and the canonicalized
// edge structure, so it does not depend on insertion order.
package dag
