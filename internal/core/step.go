package core

// StepKind classifies a build step. It is part of the step identity.
type StepKind string

const (
	// KindObject compiles one source file into an object file.
	KindObject StepKind = "object"

	// KindProgram compiles and links one source file into an executable.
	KindProgram StepKind = "program"

	// KindGenerate runs a program and captures its stdout into a file.
	KindGenerate StepKind = "generate"
)

// Step represents a declarative definition of one build action.
//
// Paths in Inputs, Outputs, Dir and Capture.Path are relative to the
// runner's working directory unless absolute.
type Step struct {
	// Name is the unique identifier of the step within a graph.
	// It does not affect the step hash.
	Name string `json:"name"`

	Kind StepKind `json:"kind"`

	// Inputs are files the step reads. Their contents contribute to the
	// step hash, and any step producing one of them must run first.
	Inputs []string `json:"inputs"`

	// Outputs are the files the step produces. Only declared outputs are
	// recorded in the cache and restored on a hit.
	Outputs []string `json:"outputs"`

	// Dir is the directory the command runs in. Empty means the working
	// directory.
	Dir string `json:"dir,omitempty"`

	// Command is the argv to execute. No shell is involved.
	Command []string `json:"command"`

	// Env holds the only environment variables visible to the command.
	Env map[string]string `json:"env,omitempty"`

	// Capture, when set, writes the command's normalized stdout to a file.
	Capture *Capture `json:"capture,omitempty"`
}

// Capture describes how a generate step turns stdout into a file.
type Capture struct {
	// Path is the destination file. It must also be listed in Outputs.
	Path string `json:"path"`

	// Normalizer names the OutputNormalizer applied before writing.
	// See NormalizerFor.
	Normalizer string `json:"normalizer"`
}
