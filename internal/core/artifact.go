package core

import "os"

// Artifact represents a file produced by a step and declared in its outputs.
type Artifact struct {
	// Path is the declared output path, slash-separated.
	Path string

	// Content is the file content as written by the step.
	Content []byte

	// Mode holds the permission bits, so restored executables stay runnable.
	Mode os.FileMode
}

// ArtifactSet represents the complete set of artifacts produced by a step.
// Artifacts are maintained in sorted order by Path.
type ArtifactSet struct {
	Artifacts []Artifact
}
