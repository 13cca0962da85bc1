package core

// Input represents a resolved file whose content contributes to step identity.
//
// Only the content is read; mtime and permissions never affect the hash.
type Input struct {
	// Path is the normalized, slash-separated path as declared by the step.
	Path string

	// Content is the raw file content.
	Content []byte
}

// InputSet represents the complete set of resolved inputs for a step.
// Inputs are always maintained in sorted order by Path.
type InputSet struct {
	Inputs []Input
}
