package validator

import "fmt"

// Kind classifies a folder structure violation.
type Kind string

const (
	NotDirectory      Kind = "not a directory"
	BadName           Kind = "bad name"
	OutOfRange        Kind = "index out of range"
	UnexpectedFile    Kind = "unexpected file"
	UnexpectedNesting Kind = "unexpected nesting"
	Empty             Kind = "empty"
)

// StructureError reports an input tree that does not follow
// patient_<k>/study_<k>/<file>. It is always fatal for the run.
type StructureError struct {
	Path   string
	Kind   Kind
	Detail string
}

func (e *StructureError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid folder structure: %s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("invalid folder structure: %s: %s (%s)", e.Kind, e.Path, e.Detail)
}
