package importer

import "strings"

// ValidationError describes a malformed import document. Nothing is written
// to storage when it is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid document"
	}
	return "invalid document: " + strings.Join(e.Problems, "; ")
}
