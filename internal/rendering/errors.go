// Package rendering persists tailored resumes as DOCX or plain-text artifacts.
package rendering

import "fmt"

// PersistError represents a failure to write a resume artifact
type PersistError struct {
	Path    string
	Message string
	Cause   error
}

func (e *PersistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persist %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("persist %s: %s", e.Path, e.Message)
}

func (e *PersistError) Unwrap() error {
	return e.Cause
}
