package retrieval

import "fmt"

// IndexError represents a failure of the embedding or vector-index collaborator
type IndexError struct {
	Message string
	Cause   error
}

func (e *IndexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("index error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("index error: %s", e.Message)
}

func (e *IndexError) Unwrap() error {
	return e.Cause
}
