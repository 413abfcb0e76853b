package llm

import "fmt"

// GenerationError reports that the language-model collaborator was unreachable or
// returned content that could not be used.
type GenerationError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	prefix := "generation failed"
	if e.Stage != "" {
		prefix = fmt.Sprintf("generation failed during %s", e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
