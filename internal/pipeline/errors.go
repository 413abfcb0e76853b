package pipeline

import (
	"errors"
	"fmt"
)

// ErrApplierMissing is returned when a run asks to apply without an application engine.
var ErrApplierMissing = errors.New("apply requested but no application engine is configured")

// StageError wraps a failure with the step that produced it
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
