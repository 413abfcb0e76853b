package formfill

import "fmt"

// FieldApplicationError reports a rule that matched a control but could not fill it.
type FieldApplicationError struct {
	Kind    FieldKind
	Control Control
	Cause   error
}

func (e *FieldApplicationError) Error() string {
	return fmt.Sprintf("failed to apply %s to %s: %v", e.Kind, e.Control, e.Cause)
}

func (e *FieldApplicationError) Unwrap() error {
	return e.Cause
}
