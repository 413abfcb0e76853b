// Package apply drives one browser session through an application form: navigate,
// wait for the form, fill it, attach the resume and submit only after a human
// confirms.
package apply

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autoapply/internal/formfill"
)

// State is a step of an application session.
type State string

const (
	StateNavigating           State = "navigating"
	StateFormReady            State = "form_ready"
	StateFilling              State = "filling"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSubmitted            State = "submitted"
	StateCancelled            State = "cancelled"
	StateFailed               State = "failed"
)

// Terminal reports whether no further transitions can follow s.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateCancelled || s == StateFailed
}

// Reason explains why a session ended in StateFailed.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonArtifactMissing       Reason = "ArtifactMissing"
	ReasonBrowserLaunchFailed   Reason = "BrowserLaunchFailed"
	ReasonNavigationTimeout     Reason = "NavigationTimeout"
	ReasonNavigationFailed      Reason = "NavigationFailed"
	ReasonFormNotFound          Reason = "FormNotFound"
	ReasonFillFailed            Reason = "FillFailed"
	ReasonSubmitControlNotFound Reason = "SubmitControlNotFound"
	ReasonSubmitFailed          Reason = "SubmitFailed"
)

// Transition records one state change.
type Transition struct {
	From   State     `json:"from,omitempty"`
	To     State     `json:"to"`
	Reason Reason    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// TransitionFunc observes session transitions as they happen.
type TransitionFunc func(s *Session, t Transition)

// Session is the record of one application attempt for one job URL.
type Session struct {
	ID           uuid.UUID
	JobURL       string
	ArtifactPath string
	State        State
	Reason       Reason
	// Detail carries the error text behind a failure.
	Detail      string
	Fill        formfill.Report
	Attachment  formfill.Attachment
	Submit      formfill.Control
	Transitions []Transition
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Summary renders the filled form for the confirmation prompt.
func (s *Session) Summary() []string {
	lines := []string{"Job URL: " + s.JobURL}
	for _, o := range s.Fill.Outcomes {
		switch {
		case len(o.Matched) == 0:
			lines = append(lines, "  - "+string(o.Kind)+": no matching field")
		case len(o.Errors) > 0:
			lines = append(lines, "  ! "+string(o.Kind)+": "+o.Errors[0].Error())
		default:
			for _, c := range o.Matched {
				lines = append(lines, "  + "+string(o.Kind)+" -> "+c.String())
			}
		}
	}
	switch {
	case s.Attachment.Attached():
		lines = append(lines, "  + resume -> "+s.Attachment.Control.String())
	case s.Attachment.Err != nil:
		lines = append(lines, "  ! resume: "+s.Attachment.Err.Error())
	default:
		lines = append(lines, "  - resume: no file input found")
	}
	return lines
}
