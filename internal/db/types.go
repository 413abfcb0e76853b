package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusHalted    = "halted"
	RunStatusFailed    = "failed"
)

// Run represents a tailoring run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	JobURL       string     `json:"job_url"`
	Status       string     `json:"status"`
	Keywords     []string   `json:"keywords"`
	ArtifactPath string     `json:"artifact_path"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SessionRecord is the stored outcome of one application session
type SessionRecord struct {
	ID           uuid.UUID  `json:"id"`
	RunID        *uuid.UUID `json:"run_id,omitempty"`
	JobURL       string     `json:"job_url"`
	ArtifactPath string     `json:"artifact_path"`
	State        string     `json:"state"`
	Reason       string     `json:"reason,omitempty"`
	Detail       string     `json:"detail,omitempty"`
	FieldsFilled int        `json:"fields_filled"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
}
