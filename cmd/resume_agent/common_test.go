package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/formfill"
	"github.com/jonathan/resume-autoapply/internal/pipeline"
	"github.com/jonathan/resume-autoapply/internal/types"
)

func finishedSession(state apply.State, reason apply.Reason) *apply.Session {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &apply.Session{
		ID:           uuid.New(),
		JobURL:       "https://boards.example.com/jobs/1",
		ArtifactPath: "tailored_resume.docx",
		State:        state,
		Reason:       reason,
		Fill: formfill.Report{Outcomes: []formfill.RuleOutcome{
			{Kind: formfill.KindEmail, Filled: 1},
			{Kind: formfill.KindPhone, Filled: 2},
		}},
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
	}
}

func TestSessionRecord(t *testing.T) {
	s := finishedSession(apply.StateFailed, apply.ReasonFormNotFound)
	s.Detail = "no form on page"
	runID := uuid.New()

	rec := sessionRecord(s, runID)
	assert.Equal(t, s.ID, rec.ID)
	require.NotNil(t, rec.RunID)
	assert.Equal(t, runID, *rec.RunID)
	assert.Equal(t, "failed", rec.State)
	assert.Equal(t, "FormNotFound", rec.Reason)
	assert.Equal(t, "no form on page", rec.Detail)
	assert.Equal(t, 3, rec.FieldsFilled)
	assert.Equal(t, s.FinishedAt, rec.FinishedAt)
}

func TestSessionRecord_WithoutRun(t *testing.T) {
	rec := sessionRecord(finishedSession(apply.StateSubmitted, apply.ReasonNone), uuid.Nil)
	assert.Nil(t, rec.RunID)
	assert.Empty(t, rec.Reason)
}

func TestRecordSession_NoDatabase(t *testing.T) {
	assert.NotPanics(t, func() {
		recordSession(nil, finishedSession(apply.StateSubmitted, apply.ReasonNone), uuid.Nil)
	})
}

func TestSessionOutcome(t *testing.T) {
	assert.Contains(t, sessionOutcome(finishedSession(apply.StateSubmitted, apply.ReasonNone)), "submitted")
	assert.Contains(t, sessionOutcome(finishedSession(apply.StateCancelled, apply.ReasonNone)), "Nothing was submitted")

	failed := finishedSession(apply.StateFailed, apply.ReasonNavigationTimeout)
	failed.Detail = "deadline exceeded "
	assert.Equal(t, "Application failed: NavigationTimeout (deadline exceeded)", sessionOutcome(failed))
}

func TestRunOutcome(t *testing.T) {
	tests := []struct {
		name     string
		result   *pipeline.Result
		contains string
	}{
		{"empty input", &pipeline.Result{Status: pipeline.StatusEmptyInput}, "empty"},
		{"no keywords", &pipeline.Result{Status: pipeline.StatusNoKeywords}, "no keywords"},
		{"empty retrieval", &pipeline.Result{Status: pipeline.StatusEmptyRetrieval}, "Index a resume first"},
		{
			"completed",
			&pipeline.Result{Status: pipeline.StatusCompleted, Artifact: &types.ResumeArtifact{Path: "out.docx"}},
			"saved to out.docx",
		},
		{
			"mirrored",
			&pipeline.Result{Status: pipeline.StatusCompleted, Artifact: &types.ResumeArtifact{Path: "out.docx", MirrorURL: "s3://bucket/out.docx"}},
			"mirrored to s3://bucket/out.docx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, runOutcome(tt.result), tt.contains)
		})
	}
}

func TestCheckStdinUse(t *testing.T) {
	tests := []struct {
		name    string
		job     string
		apply   bool
		wantErr bool
	}{
		{"stdin without apply", "-", false, false},
		{"file with apply", "job.txt", true, false},
		{"no job with apply", "", true, false},
		{"stdin with apply", "-", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStdinUse(tt.job, tt.apply)
			if tt.wantErr {
				assert.ErrorIs(t, err, errStdinConflict)
				return
			}
			assert.NoError(t, err)
		})
	}
}
