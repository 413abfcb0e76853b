package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusConstants(t *testing.T) {
	statuses := []string{RunStatusRunning, RunStatusCompleted, RunStatusHalted, RunStatusFailed}
	seen := map[string]bool{}
	for _, s := range statuses {
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate status %q", s)
		seen[s] = true
	}
}

func TestSchema_DefinesTables(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE EXTENSION IF NOT EXISTS vector")
	for _, table := range []string{"resume_segments", "tailoring_runs", "application_sessions"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestSearchSQL_OrdersByCosineDistance(t *testing.T) {
	assert.Contains(t, searchSegmentsSQL, "<=>")
	assert.True(t, strings.Contains(searchSegmentsSQL, "ORDER BY embedding <=> $1"))
	assert.Contains(t, searchSegmentsSQL, "LIMIT $2")
}

func TestRunType(t *testing.T) {
	run := Run{
		JobURL: "https://jobs.example.com/1",
		Status: RunStatusRunning,
	}

	assert.Equal(t, "https://jobs.example.com/1", run.JobURL)
	assert.Nil(t, run.CompletedAt)
}
