package db

import (
	"context"
	"fmt"
)

// RecordSession stores the terminal outcome of an application session
func (db *DB) RecordSession(ctx context.Context, rec SessionRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO application_sessions
		 (id, run_id, job_url, artifact_path, state, reason, detail, fields_filled, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET state = $5, reason = $6, detail = $7, fields_filled = $8, finished_at = $10`,
		rec.ID, rec.RunID, rec.JobURL, rec.ArtifactPath, rec.State, rec.Reason, rec.Detail,
		rec.FieldsFilled, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record session %s: %w", rec.ID, err)
	}
	return nil
}
