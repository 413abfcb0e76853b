package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// SegmentStore is the pgvector-backed semantic index of resume segments.
type SegmentStore struct {
	db *DB
}

// Segments returns the segment store backed by this database
func (db *DB) Segments() *SegmentStore {
	return &SegmentStore{db: db}
}

// searchSegmentsSQL ranks by cosine distance; score is cosine similarity.
const searchSegmentsSQL = `SELECT id, source, position, content, 1 - (embedding <=> $1) AS score
	 FROM resume_segments
	 ORDER BY embedding <=> $1
	 LIMIT $2`

// Search returns the segments nearest to query, most similar first
func (s *SegmentStore) Search(ctx context.Context, query []float32, limit int) ([]types.ScoredSegment, error) {
	rows, err := s.db.pool.Query(ctx, searchSegmentsSQL, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search segments: %w", err)
	}
	defer rows.Close()

	var hits []types.ScoredSegment
	for rows.Next() {
		var hit types.ScoredSegment
		if err := rows.Scan(&hit.Segment.ID, &hit.Segment.Source, &hit.Segment.Position, &hit.Segment.Text, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read segments: %w", err)
	}
	return hits, nil
}

// ReplaceSource deletes the segments previously indexed from source and inserts
// segments in one transaction.
func (s *SegmentStore) ReplaceSource(ctx context.Context, source string, segments []types.IndexedSegment) error {
	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM resume_segments WHERE source = $1`, source); err != nil {
		return fmt.Errorf("failed to delete segments for %s: %w", source, err)
	}

	batch := &pgx.Batch{}
	for _, seg := range segments {
		batch.Queue(
			`INSERT INTO resume_segments (id, source, position, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			seg.ID, seg.Source, seg.Position, seg.Text, pgvector.NewVector(seg.Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert segments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit segments: %w", err)
	}
	return nil
}

// CountSegments returns the number of indexed segments
func (s *SegmentStore) CountSegments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM resume_segments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count segments: %w", err)
	}
	return n, nil
}
