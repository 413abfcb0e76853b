package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// MemoryIndex is an in-memory cosine-similarity index.
type MemoryIndex struct {
	mu       sync.RWMutex
	segments []types.IndexedSegment
}

// NewMemoryIndex creates an index holding segments
func NewMemoryIndex(segments []types.IndexedSegment) *MemoryIndex {
	return &MemoryIndex{segments: segments}
}

// Search returns the segments most similar to query
func (m *MemoryIndex) Search(_ context.Context, query []float32, limit int) ([]types.ScoredSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]types.ScoredSegment, 0, len(m.segments))
	for _, seg := range m.segments {
		score, ok := CosineSimilarity(query, seg.Embedding)
		if !ok {
			continue
		}
		hits = append(hits, types.ScoredSegment{Segment: seg.ResumeSegment, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ReplaceSource drops every segment from source and stores segments in its place.
func (m *MemoryIndex) ReplaceSource(_ context.Context, source string, segments []types.IndexedSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.segments[:0:0]
	for _, seg := range m.segments {
		if seg.Source != source {
			kept = append(kept, seg)
		}
	}
	m.segments = append(kept, segments...)
	return nil
}

// Len returns the number of stored segments
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.segments)
}

// Snapshot returns a copy of the stored segments
func (m *MemoryIndex) Snapshot() []types.IndexedSegment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.IndexedSegment, len(m.segments))
	copy(out, m.segments)
	return out
}

// CosineSimilarity returns the cosine similarity of a and b. It reports false when
// the vectors differ in length or either has zero magnitude.
func CosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
