package types

import "strings"

// ResumeSegment is a chunk of previously indexed resume text.
type ResumeSegment struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// IndexedSegment is a segment together with its embedding vector.
type IndexedSegment struct {
	ResumeSegment
	Embedding []float32 `json:"embedding"`
}

// ScoredSegment pairs a segment with its relevance score from retrieval.
type ScoredSegment struct {
	Segment ResumeSegment `json:"segment"`
	Score   float64       `json:"score"`
}

// RetrievalResult is ordered by descending score and may be empty.
type RetrievalResult []ScoredSegment

// IsEmpty reports whether nothing was retrieved
func (r RetrievalResult) IsEmpty() bool {
	return len(r) == 0
}

// Segments returns the segments in result order.
func (r RetrievalResult) Segments() []ResumeSegment {
	segments := make([]ResumeSegment, 0, len(r))
	for _, s := range r {
		segments = append(segments, s.Segment)
	}
	return segments
}

// JoinSegmentText concatenates segment texts in order, separated by blank lines.
func JoinSegmentText(segments []ResumeSegment) string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, strings.TrimSpace(s.Text))
	}
	return strings.Join(texts, "\n\n")
}
