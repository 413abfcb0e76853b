package ingestion

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// DefaultChunkChars is the default upper bound on a segment's length.
const DefaultChunkChars = 800

// segmentNamespace scopes name-based segment IDs
var segmentNamespace = uuid.MustParse("6f1c2b0e-8d4a-4c55-9d0e-3b7f2a9c1e44")

// Chunk splits resume text into segments of at most maxChars characters. Paragraphs
// are kept whole where they fit; longer paragraphs are split on line and then word
// boundaries. Segment IDs are derived from source, position and text.
func Chunk(source, text string, maxChars int) []types.ResumeSegment {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}

	var pieces []string
	for _, para := range strings.Split(CleanText(text), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		pieces = append(pieces, splitLong(para, maxChars)...)
	}

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+2+len(piece) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	segments := make([]types.ResumeSegment, 0, len(chunks))
	for i, chunk := range chunks {
		segments = append(segments, types.ResumeSegment{
			ID:       segmentID(source, i, chunk),
			Source:   source,
			Position: i,
			Text:     chunk,
		})
	}
	return segments
}

// splitLong breaks a paragraph that exceeds maxChars on line, then word, boundaries
func splitLong(para string, maxChars int) []string {
	if len(para) <= maxChars {
		return []string{para}
	}

	var out []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.Split(para, "\n") {
		for _, word := range wordsOf(line, maxChars) {
			if current.Len() > 0 && current.Len()+1+len(word) > maxChars {
				flush()
			}
			if current.Len() > 0 && !strings.HasSuffix(current.String(), "\n") {
				current.WriteString(" ")
			}
			current.WriteString(word)
		}
		if current.Len() > 0 && current.Len() < maxChars {
			current.WriteString("\n")
		}
	}
	flush()

	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

// wordsOf splits a line into words, hard-splitting any word longer than maxChars
func wordsOf(line string, maxChars int) []string {
	var words []string
	for _, w := range strings.Fields(line) {
		for len(w) > maxChars {
			words = append(words, w[:maxChars])
			w = w[maxChars:]
		}
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func segmentID(source string, position int, text string) string {
	name := source + "#" + strconv.Itoa(position) + "#" + text
	return uuid.NewSHA1(segmentNamespace, []byte(name)).String()
}
