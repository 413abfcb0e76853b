// Package retrieval queries a semantic index of resume segments with a keyword set.
package retrieval

import (
	"context"
	"sort"

	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// StageName identifies this stage in errors and progress events.
const StageName = "segment retrieval"

// DefaultTopK is the number of segments returned when no limit is configured.
const DefaultTopK = 5

// Index is the semantic index collaborator. Implementations return segments ordered
// by descending similarity to the query vector, at most limit of them.
type Index interface {
	Search(ctx context.Context, query []float32, limit int) ([]types.ScoredSegment, error)
}

// Retriever finds the resume segments most relevant to a keyword set.
type Retriever struct {
	embedder llm.Embedder
	index    Index
	minScore float64
}

// NewRetriever creates a retriever. Segments scoring below minScore are discarded.
func NewRetriever(embedder llm.Embedder, index Index, minScore float64) *Retriever {
	return &Retriever{embedder: embedder, index: index, minScore: minScore}
}

// Retrieve returns at most topK segments ordered by non-increasing score. An empty
// keyword set, or one that matches nothing, yields an empty result and no error.
func (r *Retriever) Retrieve(ctx context.Context, keywords types.KeywordSet, topK int) (types.RetrievalResult, error) {
	if keywords.IsEmpty() || topK <= 0 {
		return types.RetrievalResult{}, nil
	}

	vector, err := r.embedder.Embed(ctx, keywords.Query())
	if err != nil {
		return nil, &IndexError{Message: "failed to embed keyword query", Cause: err}
	}

	hits, err := r.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, &IndexError{Message: "semantic search failed", Cause: err}
	}

	return rank(hits, topK, r.minScore), nil
}

// rank filters, orders and truncates raw index hits
func rank(hits []types.ScoredSegment, topK int, minScore float64) types.RetrievalResult {
	result := make(types.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < minScore {
			continue
		}
		result = append(result, hit)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	if len(result) > topK {
		result = result[:topK]
	}
	return result
}
