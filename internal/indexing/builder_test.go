package indexing

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/retrieval"
	"github.com/jonathan/resume-autoapply/internal/types"
)

type lengthEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type failingSink struct{}

func (failingSink) ReplaceSource(context.Context, string, []types.IndexedSegment) error {
	return errors.New("disk full")
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestBuild_StoresEmbeddedSegments(t *testing.T) {
	embedder := &lengthEmbedder{}
	index := retrieval.NewMemoryIndex(nil)
	b := NewBuilder(embedder, index, WithChunkChars(40), WithConcurrency(2), WithLogger(quietLogger()))

	n, err := b.Build(context.Background(), "resume.md", "Built Go services\n\nLed Kubernetes migration\n\nMentored engineers")
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, 3, embedder.calls)
	stored := index.Snapshot()
	require.Len(t, stored, 3)
	for _, seg := range stored {
		assert.Equal(t, "resume.md", seg.Source)
		assert.Equal(t, float32(len(seg.Text)), seg.Embedding[0])
	}
}

func TestBuild_ReplacesPreviousSource(t *testing.T) {
	index := retrieval.NewMemoryIndex(nil)
	b := NewBuilder(&lengthEmbedder{}, index, WithLogger(quietLogger()))

	_, err := b.Build(context.Background(), "resume.md", strings.Repeat("old text ", 10))
	require.NoError(t, err)
	_, err = b.Build(context.Background(), "resume.md", "new text")
	require.NoError(t, err)

	stored := index.Snapshot()
	require.Len(t, stored, 1)
	assert.Equal(t, "new text", stored[0].Text)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewBuilder(&lengthEmbedder{}, retrieval.NewMemoryIndex(nil), WithLogger(quietLogger())).Build(ctx, "r", "  ")
	assert.Error(t, err)

	_, err = NewBuilder(&lengthEmbedder{err: errors.New("quota")}, retrieval.NewMemoryIndex(nil), WithLogger(quietLogger())).Build(ctx, "r", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")

	_, err = NewBuilder(&lengthEmbedder{}, failingSink{}, WithLogger(quietLogger())).Build(ctx, "r", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
