// Package indexing embeds resume segments and stores them in a searchable index.
package indexing

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-autoapply/internal/ingestion"
	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// DefaultConcurrency bounds in-flight embedding requests.
const DefaultConcurrency = 4

// SegmentSink stores the indexed segments of one resume source, replacing any
// segments previously stored for it.
type SegmentSink interface {
	ReplaceSource(ctx context.Context, source string, segments []types.IndexedSegment) error
}

// Builder chunks resume text, embeds each chunk and writes the result to a sink.
type Builder struct {
	embedder    llm.Embedder
	sink        SegmentSink
	chunkChars  int
	concurrency int
	logger      *log.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithChunkChars sets the maximum segment length.
func WithChunkChars(n int) Option {
	return func(b *Builder) { b.chunkChars = n }
}

// WithConcurrency sets how many segments are embedded at once.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger sets the logger used for progress output.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(embedder llm.Embedder, sink SegmentSink, opts ...Option) *Builder {
	b := &Builder{
		embedder:    embedder,
		sink:        sink,
		chunkChars:  ingestion.DefaultChunkChars,
		concurrency: DefaultConcurrency,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build indexes text under source and returns the number of segments stored.
func (b *Builder) Build(ctx context.Context, source, text string) (int, error) {
	segments := ingestion.Chunk(source, text, b.chunkChars)
	if len(segments) == 0 {
		return 0, fmt.Errorf("no segments produced for %s", source)
	}
	b.logger.Printf("[INDEX] %s: embedding %d segments", source, len(segments))

	indexed := make([]types.IndexedSegment, len(segments))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, seg := range segments {
		g.Go(func() error {
			vec, err := b.embedder.Embed(gCtx, seg.Text)
			if err != nil {
				return fmt.Errorf("embedding segment %d of %s: %w", seg.Position, source, err)
			}
			indexed[i] = types.IndexedSegment{ResumeSegment: seg, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := b.sink.ReplaceSource(ctx, source, indexed); err != nil {
		return 0, fmt.Errorf("storing segments for %s: %w", source, err)
	}
	b.logger.Printf("[INDEX] %s: stored %d segments", source, len(indexed))
	return len(indexed), nil
}
