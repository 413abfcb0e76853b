package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autoapply/internal/config"
	"github.com/jonathan/resume-autoapply/internal/db"
	"github.com/jonathan/resume-autoapply/internal/indexing"
	"github.com/jonathan/resume-autoapply/internal/ingestion"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk, embed and store a resume for retrieval",
	Long: `Reads a resume (.txt, .md, .docx or .pdf), splits it into segments, embeds each one
and stores them in the configured index. Re-indexing the same source replaces its segments.`,
	RunE: runIndex,
}

var (
	indexResume string
	indexSource string
	indexChunk  int
)

func init() {
	indexCmd.Flags().StringVarP(&indexResume, "resume", "r", "", "Path to the resume file")
	indexCmd.Flags().StringVar(&indexSource, "source", "", "Source name for the segments (defaults to the file name)")
	indexCmd.Flags().IntVar(&indexChunk, "chunk-chars", 0, "Maximum characters per segment")

	if err := indexCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		if cmd.Flags().Changed("chunk-chars") {
			c.ChunkChars = indexChunk
		}
	})
	if err != nil {
		return err
	}
	ctx := context.Background()

	text, err := ingestion.ReadResume(indexResume)
	if err != nil {
		return err
	}
	source := indexSource
	if source == "" {
		source = filepath.Base(indexResume)
	}

	if cfg.DatabaseURL != "" {
		if err := db.EnsureSchema(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
	}
	backend, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	embedder, closeEmbedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeEmbedder() }()

	fmt.Printf("Indexing %s into %s...\n", source, backend.name)
	builder := indexing.NewBuilder(embedder, backend.sink, indexing.WithChunkChars(cfg.ChunkChars))
	n, err := builder.Build(ctx, source, text)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Indexed %d segments from %s\n", n, source)
	return nil
}
