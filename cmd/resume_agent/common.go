package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/browser"
	"github.com/jonathan/resume-autoapply/internal/config"
	"github.com/jonathan/resume-autoapply/internal/db"
	"github.com/jonathan/resume-autoapply/internal/events"
	"github.com/jonathan/resume-autoapply/internal/fetch"
	"github.com/jonathan/resume-autoapply/internal/formfill"
	"github.com/jonathan/resume-autoapply/internal/indexing"
	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/rendering"
	"github.com/jonathan/resume-autoapply/internal/retrieval"
)

// recordTimeout bounds database writes made after a run has finished
const recordTimeout = 10 * time.Second

// loadConfig builds the effective configuration: config file, then explicitly set
// flags, then defaults, then environment secrets.
func loadConfig(cmd *cobra.Command, overrides func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("api-key") {
		cfg.APIKey = apiKey
	}
	if flags.Changed("provider") {
		cfg.Provider = provider
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("index-file") {
		cfg.IndexFile = indexFile
	}
	if overrides != nil {
		overrides(&cfg)
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Verbose && configPath != "" {
		fmt.Printf("[VERBOSE] Loaded config from: %s\n", configPath)
	}
	return cfg, nil
}

// indexBackend is the semantic index selected by the configuration
type indexBackend struct {
	index    retrieval.Index
	sink     indexing.SegmentSink
	database *db.DB
	name     string
}

func (b *indexBackend) Close() {
	if b.database != nil {
		b.database.Close()
	}
}

// openIndex uses PostgreSQL when a database URL is configured and the local index
// file otherwise.
func openIndex(ctx context.Context, cfg config.Config) (*indexBackend, error) {
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := database.Segments()
		return &indexBackend{index: store, sink: store, database: database, name: "postgres"}, nil
	}

	file, err := retrieval.OpenFileIndex(cfg.IndexFile)
	if err != nil {
		return nil, err
	}
	return &indexBackend{index: file, sink: file, name: cfg.IndexFile}, nil
}

func requireAPIKey(cfg config.Config) error {
	if cfg.APIKey != "" {
		return nil
	}
	if llm.Provider(cfg.Provider) == llm.ProviderOpenAI {
		return fmt.Errorf("OPENAI_API_KEY environment variable or --api-key flag is required")
	}
	return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
}

func newEmbedder(ctx context.Context, cfg config.Config) (llm.Embedder, func() error, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, nil, err
	}
	return llm.NewEmbedder(ctx, cfg.LLMConfig(), cfg.APIKey)
}

func newClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
}

// newPersister picks the artifact format from the output path and mirrors to S3
// when a bucket is configured.
func newPersister(ctx context.Context, cfg config.Config) (rendering.Persister, error) {
	persister := rendering.ForPath(cfg.Output)
	if cfg.S3Bucket == "" {
		return persister, nil
	}
	mirror, err := rendering.NewS3Mirror(ctx, persister, rendering.S3Options{
		Bucket:   cfg.S3Bucket,
		Prefix:   cfg.S3Prefix,
		Endpoint: cfg.S3Endpoint,
		Region:   cfg.S3Region,
	}, nil)
	if err != nil {
		return nil, err
	}
	return mirror, nil
}

// newPublisher connects to the event broker when one is configured. Connection
// failures only disable events.
func newPublisher(cfg config.Config) *events.Publisher {
	if cfg.AMQPURL == "" {
		return nil
	}
	pub, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange, nil)
	if err != nil {
		log.Printf("[EVENTS] Warning: events disabled: %v", err)
		return nil
	}
	return pub
}

func newMapper(cfg config.Config) *formfill.Mapper {
	var logger *log.Logger
	if !cfg.Verbose {
		logger = log.New(io.Discard, "", 0)
	}
	return formfill.NewMapper(formfill.DefaultRules(cfg.Profile), logger)
}

func newEngine(cfg config.Config, confirmer apply.Confirmer, pub *events.Publisher) *apply.Engine {
	launcher := browser.NewLauncher(browser.Options{
		Headless: cfg.Headless,
		ExecPath: cfg.ChromePath,
		Verbose:  cfg.Verbose,
	}, nil)

	opts := []apply.Option{
		apply.WithTimeouts(cfg.NavigationTimeout(), cfg.FormTimeout()),
		apply.WithFormSelector(fetch.FormSelectorForURL),
	}
	if pub != nil {
		opts = append(opts, apply.WithObserver(pub.SessionTransition))
	}
	return apply.NewEngine(launcher, newMapper(cfg), confirmer, opts...)
}

func fetchOptions(cfg config.Config) *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Render = cfg.Render
	opts.Verbose = cfg.Verbose
	return opts
}

// sessionRecord converts a finished session for storage
func sessionRecord(s *apply.Session, runID uuid.UUID) db.SessionRecord {
	rec := db.SessionRecord{
		ID:           s.ID,
		JobURL:       s.JobURL,
		ArtifactPath: s.ArtifactPath,
		State:        string(s.State),
		Reason:       string(s.Reason),
		Detail:       s.Detail,
		FieldsFilled: s.Fill.FilledCount(),
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
	}
	if runID != uuid.Nil {
		rec.RunID = &runID
	}
	return rec
}

func recordSession(database *db.DB, s *apply.Session, runID uuid.UUID) {
	if database == nil || s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := database.RecordSession(ctx, sessionRecord(s, runID)); err != nil {
		log.Printf("[APPLY] Warning: %v", err)
	}
}

// sessionOutcome is the one-line result printed after an application session
func sessionOutcome(s *apply.Session) string {
	switch s.State {
	case apply.StateSubmitted:
		return "✅ Application submitted."
	case apply.StateCancelled:
		return "Application cancelled. Nothing was submitted."
	default:
		msg := fmt.Sprintf("Application failed: %s", s.Reason)
		if s.Detail != "" {
			msg += " (" + strings.TrimSpace(s.Detail) + ")"
		}
		return msg
	}
}
