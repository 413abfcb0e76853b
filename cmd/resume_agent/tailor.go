package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/config"
	"github.com/jonathan/resume-autoapply/internal/fetch"
	"github.com/jonathan/resume-autoapply/internal/ingestion"
	"github.com/jonathan/resume-autoapply/internal/keywords"
	"github.com/jonathan/resume-autoapply/internal/pipeline"
	"github.com/jonathan/resume-autoapply/internal/retrieval"
	"github.com/jonathan/resume-autoapply/internal/rewriting"
	"github.com/jonathan/resume-autoapply/internal/types"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor the indexed resume to a job description",
	Long: `Extracts keywords from a job description, retrieves the most relevant resume segments,
rewrites them for the role and saves the tailored resume. With --apply the job's application
form is then filled in Chrome and submitted only after you confirm.`,
	RunE: runTailor,
}

var (
	tailorJob      string
	tailorJobURL   string
	tailorApply    bool
	tailorOutput   string
	tailorTopK     int
	tailorHeadless bool
	tailorRender   bool
)

func init() {
	tailorCmd.Flags().StringVarP(&tailorJob, "job", "j", "", "Path to job description file, or - for stdin")
	tailorCmd.Flags().StringVar(&tailorJobURL, "job-url", "", "URL of the job posting")
	tailorCmd.Flags().BoolVar(&tailorApply, "apply", false, "Fill the application form after tailoring")
	tailorCmd.Flags().StringVarP(&tailorOutput, "output", "o", "", "Path of the tailored resume (.docx, .txt or .md)")
	tailorCmd.Flags().IntVar(&tailorTopK, "top-k", 0, "Number of resume segments to retrieve")
	tailorCmd.Flags().BoolVar(&tailorHeadless, "headless", false, "Run Chrome without a window")
	tailorCmd.Flags().BoolVar(&tailorRender, "render", false, "Render JavaScript-heavy job pages in Chrome")

	rootCmd.AddCommand(tailorCmd)
}

func tailorOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("job") {
			c.Job = tailorJob
		}
		if flags.Changed("job-url") {
			c.JobURL = tailorJobURL
		}
		if flags.Changed("output") {
			c.Output = tailorOutput
		}
		if flags.Changed("top-k") {
			c.TopK = tailorTopK
		}
		if flags.Changed("headless") {
			c.Headless = tailorHeadless
		}
		if flags.Changed("render") {
			c.Render = tailorRender
		}
	}
}

func runTailor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, tailorOverrides(cmd))
	if err != nil {
		return err
	}
	if err := checkStdinUse(cfg.Job, tailorApply); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prompter := ingestion.NewPrompter(os.Stdin, os.Stdout)
	jd, err := resolveJobDescription(ctx, cfg, prompter)
	if err != nil {
		return err
	}
	jobURL := cfg.JobURL
	if tailorApply && jobURL == "" {
		if jobURL, err = prompter.Ask("Job application URL: "); err != nil {
			return fmt.Errorf("failed to read job URL: %w", err)
		}
	}

	backend, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	embedder, closeEmbedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeEmbedder() }()

	persister, err := newPersister(ctx, cfg)
	if err != nil {
		return err
	}

	var extractOpts []keywords.Option
	if cfg.ExtractionTemperature != nil {
		extractOpts = append(extractOpts, keywords.WithTemperature(*cfg.ExtractionTemperature))
	}
	var rewriteOpts []rewriting.Option
	if cfg.RewriteTemperature != nil {
		rewriteOpts = append(rewriteOpts, rewriting.WithTemperature(*cfg.RewriteTemperature))
	}

	pub := newPublisher(cfg)
	if pub != nil {
		defer func() { _ = pub.Close() }()
	}

	var opts []pipeline.Option
	if backend.database != nil {
		opts = append(opts, pipeline.WithRecorder(backend.database))
	}
	if tailorApply {
		confirmer := apply.NewConsoleConfirmer(prompter, os.Stdout)
		opts = append(opts, pipeline.WithApplier(newEngine(cfg, confirmer, pub)))
	}

	orchestrator := pipeline.NewOrchestrator(
		keywords.NewExtractor(client, extractOpts...),
		retrieval.NewRetriever(embedder, backend.index, cfg.MinScore),
		rewriting.NewRewriter(client, rewriteOpts...),
		persister,
		opts...,
	)

	runOpts := pipeline.RunOptions{
		JobDescription: jd,
		ArtifactPath:   cfg.Output,
		TopK:           cfg.TopK,
		Apply:          tailorApply,
		JobURL:         jobURL,
		Verbose:        cfg.Verbose,
	}
	if pub != nil {
		runOpts.OnProgress = pub.PipelineProgress
	}

	result, err := orchestrator.Run(ctx, runOpts)
	if result != nil && result.Session != nil {
		recordSession(backend.database, result.Session, result.RunID)
	}
	if err != nil {
		return err
	}

	fmt.Println(runOutcome(result))
	if result.Session != nil {
		fmt.Println(sessionOutcome(result.Session))
	}
	return nil
}

// errStdinConflict is returned when the job description and the confirmation gate
// would both read stdin.
var errStdinConflict = errors.New("--job - reads stdin, which --apply needs for the confirmation prompt; save the job description to a file or use --job-url")

// checkStdinUse rejects reading the job description from stdin when the
// application step will prompt on stdin.
func checkStdinUse(job string, apply bool) error {
	if apply && job == "-" {
		return errStdinConflict
	}
	return nil
}

// resolveJobDescription reads the job description from --job, then the job URL, then
// an interactive prompt.
func resolveJobDescription(ctx context.Context, cfg config.Config, prompter *ingestion.Prompter) (types.JobDescription, error) {
	switch {
	case cfg.Job != "":
		return ingestion.ReadJobDescription(cfg.Job, os.Stdin)
	case cfg.JobURL != "":
		fmt.Printf("Fetching job description from %s...\n", cfg.JobURL)
		return fetch.JobDescription(ctx, cfg.JobURL, fetchOptions(cfg))
	}
	text, err := prompter.Ask("Paste the job description (single line): ")
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return types.JobDescription(ingestion.CleanText(text)), nil
}

// runOutcome is the one-line result printed after the tailoring steps
func runOutcome(result *pipeline.Result) string {
	switch result.Status {
	case pipeline.StatusEmptyInput:
		return "Nothing to do: the job description (or job URL) is empty."
	case pipeline.StatusNoKeywords:
		return "Stopped: no keywords could be extracted from the job description."
	case pipeline.StatusEmptyRetrieval:
		return "Stopped: no resume segment matched the job keywords. Index a resume first."
	}
	msg := "✅ Tailored resume saved"
	if result.Artifact != nil {
		msg += " to " + result.Artifact.Path
		if result.Artifact.MirrorURL != "" {
			msg += " (mirrored to " + result.Artifact.MirrorURL + ")"
		}
	}
	return msg
}
