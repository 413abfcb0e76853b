package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/config"
	"github.com/jonathan/resume-autoapply/internal/db"
	"github.com/jonathan/resume-autoapply/internal/ingestion"
	"github.com/jonathan/resume-autoapply/internal/observability"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Fill a job application form with an existing resume",
	Long: `Opens the job URL in Chrome, fills the form from your profile, attaches the resume and
waits for you to type "submit". Any other answer closes the browser without submitting.`,
	RunE: runApply,
}

var (
	applyJobURL   string
	applyResume   string
	applyHeadless bool
)

func init() {
	applyCmd.Flags().StringVar(&applyJobURL, "job-url", "", "URL of the job application form")
	applyCmd.Flags().StringVarP(&applyResume, "resume", "r", "", "Path of the resume to attach (defaults to the configured output)")
	applyCmd.Flags().BoolVar(&applyHeadless, "headless", false, "Run Chrome without a window")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		if cmd.Flags().Changed("job-url") {
			c.JobURL = applyJobURL
		}
		if cmd.Flags().Changed("resume") {
			c.Output = applyResume
		}
		if cmd.Flags().Changed("headless") {
			c.Headless = applyHeadless
		}
	})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	prompter := ingestion.NewPrompter(os.Stdin, os.Stdout)
	jobURL := cfg.JobURL
	if jobURL == "" {
		if jobURL, err = prompter.Ask("Job application URL: "); err != nil {
			return fmt.Errorf("failed to read job URL: %w", err)
		}
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		if database, err = db.Connect(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		defer database.Close()
	}

	pub := newPublisher(cfg)
	if pub != nil {
		defer func() { _ = pub.Close() }()
	}

	engine := newEngine(cfg, apply.NewConsoleConfirmer(prompter, os.Stdout), pub)
	session, err := engine.Run(ctx, jobURL, cfg.Output)
	if err != nil {
		return err
	}
	recordSession(database, session, uuid.Nil)

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintSession(session)
	}
	fmt.Println(sessionOutcome(session))
	if session.State == apply.StateFailed {
		return fmt.Errorf("application session %s failed: %s", session.ID, session.Reason)
	}
	return nil
}
