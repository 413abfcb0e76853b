// Package main provides the resume_agent CLI: index a resume, tailor it to a job
// description and optionally fill the job's application form.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_agent",
	Short: "Tailor a resume to a job posting and help fill the application form",
	Long: `resume_agent indexes your resume, rewrites the most relevant parts for a job description,
saves the tailored resume, and can open the job's application form in Chrome, fill it from
your profile and attach the resume. Nothing is submitted until you type "submit".`,
	SilenceUsage: true,
}

var (
	configPath  string
	verbose     bool
	apiKey      string
	provider    string
	databaseURL string
	indexFile   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "LLM API key (defaults to GEMINI_API_KEY or OPENAI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: gemini or openai")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	rootCmd.PersistentFlags().StringVar(&indexFile, "index-file", "", "Local index file used when no database is configured")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
