// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-autoapply/internal/ingestion"
	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/rendering"
	"github.com/jonathan/resume-autoapply/internal/retrieval"
	"github.com/jonathan/resume-autoapply/internal/schemas"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// Default values applied by Defaults
const (
	DefaultIndexFile                = "resume_index.json"
	DefaultAMQPExchange             = "resume-agent"
	DefaultNavigationTimeoutSeconds = 30
	DefaultFormTimeoutSeconds       = 10
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Language model
	Provider              string   `json:"provider,omitempty" validate:"omitempty,oneof=gemini openai"`
	APIKey                string   `json:"api_key,omitempty"`
	ExtractionTemperature *float32 `json:"extraction_temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	RewriteTemperature    *float32 `json:"rewrite_temperature,omitempty" validate:"omitempty,gte=0,lte=2"`

	// Retrieval and index
	TopK        int     `json:"top_k,omitempty" validate:"gte=0"`
	MinScore    float64 `json:"min_score,omitempty" validate:"gte=-1,lte=1"`
	ChunkChars  int     `json:"chunk_chars,omitempty" validate:"omitempty,gte=100"`
	DatabaseURL string  `json:"database_url,omitempty"` // PostgreSQL connection URL, takes precedence over index_file
	IndexFile   string  `json:"index_file,omitempty"`

	// Paths
	Output string `json:"output,omitempty"`                           // Tailored resume artifact path
	Job    string `json:"job,omitempty"`                              // Path to job description text file, "-" for stdin
	JobURL string `json:"job_url,omitempty" validate:"omitempty,url"` // Posting to fetch and apply to

	// Applicant
	Profile types.ApplicantProfile `json:"profile"`

	// Browser session
	NavigationTimeoutSeconds int    `json:"navigation_timeout_seconds,omitempty" validate:"gte=0"`
	FormTimeoutSeconds       int    `json:"form_timeout_seconds,omitempty" validate:"gte=0"`
	Headless                 bool   `json:"headless,omitempty"`
	ChromePath               string `json:"chrome_path,omitempty"`

	// Artifact mirror
	S3Bucket   string `json:"s3_bucket,omitempty"`
	S3Prefix   string `json:"s3_prefix,omitempty"`
	S3Endpoint string `json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3Region   string `json:"s3_region,omitempty"`

	// Events
	AMQPURL      string `json:"amqp_url,omitempty"`
	AMQPExchange string `json:"amqp_exchange,omitempty"`

	// Behavior
	Render  bool `json:"render,omitempty"`  // Render job pages with Chrome when static HTML is thin
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// The file is checked against the config JSON Schema when the schema can be found.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if schemaPath := schemas.ResolveSchemaPath(schemas.ConfigSchemaPath); schemaPath != "" {
		if err := schemas.ValidateBytes(schemaPath, data); err != nil {
			return nil, fmt.Errorf("config file %s does not match schema: %w", path, err)
		}
	} else {
		log.Printf("[CONFIG] Warning: %s not found, skipping schema validation", schemas.ConfigSchemaPath)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are not checked here since those depend on the command being run.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("'%s' failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.S3Prefix != "" && c.S3Bucket == "" {
		return fmt.Errorf("config error: 's3_prefix' requires 's3_bucket'")
	}
	if c.Job != "" && c.Job != "-" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}

	return nil
}

// Defaults returns the values used for anything left unset.
func Defaults() Config {
	return Config{
		Provider:                 string(llm.ProviderGemini),
		TopK:                     retrieval.DefaultTopK,
		ChunkChars:               ingestion.DefaultChunkChars,
		IndexFile:                DefaultIndexFile,
		Output:                   rendering.DefaultArtifactPath,
		NavigationTimeoutSeconds: DefaultNavigationTimeoutSeconds,
		FormTimeoutSeconds:       DefaultFormTimeoutSeconds,
		AMQPExchange:             DefaultAMQPExchange,
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.ExtractionTemperature == nil {
		result.ExtractionTemperature = defaults.ExtractionTemperature
	}
	if result.RewriteTemperature == nil {
		result.RewriteTemperature = defaults.RewriteTemperature
	}
	if result.TopK == 0 {
		result.TopK = defaults.TopK
	}
	if result.MinScore == 0 {
		result.MinScore = defaults.MinScore
	}
	if result.ChunkChars == 0 {
		result.ChunkChars = defaults.ChunkChars
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.IndexFile == "" {
		result.IndexFile = defaults.IndexFile
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.Profile == (types.ApplicantProfile{}) {
		result.Profile = defaults.Profile
	}
	if result.NavigationTimeoutSeconds == 0 {
		result.NavigationTimeoutSeconds = defaults.NavigationTimeoutSeconds
	}
	if result.FormTimeoutSeconds == 0 {
		result.FormTimeoutSeconds = defaults.FormTimeoutSeconds
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}
	if result.S3Bucket == "" {
		result.S3Bucket = defaults.S3Bucket
	}
	if result.S3Prefix == "" {
		result.S3Prefix = defaults.S3Prefix
	}
	if result.S3Endpoint == "" {
		result.S3Endpoint = defaults.S3Endpoint
	}
	if result.S3Region == "" {
		result.S3Region = defaults.S3Region
	}
	if result.AMQPURL == "" {
		result.AMQPURL = defaults.AMQPURL
	}
	if result.AMQPExchange == "" {
		result.AMQPExchange = defaults.AMQPExchange
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills secrets that are still empty from the environment.
// The API key variable depends on the provider.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.APIKey == "" {
		if llm.Provider(c.Provider) == llm.ProviderOpenAI {
			c.APIKey = getenv("OPENAI_API_KEY")
		} else {
			c.APIKey = getenv("GEMINI_API_KEY")
		}
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.AMQPURL == "" {
		c.AMQPURL = getenv("AMQP_URL")
	}
}

// LLMConfig returns the model configuration for the configured provider
func (c *Config) LLMConfig() *llm.Config {
	return llm.ConfigFor(c.Provider)
}

// NavigationTimeout converts the configured seconds to a duration
func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.NavigationTimeoutSeconds) * time.Second
}

// FormTimeout converts the configured seconds to a duration
func (c *Config) FormTimeout() time.Duration {
	return time.Duration(c.FormTimeoutSeconds) * time.Second
}
