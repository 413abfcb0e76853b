// Package keywords turns job-description text into a normalized set of skill, tool and role terms.
package keywords

import (
	"context"
	"errors"

	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/prompts"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// StageName identifies this stage in errors and progress events.
const StageName = "keyword extraction"

// DefaultTemperature keeps extraction close to deterministic.
const DefaultTemperature float32 = 0.3

// ErrEmptyJobDescription is returned when Extract is called without usable text.
var ErrEmptyJobDescription = errors.New("job description is empty")

// Extractor extracts keywords through the language-model collaborator.
type Extractor struct {
	client      llm.Client
	temperature float32
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float32) Option {
	return func(e *Extractor) { e.temperature = t }
}

// NewExtractor creates an extractor.
func NewExtractor(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{client: client, temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildPrompt renders the extraction prompt for a job description.
func BuildPrompt(jd types.JobDescription) string {
	return prompts.MustRender(prompts.KeywordExtraction, map[string]string{
		"JobDescription": jd.String(),
	})
}

// Extract returns the keyword set for jd. Collaborator failures and malformed replies
// are returned as *llm.GenerationError; there is no internal retry.
func (e *Extractor) Extract(ctx context.Context, jd types.JobDescription) (types.KeywordSet, error) {
	if jd.IsBlank() {
		return nil, ErrEmptyJobDescription
	}

	reply, err := e.client.Complete(ctx, llm.Request{
		Prompt:      BuildPrompt(jd),
		Temperature: e.temperature,
		Tier:        llm.TierLite,
	})
	if err != nil {
		return nil, &llm.GenerationError{
			Stage:   StageName,
			Message: "language model call failed",
			Cause:   err,
		}
	}

	return ParseKeywords(reply)
}
