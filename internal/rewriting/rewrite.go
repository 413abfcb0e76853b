// Package rewriting rewrites retrieved resume segments into a resume tailored to a job description.
package rewriting

import (
	"context"
	"errors"
	"strings"

	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/prompts"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// StageName identifies this stage in errors and progress events.
const StageName = "resume rewrite"

// DefaultTemperature leaves room for rephrasing while staying on-content.
const DefaultTemperature float32 = 0.7

// ErrNoSegments is returned when Rewrite is called without any segments.
var ErrNoSegments = errors.New("no resume segments to rewrite")

// Rewriter produces tailored resume text through the language-model collaborator.
type Rewriter struct {
	client      llm.Client
	temperature float32
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithTemperature overrides DefaultTemperature. Zero is honored.
func WithTemperature(t float32) Option {
	return func(r *Rewriter) { r.temperature = t }
}

// NewRewriter creates a rewriter.
func NewRewriter(client llm.Client, opts ...Option) *Rewriter {
	r := &Rewriter{client: client, temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildPrompt renders the rewrite prompt. Segments appear in the given order,
// separated by blank lines.
func BuildPrompt(segments []types.ResumeSegment, jd types.JobDescription) string {
	return prompts.MustRender(prompts.ResumeRewrite, map[string]string{
		"ResumeChunks":   types.JoinSegmentText(segments),
		"JobDescription": jd.String(),
	})
}

// Rewrite returns the tailored resume text. The reply is used as-is apart from
// trimming surrounding whitespace; an empty reply is a
// *llm.GenerationError so no partial resume is ever returned.
func (r *Rewriter) Rewrite(ctx context.Context, segments []types.ResumeSegment, jd types.JobDescription) (types.TailoredResume, error) {
	if len(segments) == 0 {
		return types.TailoredResume{}, ErrNoSegments
	}

	reply, err := r.client.Complete(ctx, llm.Request{
		Prompt:      BuildPrompt(segments, jd),
		Temperature: r.temperature,
		Tier:        llm.TierAdvanced,
	})
	if err != nil {
		return types.TailoredResume{}, &llm.GenerationError{
			Stage:   StageName,
			Message: "language model call failed",
			Cause:   err,
		}
	}

	text := strings.TrimSpace(reply)
	if text == "" {
		return types.TailoredResume{}, &llm.GenerationError{
			Stage:   StageName,
			Message: "language model returned an empty resume",
		}
	}
	return types.TailoredResume{Text: text}, nil
}
