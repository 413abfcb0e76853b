// Package pipeline orchestrates resume tailoring: keyword extraction, segment retrieval,
// rewriting and persistence, optionally followed by an application session.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/db"
	"github.com/jonathan/resume-autoapply/internal/observability"
	"github.com/jonathan/resume-autoapply/internal/pipeline/steps"
	"github.com/jonathan/resume-autoapply/internal/rendering"
	"github.com/jonathan/resume-autoapply/internal/retrieval"
	"github.com/jonathan/resume-autoapply/internal/rewriting"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// Status is how a run ended when it did not fail
type Status string

const (
	// StatusCompleted means every planned step ran
	StatusCompleted Status = "completed"
	// StatusEmptyInput means the job description (or the URL for an apply run) was blank
	StatusEmptyInput Status = "empty_input"
	// StatusNoKeywords means extraction produced no terms
	StatusNoKeywords Status = "no_keywords"
	// StatusEmptyRetrieval means no indexed segment was relevant
	StatusEmptyRetrieval Status = "empty_retrieval"
)

// Halted reports whether the run stopped early without an error
func (s Status) Halted() bool {
	return s == StatusEmptyInput || s == StatusNoKeywords || s == StatusEmptyRetrieval
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// KeywordExtractor turns a job description into a keyword set
type KeywordExtractor interface {
	Extract(ctx context.Context, jd types.JobDescription) (types.KeywordSet, error)
}

// SegmentRetriever finds indexed resume segments for a keyword set
type SegmentRetriever interface {
	Retrieve(ctx context.Context, keywords types.KeywordSet, topK int) (types.RetrievalResult, error)
}

// ResumeRewriter rewrites retrieved segments for a job description
type ResumeRewriter interface {
	Rewrite(ctx context.Context, segments []types.ResumeSegment, jd types.JobDescription) (types.TailoredResume, error)
}

// Applier runs an application session for a persisted artifact
type Applier interface {
	Run(ctx context.Context, jobURL, artifactPath string) (*apply.Session, error)
}

// RunRecorder stores run records
type RunRecorder interface {
	StartRun(ctx context.Context, jobURL string) (uuid.UUID, error)
	FinishRun(ctx context.Context, runID uuid.UUID, status string, keywords []string, artifactPath string) error
}

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	JobDescription types.JobDescription
	ArtifactPath   string
	TopK           int
	// Apply runs the application engine against JobURL after the artifact is saved.
	Apply      bool
	JobURL     string
	Verbose    bool
	OnProgress ProgressCallback
}

// Result is everything a run produced. Fields for steps that did not run are zero.
type Result struct {
	RunID    uuid.UUID
	Status   Status
	Keywords types.KeywordSet
	Segments types.RetrievalResult
	Resume   *types.TailoredResume
	Artifact *types.ResumeArtifact
	Coverage rewriting.Coverage
	Session  *apply.Session
}

// Orchestrator runs the tailoring steps in order with early exit on halts.
type Orchestrator struct {
	extractor KeywordExtractor
	retriever SegmentRetriever
	rewriter  ResumeRewriter
	persister rendering.Persister
	applier   Applier
	recorder  RunRecorder
	printer   *observability.Printer
	out       io.Writer
	logger    *log.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithApplier sets the engine used by apply runs
func WithApplier(a Applier) Option {
	return func(o *Orchestrator) { o.applier = a }
}

// WithRecorder stores a record of every run
func WithRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithOutput sets where step banners and verbose summaries are written
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w != nil {
			o.out = w
		}
	}
}

// WithLogger sets the logger for warnings
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates an orchestrator over the four tailoring stages.
func NewOrchestrator(extractor KeywordExtractor, retriever SegmentRetriever, rewriter ResumeRewriter, persister rendering.Persister, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor: extractor,
		retriever: retriever,
		rewriter:  rewriter,
		persister: persister,
		out:       os.Stdout,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.printer = observability.NewPrinter(o.out)
	return o
}

// run carries per-call state through the steps
type run struct {
	opts      RunOptions
	result    *Result
	plan      []steps.StepDefinition
	completed map[string]bool
}

// Run executes one pass. Halts return a Result with a halting Status and a nil error;
// stage failures return a *StageError and the partial Result.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (result *Result, err error) {
	result = &Result{}

	if opts.JobDescription.IsBlank() || (opts.Apply && strings.TrimSpace(opts.JobURL) == "") {
		result.Status = StatusEmptyInput
		return result, nil
	}
	if opts.Apply && o.applier == nil {
		return result, ErrApplierMissing
	}
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.ArtifactPath == "" {
		opts.ArtifactPath = rendering.DefaultArtifactPath
	}

	o.startRecord(ctx, opts, result)
	defer func() { o.finishRecord(ctx, result, err) }()

	r := &run{
		opts:      opts,
		result:    result,
		plan:      steps.Plan(opts.Apply),
		completed: make(map[string]bool),
	}

	if err := o.extract(ctx, r); err != nil || result.Status != "" {
		return result, err
	}
	if err := o.retrieve(ctx, r); err != nil || result.Status != "" {
		return result, err
	}
	if err := o.rewrite(ctx, r); err != nil {
		return result, err
	}
	if err := o.persist(ctx, r); err != nil {
		return result, err
	}
	if opts.Apply {
		if err := o.apply(ctx, r); err != nil {
			return result, err
		}
	}

	result.Status = StatusCompleted
	return result, nil
}

func (o *Orchestrator) extract(ctx context.Context, r *run) error {
	def, err := o.begin(r, steps.StepExtractKeywords)
	if err != nil {
		return err
	}

	keywords, err := o.extractor.Extract(ctx, r.opts.JobDescription)
	if err != nil {
		return &StageError{Stage: def.Name, Cause: err}
	}
	r.result.Keywords = keywords

	if keywords.IsEmpty() {
		r.result.Status = StatusNoKeywords
		o.emit(r.opts, r.result, def.Name, def.Category, "No keywords extracted, stopping", nil)
		return nil
	}
	if r.opts.Verbose {
		o.printer.PrintKeywords(keywords)
	}
	o.complete(r, def, fmt.Sprintf("Extracted %d keywords", len(keywords)), keywords)
	return nil
}

func (o *Orchestrator) retrieve(ctx context.Context, r *run) error {
	def, err := o.begin(r, steps.StepRetrieveSegments)
	if err != nil {
		return err
	}

	segments, err := o.retriever.Retrieve(ctx, r.result.Keywords, r.opts.TopK)
	if err != nil {
		return &StageError{Stage: def.Name, Cause: err}
	}
	r.result.Segments = segments

	if segments.IsEmpty() {
		r.result.Status = StatusEmptyRetrieval
		o.emit(r.opts, r.result, def.Name, def.Category, "No relevant resume segments found, stopping", nil)
		return nil
	}
	if r.opts.Verbose {
		o.printer.PrintRetrievedSegments(segments)
	}
	o.complete(r, def, fmt.Sprintf("Retrieved %d segments", len(segments)), nil)
	return nil
}

func (o *Orchestrator) rewrite(ctx context.Context, r *run) error {
	def, err := o.begin(r, steps.StepRewriteResume)
	if err != nil {
		return err
	}

	resume, err := o.rewriter.Rewrite(ctx, r.result.Segments.Segments(), r.opts.JobDescription)
	if err != nil {
		return &StageError{Stage: def.Name, Cause: err}
	}
	r.result.Resume = &resume
	r.result.Coverage = rewriting.KeywordCoverage(resume, r.result.Keywords)

	if r.opts.Verbose {
		o.printer.PrintCoverage(r.result.Coverage)
	}
	o.complete(r, def, fmt.Sprintf("Rewrote resume (%d/%d keywords covered)",
		len(r.result.Coverage.Matched), len(r.result.Coverage.Matched)+len(r.result.Coverage.Missing)), r.result.Coverage)
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, r *run) error {
	def, err := o.begin(r, steps.StepPersistArtifact)
	if err != nil {
		return err
	}

	artifact, err := o.persister.Persist(ctx, *r.result.Resume, r.opts.ArtifactPath)
	if err != nil {
		return &StageError{Stage: def.Name, Cause: err}
	}
	r.result.Artifact = &artifact

	msg := fmt.Sprintf("Saved tailored resume to %s", artifact.Path)
	if artifact.MirrorURL != "" {
		msg += fmt.Sprintf(" (mirrored to %s)", artifact.MirrorURL)
	}
	o.complete(r, def, msg, artifact)
	return nil
}

func (o *Orchestrator) apply(ctx context.Context, r *run) error {
	def, err := o.begin(r, steps.StepApply)
	if err != nil {
		return err
	}

	session, err := o.applier.Run(ctx, r.opts.JobURL, r.result.Artifact.Path)
	if err != nil {
		return &StageError{Stage: def.Name, Cause: err}
	}
	r.result.Session = session

	if r.opts.Verbose {
		o.printer.PrintSession(session)
	}
	msg := fmt.Sprintf("Application session ended: %s", session.State)
	if session.Reason != apply.ReasonNone {
		msg += fmt.Sprintf(" (%s)", session.Reason)
	}
	o.complete(r, def, msg, nil)
	return nil
}

// begin prints the step banner after checking the step's dependencies ran
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (o *Orchestrator) begin(r *run, name string) (steps.StepDefinition, error) {
	if err := steps.ValidateDependencies(r.completed, name); err != nil {
		return steps.StepDefinition{}, err
	}
	def := steps.StepRegistry[name]
	index := 0
	for i, planned := range r.plan {
		if planned.Name == name {
			index = i + 1
			break
		}
	}
	fmt.Fprintf(o.out, "Step %d/%d: %s...\n", index, len(r.plan), def.Title)
	return def, nil
}

func (o *Orchestrator) complete(r *run, def steps.StepDefinition, message string, content any) {
	r.completed[def.Name] = true
	o.emit(r.opts, r.result, def.Name, def.Category, message, content)
}

func (o *Orchestrator) emit(opts RunOptions, result *Result, step, category, message string, content any) {
	if opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		Content:  content,
	}
	if result.RunID != uuid.Nil {
		event.RunID = result.RunID.String()
	}
	opts.OnProgress(event)
}

func (o *Orchestrator) startRecord(ctx context.Context, opts RunOptions, result *Result) {
	if o.recorder == nil {
		return
	}
	id, err := o.recorder.StartRun(ctx, opts.JobURL)
	if err != nil {
		o.logger.Printf("[PIPELINE] Warning: failed to create run record: %v", err)
		return
	}
	result.RunID = id
}

func (o *Orchestrator) finishRecord(ctx context.Context, result *Result, runErr error) {
	if o.recorder == nil || result.RunID == uuid.Nil {
		return
	}

	status := db.RunStatusCompleted
	switch {
	case runErr != nil:
		status = db.RunStatusFailed
	case result.Status.Halted():
		status = db.RunStatusHalted
	}
	artifactPath := ""
	if result.Artifact != nil {
		artifactPath = result.Artifact.Path
	}

	if err := o.recorder.FinishRun(context.WithoutCancel(ctx), result.RunID, status, result.Keywords, artifactPath); err != nil {
		o.logger.Printf("[PIPELINE] Warning: failed to complete run record %s: %v", result.RunID, err)
	}
}
