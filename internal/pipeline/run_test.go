package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/db"
	"github.com/jonathan/resume-autoapply/internal/formfill"
	"github.com/jonathan/resume-autoapply/internal/keywords"
	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/pipeline/steps"
	"github.com/jonathan/resume-autoapply/internal/rendering"
	"github.com/jonathan/resume-autoapply/internal/retrieval"
	"github.com/jonathan/resume-autoapply/internal/rewriting"
	"github.com/jonathan/resume-autoapply/internal/types"
)

const backendJD = types.JobDescription("Seeking a backend engineer skilled in distributed systems and Go")

type stubExtractor struct {
	keywords types.KeywordSet
	err      error
}

func (s *stubExtractor) Extract(context.Context, types.JobDescription) (types.KeywordSet, error) {
	return s.keywords, s.err
}

type stubRetriever struct {
	result types.RetrievalResult
	err    error
	topK   int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ types.KeywordSet, topK int) (types.RetrievalResult, error) {
	s.topK = topK
	return s.result, s.err
}

type stubRewriter struct {
	calls int
	text  string
	err   error
}

func (s *stubRewriter) Rewrite(context.Context, []types.ResumeSegment, types.JobDescription) (types.TailoredResume, error) {
	s.calls++
	return types.TailoredResume{Text: s.text}, s.err
}

type stubPersister struct {
	calls int
	path  string
	err   error
}

func (s *stubPersister) Persist(_ context.Context, _ types.TailoredResume, path string) (types.ResumeArtifact, error) {
	s.calls++
	s.path = path
	return types.ResumeArtifact{Path: path}, s.err
}

type stubRecorder struct {
	id       uuid.UUID
	startErr error
	status   string
	keywords []string
	artifact string
}

func (r *stubRecorder) StartRun(context.Context, string) (uuid.UUID, error) {
	return r.id, r.startErr
}

func (r *stubRecorder) FinishRun(_ context.Context, _ uuid.UUID, status string, kws []string, artifactPath string) error {
	r.status = status
	r.keywords = kws
	r.artifact = artifactPath
	return nil
}

func oneSegment() types.RetrievalResult {
	return types.RetrievalResult{{
		Segment: types.ResumeSegment{ID: "s1", Source: "resume.txt", Text: "Built Go services"},
		Score:   0.9,
	}}
}

func newTestOrchestrator(ex KeywordExtractor, rt SegmentRetriever, rw ResumeRewriter, p rendering.Persister, opts ...Option) *Orchestrator {
	opts = append([]Option{WithOutput(io.Discard), WithLogger(log.New(io.Discard, "", 0))}, opts...)
	return NewOrchestrator(ex, rt, rw, p, opts...)
}

func TestRun_EmptyInputHaltsBeforeAnyStage(t *testing.T) {
	extractor := &stubExtractor{}
	rewriter := &stubRewriter{}
	o := newTestOrchestrator(extractor, &stubRetriever{}, rewriter, &stubPersister{})

	result, err := o.Run(context.Background(), RunOptions{JobDescription: "  \n"})
	require.NoError(t, err)
	assert.Equal(t, StatusEmptyInput, result.Status)
	assert.True(t, result.Status.Halted())
	assert.Nil(t, result.Keywords)
	assert.Zero(t, rewriter.calls)
}

func TestRun_ApplyWithoutURLIsEmptyInput(t *testing.T) {
	o := newTestOrchestrator(&stubExtractor{}, &stubRetriever{}, &stubRewriter{}, &stubPersister{})

	result, err := o.Run(context.Background(), RunOptions{JobDescription: backendJD, Apply: true})
	require.NoError(t, err)
	assert.Equal(t, StatusEmptyInput, result.Status)
}

func TestRun_ApplyWithoutApplier(t *testing.T) {
	o := newTestOrchestrator(&stubExtractor{}, &stubRetriever{}, &stubRewriter{}, &stubPersister{})

	_, err := o.Run(context.Background(), RunOptions{
		JobDescription: backendJD,
		Apply:          true,
		JobURL:         "https://jobs.example.com/1",
	})
	assert.ErrorIs(t, err, ErrApplierMissing)
}

func TestRun_NoKeywordsHalts(t *testing.T) {
	retriever := &stubRetriever{result: oneSegment()}
	rewriter := &stubRewriter{text: "resume"}
	o := newTestOrchestrator(&stubExtractor{keywords: types.KeywordSet{}}, retriever, rewriter, &stubPersister{})

	result, err := o.Run(context.Background(), RunOptions{JobDescription: backendJD})
	require.NoError(t, err)
	assert.Equal(t, StatusNoKeywords, result.Status)
	assert.Zero(t, retriever.topK, "retrieval must not run")
	assert.Zero(t, rewriter.calls)
}

func TestRun_EmptyRetrievalNeverRewrites(t *testing.T) {
	rewriter := &stubRewriter{text: "resume"}
	persister := &stubPersister{}
	recorder := &stubRecorder{id: uuid.New()}
	o := newTestOrchestrator(
		&stubExtractor{keywords: types.KeywordSet{"Go"}},
		&stubRetriever{result: types.RetrievalResult{}},
		rewriter, persister,
		WithRecorder(recorder),
	)

	result, err := o.Run(context.Background(), RunOptions{JobDescription: backendJD})
	require.NoError(t, err)
	assert.Equal(t, StatusEmptyRetrieval, result.Status)
	assert.Zero(t, rewriter.calls)
	assert.Zero(t, persister.calls)
	assert.Nil(t, result.Resume)
	assert.Equal(t, db.RunStatusHalted, recorder.status)
}

func TestRun_StageErrorsIdentifyTheStage(t *testing.T) {
	genErr := &llm.GenerationError{Stage: "keyword extraction", Message: "unreachable"}

	tests := []struct {
		name      string
		extractor *stubExtractor
		retriever *stubRetriever
		rewriter  *stubRewriter
		persister *stubPersister
		wantStage string
	}{
		{
			name:      "extraction",
			extractor: &stubExtractor{err: genErr},
			retriever: &stubRetriever{},
			rewriter:  &stubRewriter{},
			persister: &stubPersister{},
			wantStage: steps.StepExtractKeywords,
		},
		{
			name:      "retrieval",
			extractor: &stubExtractor{keywords: types.KeywordSet{"Go"}},
			retriever: &stubRetriever{err: &retrieval.IndexError{Message: "search failed"}},
			rewriter:  &stubRewriter{},
			persister: &stubPersister{},
			wantStage: steps.StepRetrieveSegments,
		},
		{
			name:      "rewrite",
			extractor: &stubExtractor{keywords: types.KeywordSet{"Go"}},
			retriever: &stubRetriever{result: oneSegment()},
			rewriter:  &stubRewriter{err: genErr},
			persister: &stubPersister{},
			wantStage: steps.StepRewriteResume,
		},
		{
			name:      "persist",
			extractor: &stubExtractor{keywords: types.KeywordSet{"Go"}},
			retriever: &stubRetriever{result: oneSegment()},
			rewriter:  &stubRewriter{text: "resume"},
			persister: &stubPersister{err: errors.New("disk full")},
			wantStage: steps.StepPersistArtifact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &stubRecorder{id: uuid.New()}
			o := newTestOrchestrator(tt.extractor, tt.retriever, tt.rewriter, tt.persister, WithRecorder(recorder))

			result, err := o.Run(context.Background(), RunOptions{JobDescription: backendJD})
			require.Error(t, err)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.wantStage, stageErr.Stage)
			assert.Empty(t, result.Status)
			assert.Equal(t, db.RunStatusFailed, recorder.status)
		})
	}
}

func TestRun_GenerationErrorIsDistinctFromHalt(t *testing.T) {
	genErr := &llm.GenerationError{Stage: "resume rewrite", Message: "empty reply"}
	o := newTestOrchestrator(
		&stubExtractor{keywords: types.KeywordSet{"Go"}},
		&stubRetriever{result: oneSegment()},
		&stubRewriter{err: genErr},
		&stubPersister{},
	)

	result, err := o.Run(context.Background(), RunOptions{JobDescription: backendJD})
	var target *llm.GenerationError
	require.ErrorAs(t, err, &target)
	assert.False(t, result.Status.Halted())
	assert.Nil(t, result.Resume)
}

func TestRun_CompletesAndReportsProgress(t *testing.T) {
	persister := &stubPersister{}
	retriever := &stubRetriever{result: oneSegment()}
	recorder := &stubRecorder{id: uuid.New()}
	var out bytes.Buffer
	var events []ProgressEvent

	o := NewOrchestrator(
		&stubExtractor{keywords: types.KeywordSet{"Go", "Kafka"}},
		retriever,
		&stubRewriter{text: "Built Go services"},
		persister,
		WithOutput(&out),
		WithRecorder(recorder),
		WithLogger(log.New(io.Discard, "", 0)),
	)

	result, err := o.Run(context.Background(), RunOptions{
		JobDescription: backendJD,
		OnProgress:     func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, recorder.id, result.RunID)
	assert.Equal(t, retrieval.DefaultTopK, retriever.topK)
	assert.Equal(t, rendering.DefaultArtifactPath, persister.path)
	assert.Equal(t, []string{"Go"}, result.Coverage.Matched)
	assert.Equal(t, []string{"Kafka"}, result.Coverage.Missing)

	assert.Contains(t, out.String(), "Step 1/4: Extracting job keywords...")
	assert.Contains(t, out.String(), "Step 4/4: Saving tailored resume...")

	require.Len(t, events, 4)
	assert.Equal(t, steps.StepExtractKeywords, events[0].Step)
	assert.Equal(t, steps.StepPersistArtifact, events[3].Step)
	assert.Equal(t, steps.CategoryPersistence, events[3].Category)
	assert.Equal(t, recorder.id.String(), events[0].RunID)

	assert.Equal(t, db.RunStatusCompleted, recorder.status)
	assert.Equal(t, []string{"Go", "Kafka"}, recorder.keywords)
	assert.Equal(t, rendering.DefaultArtifactPath, recorder.artifact)
}

func TestRun_RecorderFailureDoesNotStopRun(t *testing.T) {
	recorder := &stubRecorder{startErr: errors.New("db down")}
	o := newTestOrchestrator(
		&stubExtractor{keywords: types.KeywordSet{"Go"}},
		&stubRetriever{result: oneSegment()},
		&stubRewriter{text: "resume"},
		&stubPersister{},
		WithRecorder(recorder),
	)

	result, err := o.Run(context.Background(), RunOptions{JobDescription: backendJD})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, uuid.Nil, result.RunID)
	assert.Empty(t, recorder.status, "no run record to finish")
}

// End-to-end with the real stages and in-memory collaborators.

type tieredClient struct {
	replies  map[llm.ModelTier]string
	requests []llm.Request
}

func (c *tieredClient) Complete(_ context.Context, req llm.Request) (string, error) {
	c.requests = append(c.requests, req)
	return c.replies[req.Tier], nil
}

func (c *tieredClient) GetModel(llm.ModelTier) string { return "fake" }

func (c *tieredClient) Close() error { return nil }

var embeddingVocabulary = []string{"distributed systems", "go", "backend", "react"}

// vocabEmbedder embeds text as term presence over a fixed vocabulary
type vocabEmbedder struct{}

func (vocabEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(embeddingVocabulary))
	for i, term := range embeddingVocabulary {
		if strings.Contains(lower, term) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func indexed(t *testing.T, id, text string) types.IndexedSegment {
	t.Helper()
	vec, err := vocabEmbedder{}.Embed(context.Background(), text)
	require.NoError(t, err)
	return types.IndexedSegment{
		ResumeSegment: types.ResumeSegment{ID: id, Source: "resume.txt", Text: text},
		Embedding:     vec,
	}
}

type formBrowser struct {
	*formfill.HTMLForm
	clicks     int
	closeCalls int
}

func (b *formBrowser) Navigate(context.Context, string) error { return nil }

func (b *formBrowser) WaitFor(context.Context, string) error { return nil }

func (b *formBrowser) Click(context.Context, formfill.Control) error {
	b.clicks++
	return nil
}

func (b *formBrowser) Close() error {
	b.closeCalls++
	return nil
}

// gateConfirmer records what the human would see, then declines
type gateConfirmer struct {
	form  *formfill.HTMLForm
	state apply.State
	email string
	files []string
}

func (c *gateConfirmer) Confirm(_ context.Context, s *apply.Session) (apply.Decision, error) {
	c.state = s.State
	c.email = c.form.Value("0")
	c.files = c.form.Files("1")
	return apply.DecisionCancel, nil
}

func TestRun_EndToEndBackendEngineer(t *testing.T) {
	ctx := context.Background()
	quiet := log.New(io.Discard, "", 0)

	client := &tieredClient{replies: map[llm.ModelTier]string{
		llm.TierLite:     "backend engineer, distributed systems, Go",
		llm.TierAdvanced: "\n# Experience\n- Designed distributed systems in Go\n- Built payment APIs in Go\n",
	}}
	index := retrieval.NewMemoryIndex([]types.IndexedSegment{
		indexed(t, "s1", "Designed distributed systems in Go"),
		indexed(t, "s2", "Built payment APIs in Go"),
		indexed(t, "s3", "Designed React frontend dashboards"),
	})

	form, err := formfill.ParseHTMLFormString(`<form>
		<input type="email" name="contact">
		<input type="file" name="cv">
		<button type="submit">Submit</button>
	</form>`)
	require.NoError(t, err)
	browser := &formBrowser{HTMLForm: form}
	confirmer := &gateConfirmer{form: form}

	profile := types.ApplicantProfile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	engine := apply.NewEngine(
		apply.LauncherFunc(func(context.Context) (apply.Browser, error) { return browser, nil }),
		formfill.NewMapper(formfill.DefaultRules(profile), quiet),
		confirmer,
		apply.WithLogger(quiet),
	)

	artifactPath := filepath.Join(t.TempDir(), "out", "tailored_resume.txt")
	o := newTestOrchestrator(
		keywords.NewExtractor(client),
		retrieval.NewRetriever(vocabEmbedder{}, index, 0),
		rewriting.NewRewriter(client),
		rendering.ForPath(artifactPath),
		WithApplier(engine),
	)

	result, err := o.Run(ctx, RunOptions{
		JobDescription: backendJD,
		ArtifactPath:   artifactPath,
		TopK:           2,
		Apply:          true,
		JobURL:         "https://jobs.example.com/backend",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)

	assert.True(t, result.Keywords.Contains("distributed systems"))
	assert.True(t, result.Keywords.Contains("Go"))

	require.Len(t, result.Segments, 2)
	assert.Equal(t, "s1", result.Segments[0].Segment.ID)
	assert.Equal(t, "s2", result.Segments[1].Segment.ID)
	assert.GreaterOrEqual(t, result.Segments[0].Score, result.Segments[1].Score)
	assert.InDelta(t, 2/math.Sqrt(6), result.Segments[0].Score, 1e-6)

	require.NotNil(t, result.Resume)
	assert.NotEmpty(t, result.Resume.Text)
	require.NotNil(t, result.Artifact)
	assert.Equal(t, artifactPath, result.Artifact.Path)
	data, err := os.ReadFile(artifactPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Designed distributed systems in Go")

	assert.Equal(t, apply.StateAwaitingConfirmation, confirmer.state)
	assert.Equal(t, "ada@example.com", confirmer.email)
	require.Len(t, confirmer.files, 1)
	assert.Equal(t, artifactPath, confirmer.files[0])

	require.NotNil(t, result.Session)
	assert.Equal(t, apply.StateCancelled, result.Session.State)
	assert.Zero(t, browser.clicks)
	assert.Equal(t, 1, browser.closeCalls)
}
