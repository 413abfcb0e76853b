package rewriting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/types"
)

type fakeClient struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake" }

func (f *fakeClient) Close() error { return nil }

var sampleSegments = []types.ResumeSegment{
	{ID: "a", Text: "Built payment APIs in Go"},
	{ID: "b", Text: "  Ran PostgreSQL clusters  "},
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleSegments, types.JobDescription("Senior Go engineer"))

	assert.Contains(t, prompt, "Built payment APIs in Go\n\nRan PostgreSQL clusters")
	assert.Contains(t, prompt, "Senior Go engineer")
	assert.NotContains(t, prompt, "{{.")
}

func TestRewrite_ReturnsTrimmedReply(t *testing.T) {
	client := &fakeClient{reply: "\n  Jane Doe\nGo engineer  \n"}

	resume, err := NewRewriter(client).Rewrite(context.Background(), sampleSegments, types.JobDescription("Go role"))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\nGo engineer", resume.Text)
	require.Len(t, client.requests, 1)
	assert.Equal(t, DefaultTemperature, client.requests[0].Temperature)
	assert.Equal(t, llm.TierAdvanced, client.requests[0].Tier)
}

func TestRewrite_ReturnsReplyVerbatim(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected string
	}{
		{"surrounding whitespace trimmed", "\n  Jane Doe\n\n- Go services  \n", "Jane Doe\n\n- Go services"},
		{"fenced reply kept whole", "```text\nJane Doe\n```\nNotes after the fence", "```text\nJane Doe\n```\nNotes after the fence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{reply: tt.reply}

			resume, err := NewRewriter(client).Rewrite(context.Background(), sampleSegments, types.JobDescription("Go role"))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resume.Text)
		})
	}
}

func TestRewrite_IdenticalInputsGiveIdenticalRequests(t *testing.T) {
	client := &fakeClient{reply: "resume"}
	rewriter := NewRewriter(client, WithTemperature(0))
	jd := types.JobDescription("Platform engineer, Kubernetes")

	_, err := rewriter.Rewrite(context.Background(), sampleSegments, jd)
	require.NoError(t, err)
	_, err = rewriter.Rewrite(context.Background(), sampleSegments, jd)
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	assert.Equal(t, client.requests[0], client.requests[1])
	assert.Equal(t, float32(0), client.requests[0].Temperature)
}

func TestRewrite_Errors(t *testing.T) {
	ctx := context.Background()
	jd := types.JobDescription("Go role")

	_, err := NewRewriter(&fakeClient{reply: "x"}).Rewrite(ctx, nil, jd)
	assert.ErrorIs(t, err, ErrNoSegments)

	cause := errors.New("rate limited")
	_, err = NewRewriter(&fakeClient{err: cause}).Rewrite(ctx, sampleSegments, jd)
	var genErr *llm.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageName, genErr.Stage)
	assert.ErrorIs(t, err, cause)

	resume, err := NewRewriter(&fakeClient{reply: "   \n  "}).Rewrite(ctx, sampleSegments, jd)
	require.ErrorAs(t, err, &genErr)
	assert.Empty(t, resume.Text)
}
