package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/pipeline"
	"github.com/jonathan/resume-autoapply/internal/pipeline/steps"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	sent       []published
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.declared = append(c.declared, name+":"+kind)
	return c.declareErr
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func decode(t *testing.T, p published) Message {
	t.Helper()
	var m Message
	require.NoError(t, json.Unmarshal(p.msg.Body, &m))
	return m
}

func TestNewPublisher_DeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := NewPublisher(ch, "resume-agent", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"resume-agent:topic"}, ch.declared)
}

func TestNewPublisher_DeclareFails(t *testing.T) {
	_, err := NewPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to declare exchange x")
}

func TestRoutingKeys(t *testing.T) {
	assert.Equal(t, "pipeline.extract_keywords", PipelineKey(steps.StepExtractKeywords))
	assert.Equal(t, "pipeline.run", PipelineKey(""))
	assert.Equal(t, "session.awaiting_confirmation", SessionKey(apply.StateAwaitingConfirmation))
}

func TestPipelineProgress(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, "resume-agent", nil)
	require.NoError(t, err)

	p.PipelineProgress(pipeline.ProgressEvent{
		Step:     steps.StepRetrieveSegments,
		Category: steps.CategoryTailoring,
		Message:  "Retrieved 2 segments",
		RunID:    "run-1",
	})

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "resume-agent", sent.exchange)
	assert.Equal(t, "pipeline.retrieve_segments", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)

	m := decode(t, sent)
	assert.Equal(t, KindPipeline, m.Kind)
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, "Retrieved 2 segments", m.Message)
	assert.False(t, m.At.IsZero())
}

func TestSessionTransition(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, "resume-agent", nil)
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	s := &apply.Session{ID: uuid.New(), JobURL: "https://jobs.example.com/1"}
	p.SessionTransition(s, apply.Transition{
		From:   apply.StateFormReady,
		To:     apply.StateFailed,
		Reason: apply.ReasonFormNotFound,
		At:     at,
	})

	require.Len(t, ch.sent, 1)
	assert.Equal(t, "session.failed", ch.sent[0].key)
	assert.Equal(t, at, ch.sent[0].msg.Timestamp)

	m := decode(t, ch.sent[0])
	assert.Equal(t, KindSession, m.Kind)
	assert.Equal(t, s.ID.String(), m.SessionID)
	assert.Equal(t, "form_ready", m.From)
	assert.Equal(t, "FormNotFound", m.Reason)
	assert.Equal(t, "0 fields filled", m.Message)
	assert.True(t, at.Equal(m.At))
}

func TestPublishFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := NewPublisher(ch, "resume-agent", log.New(&logs, "", 0))
	require.NoError(t, err)

	p.PipelineProgress(pipeline.ProgressEvent{Step: steps.StepApply})

	assert.Contains(t, logs.String(), "[EVENTS] Warning")
	assert.Contains(t, logs.String(), "pipeline.apply")
	assert.Contains(t, logs.String(), "channel closed")
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch, "resume-agent", nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
