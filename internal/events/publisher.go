// Package events publishes pipeline progress and application session transitions to
// an AMQP topic exchange.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/pipeline"
)

// Message kinds
const (
	KindPipeline = "pipeline"
	KindSession  = "session"
)

// Channel is the subset of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Message is the JSON body of every published event.
type Message struct {
	Kind      string    `json:"kind"`
	RunID     string    `json:"run_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Step      string    `json:"step,omitempty"`
	Category  string    `json:"category,omitempty"`
	State     string    `json:"state,omitempty"`
	From      string    `json:"from,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	JobURL    string    `json:"job_url,omitempty"`
	Message   string    `json:"message,omitempty"`
	Content   any       `json:"content,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher sends events to a topic exchange. Publish failures are logged by the
// callback adapters and never interrupt the caller.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     *amqp.Connection
	exchange string
	logger   *log.Logger
	now      func() time.Time
}

// Dial connects to the broker at url and declares exchange
func Dial(url, exchange string, logger *log.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	p, err := NewPublisher(ch, exchange, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher declares exchange on ch and returns a publisher using it
func NewPublisher(ch Channel, exchange string, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange, logger: logger, now: time.Now}, nil
}

// PipelineKey is the routing key for a pipeline step event
func PipelineKey(step string) string {
	if step == "" {
		step = "run"
	}
	return "pipeline." + step
}

// SessionKey is the routing key for a session state event
func SessionKey(state apply.State) string {
	return "session." + string(state)
}

// Publish sends msg with routing key
func (p *Publisher) Publish(key string, msg Message) error {
	if msg.At.IsZero() {
		msg.At = p.now()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", msg.Kind, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		p.exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}
	return nil
}

// PipelineProgress publishes a pipeline progress event. It matches pipeline.ProgressCallback.
func (p *Publisher) PipelineProgress(event pipeline.ProgressEvent) {
	msg := Message{
		Kind:     KindPipeline,
		RunID:    event.RunID,
		Step:     event.Step,
		Category: event.Category,
		Message:  event.Message,
		Content:  event.Content,
	}
	if err := p.Publish(PipelineKey(event.Step), msg); err != nil {
		p.logger.Printf("[EVENTS] Warning: %v", err)
	}
}

// SessionTransition publishes a session transition. It matches apply.TransitionFunc.
func (p *Publisher) SessionTransition(s *apply.Session, t apply.Transition) {
	msg := Message{
		Kind:      KindSession,
		SessionID: s.ID.String(),
		State:     string(t.To),
		From:      string(t.From),
		Reason:    string(t.Reason),
		JobURL:    s.JobURL,
		At:        t.At,
	}
	if t.To.Terminal() {
		msg.Message = fmt.Sprintf("%d fields filled", s.Fill.FilledCount())
	}
	if err := p.Publish(SessionKey(t.To), msg); err != nil {
		p.logger.Printf("[EVENTS] Warning: %v", err)
	}
}

// Close closes the channel and, for dialed publishers, the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
