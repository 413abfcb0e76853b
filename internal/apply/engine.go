package apply

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autoapply/internal/formfill"
)

const (
	// DefaultNavigationTimeout bounds loading the job page.
	DefaultNavigationTimeout = 30 * time.Second
	// DefaultFormTimeout bounds waiting for a form to appear.
	DefaultFormTimeout = 10 * time.Second
	// DefaultActionTimeout bounds each fill, attach and click step.
	DefaultActionTimeout = 30 * time.Second
	// DefaultFormSelector is waited on when no platform-specific selector applies.
	DefaultFormSelector = "form"
)

// ErrEmptyJobURL is returned by Run when the job URL is blank.
var ErrEmptyJobURL = errors.New("job URL is empty")

// ErrTimeout may be wrapped by Browser implementations to signal a timeout that
// is not a context deadline.
var ErrTimeout = errors.New("browser operation timed out")

// Browser is a controllable browsing context. It is owned by a single session and
// closed exactly once when the session ends.
type Browser interface {
	formfill.Form
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string) error
	Click(ctx context.Context, control formfill.Control) error
	Close() error
}

// Launcher starts a fresh browsing context.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Browser, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context) (Browser, error) {
	return f(ctx)
}

// Engine runs application sessions.
type Engine struct {
	launcher      Launcher
	mapper        *formfill.Mapper
	confirmer     Confirmer
	navTimeout    time.Duration
	formTimeout   time.Duration
	actionTimeout time.Duration
	formSelector  func(jobURL string) string
	observers     []TransitionFunc
	logger        *log.Logger
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeouts overrides the navigation and form-wait bounds. Zero keeps the default.
func WithTimeouts(navigation, form time.Duration) Option {
	return func(e *Engine) {
		if navigation > 0 {
			e.navTimeout = navigation
		}
		if form > 0 {
			e.formTimeout = form
		}
	}
}

// WithActionTimeout overrides DefaultActionTimeout.
func WithActionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.actionTimeout = d
		}
	}
}

// WithFormSelector chooses the selector that marks a page as form-ready.
func WithFormSelector(fn func(jobURL string) string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.formSelector = fn
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(fn TransitionFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine.
func NewEngine(launcher Launcher, mapper *formfill.Mapper, confirmer Confirmer, opts ...Option) *Engine {
	e := &Engine{
		launcher:      launcher,
		mapper:        mapper,
		confirmer:     confirmer,
		navTimeout:    DefaultNavigationTimeout,
		formTimeout:   DefaultFormTimeout,
		actionTimeout: DefaultActionTimeout,
		formSelector:  func(string) string { return DefaultFormSelector },
		logger:        log.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one application attempt. Failures end the session in StateFailed
// and are reported through Session.Reason; the returned error is non-nil only for
// a blank job URL, in which case nothing is launched.
func (e *Engine) Run(ctx context.Context, jobURL, artifactPath string) (*Session, error) {
	jobURL = strings.TrimSpace(jobURL)
	if jobURL == "" {
		return nil, ErrEmptyJobURL
	}

	s := &Session{
		ID:           uuid.New(),
		JobURL:       jobURL,
		ArtifactPath: artifactPath,
		StartedAt:    e.now(),
	}
	e.transition(s, StateNavigating, ReasonNone)

	if err := checkArtifact(artifactPath); err != nil {
		e.fail(s, ReasonArtifactMissing, err)
		return s, nil
	}

	browser, err := e.launcher.Launch(ctx)
	if err != nil {
		e.fail(s, ReasonBrowserLaunchFailed, err)
		return s, nil
	}
	defer func() {
		if err := browser.Close(); err != nil {
			e.logger.Printf("[APPLY] Warning: failed to close browser for session %s: %v", s.ID, err)
		}
	}()

	e.drive(ctx, s, browser)
	return s, nil
}

// drive runs the session from navigation to a terminal state
func (e *Engine) drive(ctx context.Context, s *Session, browser Browser) {
	e.logger.Printf("[APPLY] Navigating to %s", s.JobURL)
	navCtx, cancel := context.WithTimeout(ctx, e.navTimeout)
	err := browser.Navigate(navCtx, s.JobURL)
	timedOut := isTimeout(navCtx, err)
	cancel()
	if err != nil {
		if timedOut {
			e.fail(s, ReasonNavigationTimeout, err)
		} else {
			e.fail(s, ReasonNavigationFailed, err)
		}
		return
	}

	e.transition(s, StateFormReady, ReasonNone)
	selector := e.formSelector(s.JobURL)
	formCtx, cancel := context.WithTimeout(ctx, e.formTimeout)
	err = browser.WaitFor(formCtx, selector)
	cancel()
	if err != nil {
		e.fail(s, ReasonFormNotFound, fmt.Errorf("waiting for %q: %w", selector, err))
		return
	}

	e.transition(s, StateFilling, ReasonNone)
	if err := e.fill(ctx, s, browser); err != nil {
		e.fail(s, ReasonFillFailed, err)
		return
	}

	e.transition(s, StateAwaitingConfirmation, ReasonNone)
	decision, err := e.confirmer.Confirm(ctx, s)
	if err != nil {
		e.logger.Printf("[APPLY] Confirmation failed, treating as cancel: %v", err)
		decision = DecisionCancel
	}
	if decision != DecisionSubmit {
		e.logger.Printf("[APPLY] Application cancelled, nothing submitted")
		e.transition(s, StateCancelled, ReasonNone)
		return
	}

	e.submit(ctx, s, browser)
}

func (e *Engine) fill(ctx context.Context, s *Session, browser Browser) error {
	fillCtx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	report, err := e.mapper.Fill(fillCtx, browser)
	if err != nil {
		return err
	}
	s.Fill = report

	att, err := e.mapper.AttachResume(fillCtx, browser, s.ArtifactPath)
	if err != nil {
		return err
	}
	s.Attachment = att
	e.logger.Printf("[APPLY] Filled %d fields, resume attached: %t", report.FilledCount(), att.Attached())
	return nil
}

func (e *Engine) submit(ctx context.Context, s *Session, browser Browser) {
	submitCtx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	controls, err := browser.Controls(submitCtx)
	if err != nil {
		e.fail(s, ReasonSubmitFailed, err)
		return
	}
	control, ok := formfill.FindSubmit(controls)
	if !ok {
		e.fail(s, ReasonSubmitControlNotFound, errors.New("no submit button or Submit/Apply labelled button on page"))
		return
	}
	s.Submit = control

	if err := browser.Click(submitCtx, control); err != nil {
		e.fail(s, ReasonSubmitFailed, fmt.Errorf("clicking %s: %w", control, err))
		return
	}
	e.logger.Printf("[APPLY] Application submitted via %s", control)
	e.transition(s, StateSubmitted, ReasonNone)
}

func (e *Engine) fail(s *Session, reason Reason, err error) {
	if err != nil {
		s.Detail = err.Error()
	}
	e.logger.Printf("[APPLY] Session %s failed: %s: %s", s.ID, reason, s.Detail)
	e.transition(s, StateFailed, reason)
}

func (e *Engine) transition(s *Session, to State, reason Reason) {
	t := Transition{From: s.State, To: to, Reason: reason, At: e.now()}
	s.State = to
	s.Reason = reason
	s.Transitions = append(s.Transitions, t)
	if to.Terminal() {
		s.FinishedAt = t.At
	}
	for _, observe := range e.observers {
		observe(s, t)
	}
}

func checkArtifact(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("resume artifact path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("resume artifact not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("resume artifact %s is a directory", path)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded)
}
