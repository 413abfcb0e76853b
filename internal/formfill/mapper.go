package formfill

import (
	"context"
	"fmt"
	"log"
)

// RuleOutcome records how one rule fared against a form.
type RuleOutcome struct {
	Kind    FieldKind
	Matched []Control
	Filled  int
	Errors  []error
}

// Report summarizes a Fill pass.
type Report struct {
	Outcomes []RuleOutcome
}

// FilledCount returns the number of controls that received a value.
func (r Report) FilledCount() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Filled
	}
	return n
}

// Unmatched returns the kinds whose rule matched no control.
func (r Report) Unmatched() []FieldKind {
	var kinds []FieldKind
	for _, o := range r.Outcomes {
		if len(o.Matched) == 0 {
			kinds = append(kinds, o.Kind)
		}
	}
	return kinds
}

// Errors returns every per-control failure.
func (r Report) Errors() []error {
	var errs []error
	for _, o := range r.Outcomes {
		errs = append(errs, o.Errors...)
	}
	return errs
}

// Attachment reports the result of the file-upload step.
type Attachment struct {
	Control Control
	Found   bool
	Path    string
	Err     error
}

// Attached reports whether the file was set on a control.
func (a Attachment) Attached() bool {
	return a.Found && a.Err == nil
}

// Mapper applies a rule table to forms. It holds no per-form state.
type Mapper struct {
	rules  []FieldRule
	logger *log.Logger
}

// NewMapper creates a mapper for rules. A nil logger uses log.Default.
func NewMapper(rules []FieldRule, logger *log.Logger) *Mapper {
	if logger == nil {
		logger = log.Default()
	}
	return &Mapper{rules: rules, logger: logger}
}

// Rules returns the mapper's rule table.
func (m *Mapper) Rules() []FieldRule {
	return m.rules
}

// Match evaluates every rule against controls without touching the form. Each rule
// is evaluated independently, so one control may appear under several rules.
func (m *Mapper) Match(controls []Control) []RuleOutcome {
	outcomes := make([]RuleOutcome, 0, len(m.rules))
	for _, rule := range m.rules {
		outcome := RuleOutcome{Kind: rule.Kind}
		for _, c := range controls {
			if rule.Matches(c) {
				outcome.Matched = append(outcome.Matched, c)
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Fill sets every matched control to its rule's value. A rule matching nothing is
// logged and skipped; a control that cannot be filled is recorded as a
// *FieldApplicationError and the remaining controls and rules still run. The
// returned error is non-nil only when the form's controls cannot be read.
func (m *Mapper) Fill(ctx context.Context, form Form) (Report, error) {
	controls, err := form.Controls(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read form controls: %w", err)
	}

	outcomes := m.Match(controls)
	for i := range outcomes {
		m.apply(ctx, form, m.rules[i], &outcomes[i])
	}
	return Report{Outcomes: outcomes}, nil
}

func (m *Mapper) apply(ctx context.Context, form Form, rule FieldRule, outcome *RuleOutcome) {
	if len(outcome.Matched) == 0 {
		m.logger.Printf("[FORMFILL] No control matched %s, skipping", rule.Kind)
		return
	}
	for _, c := range outcome.Matched {
		if err := form.Fill(ctx, c, rule.Value); err != nil {
			fieldErr := &FieldApplicationError{Kind: rule.Kind, Control: c, Cause: err}
			m.logger.Printf("[FORMFILL] Warning: %v", fieldErr)
			outcome.Errors = append(outcome.Errors, fieldErr)
			continue
		}
		outcome.Filled++
		m.logger.Printf("[FORMFILL] Filled %s -> %s", rule.Kind, c)
	}
}

// AttachResume sets path on the first file input of the form. A form without a
// file input is reported through Attachment.Found, not as an error.
func (m *Mapper) AttachResume(ctx context.Context, form Form, path string) (Attachment, error) {
	controls, err := form.Controls(ctx)
	if err != nil {
		return Attachment{Path: path}, fmt.Errorf("failed to read form controls: %w", err)
	}

	control, ok := FirstFileInput(controls)
	if !ok {
		m.logger.Printf("[FORMFILL] No file input found, resume not attached")
		return Attachment{Path: path}, nil
	}

	att := Attachment{Control: control, Found: true, Path: path}
	if err := form.SetFiles(ctx, control, []string{path}); err != nil {
		att.Err = fmt.Errorf("failed to attach %s to %s: %w", path, control, err)
		m.logger.Printf("[FORMFILL] Warning: %v", att.Err)
		return att, nil
	}
	m.logger.Printf("[FORMFILL] Attached %s -> %s", path, control)
	return att, nil
}

// FirstFileInput returns the first enabled file input in document order.
func FirstFileInput(controls []Control) (Control, bool) {
	for _, c := range controls {
		if c.IsFileInput() && !c.Disabled {
			return c, true
		}
	}
	return Control{}, false
}
