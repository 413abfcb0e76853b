package apply

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Decision is the human's answer at the confirmation gate.
type Decision string

const (
	DecisionSubmit Decision = "submit"
	DecisionCancel Decision = "cancel"
)

// ParseDecision maps free-form input to a decision. Only "submit" (any case,
// surrounding whitespace ignored) submits; everything else cancels.
func ParseDecision(input string) Decision {
	if strings.EqualFold(strings.TrimSpace(input), string(DecisionSubmit)) {
		return DecisionSubmit
	}
	return DecisionCancel
}

// Confirmer blocks until a human decides whether to submit the filled form.
type Confirmer interface {
	Confirm(ctx context.Context, session *Session) (Decision, error)
}

// Asker reads one answer to a prompt.
type Asker interface {
	Ask(prompt string) (string, error)
}

// ConsoleConfirmer prints the session summary and asks on the console.
type ConsoleConfirmer struct {
	asker Asker
	out   io.Writer
}

// NewConsoleConfirmer creates a confirmer writing the summary to out.
func NewConsoleConfirmer(asker Asker, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{asker: asker, out: out}
}

// Confirm shows what was filled and waits for "submit" or "cancel".
func (c *ConsoleConfirmer) Confirm(_ context.Context, session *Session) (Decision, error) {
	_, _ = fmt.Fprintln(c.out, "\nThe form has been filled but NOT submitted. Review it in the browser window.")
	for _, line := range session.Summary() {
		_, _ = fmt.Fprintln(c.out, line)
	}
	answer, err := c.asker.Ask("Type 'submit' to submit the application, or 'cancel' to abort: ")
	if err != nil {
		return DecisionCancel, err
	}
	return ParseDecision(answer), nil
}
