// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/resume-autoapply/internal/apply"
	"github.com/jonathan/resume-autoapply/internal/formfill"
	"github.com/jonathan/resume-autoapply/internal/rewriting"
	"github.com/jonathan/resume-autoapply/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintKeywords outputs the extracted keyword set.
func (p *Printer) PrintKeywords(keywords types.KeywordSet) {
	if keywords.IsEmpty() {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Extracted %d keywords:\n\n", len(keywords)))
	for _, kw := range keywords {
		sb.WriteString(fmt.Sprintf("  • %s\n", kw))
	}

	p.printBox("JOB KEYWORDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRetrievedSegments outputs the top retrieved resume segments with scores.
func (p *Printer) PrintRetrievedSegments(result types.RetrievalResult) {
	if result.IsEmpty() {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Retrieved %d segments:\n\n", len(result)))

	count := min(len(result), maxItemsToShow)
	for i := 0; i < count; i++ {
		scored := result[i]
		firstLine, _, _ := strings.Cut(strings.TrimSpace(scored.Segment.Text), "\n")
		sb.WriteString(fmt.Sprintf("#%d  %s (segment %d)\n", i+1, scored.Segment.Source, scored.Segment.Position))
		sb.WriteString(fmt.Sprintf("    Score: %.3f\n", scored.Score))
		sb.WriteString(fmt.Sprintf("    %s\n", truncate(firstLine, 50)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(result) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more segments", len(result)-maxItemsToShow))
	}

	p.printBox("RETRIEVED RESUME SEGMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCoverage outputs which keywords appear in the tailored resume.
func (p *Printer) PrintCoverage(cov rewriting.Coverage) {
	if len(cov.Matched)+len(cov.Missing) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Coverage: %d/%d (%.0f%%)\n",
		len(cov.Matched), len(cov.Matched)+len(cov.Missing), cov.Ratio()*100))
	if len(cov.Matched) > 0 {
		sb.WriteString(fmt.Sprintf("✓ %s\n", strings.Join(cov.Matched, ", ")))
	}
	if len(cov.Missing) > 0 {
		sb.WriteString(fmt.Sprintf("✗ %s\n", strings.Join(cov.Missing, ", ")))
	}

	p.printBox("KEYWORD COVERAGE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFillReport outputs which form controls each rule filled.
func (p *Printer) PrintFillReport(report formfill.Report, attachment formfill.Attachment) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Filled %d controls\n\n", report.FilledCount()))

	for _, o := range report.Outcomes {
		switch {
		case len(o.Matched) == 0:
			sb.WriteString(fmt.Sprintf("- %s: no match\n", o.Kind))
		case len(o.Errors) > 0:
			sb.WriteString(fmt.Sprintf("⚠ %s: %d/%d filled\n", o.Kind, o.Filled, len(o.Matched)))
		default:
			sb.WriteString(fmt.Sprintf("✓ %s: %d filled\n", o.Kind, o.Filled))
		}
	}

	switch {
	case attachment.Attached():
		sb.WriteString(fmt.Sprintf("✓ resume: %s\n", attachment.Control))
	case attachment.Err != nil:
		sb.WriteString(fmt.Sprintf("⚠ resume: %v\n", attachment.Err))
	default:
		sb.WriteString("- resume: no file input\n")
	}

	p.printBox("FORM FILL REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSession outputs the final state of an application session.
func (p *Printer) PrintSession(session *apply.Session) {
	if session == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session:  %s\n", session.ID))
	sb.WriteString(fmt.Sprintf("State:    %s\n", session.State))
	if session.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", session.Reason))
	}
	if session.Detail != "" {
		sb.WriteString(fmt.Sprintf("Detail:   %s\n", session.Detail))
	}
	if !session.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Duration: %s\n", session.FinishedAt.Sub(session.StartedAt).Round(time.Millisecond)))
	}

	if len(session.Transitions) > 0 {
		sb.WriteString("\nTransitions:\n")
		for _, tr := range session.Transitions {
			from := string(tr.From)
			if from == "" {
				from = "start"
			}
			sb.WriteString(fmt.Sprintf("  %s → %s\n", from, tr.To))
		}
	}

	title := "APPLICATION SESSION"
	if session.State == apply.StateSubmitted {
		title = "✅ APPLICATION SUBMITTED"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}
