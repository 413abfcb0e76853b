package rewriting

import (
	"strings"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// Coverage reports which extracted keywords made it into the tailored resume.
type Coverage struct {
	Matched []string
	Missing []string
}

// Ratio returns the share of keywords present in the resume
func (c Coverage) Ratio() float64 {
	total := len(c.Matched) + len(c.Missing)
	if total == 0 {
		return 0
	}
	return float64(len(c.Matched)) / float64(total)
}

// KeywordCoverage checks the resume text for each keyword (case-insensitive).
// Keywords keep their original spelling and order in the result.
func KeywordCoverage(resume types.TailoredResume, keywords types.KeywordSet) Coverage {
	normalizedText := strings.ToLower(resume.Text)

	var cov Coverage
	seen := make(map[string]bool)
	for _, kw := range keywords {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true

		if strings.Contains(normalizedText, normalized) {
			cov.Matched = append(cov.Matched, kw)
		} else {
			cov.Missing = append(cov.Missing, kw)
		}
	}
	return cov
}
