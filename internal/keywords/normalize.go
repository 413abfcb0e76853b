package keywords

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-autoapply/internal/llm"
	"github.com/jonathan/resume-autoapply/internal/types"
)

// MaxTermLength bounds a single term; longer entries are prose, not keywords.
const MaxTermLength = 64

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
}

var (
	termSeparators = regexp.MustCompile(`[,;\n]+`)
	listMarker     = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)
	labelPrefix    = regexp.MustCompile(`(?i)^\s*(?:extracted\s+)?(?:key\s*words|keywords|terms|skills)\s*:\s*`)
	innerSpace     = regexp.MustCompile(`\s+`)
)

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	normalized := strings.TrimSpace(skillName)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// Mixed case and acronyms (AWS, SQL, gRPC) are kept as written
	if normalized != lower {
		return normalized
	}

	// Single lowercase word: capitalize the first letter
	if !strings.Contains(normalized, " ") {
		first, size := utf8.DecodeRuneInString(normalized)
		return string(unicode.ToUpper(first)) + normalized[size:]
	}

	return normalized
}

// ParseKeywords parses a comma-separated reply into a normalized KeywordSet.
// A blank reply yields an empty set. A non-blank reply with no usable terms is malformed.
func ParseKeywords(reply string) (types.KeywordSet, error) {
	text := llm.StripCodeFence(reply)
	if strings.TrimSpace(text) == "" {
		return types.KeywordSet{}, nil
	}
	text = labelPrefix.ReplaceAllString(text, "")

	seen := make(map[string]bool)
	result := make(types.KeywordSet, 0)
	for _, raw := range termSeparators.Split(text, -1) {
		term := cleanTerm(raw)
		if term == "" || len(term) > MaxTermLength {
			continue
		}
		term = NormalizeSkillName(term)

		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, term)
	}

	if len(result) == 0 {
		return nil, &llm.GenerationError{
			Stage:   StageName,
			Message: "reply did not contain a comma-separated term list",
		}
	}
	return result, nil
}

// cleanTerm strips list markers, quotes and trailing punctuation from a raw term
func cleanTerm(raw string) string {
	term := strings.TrimSpace(raw)
	term = listMarker.ReplaceAllString(term, "")
	term = strings.Trim(term, "\"'`*")
	term = strings.TrimRight(term, ".:")
	term = innerSpace.ReplaceAllString(term, " ")
	return strings.TrimSpace(term)
}
