// Package types provides type definitions for structured data shared by the tailoring pipeline
// and the application automation engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// JobDescription is the raw job posting text that drives keyword extraction and rewriting.
type JobDescription string

// IsBlank reports whether the description has no non-whitespace content.
func (j JobDescription) IsBlank() bool {
	return strings.TrimSpace(string(j)) == ""
}

// String returns the raw text
func (j JobDescription) String() string {
	return string(j)
}

// KeywordSet is an ordered sequence of normalized skill, tool and role terms.
type KeywordSet []string

// IsEmpty reports whether the set holds no terms
func (k KeywordSet) IsEmpty() bool {
	return len(k) == 0
}

// Query joins the terms into the text representation used for semantic search.
func (k KeywordSet) Query() string {
	return strings.Join(k, ", ")
}

// Contains reports whether term is present, ignoring case.
func (k KeywordSet) Contains(term string) bool {
	for _, t := range k {
		if strings.EqualFold(t, term) {
			return true
		}
	}
	return false
}
