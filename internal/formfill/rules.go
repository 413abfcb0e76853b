package formfill

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-autoapply/internal/types"
)

// FieldKind names the logical field a rule fills.
type FieldKind string

const (
	KindFirstName  FieldKind = "first_name"
	KindLastName   FieldKind = "last_name"
	KindFullName   FieldKind = "full_name"
	KindEmail      FieldKind = "email"
	KindPhone      FieldKind = "phone"
	KindAddress    FieldKind = "address"
	KindCity       FieldKind = "city"
	KindPostalCode FieldKind = "postal_code"
	KindLinkedIn   FieldKind = "linkedin"
	KindGitHub     FieldKind = "github"
	KindPortfolio  FieldKind = "portfolio"
)

// Predicate is one structural match condition. Some candidate attribute must
// contain every AllOf substring and match Pattern (if set). A NoneOf substring in
// any of the control's attributes rejects the control. Types restricts the
// control's type attribute; a predicate with only Types matches on type alone.
type Predicate struct {
	AllOf   []string
	NoneOf  []string
	Pattern *regexp.Regexp
	Types   []string
}

// Matches reports whether the control satisfies the predicate on any candidate.
func (p Predicate) Matches(c Control) bool {
	if len(p.Types) > 0 && !containsFold(p.Types, c.InputType()) {
		return false
	}
	candidates := c.Candidates()
	for _, candidate := range candidates {
		if p.excludes(candidate) {
			return false
		}
	}
	if len(p.AllOf) == 0 && p.Pattern == nil {
		return len(p.Types) > 0
	}
	for _, candidate := range candidates {
		if p.matchesText(candidate) {
			return true
		}
	}
	return false
}

func (p Predicate) excludes(s string) bool {
	for _, sub := range p.NoneOf {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

func (p Predicate) matchesText(s string) bool {
	for _, sub := range p.AllOf {
		if !strings.Contains(s, strings.ToLower(sub)) {
			return false
		}
	}
	return p.Pattern == nil || p.Pattern.MatchString(s)
}

// FieldRule associates a field kind with its match predicates and the value to
// inject. A control matches the rule if any predicate matches.
type FieldRule struct {
	Kind       FieldKind
	Predicates []Predicate
	Value      string
}

// Matches reports whether the rule applies to the control.
func (r FieldRule) Matches(c Control) bool {
	if !c.IsTextEntry() {
		return false
	}
	for _, p := range r.Predicates {
		if p.Matches(c) {
			return true
		}
	}
	return false
}

var (
	fnamePattern = regexp.MustCompile(`(^|[^a-z])f(irst)?_?name([^a-z]|$)`)
	lnamePattern = regexp.MustCompile(`(^|[^a-z])l(ast)?_?name([^a-z]|$)`)
	zipPattern   = regexp.MustCompile(`(^|[^a-z])zip([^a-z]|$)`)
	cityPattern  = regexp.MustCompile(`(^|[^a-z])city`)
)

// DefaultRules builds the rule table for profile. Rules whose value is empty are
// omitted so unknown profile fields never blank out a form.
func DefaultRules(profile types.ApplicantProfile) []FieldRule {
	nameExclusions := []string{"first", "last", "given", "family", "sur", "user", "company", "employer", "file", "middle", "nick"}
	linkExclusions := []string{"linkedin", "github"}

	all := []FieldRule{
		{Kind: KindFirstName, Value: profile.FirstName, Predicates: []Predicate{
			{AllOf: []string{"first", "name"}},
			{AllOf: []string{"given"}},
			{Pattern: fnamePattern},
		}},
		{Kind: KindLastName, Value: profile.LastName, Predicates: []Predicate{
			{AllOf: []string{"last", "name"}},
			{AllOf: []string{"surname"}},
			{AllOf: []string{"family"}},
			{Pattern: lnamePattern, NoneOf: []string{"first"}},
		}},
		{Kind: KindFullName, Value: profile.FullName(), Predicates: []Predicate{
			{AllOf: []string{"full", "name"}},
			{Pattern: regexp.MustCompile(`^(your )?name\*?$`), NoneOf: nameExclusions},
		}},
		{Kind: KindEmail, Value: profile.Email, Predicates: []Predicate{
			{Types: []string{"email"}},
			{AllOf: []string{"email"}},
			{AllOf: []string{"e-mail"}},
		}},
		{Kind: KindPhone, Value: profile.Phone, Predicates: []Predicate{
			{Types: []string{"tel"}},
			{AllOf: []string{"phone"}},
			{AllOf: []string{"mobile"}},
			{Pattern: regexp.MustCompile(`^tel`)},
		}},
		{Kind: KindAddress, Value: profile.Address, Predicates: []Predicate{
			{AllOf: []string{"address"}, NoneOf: []string{"mail", "level", "web"}},
			{AllOf: []string{"street"}},
		}},
		{Kind: KindCity, Value: profile.City, Predicates: []Predicate{
			{Pattern: cityPattern},
			{AllOf: []string{"town"}},
			{AllOf: []string{"address-level2"}},
		}},
		{Kind: KindPostalCode, Value: profile.PostCode, Predicates: []Predicate{
			{AllOf: []string{"postal"}},
			{AllOf: []string{"postcode"}},
			{Pattern: zipPattern},
		}},
		{Kind: KindLinkedIn, Value: profile.LinkedIn, Predicates: []Predicate{
			{AllOf: []string{"linkedin"}},
		}},
		{Kind: KindGitHub, Value: profile.GitHub, Predicates: []Predicate{
			{AllOf: []string{"github"}},
		}},
		{Kind: KindPortfolio, Value: profile.Portfolio, Predicates: []Predicate{
			{AllOf: []string{"portfolio"}},
			{AllOf: []string{"website"}, NoneOf: linkExclusions},
			{AllOf: []string{"personal", "site"}},
			{Types: []string{"url"}, AllOf: []string{"url"}, NoneOf: linkExclusions},
		}},
	}

	rules := make([]FieldRule, 0, len(all))
	for _, r := range all {
		if strings.TrimSpace(r.Value) != "" {
			rules = append(rules, r)
		}
	}
	return rules
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
