package fetch

import (
	"net/url"
	"strings"
)

// Platform is a hosted job board whose posting and application pages have a known layout.
type Platform string

const (
	PlatformGreenhouse      Platform = "greenhouse"
	PlatformLever           Platform = "lever"
	PlatformWorkday         Platform = "workday"
	PlatformAshby           Platform = "ashby"
	PlatformSmartRecruiters Platform = "smartrecruiters"
	PlatformUnknown         Platform = "unknown"
)

// layout is what we know about one platform's pages.
type layout struct {
	hosts []string
	// content lists description containers, most specific first.
	content []string
	noise   []string
	// form marks the application form as present.
	form string
}

// genericContent is tried on pages from unknown hosts.
var genericContent = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"[itemprop='description']",
	"main",
	"article",
	"#content",
}

// pageNoise is removed before any description is extracted. The application form
// itself is noise when reading the description.
var pageNoise = []string{
	"nav", "header", "footer", "script", "style", "noscript",
	"form", ".application-form", "#application-form", "#application_form",
	".eeo-statement", ".voluntary-disclosure", ".self-identification",
	".share-buttons", ".social-share",
	".cookie-banner", ".cookie-consent",
}

var layouts = []struct {
	platform Platform
	layout   layout
}{
	{PlatformGreenhouse, layout{
		hosts:   []string{"greenhouse.io"},
		content: []string{".job__description.body", ".job__description", "#content"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section"},
		form:    "#application-form, #application_form, form",
	}},
	{PlatformLever, layout{
		hosts:   []string{"lever.co"},
		content: []string{".posting-description", ".section-wrapper.page-full-width", ".posting-page"},
		noise:   []string{".posting-apply", ".apply-section"},
		form:    ".application-form, form",
	}},
	{PlatformWorkday, layout{
		hosts:   []string{"myworkdayjobs.com", "workday.com"},
		content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']"},
		noise:   []string{"[data-automation-id='applyButton']"},
		form:    "[data-automation-id='applyFlowPage'], form",
	}},
	{PlatformAshby, layout{
		hosts:   []string{"ashbyhq.com"},
		content: []string{"[class*='descriptionText']", "[class*='jobPostingDescription']"},
		form:    "[class*='application-form'], form",
	}},
	{PlatformSmartRecruiters, layout{
		hosts:   []string{"smartrecruiters.com"},
		content: []string{".job-sections", "[itemprop='description']"},
		form:    "oc-apply-form, form",
	}},
}

// DetectPlatform identifies the job board hosting urlStr.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for _, l := range layouts {
		for _, h := range l.layout.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return l.platform
			}
		}
	}
	return PlatformUnknown
}

func layoutOf(p Platform) (layout, bool) {
	for _, l := range layouts {
		if l.platform == p {
			return l.layout, true
		}
	}
	return layout{}, false
}

// ContentSelectors returns the description containers to try for p, ending with
// the generic ones.
func ContentSelectors(p Platform) []string {
	l, _ := layoutOf(p)
	return append(append([]string{}, l.content...), genericContent...)
}

// NoiseSelectors returns the elements stripped from p's pages before extraction.
func NoiseSelectors(p Platform) []string {
	l, _ := layoutOf(p)
	return append(append([]string{}, pageNoise...), l.noise...)
}

// FormSelector returns the selector that marks p's application form as present.
// Unknown platforms wait for any <form>.
func FormSelector(p Platform) string {
	if l, ok := layoutOf(p); ok && l.form != "" {
		return l.form
	}
	return "form"
}

// FormSelectorForURL is FormSelector applied to the platform of urlStr.
func FormSelectorForURL(urlStr string) string {
	return FormSelector(DetectPlatform(urlStr))
}
