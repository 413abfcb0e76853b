package formfill

import (
	"regexp"
	"strings"
)

var submitLabel = regexp.MustCompile(`(?i)\b(submit|apply)\b`)

// FindSubmit picks the control that submits the form. Controls with type="submit"
// win over label matches; otherwise the first button whose visible text contains
// the word "submit" or "apply" is chosen. The label fallback can pick unrelated
// "Apply" buttons (filters, coupons); the human confirmation step precedes any click.
func FindSubmit(controls []Control) (Control, bool) {
	for _, c := range controls {
		if c.Disabled {
			continue
		}
		tag := strings.ToLower(c.Tag)
		if (tag == "button" || tag == "input") && c.InputType() == "submit" {
			return c, true
		}
	}
	for _, c := range controls {
		if c.Disabled || !isButton(c) {
			continue
		}
		if submitLabel.MatchString(c.Text) || submitLabel.MatchString(c.AriaLabel) {
			return c, true
		}
	}
	return Control{}, false
}

func isButton(c Control) bool {
	switch strings.ToLower(c.Tag) {
	case "button":
		return true
	case "input":
		t := c.InputType()
		return t == "button" || t == "image"
	}
	return false
}
