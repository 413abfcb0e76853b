// Package formfill maps an applicant profile onto the controls of an unknown
// application form using a declarative rule table.
package formfill

import (
	"context"
	"fmt"
	"strings"
)

// Control describes one form control as seen by the mapper. Attribute values are
// stored as found; matching lowercases them.
type Control struct {
	// Handle is an opaque identifier the owning Form uses to address the control.
	Handle       string
	Tag          string
	Type         string
	Name         string
	ID           string
	Placeholder  string
	AriaLabel    string
	Autocomplete string
	// Label is the text of the <label> associated with the control, if any.
	Label  string
	Accept string
	// Text is the visible text of a button, or the value of a submit/button input.
	Text     string
	Disabled bool
}

// Candidates returns the lowercased attribute values a FieldRule predicate is
// evaluated against. Empty attributes are omitted.
func (c Control) Candidates() []string {
	out := make([]string, 0, 6)
	for _, v := range []string{c.Name, c.ID, c.Placeholder, c.AriaLabel, c.Autocomplete, c.Label} {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// InputType returns the lowercased type attribute with the HTML defaults applied:
// "text" for inputs and "submit" for buttons.
func (c Control) InputType() string {
	t := strings.ToLower(strings.TrimSpace(c.Type))
	if t != "" {
		return t
	}
	switch strings.ToLower(c.Tag) {
	case "input":
		return "text"
	case "button":
		return "submit"
	}
	return t
}

// IsFileInput reports whether the control accepts file uploads.
func (c Control) IsFileInput() bool {
	return strings.EqualFold(c.Tag, "input") && c.InputType() == "file"
}

// IsTextEntry reports whether the control takes a typed value.
func (c Control) IsTextEntry() bool {
	if c.Disabled {
		return false
	}
	switch strings.ToLower(c.Tag) {
	case "textarea":
		return true
	case "input":
		switch c.InputType() {
		case "hidden", "file", "submit", "button", "reset", "image", "checkbox", "radio":
			return false
		}
		return true
	}
	return false
}

// String describes the control in CSS-selector form for logs and reports.
func (c Control) String() string {
	tag := strings.ToLower(c.Tag)
	if tag == "" {
		tag = "control"
	}
	switch {
	case c.ID != "":
		return fmt.Sprintf("%s#%s", tag, c.ID)
	case c.Name != "":
		return fmt.Sprintf("%s[name=%q]", tag, c.Name)
	case c.Type != "":
		return fmt.Sprintf("%s[type=%q]", tag, c.Type)
	case c.Text != "":
		return fmt.Sprintf("%s(%q)", tag, c.Text)
	}
	return fmt.Sprintf("%s<%s>", tag, c.Handle)
}

// Form is a live (or parsed) form the mapper can read and write.
type Form interface {
	// Controls returns every input, textarea, select and button currently on the page.
	Controls(ctx context.Context) ([]Control, error)
	// Fill replaces the value of a text-entry control.
	Fill(ctx context.Context, control Control, value string) error
	// SetFiles attaches local files to a file input.
	SetFiles(ctx context.Context, control Control, paths []string) error
}
