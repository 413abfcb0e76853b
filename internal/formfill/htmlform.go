package formfill

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// controlSelector lists the elements treated as form controls.
const controlSelector = "input, textarea, select, button"

// HTMLForm is a Form over a static HTML document. Fill and SetFiles update the
// parsed document, so the result can be inspected or rendered back out.
type HTMLForm struct {
	mu    sync.Mutex
	doc   *goquery.Document
	nodes []*goquery.Selection
	files map[string][]string
}

// ParseHTMLForm parses an HTML document.
func ParseHTMLForm(r io.Reader) (*HTMLForm, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	f := &HTMLForm{doc: doc, files: make(map[string][]string)}
	doc.Find(controlSelector).Each(func(_ int, s *goquery.Selection) {
		f.nodes = append(f.nodes, s)
	})
	return f, nil
}

// ParseHTMLFormString parses an HTML string.
func ParseHTMLFormString(html string) (*HTMLForm, error) {
	return ParseHTMLForm(strings.NewReader(html))
}

// FormCount returns the number of <form> elements in the document.
func (f *HTMLForm) FormCount() int {
	return f.doc.Find("form").Length()
}

// Controls returns the document's controls in document order.
func (f *HTMLForm) Controls(_ context.Context) ([]Control, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	controls := make([]Control, 0, len(f.nodes))
	for i, s := range f.nodes {
		controls = append(controls, f.describe(strconv.Itoa(i), s))
	}
	return controls, nil
}

// Fill sets the value of a text-entry control.
func (f *HTMLForm) Fill(_ context.Context, control Control, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.lookup(control)
	if err != nil {
		return err
	}
	if goquery.NodeName(s) == "textarea" {
		s.SetText(value)
		return nil
	}
	s.SetAttr("value", value)
	return nil
}

// SetFiles records the files attached to a file input.
func (f *HTMLForm) SetFiles(_ context.Context, control Control, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.lookup(control)
	if err != nil {
		return err
	}
	if t, _ := s.Attr("type"); !strings.EqualFold(t, "file") {
		return fmt.Errorf("%s is not a file input", control)
	}
	f.files[control.Handle] = append([]string(nil), paths...)
	return nil
}

// Value returns the current value of the control with the given handle.
func (f *HTMLForm) Value(handle string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.lookup(Control{Handle: handle})
	if err != nil {
		return ""
	}
	if goquery.NodeName(s) == "textarea" {
		return s.Text()
	}
	v, _ := s.Attr("value")
	return v
}

// Files returns the files attached to the control with the given handle.
func (f *HTMLForm) Files(handle string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[handle]
}

func (f *HTMLForm) lookup(control Control) (*goquery.Selection, error) {
	i, err := strconv.Atoi(control.Handle)
	if err != nil || i < 0 || i >= len(f.nodes) {
		return nil, fmt.Errorf("unknown control handle %q", control.Handle)
	}
	return f.nodes[i], nil
}

func (f *HTMLForm) describe(handle string, s *goquery.Selection) Control {
	attr := func(name string) string {
		v, _ := s.Attr(name)
		return strings.TrimSpace(v)
	}
	_, disabled := s.Attr("disabled")

	c := Control{
		Handle:       handle,
		Tag:          goquery.NodeName(s),
		Type:         attr("type"),
		Name:         attr("name"),
		ID:           attr("id"),
		Placeholder:  attr("placeholder"),
		AriaLabel:    attr("aria-label"),
		Autocomplete: attr("autocomplete"),
		Accept:       attr("accept"),
		Disabled:     disabled,
		Label:        f.labelFor(s, attr("id")),
	}
	switch c.Tag {
	case "button":
		c.Text = collapseSpace(s.Text())
	case "input":
		c.Text = attr("value")
	}
	return c
}

// labelFor finds the label text for a control: <label for=id> first, then an
// enclosing <label>.
func (f *HTMLForm) labelFor(s *goquery.Selection, id string) string {
	if id != "" {
		var text string
		f.doc.Find("label[for]").EachWithBreak(func(_ int, l *goquery.Selection) bool {
			if v, _ := l.Attr("for"); v == id {
				text = l.Text()
				return false
			}
			return true
		})
		if text != "" {
			return collapseSpace(text)
		}
	}
	if parent := s.Closest("label"); parent.Length() > 0 {
		return collapseSpace(parent.Text())
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
