// Package prompts holds the LLM prompt templates. Templates live in embedded JSON
// files keyed by name and use {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Key addresses one template.
type Key struct {
	File string
	Name string
}

func (k Key) String() string {
	return k.File + ":" + k.Name
}

var (
	KeywordExtraction = Key{File: "tailoring.json", Name: "keyword_extraction"}
	ResumeRewrite     = Key{File: "tailoring.json", Name: "resume_rewrite"}
)

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z_][A-Za-z0-9_]*)\}\}`)

var (
	loadOnce sync.Once
	catalog  map[Key]string
	loadErr  error
)

// load parses every embedded file once.
func load() (map[Key]string, error) {
	loadOnce.Do(func() {
		catalog, loadErr = parseFiles(promptFiles)
	})
	return catalog, loadErr
}

func parseFiles(fsys embed.FS) (map[Key]string, error) {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}
	out := make(map[Key]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fsys.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", e.Name(), err)
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", e.Name(), err)
		}
		for name, text := range templates {
			out[Key{File: e.Name(), Name: name}] = text
		}
	}
	return out, nil
}

// Get returns the template for key.
func Get(key Key) (string, error) {
	templates, err := load()
	if err != nil {
		return "", err
	}
	text, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt %s not found", key)
	}
	return text, nil
}

// MustGet is Get for templates that ship with the binary. It panics on a missing key.
func MustGet(key Key) string {
	text, err := Get(key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return text
}

// Keys lists the templates in file, sorted by name.
func Keys(file string) ([]Key, error) {
	templates, err := load()
	if err != nil {
		return nil, err
	}
	var keys []Key
	for k := range templates {
		if k.File == file {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys, nil
}

// Placeholders returns the distinct placeholder names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Format substitutes data into template in a single pass, so placeholder text
// inside a value is left as-is. Placeholders without a value are kept.
func Format(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[3 : len(m)-2]
		if v, ok := data[name]; ok {
			return v
		}
		return m
	})
}

// Render formats the template for key and fails when a placeholder has no value.
func Render(key Key, data map[string]string) (string, error) {
	template, err := Get(key)
	if err != nil {
		return "", err
	}
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s is missing values for %s", key, strings.Join(missing, ", "))
	}
	return Format(template, data), nil
}

// MustRender is Render for call sites that always supply every value.
func MustRender(key Key, data map[string]string) string {
	text, err := Render(key, data)
	if err != nil {
		panic(err)
	}
	return text
}
