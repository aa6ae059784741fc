// Package prompts holds the built-in prompt templates and renders them.
//
// Templates use text/template syntax.
package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

//go:embed *.txt
var files embed.FS

// SummariseData fills the summarise template.
type SummariseData struct {
	Percent int
	Style   string
	Note    string
}

// ChatData fills the chat template.
type ChatData struct {
	History  string
	Question string
	Note     string
}

// Default returns the built-in template for name.
func Default(name string) (string, bool) {
	data, err := files.ReadFile(name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Names lists the built-in template names in sorted order.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}

// Render executes a template with data.
func Render(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse prompt %q: %w", name, err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return sb.String(), nil
}
