// Package tmpl provides text template rendering for digests and reports.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// truncate shortens s to at most n runes, marking cut text with "...".
func truncate(n int, s string) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

var funcs = template.FuncMap{
	"join":     strings.Join,
	"upper":    strings.ToUpper,
	"title":    func(s string) string { return cases.Title(language.English).String(s) },
	"date":     func(layout string, t time.Time) string { return t.Format(layout) },
	"truncate": truncate,
}

func parse(tmpl string) (*template.Template, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Items ", ")
//   - upper: Upper-case a string
//   - title: Title-case a string (e.g., title .Channel)
//   - date: Format a time (e.g., date "January 02, 2006" .Now)
//   - truncate: Shorten to n runes (e.g., truncate 40 .Description)
func Render(tmpl string, data any) (string, error) {
	t, err := parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// Validate checks template syntax without executing it.
func Validate(tmpl string) error {
	_, err := parse(tmpl)
	return err
}
