// Package tmpl provides text template rendering with a shared function map.
package tmpl

import (
	"bytes"
	"fmt"
	"maps"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join":    strings.Join,
	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"trim":    strings.TrimSpace,
	"default": stringOrDefault,
	"indent":  indent,
}

func stringOrDefault(def, s string) string {
	if s != "" {
		return s
	}
	return def
}

// indent prefixes every line of s with n spaces.
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Tags ", ")
//   - lower, upper, trim: string case and whitespace helpers
//   - default: Fallback for empty strings (e.g., default "none" .Assignee)
//   - indent: Indent every non-empty line (e.g., indent 2 .Description)
func Render(tmpl string, data any) (string, error) {
	return RenderFuncs(tmpl, data, nil)
}

// RenderFuncs is Render with additional template functions. Extra functions
// override built-ins of the same name.
func RenderFuncs(tmpl string, data any, extra template.FuncMap) (string, error) {
	fm := maps.Clone(funcs)
	maps.Copy(fm, extra)

	t, err := template.New("").Funcs(fm).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
