// Package prompt holds the message template shared by every completion backend.
package prompt

import (
	"regexp"
)

// Prompt is a named system/user message pair. Name identifies the role the
// prompt plays (diagnosis, treatment, consensus, translation).
type Prompt struct {
	Name   string
	System string
	User   string
}

var placeholder = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// Render substitutes {name} placeholders from vars. Unknown placeholders are left untouched.
func Render(template string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Messages renders both halves of p.
func (p Prompt) Messages(vars map[string]string) (system, user string) {
	return Render(p.System, vars), Render(p.User, vars)
}
