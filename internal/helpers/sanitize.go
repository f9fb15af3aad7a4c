package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var stripAll = sync.OnceValue(bluemonday.StrictPolicy)

// PlainText turns search titles, snippets and fetched page text into a
// single line: markup and scripts are dropped, entities unescaped and
// whitespace runs collapsed.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(stripAll().Sanitize(s))), " ")
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
