package todo

import (
	"html"
	"strings"
)

// DefaultTaskText replaces task text that is blank after sanitizing
const DefaultTaskText = "untitled"

// Sanitize is the write policy for every user-supplied label: trim, then escape markup.
func Sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
