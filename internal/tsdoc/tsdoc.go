// Package tsdoc renders JSDoc comment blocks.
package tsdoc

import (
	"strings"
)

// Comment renders a JSDoc block indented by indent. Empty input renders
// nothing. A single line collapses to the one-line form.
func Comment(indent string, description string, deprecated bool) string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(description), "\n") {
		lines = append(lines, strings.TrimRight(strings.ReplaceAll(l, "*/", "*\\/"), " \t\r"))
	}
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	if deprecated {
		lines = append(lines, "@deprecated")
	}
	switch len(lines) {
	case 0:
		return ""
	case 1:
		return indent + "/** " + lines[0] + " */\n"
	}
	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, l := range lines {
		if l == "" {
			b.WriteString(indent + " *\n")
			continue
		}
		b.WriteString(indent + " * " + l + "\n")
	}
	b.WriteString(indent + " */\n")
	return b.String()
}
