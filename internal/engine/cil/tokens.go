package cil

import (
	"strings"
	"unicode"
)

// Split cuts line at every sep and drops empty tokens. A space separator
// matches any white space, so tab-aligned listings tokenize the same way.
func Split(line string, sep rune) []string {
	if sep == ' ' {
		return strings.FieldsFunc(line, unicode.IsSpace)
	}
	return strings.FieldsFunc(line, func(r rune) bool { return r == sep })
}
