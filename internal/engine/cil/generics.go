package cil

import (
	"strings"
	"unicode"
)

// ParseGenericDeclaration extracts the generic parameter list of a .class
// header. Base-type and interface clauses are ignored so `extends Foo<int32>`
// is never mistaken for the declared type's own parameters. Lines without a
// list, or with an unbalanced one, yield an empty list.
func ParseGenericDeclaration(line string) GenericDeclarationList {
	header := line
	for _, kw := range []string{" extends ", " implements "} {
		if idx := strings.Index(header, kw); idx >= 0 {
			header = header[:idx]
		}
	}

	open := strings.IndexByte(header, '<')
	if open < 0 {
		return nil
	}
	end := matchingClose(header, open, '<', '>')
	if end < 0 {
		return nil
	}

	var out GenericDeclarationList
	for _, part := range splitTopLevel(header[open+1:end], ',') {
		p, ok := parseGenericParameter(part)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseGenericParameter(s string) (GenericParameter, bool) {
	var p GenericParameter
	rest := strings.TrimSpace(s)
	for rest != "" {
		switch rest[0] {
		case '+':
			p.Variance = Covariant
			rest = strings.TrimSpace(rest[1:])
			continue
		case '-':
			p.Variance = Contravariant
			rest = strings.TrimSpace(rest[1:])
			continue
		case '(':
			end := matchingClose(rest, 0, '(', ')')
			if end < 0 {
				return GenericParameter{}, false
			}
			for _, c := range splitTopLevel(rest[1:end], ',') {
				if c = strings.TrimSpace(c); c != "" {
					p.Constraints = append(p.Constraints, c)
				}
			}
			rest = strings.TrimSpace(rest[end+1:])
			continue
		}

		tok, tail := nextGenericToken(rest)
		switch tok {
		case "class":
			p.ReferenceType = true
		case "valuetype":
			p.ValueType = true
		case ".ctor":
			p.DefaultConstructor = true
		default:
			p.Name = tok
		}
		rest = tail
	}
	return p, p.Name != ""
}

func nextGenericToken(s string) (string, string) {
	end := strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimSpace(s[end:])
}

// matchingClose returns the index of the delimiter closing the one at start,
// or -1 when the input ends first.
func matchingClose(s string, start int, open, close byte) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on sep outside of (), <> and [] groups.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}
