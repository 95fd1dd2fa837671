package literal

import "strings"

// Span returns the end offset (exclusive) of the balanced object or array
// literal that opens at src[start]. Brackets inside quoted strings, template
// literals and comments are ignored; template substitutions (${...}) are
// scanned as code. Regular expression literals are not recognised.
func Span(src string, start int) (int, error) {
	if start < 0 || start >= len(src) || (src[start] != '{' && src[start] != '[') {
		return 0, syntaxErrorAt(src, start, "expected '{' or '['")
	}

	// stack holds the expected closer for every open frame. A '`' frame means
	// the scanner is inside template text rather than code.
	var stack []byte
	var opens []int
	push := func(closer byte, at int) {
		stack = append(stack, closer)
		opens = append(opens, at)
	}
	pop := func() {
		stack = stack[:len(stack)-1]
		opens = opens[:len(opens)-1]
	}

	i := start
	for i < len(src) {
		c := src[i]

		if len(stack) > 0 && stack[len(stack)-1] == '`' {
			switch {
			case c == '\\':
				i += 2
			case c == '`':
				pop()
				i++
			case c == '$' && i+1 < len(src) && src[i+1] == '{':
				push('}', i)
				i += 2
			default:
				i++
			}
			continue
		}

		switch c {
		case '\'', '"':
			end := skipQuoted(src, i)
			if end < 0 {
				return 0, syntaxErrorAt(src, i, "unterminated string")
			}
			i = end
			continue
		case '`':
			push('`', i)
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
				continue
			}
			if i+1 < len(src) && src[i+1] == '*' {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return 0, syntaxErrorAt(src, i, "unterminated comment")
				}
				i += end + 4
				continue
			}
		case '{':
			push('}', i)
		case '[':
			push(']', i)
		case '(':
			push(')', i)
		case '}', ']', ')':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, syntaxErrorAt(src, i, "unexpected %q", c)
			}
			pop()
			if len(stack) == 0 {
				return i + 1, nil
			}
		}
		i++
	}

	if len(opens) > 0 {
		at := opens[len(opens)-1]
		if stack[len(stack)-1] == '`' {
			return 0, syntaxErrorAt(src, at, "unterminated template literal")
		}
		return 0, syntaxErrorAt(src, at, "unclosed %q", src[at])
	}
	return 0, syntaxErrorAt(src, start, "unclosed %q", src[start])
}

// skipQuoted returns the offset just past the string literal opening at
// src[i], or -1 if the string is not terminated on its line.
func skipQuoted(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\n':
			return -1
		case quote:
			return j + 1
		}
	}
	return -1
}
