package parser

import (
	"fmt"
	"strings"
)

// The functions in this file form a small string-literal-aware scanner shared
// by the DDL parser and the SQL formatter. All of them walk the input exactly
// once carrying a quote state and, where relevant, a parenthesis depth
// counter; none of them use regular expressions to balance parentheses.

// quoteState tracks whether the scan position sits inside a quoted region.
type quoteState struct {
	quote byte // 0, '\'', '"', or '`'
}

// step consumes src[i] and returns how many bytes were consumed (1 or 2; two
// for an escaped quote inside a literal).
func (q *quoteState) step(src string, i int) int {
	c := src[i]
	if q.quote == 0 {
		if c == '\'' || c == '"' || c == '`' {
			q.quote = c
		}
		return 1
	}
	if c == '\\' && q.quote == '\'' && i+1 < len(src) {
		return 2
	}
	if c == q.quote {
		// Doubled quote chars escape themselves inside a literal.
		if i+1 < len(src) && src[i+1] == c {
			return 2
		}
		q.quote = 0
	}
	return 1
}

func (q *quoteState) inQuote() bool { return q.quote != 0 }

// StripComments removes -- line comments and /* */ block comments without
// corrupting string literals that happen to contain those sequences.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	var q quoteState

	for i := 0; i < len(src); {
		if !q.inQuote() {
			if strings.HasPrefix(src[i:], "--") {
				end := strings.IndexByte(src[i:], '\n')
				if end < 0 {
					break
				}
				i += end // keep the newline
				continue
			}
			if strings.HasPrefix(src[i:], "/*") {
				end := strings.Index(src[i:], "*/")
				if end < 0 {
					break
				}
				i += end + 2
				continue
			}
		}
		n := q.step(src, i)
		b.WriteString(src[i : i+n])
		i += n
	}
	return b.String()
}

// Balanced reports whether every parenthesis outside a string literal has a
// matching partner.
func Balanced(src string) bool {
	depth := 0
	var q quoteState
	for i := 0; i < len(src); {
		if !q.inQuote() {
			switch src[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth < 0 {
					return false
				}
			}
		}
		i += q.step(src, i)
	}
	return depth == 0
}

// SplitTop splits src on commas at parenthesis depth zero, leaving nested
// argument lists and quoted commas intact. Empty parts are dropped.
func SplitTop(src string) []string {
	var parts []string
	var q quoteState
	depth, start := 0, 0

	for i := 0; i < len(src); {
		if !q.inQuote() {
			switch src[i] {
			case '(':
				depth++
			case ')':
				depth--
			case ',':
				if depth == 0 {
					parts = appendPart(parts, src[start:i])
					i++
					start = i
					continue
				}
			}
		}
		i += q.step(src, i)
	}
	return appendPart(parts, src[start:])
}

// Statements splits src into statements on semicolons at top level.
func Statements(src string) []string {
	var stmts []string
	var q quoteState
	depth, start := 0, 0

	for i := 0; i < len(src); {
		if !q.inQuote() {
			switch src[i] {
			case '(':
				depth++
			case ')':
				depth--
			case ';':
				if depth == 0 {
					stmts = appendPart(stmts, src[start:i])
					i++
					start = i
					continue
				}
			}
		}
		i += q.step(src, i)
	}
	return appendPart(stmts, src[start:])
}

// ScanBlock returns the content between the opening parenthesis at src[open]
// and its balanced closing partner, plus the index just past that partner.
func ScanBlock(src string, open int) (string, int, error) {
	if open >= len(src) || src[open] != '(' {
		return "", 0, fmt.Errorf("no opening parenthesis at offset %d", open)
	}
	depth := 0
	var q quoteState
	for i := open; i < len(src); {
		if !q.inQuote() {
			switch src[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return src[open+1 : i], i + 1, nil
				}
			}
		}
		i += q.step(src, i)
	}
	return "", 0, fmt.Errorf("unterminated parenthesis opened at offset %d", open)
}

// maskLiterals blanks the interior of quoted regions so keyword searches
// cannot match text inside them. The output has the same length as src, so
// match offsets found in the masked string index into the original.
func maskLiterals(src string) string {
	out := []byte(src)
	var q quoteState
	for i := 0; i < len(src); {
		was := q.inQuote()
		n := q.step(src, i)
		if was && q.inQuote() {
			for j := i; j < i+n; j++ {
				out[j] = '_'
			}
		}
		i += n
	}
	return string(out)
}

func appendPart(parts []string, part string) []string {
	part = strings.TrimSpace(part)
	if part == "" {
		return parts
	}
	return append(parts, part)
}
