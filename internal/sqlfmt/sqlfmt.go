// Package sqlfmt pretty-prints and minifies SQL DDL. It reuses the parser's
// string-literal-aware scanner instead of carrying its own parenthesis
// counting.
package sqlfmt

import (
	"strings"

	"github.com/koba/schemaforge/internal/parser"
)

// Minify strips comments and collapses all insignificant whitespace,
// leaving one statement per line.
func Minify(src string) string {
	var lines []string
	for _, stmt := range parser.Statements(parser.StripComments(src)) {
		lines = append(lines, collapseSpace(stmt)+";")
	}
	return strings.Join(lines, "\n")
}

// Format re-indents DDL: one clause per line inside CREATE TABLE bodies, one
// statement per block, comments removed.
func Format(src string) string {
	var blocks []string
	for _, stmt := range parser.Statements(parser.StripComments(src)) {
		blocks = append(blocks, formatStatement(stmt))
	}
	return strings.Join(blocks, "\n\n")
}

func formatStatement(stmt string) string {
	flat := collapseSpace(stmt)
	upper := strings.ToUpper(flat)
	if !strings.HasPrefix(upper, "CREATE TABLE") {
		return flat + ";"
	}

	open := strings.IndexByte(flat, '(')
	if open < 0 {
		return flat + ";"
	}
	body, end, err := parser.ScanBlock(flat, open)
	if err != nil {
		return flat + ";"
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(flat[:open]))
	b.WriteString(" (\n")
	clauses := parser.SplitTop(body)
	for i, clause := range clauses {
		b.WriteString("  ")
		b.WriteString(clause)
		if i < len(clauses)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	if tail := strings.TrimSpace(flat[end:]); tail != "" {
		b.WriteString(" ")
		b.WriteString(tail)
	}
	b.WriteString(";")
	return b.String()
}

// collapseSpace squeezes runs of whitespace outside string literals down to
// a single space.
func collapseSpace(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inSpace := false
	quote := byte(0)

	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r') {
			inSpace = true
			continue
		}
		if inSpace {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			inSpace = false
		}
		switch {
		case quote == 0 && (c == '\'' || c == '"' || c == '`'):
			quote = c
		case quote != 0 && c == quote:
			quote = 0
		}
		b.WriteByte(c)
	}
	return b.String()
}
