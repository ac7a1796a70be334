package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"line comment", "SELECT 1 -- trailing\n+ 2", "SELECT 1 \n+ 2"},
		{"block comment", "a /* gone */ b", "a  b"},
		{"comment marker inside literal", "x '--not a comment' y", "x '--not a comment' y"},
		{"block marker inside literal", "x '/* kept */' y", "x '/* kept */' y"},
		{"unterminated line comment", "a -- rest", "a "},
		{"unterminated block comment", "a /* rest", "a "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.src))
		})
	}
}

func TestBalanced(t *testing.T) {
	assert.True(t, Balanced("a (b (c) d)"))
	assert.True(t, Balanced("'(' unmatched in literal"))
	assert.False(t, Balanced("a (b"))
	assert.False(t, Balanced("a ) b ("))
}

func TestSplitTop(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"flat list", "a, b, c", []string{"a", "b", "c"}},
		{"nested args stay joined", "a DECIMAL(10,2), b", []string{"a DECIMAL(10,2)", "b"}},
		{"quoted comma stays joined", "a DEFAULT 'x,y', b", []string{"a DEFAULT 'x,y'", "b"}},
		{"empty parts dropped", "a, , b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitTop(tt.src))
		})
	}
}

func TestStatements(t *testing.T) {
	stmts := Statements("CREATE TABLE a (x INT); CREATE TABLE b (y TEXT DEFAULT ';');")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x INT)", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y TEXT DEFAULT ';')", stmts[1])
}

func TestScanBlock(t *testing.T) {
	src := "CREATE TABLE t (a INT, b DECIMAL(10,2)) COMMENT='x'"
	open := 15
	require.Equal(t, byte('('), src[open])

	body, end, err := ScanBlock(src, open)
	require.NoError(t, err)
	assert.Equal(t, "a INT, b DECIMAL(10,2)", body)
	assert.Equal(t, " COMMENT='x'", src[end:])

	_, _, err = ScanBlock("no parens", 0)
	assert.Error(t, err)

	_, _, err = ScanBlock("(unterminated", 0)
	assert.Error(t, err)
}

func TestMaskLiterals(t *testing.T) {
	in := `x DEFAULT 'NOT NULL, it''s' REFERENCES "users"(id)`
	out := maskLiterals(in)

	require.Len(t, out, len(in))
	assert.Equal(t, `x DEFAULT '_______________' REFERENCES "_____"(id)`, out)

	assert.Equal(t, "x DEFAULT 1", maskLiterals("x DEFAULT 1"))
}

func TestQuoteStateEscapes(t *testing.T) {
	// Doubled quotes and backslash escapes must not end the literal early.
	assert.Equal(t, []string{"a 'it''s, fine'", "b"}, SplitTop(`a 'it''s, fine', b`))
	assert.Equal(t, []string{`a 'back\', slash'`, "b"}, SplitTop(`a 'back\', slash', b`))
}
