package sqlfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/schemaforge/internal/parser"
)

const messySource = `-- user accounts
CREATE TABLE users (
	id    SERIAL   PRIMARY KEY, /* surrogate */
	email VARCHAR(255)   UNIQUE NOT NULL
);

CREATE INDEX idx_users_email
	ON users (email);`

func TestMinify(t *testing.T) {
	got := Minify(messySource)
	want := "CREATE TABLE users ( id SERIAL PRIMARY KEY, email VARCHAR(255) UNIQUE NOT NULL );\n" +
		"CREATE INDEX idx_users_email ON users (email);"
	assert.Equal(t, want, got)
}

func TestMinifyPreservesLiterals(t *testing.T) {
	got := Minify("CREATE TABLE t (a TEXT DEFAULT 'two  spaces -- kept');")
	assert.Equal(t, "CREATE TABLE t (a TEXT DEFAULT 'two  spaces -- kept');", got)
}

func TestFormat(t *testing.T) {
	got := Format("CREATE TABLE users (id SERIAL PRIMARY KEY, email VARCHAR(255) NOT NULL); CREATE INDEX i ON users (email);")
	want := "CREATE TABLE users (\n" +
		"  id SERIAL PRIMARY KEY,\n" +
		"  email VARCHAR(255) NOT NULL\n" +
		");\n\n" +
		"CREATE INDEX i ON users (email);"
	assert.Equal(t, want, got)
}

func TestFormatKeepsTableSuffix(t *testing.T) {
	got := Format("CREATE TABLE t (a INT) COMMENT='x';")
	assert.Equal(t, "CREATE TABLE t (\n  a INT\n) COMMENT='x';", got)
}

func TestMinifyThenParseIsStable(t *testing.T) {
	direct, _, err := parser.Parse(messySource)
	require.NoError(t, err)

	minified, _, err := parser.Parse(Minify(messySource))
	require.NoError(t, err)

	assert.Equal(t, direct, minified)
}

func TestFormatThenParseIsStable(t *testing.T) {
	direct, _, err := parser.Parse(messySource)
	require.NoError(t, err)

	formatted, _, err := parser.Parse(Format(messySource))
	require.NoError(t, err)

	assert.Equal(t, direct, formatted)
}
