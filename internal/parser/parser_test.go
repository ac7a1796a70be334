package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/schemaforge/internal/schema"
)

func hasWarning(warnings []string, sub string) bool {
	for _, w := range warnings {
		if strings.Contains(w, sub) {
			return true
		}
	}
	return false
}

func TestParseUsersTable(t *testing.T) {
	src := `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL
	);`

	s, warnings, err := Parse(src)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	users := s.Table("users")
	require.NotNil(t, users)
	require.Len(t, users.Columns, 2)

	id := users.Column("id")
	assert.Equal(t, schema.TypeInteger, id.Type)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	email := users.Column("email")
	assert.Equal(t, schema.TypeVarchar, email.Type)
	assert.Equal(t, 255, email.Length)
	assert.True(t, email.Unique)
	assert.False(t, email.Nullable)
}

func TestParseColumnModifiers(t *testing.T) {
	src := `CREATE TABLE articles (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL DEFAULT 'untitled',
		body TEXT,
		published BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		score DECIMAL(5,2) COMMENT 'editor''s rating'
	);`

	s, warnings, err := Parse(src)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	a := s.Table("articles")
	require.NotNil(t, a)

	id := a.Column("id")
	assert.Equal(t, schema.TypeBigInt, id.Type)
	assert.True(t, id.AutoIncrement)
	assert.True(t, id.PrimaryKey)

	title := a.Column("title")
	require.NotNil(t, title.Default)
	assert.Equal(t, "'untitled'", title.Default.Value)
	assert.False(t, title.Default.IsFunction)

	body := a.Column("body")
	assert.Equal(t, schema.TypeText, body.Type)
	assert.True(t, body.Nullable)

	created := a.Column("created_at")
	assert.Equal(t, schema.TypeTimestampTZ, created.Type)
	require.NotNil(t, created.Default)
	assert.Equal(t, "NOW()", created.Default.Value)
	assert.True(t, created.Default.IsFunction)

	updated := a.Column("updated_at")
	require.NotNil(t, updated.Default)
	assert.True(t, updated.Default.IsFunction)

	score := a.Column("score")
	assert.Equal(t, 5, score.Precision)
	assert.Equal(t, 2, score.Scale)
	assert.Equal(t, "editor's rating", score.Comment)
}

func TestParseKeywordsInsideLiterals(t *testing.T) {
	src := `CREATE TABLE notes (
		id SERIAL PRIMARY KEY,
		status VARCHAR(20) DEFAULT 'UNIQUE',
		note TEXT COMMENT 'the PRIMARY KEY is id',
		hint VARCHAR(50) DEFAULT 'NOT NULL means required',
		memo VARCHAR(40) DEFAULT 'REFERENCES users(id)'
	);`

	s, warnings, err := Parse(src)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	notes := s.Table("notes")
	require.NotNil(t, notes)

	status := notes.Column("status")
	assert.False(t, status.Unique)
	require.NotNil(t, status.Default)
	assert.Equal(t, "'UNIQUE'", status.Default.Value)

	note := notes.Column("note")
	assert.False(t, note.PrimaryKey)
	assert.True(t, note.Nullable)
	assert.Equal(t, "the PRIMARY KEY is id", note.Comment)

	hint := notes.Column("hint")
	assert.True(t, hint.Nullable)
	require.NotNil(t, hint.Default)
	assert.Equal(t, "'NOT NULL means required'", hint.Default.Value)

	memo := notes.Column("memo")
	assert.Nil(t, memo.Reference)
	require.NotNil(t, memo.Default)
	assert.Equal(t, "'REFERENCES users(id)'", memo.Default.Value)
}

func TestParseCommentOnStatements(t *testing.T) {
	src := `CREATE TABLE users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL
	);
	COMMENT ON TABLE "users" IS 'registered accounts';
	COMMENT ON COLUMN "users"."email" IS 'contact address; it''s required';
	COMMENT ON COLUMN users.id IS NULL;
	COMMENT ON TABLE ghosts IS 'nope';`

	s, warnings, err := Parse(src)
	require.NoError(t, err)

	users := s.Table("users")
	require.NotNil(t, users)
	assert.Equal(t, "registered accounts", users.Comment)
	assert.Equal(t, "contact address; it's required", users.Column("email").Comment)
	assert.Equal(t, "", users.Column("id").Comment)
	assert.True(t, hasWarning(warnings, `unknown table "ghosts"`))
}

func TestParseReferences(t *testing.T) {
	src := `CREATE TABLE users (id SERIAL PRIMARY KEY);
	CREATE TABLE orders (
		id SERIAL PRIMARY KEY,
		user_id INTEGER UNIQUE REFERENCES users(id) ON DELETE CASCADE ON UPDATE SET NULL
	);`

	s, _, err := Parse(src)
	require.NoError(t, err)

	col := s.Table("orders").Column("user_id")
	require.NotNil(t, col.Reference)
	assert.Equal(t, "users", col.Reference.Table)
	assert.Equal(t, "id", col.Reference.Column)
	assert.Equal(t, schema.ActionCascade, col.Reference.OnDelete)
	assert.Equal(t, schema.ActionSetNull, col.Reference.OnUpdate)
	assert.True(t, col.Unique)
}

func TestParseTableLevelPrimaryKey(t *testing.T) {
	src := `CREATE TABLE order_items (
		order_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		qty INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (order_id, product_id)
	);`

	s, warnings, err := Parse(src)
	require.NoError(t, err)

	tbl := s.Table("order_items")
	assert.True(t, tbl.Column("order_id").PrimaryKey)
	assert.True(t, tbl.Column("product_id").PrimaryKey)
	assert.False(t, tbl.Column("qty").PrimaryKey)
	assert.True(t, hasWarning(warnings, "composite primary key"))
}

func TestParseCreateIndex(t *testing.T) {
	src := `CREATE TABLE posts (id SERIAL PRIMARY KEY, author VARCHAR(100), tags JSONB);
	CREATE INDEX idx_posts_author ON posts (author DESC);
	CREATE UNIQUE INDEX idx_posts_tags ON posts USING GIN (tags) WHERE tags IS NOT NULL;`

	s, _, err := Parse(src)
	require.NoError(t, err)

	posts := s.Table("posts")
	require.Len(t, posts.Indexes, 2)

	byAuthor := posts.Index("idx_posts_author")
	require.NotNil(t, byAuthor)
	assert.Equal(t, []string{"author"}, byAuthor.Columns)
	assert.False(t, byAuthor.Unique)
	assert.Equal(t, schema.MethodBTree, byAuthor.Method)

	byTags := posts.Index("idx_posts_tags")
	require.NotNil(t, byTags)
	assert.True(t, byTags.Unique)
	assert.Equal(t, schema.MethodGIN, byTags.Method)
	assert.Equal(t, "tags IS NOT NULL", byTags.Where)
}

func TestParseQuotedIdentifiers(t *testing.T) {
	src := "CREATE TABLE `line items` (\"total price\" DECIMAL(10,2));"

	s, warnings, err := Parse(src)
	require.NoError(t, err)

	tbl := s.Table("line items")
	require.NotNil(t, tbl)
	require.NotNil(t, tbl.Column("total price"))
	assert.True(t, hasWarning(warnings, "disallowed characters"))
}

func TestParseWarnings(t *testing.T) {
	t.Run("missing varchar length defaults", func(t *testing.T) {
		s, warnings, err := Parse("CREATE TABLE t (name VARCHAR);")
		require.NoError(t, err)
		assert.Equal(t, 255, s.Table("t").Column("name").Length)
		assert.True(t, hasWarning(warnings, "no length, defaulting to VARCHAR(255)"))
	})

	t.Run("missing char length defaults to one", func(t *testing.T) {
		s, warnings, err := Parse("CREATE TABLE t (flag CHAR);")
		require.NoError(t, err)
		assert.Equal(t, 1, s.Table("t").Column("flag").Length)
		assert.True(t, hasWarning(warnings, "CHAR(1)"))
	})

	t.Run("unknown type falls back", func(t *testing.T) {
		s, warnings, err := Parse("CREATE TABLE t (shape GEOMETRY);")
		require.NoError(t, err)
		assert.Equal(t, schema.TypeVarchar, s.Table("t").Column("shape").Type)
		assert.True(t, hasWarning(warnings, "unrecognized type"))
	})

	t.Run("table constraints", func(t *testing.T) {
		src := `CREATE TABLE users (id INTEGER PRIMARY KEY);
		CREATE TABLE t (
			a INTEGER UNIQUE,
			b INTEGER,
			FOREIGN KEY (a) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (a, b) REFERENCES users(id),
			UNIQUE (a, b),
			CHECK (a > 0)
		);`
		s, warnings, err := Parse(src)
		require.NoError(t, err)

		// A single-column table-level FK lands on its column.
		ref := s.Table("t").Column("a").Reference
		require.NotNil(t, ref)
		assert.Equal(t, "users", ref.Table)
		assert.Equal(t, schema.ActionCascade, ref.OnDelete)

		assert.True(t, hasWarning(warnings, "composite FOREIGN KEY constraints are ignored"))
		assert.True(t, hasWarning(warnings, "table-level UNIQUE constraints are ignored"))
		assert.True(t, hasWarning(warnings, "ignoring table constraint"))
	})

	t.Run("unapplied statements", func(t *testing.T) {
		src := `CREATE TABLE t (a INTEGER);
		ALTER TABLE t ADD COLUMN b INTEGER;
		DROP TABLE gone;
		GRANT ALL ON t TO nobody;`
		_, warnings, err := Parse(src)
		require.NoError(t, err)
		assert.True(t, hasWarning(warnings, "ALTER TABLE statements are recognized but not applied"))
		assert.True(t, hasWarning(warnings, "DROP TABLE statements are recognized but not applied"))
		assert.True(t, hasWarning(warnings, "skipping unrecognized statement"))
	})
}

func TestParseErrorsAggregate(t *testing.T) {
	src := `CREATE TABLE a (x INTEGER REFERENCES missing1(id));
	CREATE TABLE b (y INTEGER REFERENCES missing2(id));`

	_, _, err := Parse(src)
	require.Error(t, err)

	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Len(t, pe.Problems, 2)
}

func TestParseUnbalancedSource(t *testing.T) {
	_, _, err := Parse("CREATE TABLE t (a INTEGER;")
	require.Error(t, err)

	pe, ok := err.(*ParseError)
	require.True(t, ok)
	require.Len(t, pe.Problems, 1)
	assert.Contains(t, pe.Problems[0].Message, "unbalanced parentheses")
}

func TestParseIndexOnUnknownTable(t *testing.T) {
	_, _, err := Parse("CREATE INDEX idx_x ON missing (col);")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}

func TestParseIgnoresCommentsAndWhitespace(t *testing.T) {
	pretty := `-- user accounts
	CREATE TABLE users (
		id SERIAL PRIMARY KEY, /* surrogate key */
		email VARCHAR(255) UNIQUE NOT NULL
	);`
	dense := `CREATE TABLE users (id SERIAL PRIMARY KEY, email VARCHAR(255) UNIQUE NOT NULL);`

	a, _, err := Parse(pretty)
	require.NoError(t, err)
	b, _, err := Parse(dense)
	require.NoError(t, err)

	assert.Equal(t, b, a)
}
