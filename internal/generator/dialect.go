package generator

import (
	"fmt"
	"strings"

	"github.com/koba/schemaforge/internal/schema"
)

// Dialect selects the target SQL engine's syntax: identifier quoting,
// auto-increment spelling, and constraint-drop syntax.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect normalizes a dialect name from user input.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q (expected postgres or mysql)", s)
	}
}

// DisplayName returns the engine name used in generated headers.
func (d Dialect) DisplayName() string {
	if d == Postgres {
		return "PostgreSQL"
	}
	return "MySQL"
}

// QuoteIdentifier quotes an identifier for the dialect, doubling any
// embedded quote characters.
func (d Dialect) QuoteIdentifier(name string) string {
	if d == Postgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d Dialect) quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = d.QuoteIdentifier(name)
	}
	return quoted
}

func (d Dialect) beginTransaction() string {
	if d == Postgres {
		return "BEGIN;"
	}
	return "START TRANSACTION;"
}

func (d Dialect) commitTransaction() string {
	return "COMMIT;"
}

// TypeSQL renders the column's type for the dialect. serialOK allows the
// Postgres SERIAL promotion, which is disabled for composite primary keys.
func (d Dialect) TypeSQL(col *schema.Column, serialOK bool) string {
	ts := col.TypeSpec()
	if d == Postgres {
		if col.AutoIncrement && serialOK {
			switch ts.Type {
			case schema.TypeSmallInt, schema.TypeTinyInt:
				return "SMALLSERIAL"
			case schema.TypeBigInt:
				return "BIGSERIAL"
			default:
				return "SERIAL"
			}
		}
		switch ts.Type {
		case schema.TypeTinyInt:
			return "SMALLINT"
		case schema.TypeDouble:
			return "DOUBLE PRECISION"
		case schema.TypeDateTime:
			return "TIMESTAMP"
		case schema.TypeMediumText, schema.TypeLongText:
			return "TEXT"
		case schema.TypeBlob, schema.TypeBinary, schema.TypeVarBinary:
			return "BYTEA"
		case schema.TypeArray:
			return "TEXT[]"
		}
		return ts.String()
	}

	// MySQL
	switch ts.Type {
	case schema.TypeJSONB, schema.TypeArray:
		return "JSON"
	case schema.TypeUUID:
		return "CHAR(36)"
	case schema.TypeInet:
		return "VARCHAR(45)"
	case schema.TypeTSVector:
		return "TEXT"
	case schema.TypeTimestampTZ:
		return "TIMESTAMP"
	case schema.TypeBlob:
		return "BLOB"
	}
	return ts.String()
}

// ColumnDefinition renders a full column clause for CREATE TABLE, ADD COLUMN,
// or MODIFY COLUMN. compositePK suppresses both the inline PRIMARY KEY clause
// and the Postgres serial promotion.
func (d Dialect) ColumnDefinition(col *schema.Column, compositePK bool) string {
	def := d.QuoteIdentifier(col.Name) + " " + d.TypeSQL(col, !compositePK)

	if !col.Nullable {
		def += " NOT NULL"
	}
	if col.Unique {
		def += " UNIQUE"
	}
	if col.Default != nil {
		def += " DEFAULT " + col.Default.Value
	}
	if col.AutoIncrement && d == MySQL {
		def += " AUTO_INCREMENT"
	}
	if col.PrimaryKey && !compositePK {
		def += " PRIMARY KEY"
	}
	if col.Comment != "" && d == MySQL {
		def += " COMMENT '" + escapeStringLiteral(sanitizeComment(col.Comment)) + "'"
	}
	return def
}

// CreateTable renders the statements that materialize a table: the CREATE
// TABLE itself (with inline foreign keys and composite primary key), its
// indexes, and Postgres comment statements.
func (d Dialect) CreateTable(t *schema.Table) []string {
	var parts []string
	pkCols := t.PrimaryKeyColumns()
	composite := len(pkCols) > 1

	for i := range t.Columns {
		parts = append(parts, "  "+d.ColumnDefinition(&t.Columns[i], composite))
	}
	if composite {
		parts = append(parts, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(d.quoteAll(pkCols), ", ")))
	}
	for i := range t.Columns {
		col := &t.Columns[i]
		if col.Reference != nil {
			parts = append(parts, "  "+d.foreignKeyClause(t.Name, col))
		}
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s;",
		d.QuoteIdentifier(t.Name), strings.Join(parts, ",\n"), d.tableSuffix(t))}

	for i := range t.Indexes {
		stmts = append(stmts, d.CreateIndex(t.Name, &t.Indexes[i]))
	}
	stmts = append(stmts, d.commentStatements(t)...)
	return stmts
}

func (d Dialect) tableSuffix(t *schema.Table) string {
	if d == MySQL && t.Comment != "" {
		return " COMMENT='" + escapeStringLiteral(sanitizeComment(t.Comment)) + "'"
	}
	return ""
}

// commentStatements emits COMMENT ON for Postgres; MySQL carries comments
// inline.
func (d Dialect) commentStatements(t *schema.Table) []string {
	if d != Postgres {
		return nil
	}
	var stmts []string
	if t.Comment != "" {
		stmts = append(stmts, fmt.Sprintf("COMMENT ON TABLE %s IS '%s';",
			d.QuoteIdentifier(t.Name), escapeStringLiteral(sanitizeComment(t.Comment))))
	}
	for _, col := range t.Columns {
		if col.Comment != "" {
			stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s';",
				d.QuoteIdentifier(t.Name), d.QuoteIdentifier(col.Name),
				escapeStringLiteral(sanitizeComment(col.Comment))))
		}
	}
	return stmts
}

// DropTable renders a DROP TABLE statement.
func (d Dialect) DropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s;", d.QuoteIdentifier(name))
}

// AddColumn renders an ALTER TABLE ADD COLUMN statement.
func (d Dialect) AddColumn(table string, col *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;",
		d.QuoteIdentifier(table), d.ColumnDefinition(col, false))
}

// DropColumn renders an ALTER TABLE DROP COLUMN statement.
func (d Dialect) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;",
		d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

// CreateIndex renders a CREATE INDEX statement, including access method and
// partial-index predicate where the dialect supports them.
func (d Dialect) CreateIndex(table string, idx *schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	using := ""
	if idx.Method != "" && idx.Method != schema.MethodBTree {
		if d == Postgres {
			using = fmt.Sprintf(" USING %s", idx.Method)
		}
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s%s (%s)",
		unique, d.QuoteIdentifier(idx.Name), d.QuoteIdentifier(table),
		using, strings.Join(d.quoteAll(idx.Columns), ", "))
	if idx.Where != "" && d == Postgres {
		stmt += " WHERE " + idx.Where
	}
	return stmt + ";"
}

// DropIndex renders a DROP INDEX statement; MySQL scopes it to the table.
func (d Dialect) DropIndex(table, name string) string {
	if d == Postgres {
		return fmt.Sprintf("DROP INDEX %s;", d.QuoteIdentifier(name))
	}
	return fmt.Sprintf("DROP INDEX %s ON %s;", d.QuoteIdentifier(name), d.QuoteIdentifier(table))
}

// ForeignKeyName derives the constraint name used for a column's inline
// foreign key.
func ForeignKeyName(table, column string) string {
	return "fk_" + table + "_" + column
}

func (d Dialect) foreignKeyClause(table string, col *schema.Column) string {
	ref := col.Reference
	clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		d.QuoteIdentifier(ForeignKeyName(table, col.Name)),
		d.QuoteIdentifier(col.Name),
		d.QuoteIdentifier(ref.Table),
		d.QuoteIdentifier(ref.Column))
	if ref.OnDelete != "" {
		clause += " ON DELETE " + string(ref.OnDelete)
	}
	if ref.OnUpdate != "" {
		clause += " ON UPDATE " + string(ref.OnUpdate)
	}
	return clause
}

// AddForeignKey renders an ALTER TABLE ADD CONSTRAINT for a column's foreign
// key.
func (d Dialect) AddForeignKey(table string, col *schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", d.QuoteIdentifier(table), d.foreignKeyClause(table, col))
}

// DropForeignKey renders the dialect's constraint-drop syntax.
func (d Dialect) DropForeignKey(table, constraint string) string {
	if d == Postgres {
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			d.QuoteIdentifier(table), d.QuoteIdentifier(constraint))
	}
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;",
		d.QuoteIdentifier(table), d.QuoteIdentifier(constraint))
}

// sanitizeComment strips newlines and comment-terminator sequences from
// free-text comments so they cannot inject statements into generated DDL.
func sanitizeComment(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "--", " ")
	s = strings.ReplaceAll(s, "*/", " ")
	return strings.Join(strings.Fields(s), " ")
}

func escapeStringLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
