// Package export renders a canonical schema into exchange formats: full DDL
// for either dialect, and compact text or markdown summaries.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/koba/schemaforge/internal/generator"
	"github.com/koba/schemaforge/internal/schema"
)

// DDL renders the whole schema as CREATE TABLE and CREATE INDEX statements
// for the dialect. Tables appear in schema order; re-parsing the output
// yields an equal schema.
func DDL(s *schema.Schema, dialect generator.Dialect) string {
	if s == nil {
		return ""
	}
	var blocks []string
	for i := range s.Tables {
		blocks = append(blocks, strings.Join(dialect.CreateTable(&s.Tables[i]), "\n"))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// Text writes a compact plain-text rendering of the schema.
func Text(w io.Writer, s *schema.Schema) error {
	for i, table := range s.Tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := textTable(w, table); err != nil {
			return err
		}
	}
	return nil
}

func textTable(w io.Writer, table schema.Table) error {
	pk := ""
	if cols := table.PrimaryKeyColumns(); len(cols) > 0 {
		pk = fmt.Sprintf(" (PK: %s)", strings.Join(cols, ", "))
	}
	if _, err := fmt.Fprintf(w, "TABLE %s%s\n", table.Name, pk); err != nil {
		return err
	}

	for _, col := range table.Columns {
		if _, err := fmt.Fprintf(w, "  %s\n", textColumn(col)); err != nil {
			return err
		}
	}

	if len(table.Indexes) > 0 {
		if _, err := fmt.Fprintln(w, "  INDEXES:"); err != nil {
			return err
		}
		for _, idx := range table.Indexes {
			line := fmt.Sprintf("    %s (%s)", idx.Name, strings.Join(idx.Columns, ", "))
			if idx.Unique {
				line += " UNIQUE"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func textColumn(col schema.Column) string {
	parts := []string{col.Name, col.TypeSpec().String()}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTOINC")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT "+col.Default.Value)
	}
	if col.Reference != nil {
		parts = append(parts, fmt.Sprintf("-> %s.%s", col.Reference.Table, col.Reference.Column))
	}
	return strings.Join(parts, " ")
}

// Markdown writes the schema as a markdown document with one table section
// per database table.
func Markdown(w io.Writer, s *schema.Schema) error {
	title := s.Name
	if title == "" {
		title = "Schema"
	}
	if _, err := fmt.Fprintf(w, "# %s\n", title); err != nil {
		return err
	}
	if s.Description != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", s.Description); err != nil {
			return err
		}
	}

	for _, table := range s.Tables {
		if _, err := fmt.Fprintf(w, "\n## %s\n\n", table.Name); err != nil {
			return err
		}
		if table.Comment != "" {
			if _, err := fmt.Fprintf(w, "%s\n\n", table.Comment); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, "| Column | Type | Nullable | Attributes |"); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "|--------|------|----------|------------|"); err != nil {
			return err
		}
		for _, col := range table.Columns {
			nullable := "yes"
			if !col.Nullable {
				nullable = "no"
			}
			if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				col.Name, col.TypeSpec(), nullable, markdownAttrs(col)); err != nil {
				return err
			}
		}
	}
	return nil
}

func markdownAttrs(col schema.Column) string {
	var attrs []string
	if col.PrimaryKey {
		attrs = append(attrs, "PK")
	}
	if col.Unique {
		attrs = append(attrs, "unique")
	}
	if col.AutoIncrement {
		attrs = append(attrs, "auto-increment")
	}
	if col.Default != nil {
		attrs = append(attrs, "default "+col.Default.Value)
	}
	if col.Reference != nil {
		attrs = append(attrs, fmt.Sprintf("FK to %s.%s", col.Reference.Table, col.Reference.Column))
	}
	if len(attrs) == 0 {
		return "-"
	}
	return strings.Join(attrs, ", ")
}
