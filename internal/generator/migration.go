// Package generator turns a schema diff into dialect-correct forward and
// reverse DDL. Statement ordering is load-bearing: foreign keys and indexes
// drop before the column work they depend on and reappear after it, and the
// down script reverses both the order and the direction of every operation.
package generator

import (
	"fmt"
	"time"

	"github.com/koba/schemaforge/internal/diff"
)

// Migration is the immutable result of generating DDL for one diff against
// one dialect.
type Migration struct {
	Label       string
	Dialect     Dialect
	GeneratedAt time.Time
	Up          []string
	Down        []string
	Warnings    []string
}

// statementBudget is the point past which a migration gets a "split this"
// warning.
const statementBudget = 100

// Generate produces the migration for a diff. A nil or empty diff yields a
// migration with headers only; it never fails.
func Generate(d *diff.Diff, dialect Dialect, label string) *Migration {
	m := &Migration{
		Label:       label,
		Dialect:     dialect,
		GeneratedAt: time.Now().UTC(),
	}

	var up, down []string
	if d.HasChanges() {
		up = upStatements(d, dialect)
		down = downStatements(d, dialect)
		m.Warnings = collectWarnings(d, len(up))
	}

	m.Up = assemble(dialect, label, m.GeneratedAt, up)
	m.Down = assemble(dialect, label+" (rollback)", m.GeneratedAt, down)
	return m
}

// assemble prefixes the fixed-format header and wraps real statements in a
// transaction. The wrapper is omitted when there is nothing to run.
func assemble(dialect Dialect, label string, at time.Time, stmts []string) []string {
	out := []string{
		fmt.Sprintf("-- Migration: %s", sanitizeComment(label)),
		fmt.Sprintf("-- Generated at: %s", at.Format(time.RFC3339)),
		fmt.Sprintf("-- Dialect: %s", dialect.DisplayName()),
		"",
	}
	if len(stmts) == 0 {
		return append(out, "-- No changes.")
	}
	out = append(out, dialect.beginTransaction())
	out = append(out, stmts...)
	out = append(out, dialect.commitTransaction())
	return out
}

func upStatements(d *diff.Diff, dialect Dialect) []string {
	var stmts []string

	for i := range d.TablesAdded {
		stmts = append(stmts, dialect.CreateTable(&d.TablesAdded[i])...)
	}
	for i := range d.TablesModified {
		stmts = append(stmts, alterForward(&d.TablesModified[i], dialect)...)
	}
	for i := range d.TablesRemoved {
		stmts = append(stmts, dialect.DropTable(d.TablesRemoved[i].Name))
	}
	return stmts
}

func downStatements(d *diff.Diff, dialect Dialect) []string {
	var stmts []string

	// Reverse of up: dropped tables come back first, modifications revert
	// in reverse table order, added tables drop last.
	for i := len(d.TablesRemoved) - 1; i >= 0; i-- {
		stmts = append(stmts, dialect.CreateTable(&d.TablesRemoved[i])...)
	}
	for i := len(d.TablesModified) - 1; i >= 0; i-- {
		stmts = append(stmts, alterReverse(&d.TablesModified[i], dialect)...)
	}
	for i := len(d.TablesAdded) - 1; i >= 0; i-- {
		stmts = append(stmts, dialect.DropTable(d.TablesAdded[i].Name))
	}
	return stmts
}

// alterForward emits the modification block for one table in the fixed
// order: drop constraints and indexes, add columns, alter columns, drop
// columns, recreate indexes, re-add constraints.
func alterForward(td *diff.TableDiff, dialect Dialect) []string {
	var stmts []string
	table := td.TableName

	// 1. Drop foreign keys whose definition is going away or changing.
	for _, col := range td.ColumnsRemoved {
		if col.Reference != nil {
			stmts = append(stmts, dialect.DropForeignKey(table, ForeignKeyName(table, col.Name)))
		}
	}
	for _, cd := range td.ColumnsModified {
		if referenceTouched(cd) && cd.Old.Reference != nil {
			stmts = append(stmts, dialect.DropForeignKey(table, ForeignKeyName(table, cd.ColumnName)))
		}
	}

	// 2. Drop removed and changed indexes.
	for _, idx := range td.IndexesRemoved {
		stmts = append(stmts, dialect.DropIndex(table, idx.Name))
	}
	for _, id := range td.IndexesModified {
		stmts = append(stmts, dialect.DropIndex(table, id.Old.Name))
	}

	// 3. Add columns.
	for i := range td.ColumnsAdded {
		stmts = append(stmts, dialect.AddColumn(table, &td.ColumnsAdded[i]))
	}

	// 4. Alter matched columns.
	for i := range td.ColumnsModified {
		stmts = append(stmts, alterColumn(table, &td.ColumnsModified[i], false, dialect)...)
	}

	// 5. Drop columns.
	for _, col := range td.ColumnsRemoved {
		stmts = append(stmts, dialect.DropColumn(table, col.Name))
	}

	// 6. Recreate indexes.
	for i := range td.IndexesAdded {
		stmts = append(stmts, dialect.CreateIndex(table, &td.IndexesAdded[i]))
	}
	for i := range td.IndexesModified {
		stmts = append(stmts, dialect.CreateIndex(table, &td.IndexesModified[i].New))
	}

	// 7. Re-add foreign keys.
	for i := range td.ColumnsAdded {
		if td.ColumnsAdded[i].Reference != nil {
			stmts = append(stmts, dialect.AddForeignKey(table, &td.ColumnsAdded[i]))
		}
	}
	for i := range td.ColumnsModified {
		cd := &td.ColumnsModified[i]
		if referenceTouched(*cd) && cd.New.Reference != nil {
			stmts = append(stmts, dialect.AddForeignKey(table, &cd.New))
		}
	}

	return stmts
}

// alterReverse mirrors alterForward with direction and order flipped, so
// that down(up(schema)) is a structural identity.
func alterReverse(td *diff.TableDiff, dialect Dialect) []string {
	var stmts []string
	table := td.TableName

	for i := range td.ColumnsModified {
		cd := &td.ColumnsModified[i]
		if referenceTouched(*cd) && cd.New.Reference != nil {
			stmts = append(stmts, dialect.DropForeignKey(table, ForeignKeyName(table, cd.ColumnName)))
		}
	}
	for i := range td.ColumnsAdded {
		if td.ColumnsAdded[i].Reference != nil {
			stmts = append(stmts, dialect.DropForeignKey(table, ForeignKeyName(table, td.ColumnsAdded[i].Name)))
		}
	}

	for i := range td.IndexesAdded {
		stmts = append(stmts, dialect.DropIndex(table, td.IndexesAdded[i].Name))
	}
	for i := range td.IndexesModified {
		stmts = append(stmts, dialect.DropIndex(table, td.IndexesModified[i].New.Name))
	}

	for i := range td.ColumnsRemoved {
		stmts = append(stmts, dialect.AddColumn(table, &td.ColumnsRemoved[i]))
	}
	for i := range td.ColumnsModified {
		stmts = append(stmts, alterColumn(table, &td.ColumnsModified[i], true, dialect)...)
	}
	for i := range td.ColumnsAdded {
		stmts = append(stmts, dialect.DropColumn(table, td.ColumnsAdded[i].Name))
	}

	for i := range td.IndexesModified {
		stmts = append(stmts, dialect.CreateIndex(table, &td.IndexesModified[i].Old))
	}
	for i := range td.IndexesRemoved {
		stmts = append(stmts, dialect.CreateIndex(table, &td.IndexesRemoved[i]))
	}

	for i := range td.ColumnsModified {
		cd := &td.ColumnsModified[i]
		if referenceTouched(*cd) && cd.Old.Reference != nil {
			stmts = append(stmts, dialect.AddForeignKey(table, &cd.Old))
		}
	}
	for i := range td.ColumnsRemoved {
		if td.ColumnsRemoved[i].Reference != nil {
			stmts = append(stmts, dialect.AddForeignKey(table, &td.ColumnsRemoved[i]))
		}
	}

	return stmts
}

// alterColumn renders the ALTER statements for one matched column. reverse
// swaps the direction, turning the change back into its old state.
func alterColumn(table string, cd *diff.ColumnDiff, reverse bool, dialect Dialect) []string {
	target := &cd.New
	if reverse {
		target = &cd.Old
	}

	if dialect == MySQL {
		// MySQL restates the whole definition in one MODIFY COLUMN.
		if !onlyReferenceChanges(cd.Changes) {
			return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
				dialect.QuoteIdentifier(table), dialect.ColumnDefinition(target, false))}
		}
		return nil
	}

	var stmts []string
	qt := dialect.QuoteIdentifier(table)
	qc := dialect.QuoteIdentifier(cd.ColumnName)

	for _, change := range cd.Changes {
		switch c := change.(type) {
		case diff.TypeChanged:
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;",
				qt, qc, dialect.TypeSQL(target, false)))
		case diff.NullableChanged:
			nullable := c.New
			if reverse {
				nullable = c.Old
			}
			if nullable {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", qt, qc))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", qt, qc))
			}
		case diff.DefaultChanged:
			def := target.Default
			if def == nil {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", qt, qc))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", qt, qc, def.Value))
			}
		case diff.UniqueChanged:
			unique := c.New
			if reverse {
				unique = c.Old
			}
			constraint := dialect.QuoteIdentifier("uq_" + table + "_" + cd.ColumnName)
			if unique {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);", qt, constraint, qc))
			} else {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", qt, constraint))
			}
		case diff.CommentChanged:
			comment := c.New
			if reverse {
				comment = c.Old
			}
			stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s';",
				qt, qc, escapeStringLiteral(sanitizeComment(comment))))
		}
		// Primary-key membership, auto-increment, and reference changes
		// are handled elsewhere or surfaced as warnings.
	}
	return stmts
}

func referenceTouched(cd diff.ColumnDiff) bool {
	for _, change := range cd.Changes {
		switch change.(type) {
		case diff.ReferenceChanged, diff.ReferenceActionsChanged:
			return true
		}
	}
	return false
}

func onlyReferenceChanges(changes []diff.ColumnChange) bool {
	for _, change := range changes {
		switch change.(type) {
		case diff.ReferenceChanged, diff.ReferenceActionsChanged:
		default:
			return false
		}
	}
	return true
}
