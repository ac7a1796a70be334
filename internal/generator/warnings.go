package generator

import (
	"fmt"

	"github.com/koba/schemaforge/internal/diff"
	"github.com/koba/schemaforge/internal/schema"
)

// collectWarnings inspects a diff for operations that are lossy, likely to
// fail against existing rows, or disruptive, and explains each one in plain
// language. Warnings never block generation.
func collectWarnings(d *diff.Diff, statementCount int) []string {
	var warnings []string
	warnf := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	for _, t := range d.TablesRemoved {
		warnf("dropping table %q permanently deletes its data", t.Name)
	}
	warnings = append(warnings, tableRenameHints(d)...)

	for _, td := range d.TablesModified {
		for _, col := range td.ColumnsRemoved {
			warnf("dropping column %q.%q permanently deletes its data", td.TableName, col.Name)
		}
		warnings = append(warnings, columnRenameHints(td)...)

		for _, col := range td.ColumnsAdded {
			if !col.Nullable && col.Default == nil && !col.AutoIncrement {
				warnf("new NOT NULL column %q.%q has no default and will fail if the table has rows", td.TableName, col.Name)
			}
		}

		for _, cd := range td.ColumnsModified {
			for _, change := range cd.Changes {
				switch c := change.(type) {
				case diff.TypeChanged:
					if cd.Old.PrimaryKey || cd.New.PrimaryKey {
						warnf("changing the type of primary-key column %q.%q (%s -> %s) can break referencing rows", td.TableName, cd.ColumnName, c.Old, c.New)
					} else {
						warnf("changing the type of column %q.%q (%s -> %s) may require data conversion", td.TableName, cd.ColumnName, c.Old, c.New)
					}
				case diff.NullableChanged:
					if !c.New && cd.New.Default == nil {
						warnf("making column %q.%q NOT NULL without a default will fail if existing rows hold NULL", td.TableName, cd.ColumnName)
					}
				case diff.PrimaryKeyChanged:
					warnf("primary-key membership of %q.%q changed; adjust the table's primary key constraint manually", td.TableName, cd.ColumnName)
				case diff.AutoIncrementChanged:
					warnf("auto-increment change on %q.%q may require manual sequence handling", td.TableName, cd.ColumnName)
				}
			}
		}

		for _, id := range td.IndexesModified {
			warnf("index %q on %q is dropped and recreated, which locks the table while it builds", id.IndexName, td.TableName)
		}
	}

	if statementCount > statementBudget {
		warnf("migration contains %d statements; consider splitting it into smaller steps", statementCount)
	}

	return warnings
}

// tableRenameHints pairs dropped and added tables that share a column
// layout: almost always a rename the comparator cannot see.
func tableRenameHints(d *diff.Diff) []string {
	var hints []string
	for i := range d.TablesRemoved {
		for j := range d.TablesAdded {
			if sameColumnShape(&d.TablesRemoved[i], &d.TablesAdded[j]) {
				hints = append(hints, fmt.Sprintf("table %q dropped and %q added with the same columns; if this is a rename, write it by hand to keep the data",
					d.TablesRemoved[i].Name, d.TablesAdded[j].Name))
			}
		}
	}
	return hints
}

func columnRenameHints(td diff.TableDiff) []string {
	var hints []string
	for _, removed := range td.ColumnsRemoved {
		for _, added := range td.ColumnsAdded {
			if removed.TypeSpec() == added.TypeSpec() {
				hints = append(hints, fmt.Sprintf("column %q.%q dropped and %q added with the same type; if this is a rename, write it by hand to keep the data",
					td.TableName, removed.Name, added.Name))
			}
		}
	}
	return hints
}

func sameColumnShape(a, b *schema.Table) bool {
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		if a.Columns[i].Name != b.Columns[i].Name || a.Columns[i].TypeSpec() != b.Columns[i].TypeSpec() {
			return false
		}
	}
	return true
}
