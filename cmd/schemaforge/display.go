package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/koba/schemaforge/internal/diff"
	"github.com/koba/schemaforge/internal/store"
)

// displayDiff renders a structural diff as a change table.
func displayDiff(d *diff.Diff) {
	if !d.HasChanges() {
		fmt.Println("No changes.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Change", "Table", "Object", "Detail"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)

	for _, t := range d.TablesAdded {
		table.Append([]string{"add table", t.Name, "", fmt.Sprintf("%d column(s)", len(t.Columns))})
	}
	for _, t := range d.TablesRemoved {
		table.Append([]string{"drop table", t.Name, "", fmt.Sprintf("%d column(s)", len(t.Columns))})
	}
	for _, td := range d.TablesModified {
		for _, c := range td.ColumnsAdded {
			table.Append([]string{"add column", td.TableName, c.Name, c.TypeSpec().String()})
		}
		for _, c := range td.ColumnsRemoved {
			table.Append([]string{"drop column", td.TableName, c.Name, c.TypeSpec().String()})
		}
		for _, cd := range td.ColumnsModified {
			for _, change := range cd.Changes {
				table.Append([]string{"alter column", td.TableName, cd.ColumnName, change.Describe()})
			}
		}
		for _, idx := range td.IndexesAdded {
			table.Append([]string{"add index", td.TableName, idx.Name, "(" + strings.Join(idx.Columns, ", ") + ")"})
		}
		for _, idx := range td.IndexesRemoved {
			table.Append([]string{"drop index", td.TableName, idx.Name, "(" + strings.Join(idx.Columns, ", ") + ")"})
		}
		for _, id := range td.IndexesModified {
			for _, change := range id.Changes {
				table.Append([]string{"alter index", td.TableName, id.IndexName, change.Describe()})
			}
		}
	}

	table.Render()
}

// displayVersions renders the version store listing.
func displayVersions(versions []store.Version) {
	if len(versions) == 0 {
		fmt.Println("No saved versions.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Tag", "Created", "Description"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")

	for _, v := range versions {
		table.Append([]string{
			fmt.Sprintf("%d", v.ID),
			v.Tag,
			v.CreatedAt.Format("2006-01-02 15:04:05"),
			v.Description,
		})
	}

	table.Render()
}
