// Package diff computes the structural delta between two canonical schema
// values. Comparison is pure and total: malformed or absent inputs degrade to
// an empty diff rather than failing.
//
// Tables and columns are matched by name, case-sensitively. A rename is
// therefore observed as a removal plus an addition; the migration generator
// flags likely renames with a warning instead.
package diff

import "github.com/koba/schemaforge/internal/schema"

// Diff is the full structural delta between two schemas.
type Diff struct {
	TablesAdded    []schema.Table
	TablesRemoved  []schema.Table
	TablesModified []TableDiff
}

// HasChanges reports whether at least one table was added, removed, or
// modified.
func (d *Diff) HasChanges() bool {
	if d == nil {
		return false
	}
	return len(d.TablesAdded) > 0 || len(d.TablesRemoved) > 0 || len(d.TablesModified) > 0
}

// TableDiff records every change within one matched table. A table appears
// here if and only if it has at least one column or index change.
type TableDiff struct {
	TableName       string
	ColumnsAdded    []schema.Column
	ColumnsRemoved  []schema.Column
	ColumnsModified []ColumnDiff
	IndexesAdded    []schema.Index
	IndexesRemoved  []schema.Index
	IndexesModified []IndexDiff
}

func (td *TableDiff) empty() bool {
	return len(td.ColumnsAdded) == 0 && len(td.ColumnsRemoved) == 0 && len(td.ColumnsModified) == 0 &&
		len(td.IndexesAdded) == 0 && len(td.IndexesRemoved) == 0 && len(td.IndexesModified) == 0
}

// ColumnDiff is a matched column with its attribute-level changes.
type ColumnDiff struct {
	ColumnName string
	Old        schema.Column
	New        schema.Column
	Changes    []ColumnChange
}

// IndexDiff is a matched index with its attribute-level changes.
type IndexDiff struct {
	IndexName string
	Old       schema.Index
	New       schema.Index
	Changes   []IndexChange
}

// Compare diffs two schemas. Either side may be nil, which compares as a
// schema with no tables.
func Compare(old, new *schema.Schema) *Diff {
	d := &Diff{}
	var oldTables, newTables []schema.Table
	if old != nil {
		oldTables = old.Tables
	}
	if new != nil {
		newTables = new.Tables
	}

	oldByName := make(map[string]*schema.Table, len(oldTables))
	for i := range oldTables {
		oldByName[oldTables[i].Name] = &oldTables[i]
	}
	newByName := make(map[string]*schema.Table, len(newTables))
	for i := range newTables {
		newByName[newTables[i].Name] = &newTables[i]
	}

	// Iterate the slices, not the maps, so output order is deterministic.
	for i := range newTables {
		nt := &newTables[i]
		ot, ok := oldByName[nt.Name]
		if !ok {
			d.TablesAdded = append(d.TablesAdded, nt.Clone())
			continue
		}
		td := compareTable(ot, nt)
		if !td.empty() {
			d.TablesModified = append(d.TablesModified, td)
		}
	}
	for i := range oldTables {
		ot := &oldTables[i]
		if _, ok := newByName[ot.Name]; !ok {
			d.TablesRemoved = append(d.TablesRemoved, ot.Clone())
		}
	}

	return d
}

func compareTable(old, new *schema.Table) TableDiff {
	td := TableDiff{TableName: new.Name}

	oldCols := make(map[string]*schema.Column, len(old.Columns))
	for i := range old.Columns {
		oldCols[old.Columns[i].Name] = &old.Columns[i]
	}
	newCols := make(map[string]*schema.Column, len(new.Columns))
	for i := range new.Columns {
		newCols[new.Columns[i].Name] = &new.Columns[i]
	}

	for i := range new.Columns {
		nc := &new.Columns[i]
		oc, ok := oldCols[nc.Name]
		if !ok {
			td.ColumnsAdded = append(td.ColumnsAdded, nc.Clone())
			continue
		}
		changes := compareColumn(oc, nc)
		if len(changes) > 0 {
			td.ColumnsModified = append(td.ColumnsModified, ColumnDiff{
				ColumnName: nc.Name,
				Old:        oc.Clone(),
				New:        nc.Clone(),
				Changes:    changes,
			})
		}
	}
	for i := range old.Columns {
		oc := &old.Columns[i]
		if _, ok := newCols[oc.Name]; !ok {
			td.ColumnsRemoved = append(td.ColumnsRemoved, oc.Clone())
		}
	}

	oldIdx := make(map[string]*schema.Index, len(old.Indexes))
	for i := range old.Indexes {
		oldIdx[old.Indexes[i].Name] = &old.Indexes[i]
	}
	newIdx := make(map[string]*schema.Index, len(new.Indexes))
	for i := range new.Indexes {
		newIdx[new.Indexes[i].Name] = &new.Indexes[i]
	}

	for i := range new.Indexes {
		ni := &new.Indexes[i]
		oi, ok := oldIdx[ni.Name]
		if !ok {
			td.IndexesAdded = append(td.IndexesAdded, ni.Clone())
			continue
		}
		changes := compareIndex(oi, ni)
		if len(changes) > 0 {
			td.IndexesModified = append(td.IndexesModified, IndexDiff{
				IndexName: ni.Name,
				Old:       oi.Clone(),
				New:       ni.Clone(),
				Changes:   changes,
			})
		}
	}
	for i := range old.Indexes {
		oi := &old.Indexes[i]
		if _, ok := newIdx[oi.Name]; !ok {
			td.IndexesRemoved = append(td.IndexesRemoved, oi.Clone())
		}
	}

	return td
}

func compareColumn(old, new *schema.Column) []ColumnChange {
	var changes []ColumnChange

	// Type and size arguments merge into one change when both move.
	if old.TypeSpec() != new.TypeSpec() {
		changes = append(changes, TypeChanged{Old: old.TypeSpec(), New: new.TypeSpec()})
	}
	if old.PrimaryKey != new.PrimaryKey {
		changes = append(changes, PrimaryKeyChanged{Old: old.PrimaryKey, New: new.PrimaryKey})
	}
	if old.Nullable != new.Nullable {
		changes = append(changes, NullableChanged{Old: old.Nullable, New: new.Nullable})
	}
	if !defaultsEqual(old.Default, new.Default) {
		changes = append(changes, DefaultChanged{Old: cloneDefault(old.Default), New: cloneDefault(new.Default)})
	}
	if old.Unique != new.Unique {
		changes = append(changes, UniqueChanged{Old: old.Unique, New: new.Unique})
	}
	if old.AutoIncrement != new.AutoIncrement {
		changes = append(changes, AutoIncrementChanged{Old: old.AutoIncrement, New: new.AutoIncrement})
	}
	changes = append(changes, compareReference(old.Reference, new.Reference)...)
	if old.Comment != new.Comment {
		changes = append(changes, CommentChanged{Old: old.Comment, New: new.Comment})
	}

	return changes
}

// compareReference records a target change and an action change
// independently: cascade actions can move while the target stays put.
func compareReference(old, new *schema.Reference) []ColumnChange {
	var changes []ColumnChange
	switch {
	case old == nil && new == nil:
	case old == nil || new == nil:
		changes = append(changes, ReferenceChanged{Old: cloneReference(old), New: cloneReference(new)})
	default:
		if old.Table != new.Table || old.Column != new.Column {
			changes = append(changes, ReferenceChanged{Old: cloneReference(old), New: cloneReference(new)})
		}
		if old.OnDelete != new.OnDelete || old.OnUpdate != new.OnUpdate {
			changes = append(changes, ReferenceActionsChanged{
				OldDelete: old.OnDelete, NewDelete: new.OnDelete,
				OldUpdate: old.OnUpdate, NewUpdate: new.OnUpdate,
			})
		}
	}
	return changes
}

func compareIndex(old, new *schema.Index) []IndexChange {
	var changes []IndexChange
	if !stringSlicesEqual(old.Columns, new.Columns) {
		changes = append(changes, IndexColumnsChanged{
			Old: append([]string(nil), old.Columns...),
			New: append([]string(nil), new.Columns...),
		})
	}
	if old.Method != new.Method {
		changes = append(changes, IndexMethodChanged{Old: old.Method, New: new.Method})
	}
	if old.Unique != new.Unique {
		changes = append(changes, IndexUniqueChanged{Old: old.Unique, New: new.Unique})
	}
	if old.Where != new.Where {
		changes = append(changes, IndexPredicateChanged{Old: old.Where, New: new.Where})
	}
	return changes
}

func defaultsEqual(a, b *schema.Default) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func cloneDefault(d *schema.Default) *schema.Default {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}

func cloneReference(r *schema.Reference) *schema.Reference {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
