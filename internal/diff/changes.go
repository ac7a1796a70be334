package diff

import (
	"fmt"

	"github.com/koba/schemaforge/internal/schema"
)

// ColumnChange is one attribute-level change on a matched column. The set of
// implementations is closed; switching over them is exhaustive.
type ColumnChange interface {
	isColumnChange()
	// Describe renders the change for human-readable output; it is purely
	// a presentation concern.
	Describe() string
}

// IndexChange is one attribute-level change on a matched index.
type IndexChange interface {
	isIndexChange()
	Describe() string
}

// TypeChanged covers the logical type and its size arguments as one change:
// a length move without a type move still lands here.
type TypeChanged struct {
	Old, New schema.TypeSpec
}

// PrimaryKeyChanged records primary-key membership flipping.
type PrimaryKeyChanged struct {
	Old, New bool
}

// NullableChanged records nullability flipping.
type NullableChanged struct {
	Old, New bool
}

// DefaultChanged records the default value moving, appearing, or vanishing.
type DefaultChanged struct {
	Old, New *schema.Default
}

// UniqueChanged records the uniqueness flag flipping.
type UniqueChanged struct {
	Old, New bool
}

// AutoIncrementChanged records the auto-increment flag flipping.
type AutoIncrementChanged struct {
	Old, New bool
}

// ReferenceChanged records the foreign-key target moving, appearing, or
// vanishing.
type ReferenceChanged struct {
	Old, New *schema.Reference
}

// ReferenceActionsChanged records ON DELETE / ON UPDATE moving while the
// target stays the same.
type ReferenceActionsChanged struct {
	OldDelete, NewDelete schema.CascadeAction
	OldUpdate, NewUpdate schema.CascadeAction
}

// CommentChanged records the free-text comment moving.
type CommentChanged struct {
	Old, New string
}

func (TypeChanged) isColumnChange()             {}
func (PrimaryKeyChanged) isColumnChange()       {}
func (NullableChanged) isColumnChange()         {}
func (DefaultChanged) isColumnChange()          {}
func (UniqueChanged) isColumnChange()           {}
func (AutoIncrementChanged) isColumnChange()    {}
func (ReferenceChanged) isColumnChange()        {}
func (ReferenceActionsChanged) isColumnChange() {}
func (CommentChanged) isColumnChange()          {}

func (c TypeChanged) Describe() string {
	return fmt.Sprintf("type: %s -> %s", c.Old, c.New)
}

func (c PrimaryKeyChanged) Describe() string {
	return fmt.Sprintf("primary key: %s", onOff(c.New))
}

func (c NullableChanged) Describe() string {
	if c.New {
		return "nullable: NOT NULL -> NULL"
	}
	return "nullable: NULL -> NOT NULL"
}

func (c DefaultChanged) Describe() string {
	return fmt.Sprintf("default: %s -> %s", describeDefault(c.Old), describeDefault(c.New))
}

func (c UniqueChanged) Describe() string {
	return fmt.Sprintf("unique: %s", onOff(c.New))
}

func (c AutoIncrementChanged) Describe() string {
	return fmt.Sprintf("auto-increment: %s", onOff(c.New))
}

func (c ReferenceChanged) Describe() string {
	return fmt.Sprintf("reference: %s -> %s", describeReference(c.Old), describeReference(c.New))
}

func (c ReferenceActionsChanged) Describe() string {
	return fmt.Sprintf("reference actions: ON DELETE %s -> %s, ON UPDATE %s -> %s",
		c.OldDelete, c.NewDelete, c.OldUpdate, c.NewUpdate)
}

func (c CommentChanged) Describe() string {
	return fmt.Sprintf("comment: %q -> %q", c.Old, c.New)
}

// IndexColumnsChanged records the ordered column list moving.
type IndexColumnsChanged struct {
	Old, New []string
}

// IndexMethodChanged records the access method moving.
type IndexMethodChanged struct {
	Old, New schema.IndexMethod
}

// IndexUniqueChanged records the uniqueness flag flipping.
type IndexUniqueChanged struct {
	Old, New bool
}

// IndexPredicateChanged records the partial-index predicate moving.
type IndexPredicateChanged struct {
	Old, New string
}

func (IndexColumnsChanged) isIndexChange()   {}
func (IndexMethodChanged) isIndexChange()    {}
func (IndexUniqueChanged) isIndexChange()    {}
func (IndexPredicateChanged) isIndexChange() {}

func (c IndexColumnsChanged) Describe() string {
	return fmt.Sprintf("columns: (%s) -> (%s)", joinComma(c.Old), joinComma(c.New))
}

func (c IndexMethodChanged) Describe() string {
	return fmt.Sprintf("method: %s -> %s", c.Old, c.New)
}

func (c IndexUniqueChanged) Describe() string {
	return fmt.Sprintf("unique: %s", onOff(c.New))
}

func (c IndexPredicateChanged) Describe() string {
	return fmt.Sprintf("predicate: %q -> %q", c.Old, c.New)
}

func onOff(b bool) string {
	if b {
		return "added"
	}
	return "removed"
}

func describeDefault(d *schema.Default) string {
	if d == nil {
		return "(none)"
	}
	return d.Value
}

func describeReference(r *schema.Reference) string {
	if r == nil {
		return "(none)"
	}
	return r.Table + "." + r.Column
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
