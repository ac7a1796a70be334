// Package schema holds the canonical in-memory representation of a database
// schema. Every other component (validator, parser, comparator, migration
// generator, introspectors, version store) operates on these values exclusively.
package schema

import (
	"strconv"
	"strings"
)

// Reference describes an inline foreign key from a column to a target column.
type Reference struct {
	Table    string        `json:"table"`
	Column   string        `json:"column"`
	OnDelete CascadeAction `json:"on_delete,omitempty"`
	OnUpdate CascadeAction `json:"on_update,omitempty"`
}

// Default describes a column default value: either a literal or a function
// call such as NOW().
type Default struct {
	Value      string `json:"value"`
	IsFunction bool   `json:"is_function,omitempty"`
}

// Column represents a database column.
type Column struct {
	Name          string     `json:"name"`
	Type          ColumnType `json:"type"`
	Length        int        `json:"length,omitempty"`
	Precision     int        `json:"precision,omitempty"`
	Scale         int        `json:"scale,omitempty"`
	Nullable      bool       `json:"nullable"`
	Unique        bool       `json:"unique,omitempty"`
	PrimaryKey    bool       `json:"primary_key,omitempty"`
	AutoIncrement bool       `json:"auto_increment,omitempty"`
	Default       *Default   `json:"default,omitempty"`
	Comment       string     `json:"comment,omitempty"`
	Reference     *Reference `json:"reference,omitempty"`
}

// Index represents a database index. Column order is significant: it
// determines left-prefix usability.
type Index struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Method  IndexMethod `json:"method,omitempty"`
	Unique  bool        `json:"unique,omitempty"`
	Where   string      `json:"where,omitempty"`
	Comment string      `json:"comment,omitempty"`
}

// Position is a 2-D canvas coordinate. The compiler never interprets it; it
// is carried through unchanged so a visual editor round-trips its layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Table represents a table with its columns and indexes.
type Table struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	Indexes  []Index  `json:"indexes,omitempty"`
	Position Position `json:"position,omitempty"`
	Comment  string   `json:"comment,omitempty"`
}

// Schema represents a complete database schema.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Tables      []Table `json:"tables"`
}

// Table looks up a table by name, case-insensitively.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column looks up a column by name, case-insensitively.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// Index looks up an index by name, case-insensitively.
func (t *Table) Index(name string) *Index {
	for i := range t.Indexes {
		if strings.EqualFold(t.Indexes[i].Name, name) {
			return &t.Indexes[i]
		}
	}
	return nil
}

// PrimaryKeyColumns returns the names of all primary-key columns in
// declaration order.
func (t *Table) PrimaryKeyColumns() []string {
	var cols []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// AutoIncrementColumn returns the auto-increment column, if any.
func (t *Table) AutoIncrementColumn() *Column {
	for i := range t.Columns {
		if t.Columns[i].AutoIncrement {
			return &t.Columns[i]
		}
	}
	return nil
}

// TypeSpec is the logical type of a column together with its size arguments.
type TypeSpec struct {
	Type      ColumnType
	Length    int
	Precision int
	Scale     int
}

// TypeSpec returns the column's logical type with its size arguments.
func (c *Column) TypeSpec() TypeSpec {
	return TypeSpec{Type: c.Type, Length: c.Length, Precision: c.Precision, Scale: c.Scale}
}

// String renders the spec the way it would appear in DDL, e.g. VARCHAR(255)
// or DECIMAL(10,2).
func (ts TypeSpec) String() string {
	s := string(ts.Type)
	switch {
	case ts.Precision > 0 && ts.Scale > 0:
		return s + "(" + strconv.Itoa(ts.Precision) + "," + strconv.Itoa(ts.Scale) + ")"
	case ts.Precision > 0:
		return s + "(" + strconv.Itoa(ts.Precision) + ")"
	case ts.Length > 0:
		return s + "(" + strconv.Itoa(ts.Length) + ")"
	}
	return s
}

// Clone returns a deep copy. Components hand schemas to each other by copy so
// that no component ever mutates a value it does not own.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{Name: s.Name, Description: s.Description}
	out.Tables = make([]Table, len(s.Tables))
	for i := range s.Tables {
		out.Tables[i] = s.Tables[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := t
	out.Columns = make([]Column, len(t.Columns))
	for i := range t.Columns {
		out.Columns[i] = t.Columns[i].Clone()
	}
	if t.Indexes != nil {
		out.Indexes = make([]Index, len(t.Indexes))
		for i := range t.Indexes {
			out.Indexes[i] = t.Indexes[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	out := c
	if c.Default != nil {
		d := *c.Default
		out.Default = &d
	}
	if c.Reference != nil {
		r := *c.Reference
		out.Reference = &r
	}
	return out
}

// Clone returns a deep copy of the index.
func (i Index) Clone() Index {
	out := i
	out.Columns = append([]string(nil), i.Columns...)
	return out
}
