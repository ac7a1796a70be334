// Package validate runs referential- and structural-integrity checks over a
// canonical schema value. The DDL parser rejects input whose validation
// errors are non-empty; callers can also lint a schema standalone before
// exporting it.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koba/schemaforge/internal/schema"
)

// Result holds the outcome of a validation pass. Errors block acceptance of
// the schema; warnings are advisory.
type Result struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the schema passed without blocking errors.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

func (r *Result) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks a schema and returns every error and warning found. It
// never fails; a nil schema validates clean.
func Validate(s *schema.Schema) Result {
	var res Result
	if s == nil {
		return res
	}

	checkTableNames(s, &res)
	for i := range s.Tables {
		checkTable(s, &s.Tables[i], &res)
	}
	checkIndexNames(s, &res)
	checkForeignKeys(s, &res)
	checkReferenceCycles(s, &res)

	return res
}

func checkTableNames(s *schema.Schema, res *Result) {
	seen := make(map[string]string, len(s.Tables))
	for _, t := range s.Tables {
		lower := strings.ToLower(t.Name)
		if first, dup := seen[lower]; dup {
			res.errorf("duplicate table name %q (already declared as %q)", t.Name, first)
		} else {
			seen[lower] = t.Name
		}
		checkIdentifier("table", t.Name, res)
	}
}

func checkTable(s *schema.Schema, t *schema.Table, res *Result) {
	seen := make(map[string]struct{}, len(t.Columns))
	autoIncrement := 0
	primaryKeys := 0

	for i := range t.Columns {
		col := &t.Columns[i]
		lower := strings.ToLower(col.Name)
		if _, dup := seen[lower]; dup {
			res.errorf("table %q: duplicate column name %q", t.Name, col.Name)
		}
		seen[lower] = struct{}{}
		checkIdentifier(fmt.Sprintf("table %q: column", t.Name), col.Name, res)

		if col.AutoIncrement {
			autoIncrement++
			if !col.Type.IsInteger() {
				res.warnf("table %q: auto-increment column %q has non-integer type %s", t.Name, col.Name, col.Type)
			}
		}
		if col.PrimaryKey {
			primaryKeys++
		}
		if col.Type.HasPrecision() && col.Scale > col.Precision {
			res.warnf("table %q: column %q has scale %d larger than precision %d", t.Name, col.Name, col.Scale, col.Precision)
		}
	}

	if autoIncrement > 1 {
		res.errorf("table %q: more than one auto-increment column (%d found)", t.Name, autoIncrement)
	}
	if primaryKeys > 1 {
		res.warnf("table %q: composite primary key spans %d columns", t.Name, primaryKeys)
		if autoIncrement > 0 {
			res.errorf("table %q: auto-increment column cannot be combined with a composite primary key", t.Name)
		}
	}

	for _, idx := range t.Indexes {
		checkIndex(t, idx, res)
	}
}

func checkIndex(t *schema.Table, idx schema.Index, res *Result) {
	if len(idx.Columns) == 0 {
		res.errorf("table %q: index %q has no columns", t.Name, idx.Name)
		return
	}
	seen := make(map[string]struct{}, len(idx.Columns))
	for _, name := range idx.Columns {
		lower := strings.ToLower(name)
		if _, dup := seen[lower]; dup {
			res.errorf("table %q: index %q lists column %q more than once", t.Name, idx.Name, name)
		}
		seen[lower] = struct{}{}
		if t.Column(name) == nil {
			res.errorf("table %q: index %q references unknown column %q", t.Name, idx.Name, name)
		}
	}
}

// checkIndexNames enforces schema-wide uniqueness of index names: most
// engines share one namespace for indexes regardless of owning table.
func checkIndexNames(s *schema.Schema, res *Result) {
	owner := make(map[string]string)
	for _, t := range s.Tables {
		for _, idx := range t.Indexes {
			lower := strings.ToLower(idx.Name)
			if prev, dup := owner[lower]; dup {
				res.errorf("duplicate index name %q (used on tables %q and %q)", idx.Name, prev, t.Name)
			} else {
				owner[lower] = t.Name
			}
		}
	}
}

func checkForeignKeys(s *schema.Schema, res *Result) {
	for _, t := range s.Tables {
		for _, col := range t.Columns {
			ref := col.Reference
			if ref == nil {
				continue
			}

			target := s.Table(ref.Table)
			if target == nil {
				res.errorf("table %q: column %q references missing table %q", t.Name, col.Name, ref.Table)
				continue
			}
			targetCol := target.Column(ref.Column)
			if targetCol == nil {
				res.errorf("table %q: column %q references missing column %q.%q", t.Name, col.Name, ref.Table, ref.Column)
				continue
			}

			if !targetCol.PrimaryKey && !targetCol.Unique {
				res.warnf("table %q: column %q references %q.%q which is neither primary key nor unique", t.Name, col.Name, ref.Table, ref.Column)
			}
			if !schema.Compatible(col.Type, targetCol.Type) {
				res.warnf("table %q: column %q (%s) and referenced column %q.%q (%s) have incompatible types", t.Name, col.Name, col.Type, ref.Table, ref.Column, targetCol.Type)
			}
			if !foreignKeyCovered(&t, col) {
				res.warnf("table %q: foreign key column %q has no covering index", t.Name, col.Name)
			}
		}
	}
}

// foreignKeyCovered reports whether the FK column is indexed, either by a
// dedicated index whose left-prefix starts with the column, or implicitly by
// being a primary-key or unique column.
func foreignKeyCovered(t *schema.Table, col schema.Column) bool {
	if col.PrimaryKey || col.Unique {
		return true
	}
	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0], col.Name) {
			return true
		}
	}
	return false
}

// checkReferenceCycles warns about circular foreign-key chains. Trivial
// self-references (a table referencing itself) are allowed.
func checkReferenceCycles(s *schema.Schema, res *Result) {
	edges := make(map[string][]string)
	for _, t := range s.Tables {
		from := strings.ToLower(t.Name)
		for _, col := range t.Columns {
			if col.Reference == nil {
				continue
			}
			to := strings.ToLower(col.Reference.Table)
			if to == from {
				continue
			}
			edges[from] = append(edges[from], to)
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var stack []string
	reported := make(map[string]struct{})

	var visit func(node string)
	visit = func(node string) {
		state[node] = visiting
		stack = append(stack, node)
		for _, next := range edges[node] {
			switch state[next] {
			case visiting:
				cycle := extractCycle(stack, next)
				key := cycleKey(cycle)
				if _, seen := reported[key]; !seen {
					reported[key] = struct{}{}
					res.warnf("circular foreign-key reference: %s", strings.Join(append(cycle, next), " -> "))
				}
			case unvisited:
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
	}

	var nodes []string
	for _, t := range s.Tables {
		nodes = append(nodes, strings.ToLower(t.Name))
	}
	for _, n := range nodes {
		if state[n] == unvisited {
			visit(n)
		}
	}
}

func extractCycle(stack []string, start string) []string {
	for i, n := range stack {
		if n == start {
			return append([]string(nil), stack[i:]...)
		}
	}
	return append([]string(nil), stack...)
}

// cycleKey canonicalizes a cycle so the same loop entered at different nodes
// is reported once.
func cycleKey(cycle []string) string {
	sorted := append([]string(nil), cycle...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func checkIdentifier(kind, name string, res *Result) {
	if name == "" {
		res.warnf("%s has an empty name", kind)
		return
	}
	if schema.IsReservedKeyword(name) {
		res.warnf("%s name %q is a reserved SQL keyword", kind, name)
	}
	if !schema.IsValidIdentifier(name) {
		res.warnf("%s name %q contains disallowed characters or starts with a digit", kind, name)
	}
}
