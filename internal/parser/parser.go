// Package parser converts hand-written SQL DDL into a canonical schema
// value. It understands CREATE TABLE and CREATE INDEX statements, collects
// every problem it finds across all tables before failing, and runs the
// validator over the finished schema.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/koba/schemaforge/internal/schema"
	"github.com/koba/schemaforge/internal/validate"
)

// Problem is one parse or validation failure, attributed to a table and
// column where possible.
type Problem struct {
	Table   string
	Column  string
	Message string
}

func (p Problem) String() string {
	switch {
	case p.Table != "" && p.Column != "":
		return fmt.Sprintf("table %q, column %q: %s", p.Table, p.Column, p.Message)
	case p.Table != "":
		return fmt.Sprintf("table %q: %s", p.Table, p.Message)
	default:
		return p.Message
	}
}

// ParseError aggregates every blocking problem found in one pass so a caller
// can fix all of them at once.
type ParseError struct {
	Problems []Problem
}

func (e *ParseError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("parse failed with %d problem(s): %s", len(e.Problems), strings.Join(msgs, "; "))
}

var (
	createTableRe = regexp.MustCompile(`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?("[^"]+"|` + "`[^`]+`" + `|[\w.]+)`)
	createIndexRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?("[^"]+"|` + "`[^`]+`" + `|[\w.]+)\s+ON\s+("[^"]+"|` + "`[^`]+`" + `|[\w.]+)`)
	alterTableRe  = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\b`)
	dropTableRe   = regexp.MustCompile(`(?is)^\s*DROP\s+TABLE\b`)
	commentOnRe   = regexp.MustCompile(`(?is)^\s*COMMENT\s+ON\s+(TABLE|COLUMN)\s+("[^"]+"|` + "`[^`]+`" + `|[\w.]+)(?:\.("[^"]+"|` + "`[^`]+`" + `|[\w]+))?\s+IS\s+('(?:[^']|'')*'|NULL)`)

	tableCommentRe = regexp.MustCompile(`(?i)\bCOMMENT\s*=?\s*'((?:[^']|'')*)'`)

	usingMethodRe = regexp.MustCompile(`(?i)\bUSING\s+(\w+)`)
	wherePredRe   = regexp.MustCompile(`(?is)\bWHERE\s+(.+)$`)

	modifierRe = regexp.MustCompile(`(?i)\b(NOT\s+NULL|NULL|DEFAULT|PRIMARY\s+KEY|UNIQUE|REFERENCES|AUTO_INCREMENT|AUTOINCREMENT|COMMENT|CHECK|CONSTRAINT|COLLATE|GENERATED)\b`)
	notNullRe  = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	primaryRe  = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	uniqueRe   = regexp.MustCompile(`(?i)\bUNIQUE\b`)
	autoIncRe  = regexp.MustCompile(`(?i)\b(AUTO_INCREMENT|AUTOINCREMENT)\b`)
	defaultRe  = regexp.MustCompile(`(?i)\bDEFAULT\s+('(?:[^']|'')*'|[A-Za-z_][\w.]*\s*\([^)]*\)|[^\s,]+)`)
	commentRe  = regexp.MustCompile(`(?i)\bCOMMENT\s+'((?:[^']|'')*)'`)
	refRe      = regexp.MustCompile(`(?i)\bREFERENCES\s+("[^"]+"|` + "`[^`]+`" + `|[\w.]+)\s*\(\s*("[^"]+"|` + "`[^`]+`" + `|[\w]+)\s*\)`)
	tableFKRe  = regexp.MustCompile(`(?i)^FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+("[^"]+"|` + "`[^`]+`" + `|[\w.]+)\s*\(\s*("[^"]+"|` + "`[^`]+`" + `|[\w]+)\s*\)`)
	onDeleteRe = regexp.MustCompile(`(?i)\bON\s+DELETE\s+(SET\s+NULL|SET\s+DEFAULT|CASCADE|RESTRICT|NO\s+ACTION)`)
	onUpdateRe = regexp.MustCompile(`(?i)\bON\s+UPDATE\s+(SET\s+NULL|SET\s+DEFAULT|CASCADE|RESTRICT|NO\s+ACTION)`)

	// Default expressions that are function calls even without parentheses.
	bareFunctionDefaults = map[string]struct{}{
		"CURRENT_TIMESTAMP": {},
		"CURRENT_DATE":      {},
		"CURRENT_TIME":      {},
		"LOCALTIMESTAMP":    {},
	}
)

type parseState struct {
	schema   *schema.Schema
	problems []Problem
	warnings []string
}

func (st *parseState) warnf(format string, args ...interface{}) {
	st.warnings = append(st.warnings, fmt.Sprintf(format, args...))
}

func (st *parseState) fail(table, column, format string, args ...interface{}) {
	st.problems = append(st.problems, Problem{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

// Parse converts SQL DDL source into a schema. Warnings are always returned,
// even alongside an error. On failure the error is a *ParseError carrying
// every problem found.
func Parse(src string) (*schema.Schema, []string, error) {
	clean := StripComments(src)
	if !Balanced(clean) {
		return nil, nil, &ParseError{Problems: []Problem{{Message: "unbalanced parentheses in DDL source"}}}
	}

	st := &parseState{schema: &schema.Schema{}}

	type pendingIndex struct {
		table string
		index schema.Index
	}
	var indexes []pendingIndex

	type pendingComment struct {
		table  string
		column string
		text   string
	}
	var comments []pendingComment

	for _, stmt := range Statements(clean) {
		switch {
		case createTableRe.MatchString(stmt):
			st.parseCreateTable(stmt)
		case createIndexRe.MatchString(stmt):
			if table, idx, ok := st.parseCreateIndex(stmt); ok {
				indexes = append(indexes, pendingIndex{table: table, index: idx})
			}
		case commentOnRe.MatchString(stmt):
			if table, column, text, ok := parseCommentOn(stmt); ok {
				comments = append(comments, pendingComment{table: table, column: column, text: text})
			} else {
				st.warnf("skipping malformed COMMENT ON statement: %s", truncate(stmt, 60))
			}
		case alterTableRe.MatchString(stmt):
			st.warnf("ALTER TABLE statements are recognized but not applied")
		case dropTableRe.MatchString(stmt):
			st.warnf("DROP TABLE statements are recognized but not applied")
		default:
			st.warnf("skipping unrecognized statement: %s", truncate(stmt, 60))
		}
	}

	// Indexes attach after all tables exist so declaration order is free.
	for _, pi := range indexes {
		t := st.schema.Table(pi.table)
		if t == nil {
			st.fail(pi.table, "", "index %q references unknown table", pi.index.Name)
			continue
		}
		t.Indexes = append(t.Indexes, pi.index)
	}

	// Comments are cosmetic; a dangling one warns instead of failing.
	for _, pc := range comments {
		t := st.schema.Table(pc.table)
		if t == nil {
			st.warnf("COMMENT ON references unknown table %q", pc.table)
			continue
		}
		if pc.column == "" {
			t.Comment = pc.text
			continue
		}
		col := t.Column(pc.column)
		if col == nil {
			st.warnf("table %q: COMMENT ON references unknown column %q", pc.table, pc.column)
			continue
		}
		col.Comment = pc.text
	}

	if len(st.problems) > 0 {
		return nil, st.warnings, &ParseError{Problems: st.problems}
	}

	res := validate.Validate(st.schema)
	st.warnings = append(st.warnings, res.Warnings...)
	if !res.OK() {
		probs := make([]Problem, len(res.Errors))
		for i, msg := range res.Errors {
			probs[i] = Problem{Message: msg}
		}
		return nil, st.warnings, &ParseError{Problems: probs}
	}

	return st.schema, st.warnings, nil
}

func (st *parseState) parseCreateTable(stmt string) {
	loc := createTableRe.FindStringSubmatchIndex(stmt)
	name := unquoteIdent(stmt[loc[2]:loc[3]])

	open := strings.IndexByte(stmt[loc[1]:], '(')
	if open < 0 {
		st.fail(name, "", "CREATE TABLE has no column list")
		return
	}
	body, end, err := ScanBlock(stmt, loc[1]+open)
	if err != nil {
		st.fail(name, "", "unterminated column list")
		return
	}

	table := schema.Table{Name: name}

	// MySQL carries the table comment as a COMMENT='...' suffix after the
	// column list.
	suffix := stmt[end:]
	if m := tableCommentRe.FindStringSubmatchIndex(maskLiterals(suffix)); m != nil {
		table.Comment = strings.ReplaceAll(suffix[m[2]:m[3]], "''", "'")
	}
	var pkCols []string

	type pendingFK struct {
		column string
		ref    *schema.Reference
	}
	var fks []pendingFK

	for _, clause := range SplitTop(body) {
		upper := strings.ToUpper(clause)

		// Named table constraints: strip the CONSTRAINT prefix and
		// classify what follows.
		if strings.HasPrefix(upper, "CONSTRAINT") {
			fields := strings.Fields(clause)
			if len(fields) > 2 {
				clause = strings.Join(fields[2:], " ")
				upper = strings.ToUpper(clause)
			}
		}

		switch {
		case strings.HasPrefix(upper, "PRIMARY KEY"):
			cols, err := parenColumns(clause)
			if err != nil {
				st.fail(name, "", "malformed PRIMARY KEY constraint: %v", err)
				continue
			}
			pkCols = append(pkCols, cols...)
		case strings.HasPrefix(upper, "FOREIGN KEY"):
			cols, ref, ok := parseTableForeignKey(clause)
			switch {
			case !ok:
				st.fail(name, "", "malformed FOREIGN KEY constraint: %s", truncate(clause, 40))
			case len(cols) != 1:
				// The column model carries one reference per column; a
				// composite key has no single column to hang it on.
				st.warnf("table %q: composite FOREIGN KEY constraints are ignored", name)
			default:
				fks = append(fks, pendingFK{column: cols[0], ref: ref})
			}
		case strings.HasPrefix(upper, "UNIQUE"):
			st.warnf("table %q: table-level UNIQUE constraints are ignored", name)
		case strings.HasPrefix(upper, "CHECK"),
			strings.HasPrefix(upper, "KEY "),
			strings.HasPrefix(upper, "KEY("),
			strings.HasPrefix(upper, "INDEX "),
			strings.HasPrefix(upper, "INDEX("),
			strings.HasPrefix(upper, "FULLTEXT"),
			strings.HasPrefix(upper, "EXCLUDE"):
			st.warnf("table %q: ignoring table constraint: %s", name, truncate(clause, 40))
		default:
			col, ok := st.parseColumn(name, clause)
			if ok {
				table.Columns = append(table.Columns, col)
			}
		}
	}

	// Table-level primary keys apply retroactively to their columns.
	for _, pk := range pkCols {
		col := table.Column(pk)
		if col == nil {
			st.fail(name, pk, "PRIMARY KEY references unknown column")
			continue
		}
		col.PrimaryKey = true
		col.Nullable = false
	}
	for _, fk := range fks {
		col := table.Column(fk.column)
		if col == nil {
			st.fail(name, fk.column, "FOREIGN KEY references unknown column")
			continue
		}
		col.Reference = fk.ref
	}

	st.schema.Tables = append(st.schema.Tables, table)
}

// parseCommentOn decomposes a COMMENT ON TABLE/COLUMN statement into its
// target and text. IS NULL clears the comment.
func parseCommentOn(stmt string) (table, column, text string, ok bool) {
	m := commentOnRe.FindStringSubmatch(stmt)
	if m == nil {
		return "", "", "", false
	}
	table = m[2]
	if strings.EqualFold(m[1], "COLUMN") {
		column = m[3]
		if column == "" {
			// Unquoted targets arrive as one dotted token.
			dot := strings.LastIndexByte(table, '.')
			if dot < 0 {
				return "", "", "", false
			}
			table, column = table[:dot], table[dot+1:]
		}
		column = unquoteIdent(column)
	}
	table = unquoteIdent(table)
	if !strings.EqualFold(m[4], "NULL") {
		text = strings.ReplaceAll(m[4][1:len(m[4])-1], "''", "'")
	}
	return table, column, text, true
}

// parseTableForeignKey decomposes a table-level FOREIGN KEY clause into its
// local columns and reference target.
func parseTableForeignKey(clause string) ([]string, *schema.Reference, bool) {
	m := tableFKRe.FindStringSubmatchIndex(clause)
	if m == nil {
		return nil, nil, false
	}
	var cols []string
	for _, c := range SplitTop(clause[m[2]:m[3]]) {
		cols = append(cols, unquoteIdent(c))
	}
	ref := &schema.Reference{
		Table:  unquoteIdent(clause[m[4]:m[5]]),
		Column: unquoteIdent(clause[m[6]:m[7]]),
	}
	tail := maskLiterals(clause[m[1]:])
	if d := onDeleteRe.FindStringSubmatch(tail); d != nil {
		ref.OnDelete = schema.ParseCascadeAction(d[1])
	}
	if u := onUpdateRe.FindStringSubmatch(tail); u != nil {
		ref.OnUpdate = schema.ParseCascadeAction(u[1])
	}
	return cols, ref, true
}

func (st *parseState) parseColumn(tableName, clause string) (schema.Column, bool) {
	name, rest := takeIdent(clause)
	if name == "" {
		st.fail(tableName, "", "cannot parse column definition: %s", truncate(clause, 40))
		return schema.Column{}, false
	}
	rest = strings.TrimSpace(rest)

	// Keyword detection runs over a copy with string literals blanked out,
	// so DEFAULT 'UNIQUE' or a comment mentioning PRIMARY KEY cannot flip
	// column flags. Offsets in the masked copy index into the real text.
	masked := maskLiterals(rest)

	// The type expression runs until the first modifier keyword.
	typeExpr := rest
	mods, mmods := "", ""
	if loc := modifierRe.FindStringIndex(masked); loc != nil {
		typeExpr = strings.TrimSpace(rest[:loc[0]])
		mods = rest[loc[0]:]
		mmods = masked[loc[0]:]
	}
	if typeExpr == "" {
		st.fail(tableName, name, "column has no type")
		return schema.Column{}, false
	}

	pt := schema.ParseColumnType(typeExpr)
	if !pt.Known {
		st.warnf("table %q: column %q has unrecognized type %q, defaulting to VARCHAR(255)", tableName, name, typeExpr)
	}

	col := schema.Column{
		Name:      name,
		Type:      pt.Type,
		Length:    pt.Length,
		Precision: pt.Precision,
		Scale:     pt.Scale,
		Nullable:  true,
	}

	if pt.Known && pt.Length == 0 && pt.Type.RequiresLength() {
		switch pt.Type {
		case schema.TypeChar:
			col.Length = 1
		default:
			col.Length = 255
		}
		st.warnf("table %q: column %q has no length, defaulting to %s(%d)", tableName, name, pt.Type, col.Length)
	}

	if pt.Serial {
		col.AutoIncrement = true
		col.Nullable = false
	}
	if notNullRe.MatchString(mmods) {
		col.Nullable = false
	}
	if primaryRe.MatchString(mmods) {
		col.PrimaryKey = true
		col.Nullable = false
	}
	if autoIncRe.MatchString(mmods) {
		col.AutoIncrement = true
		col.Nullable = false
	}
	if m := refRe.FindStringSubmatchIndex(mmods); m != nil {
		// UNIQUE before REFERENCES belongs to this column; after, it
		// belongs to the referenced column list and is noise.
		if uniqueRe.MatchString(mmods[:m[0]]) {
			col.Unique = true
		}
		ref := &schema.Reference{
			Table:  unquoteIdent(mods[m[2]:m[3]]),
			Column: unquoteIdent(mods[m[4]:m[5]]),
		}
		tail := mmods[m[1]:]
		if d := onDeleteRe.FindStringSubmatch(tail); d != nil {
			ref.OnDelete = schema.ParseCascadeAction(d[1])
		}
		if u := onUpdateRe.FindStringSubmatch(tail); u != nil {
			ref.OnUpdate = schema.ParseCascadeAction(u[1])
		}
		col.Reference = ref
	} else if uniqueRe.MatchString(mmods) {
		col.Unique = true
	}
	if d := defaultRe.FindStringSubmatchIndex(mmods); d != nil {
		col.Default = parseDefault(mods[d[2]:d[3]])
	}
	if c := commentRe.FindStringSubmatchIndex(mmods); c != nil {
		col.Comment = strings.ReplaceAll(mods[c[2]:c[3]], "''", "'")
	}

	return col, true
}

func (st *parseState) parseCreateIndex(stmt string) (string, schema.Index, bool) {
	loc := createIndexRe.FindStringSubmatchIndex(stmt)
	idx := schema.Index{
		Unique: loc[2] >= 0,
		Name:   unquoteIdent(stmt[loc[4]:loc[5]]),
		Method: schema.MethodBTree,
	}
	tableName := unquoteIdent(stmt[loc[6]:loc[7]])

	open := strings.IndexByte(stmt[loc[1]:], '(')
	if open < 0 {
		st.fail(tableName, "", "index %q has no column list", idx.Name)
		return "", schema.Index{}, false
	}
	cols, end, err := ScanBlock(stmt, loc[1]+open)
	if err != nil {
		st.fail(tableName, "", "index %q has an unterminated column list", idx.Name)
		return "", schema.Index{}, false
	}

	for _, c := range SplitTop(cols) {
		c = strings.TrimSuffix(strings.TrimSuffix(c, " DESC"), " ASC")
		c = strings.TrimSuffix(strings.TrimSuffix(c, " desc"), " asc")
		idx.Columns = append(idx.Columns, unquoteIdent(strings.TrimSpace(c)))
	}

	head := stmt[:loc[1]+open]
	tail := stmt[end:]
	if m := usingMethodRe.FindStringSubmatch(head); m != nil {
		idx.Method = schema.ParseIndexMethod(m[1])
	} else if m := usingMethodRe.FindStringSubmatch(tail); m != nil {
		idx.Method = schema.ParseIndexMethod(m[1])
	}
	if w := wherePredRe.FindStringSubmatch(tail); w != nil {
		idx.Where = strings.TrimSpace(w[1])
	}

	return tableName, idx, true
}

func parseDefault(raw string) *schema.Default {
	raw = strings.TrimSpace(raw)
	upper := strings.ToUpper(raw)
	if _, bare := bareFunctionDefaults[upper]; bare || strings.Contains(raw, "(") {
		return &schema.Default{Value: raw, IsFunction: true}
	}
	return &schema.Default{Value: raw}
}

// parenColumns extracts the identifier list from the first parenthesized
// group in the clause.
func parenColumns(clause string) ([]string, error) {
	open := strings.IndexByte(clause, '(')
	if open < 0 {
		return nil, fmt.Errorf("missing column list")
	}
	inner, _, err := ScanBlock(clause, open)
	if err != nil {
		return nil, err
	}
	var cols []string
	for _, c := range SplitTop(inner) {
		cols = append(cols, unquoteIdent(c))
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("empty column list")
	}
	return cols, nil
}

// takeIdent consumes one possibly-quoted identifier from the front of s.
func takeIdent(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if q := s[0]; q == '"' || q == '`' {
		if end := strings.IndexByte(s[1:], q); end >= 0 {
			return s[1 : end+1], s[end+2:]
		}
		return "", s
	}
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// unquoteIdent strips quoting and any schema qualifier from an identifier.
func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"`[]")
	if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
		s = s[dot+1:]
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
