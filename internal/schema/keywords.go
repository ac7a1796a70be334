package schema

import (
	"regexp"
	"strings"
)

// reservedKeywords is the set of SQL keywords that make poor identifiers.
// Read-only after package init.
var reservedKeywords = map[string]struct{}{}

var reservedKeywordList = []string{
	"ALL", "ALTER", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY", "CASE",
	"CAST", "CHECK", "COLUMN", "CONSTRAINT", "CREATE", "CROSS", "CURRENT",
	"DATABASE", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP", "ELSE",
	"END", "EXCEPT", "EXISTS", "FOREIGN", "FROM", "FULL", "GRANT", "GROUP",
	"HAVING", "IN", "INDEX", "INNER", "INSERT", "INTERSECT", "INTO", "IS",
	"JOIN", "KEY", "LEFT", "LIKE", "LIMIT", "NOT", "NULL", "OFFSET", "ON",
	"OR", "ORDER", "OUTER", "PRIMARY", "REFERENCES", "RIGHT", "SELECT",
	"SET", "TABLE", "THEN", "TO", "UNION", "UNIQUE", "UPDATE", "USER",
	"USING", "VALUES", "VIEW", "WHEN", "WHERE", "WITH",
}

func init() {
	for _, kw := range reservedKeywordList {
		reservedKeywords[kw] = struct{}{}
	}
}

// IsReservedKeyword reports whether the name is a reserved SQL keyword.
func IsReservedKeyword(name string) bool {
	_, ok := reservedKeywords[strings.ToUpper(name)]
	return ok
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdentifier reports whether the name consists of letters, digits, and
// underscores and does not start with a digit.
func IsValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
