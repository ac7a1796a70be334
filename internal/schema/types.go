package schema

import (
	"strconv"
	"strings"
)

// ColumnType is the closed set of logical column types the compiler
// understands. Dialect-specific spellings are normalized into this set by
// ParseColumnType.
type ColumnType string

const (
	TypeTinyInt     ColumnType = "TINYINT"
	TypeSmallInt    ColumnType = "SMALLINT"
	TypeInteger     ColumnType = "INTEGER"
	TypeBigInt      ColumnType = "BIGINT"
	TypeDecimal     ColumnType = "DECIMAL"
	TypeNumeric     ColumnType = "NUMERIC"
	TypeFloat       ColumnType = "FLOAT"
	TypeDouble      ColumnType = "DOUBLE"
	TypeChar        ColumnType = "CHAR"
	TypeVarchar     ColumnType = "VARCHAR"
	TypeText        ColumnType = "TEXT"
	TypeMediumText  ColumnType = "MEDIUMTEXT"
	TypeLongText    ColumnType = "LONGTEXT"
	TypeDate        ColumnType = "DATE"
	TypeTime        ColumnType = "TIME"
	TypeDateTime    ColumnType = "DATETIME"
	TypeTimestamp   ColumnType = "TIMESTAMP"
	TypeTimestampTZ ColumnType = "TIMESTAMPTZ"
	TypeBoolean     ColumnType = "BOOLEAN"
	TypeBinary      ColumnType = "BINARY"
	TypeVarBinary   ColumnType = "VARBINARY"
	TypeBlob        ColumnType = "BLOB"
	TypeJSON        ColumnType = "JSON"
	TypeJSONB       ColumnType = "JSONB"
	TypeUUID        ColumnType = "UUID"
	TypeInet        ColumnType = "INET"
	TypeArray       ColumnType = "ARRAY"
	TypeTSVector    ColumnType = "TSVECTOR"
)

// CascadeAction is a referential action on an ON DELETE / ON UPDATE clause.
type CascadeAction string

const (
	ActionNoAction   CascadeAction = "NO ACTION"
	ActionRestrict   CascadeAction = "RESTRICT"
	ActionCascade    CascadeAction = "CASCADE"
	ActionSetNull    CascadeAction = "SET NULL"
	ActionSetDefault CascadeAction = "SET DEFAULT"
)

// ParseCascadeAction normalizes a referential action spelling. Unrecognized
// input maps to NO ACTION.
func ParseCascadeAction(raw string) CascadeAction {
	switch strings.ToUpper(strings.Join(strings.Fields(raw), " ")) {
	case "CASCADE":
		return ActionCascade
	case "RESTRICT":
		return ActionRestrict
	case "SET NULL":
		return ActionSetNull
	case "SET DEFAULT":
		return ActionSetDefault
	default:
		return ActionNoAction
	}
}

// IndexMethod is an index access method.
type IndexMethod string

const (
	MethodBTree IndexMethod = "BTREE"
	MethodHash  IndexMethod = "HASH"
	MethodGIN   IndexMethod = "GIN"
	MethodGiST  IndexMethod = "GIST"
	MethodBRIN  IndexMethod = "BRIN"
)

// ParseIndexMethod normalizes an index method spelling, defaulting to BTREE.
func ParseIndexMethod(raw string) IndexMethod {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HASH":
		return MethodHash
	case "GIN":
		return MethodGIN
	case "GIST":
		return MethodGiST
	case "BRIN":
		return MethodBRIN
	default:
		return MethodBTree
	}
}

// TypeFamily groups column types that are considered compatible targets for a
// foreign key.
type TypeFamily string

const (
	FamilyInteger   TypeFamily = "integer"
	FamilyFloat     TypeFamily = "float"
	FamilyString    TypeFamily = "string"
	FamilyTimestamp TypeFamily = "timestamp"
	FamilyOther     TypeFamily = "other"
)

var typeFamilies = map[ColumnType]TypeFamily{
	TypeTinyInt:     FamilyInteger,
	TypeSmallInt:    FamilyInteger,
	TypeInteger:     FamilyInteger,
	TypeBigInt:      FamilyInteger,
	TypeDecimal:     FamilyFloat,
	TypeNumeric:     FamilyFloat,
	TypeFloat:       FamilyFloat,
	TypeDouble:      FamilyFloat,
	TypeChar:        FamilyString,
	TypeVarchar:     FamilyString,
	TypeText:        FamilyString,
	TypeMediumText:  FamilyString,
	TypeLongText:    FamilyString,
	TypeDate:        FamilyTimestamp,
	TypeTime:        FamilyTimestamp,
	TypeDateTime:    FamilyTimestamp,
	TypeTimestamp:   FamilyTimestamp,
	TypeTimestampTZ: FamilyTimestamp,
}

// Family returns the compatibility family for the type.
func (t ColumnType) Family() TypeFamily {
	if f, ok := typeFamilies[t]; ok {
		return f
	}
	return FamilyOther
}

// IsInteger reports whether the type belongs to the integer family.
func (t ColumnType) IsInteger() bool { return t.Family() == FamilyInteger }

// RequiresLength reports whether the type needs an explicit length.
func (t ColumnType) RequiresLength() bool {
	return t == TypeChar || t == TypeVarchar || t == TypeVarBinary
}

// HasPrecision reports whether the type carries precision/scale arguments.
func (t ColumnType) HasPrecision() bool {
	return t == TypeDecimal || t == TypeNumeric
}

// Compatible reports whether two types may legally appear on the two ends of
// a foreign key. Types outside the four families must match exactly.
func Compatible(a, b ColumnType) bool {
	if a == b {
		return true
	}
	fa, fb := a.Family(), b.Family()
	return fa == fb && fa != FamilyOther
}

// ParsedType is the result of normalizing a raw SQL type expression such as
// "character varying(120)" or "DECIMAL(10,2)".
type ParsedType struct {
	Type      ColumnType
	Length    int
	Precision int
	Scale     int
	Serial    bool // spelled SERIAL/BIGSERIAL/SMALLSERIAL
	Known     bool // false when the raw name was not recognized
}

// typeAliases maps lowercase raw spellings onto the canonical type set. Built
// once and never mutated.
var typeAliases = map[string]ColumnType{
	"tinyint":                     TypeTinyInt,
	"int2":                        TypeSmallInt,
	"smallint":                    TypeSmallInt,
	"int":                         TypeInteger,
	"int4":                        TypeInteger,
	"integer":                     TypeInteger,
	"mediumint":                   TypeInteger,
	"bigint":                      TypeBigInt,
	"int8":                        TypeBigInt,
	"decimal":                     TypeDecimal,
	"numeric":                     TypeNumeric,
	"float":                       TypeFloat,
	"float4":                      TypeFloat,
	"real":                        TypeFloat,
	"double":                      TypeDouble,
	"double precision":            TypeDouble,
	"float8":                      TypeDouble,
	"char":                        TypeChar,
	"character":                   TypeChar,
	"varchar":                     TypeVarchar,
	"character varying":           TypeVarchar,
	"text":                        TypeText,
	"mediumtext":                  TypeMediumText,
	"longtext":                    TypeLongText,
	"date":                        TypeDate,
	"time":                        TypeTime,
	"datetime":                    TypeDateTime,
	"timestamp":                   TypeTimestamp,
	"timestamp without time zone": TypeTimestamp,
	"timestamptz":                 TypeTimestampTZ,
	"timestamp with time zone":    TypeTimestampTZ,
	"bool":                        TypeBoolean,
	"boolean":                     TypeBoolean,
	"binary":                      TypeBinary,
	"varbinary":                   TypeVarBinary,
	"blob":                        TypeBlob,
	"bytea":                       TypeBlob,
	"json":                        TypeJSON,
	"jsonb":                       TypeJSONB,
	"uuid":                        TypeUUID,
	"inet":                        TypeInet,
	"array":                       TypeArray,
	"tsvector":                    TypeTSVector,
}

var serialTypes = map[string]ColumnType{
	"smallserial": TypeSmallInt,
	"serial2":     TypeSmallInt,
	"serial":      TypeInteger,
	"serial4":     TypeInteger,
	"bigserial":   TypeBigInt,
	"serial8":     TypeBigInt,
}

// ParseColumnType normalizes a raw SQL type expression. Size arguments in
// parentheses become Length for single-argument types and Precision/Scale for
// decimal types. Unrecognized names come back with Known == false.
func ParseColumnType(raw string) ParsedType {
	name := strings.ToLower(strings.TrimSpace(raw))
	var args []int

	if open := strings.IndexByte(name, '('); open >= 0 {
		close := strings.IndexByte(name[open:], ')')
		inner := name[open+1:]
		rest := ""
		if close >= 0 {
			inner = name[open+1 : open+close]
			rest = name[open+close+1:]
		}
		for _, part := range strings.Split(inner, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				args = append(args, n)
			}
		}
		name = strings.TrimSpace(name[:open] + rest)
	}
	// Postgres array suffix, e.g. integer[].
	if strings.HasSuffix(name, "[]") {
		return ParsedType{Type: TypeArray, Known: true}
	}
	name = strings.Join(strings.Fields(name), " ")
	// MySQL numeric attributes do not change the logical type.
	for _, suffix := range []string{" zerofill", " unsigned", " signed"} {
		name = strings.TrimSuffix(name, suffix)
	}

	if base, ok := serialTypes[name]; ok {
		return ParsedType{Type: base, Serial: true, Known: true}
	}

	ct, ok := typeAliases[name]
	if !ok {
		return ParsedType{Type: TypeVarchar, Length: 255}
	}

	pt := ParsedType{Type: ct, Known: true}
	switch {
	case ct.HasPrecision():
		if len(args) > 0 {
			pt.Precision = args[0]
		}
		if len(args) > 1 {
			pt.Scale = args[1]
		}
	case len(args) > 0:
		pt.Length = args[0]
	}
	return pt
}
