package core

import "strings"

// catalogCategories maps lowercased catalog type names to categories.
// Covers SQL Server, PostgreSQL, MySQL and SQLite spellings.
var catalogCategories = map[string]TypeCategory{
	"int":         CategoryInteger,
	"integer":     CategoryInteger,
	"bigint":      CategoryInteger,
	"smallint":    CategoryInteger,
	"tinyint":     CategoryInteger,
	"mediumint":   CategoryInteger,
	"int2":        CategoryInteger,
	"int4":        CategoryInteger,
	"int8":        CategoryInteger,
	"serial":      CategoryInteger,
	"bigserial":   CategoryInteger,
	"smallserial": CategoryInteger,

	"float":            CategoryReal,
	"real":             CategoryReal,
	"decimal":          CategoryReal,
	"numeric":          CategoryReal,
	"money":            CategoryReal,
	"smallmoney":       CategoryReal,
	"double":           CategoryReal,
	"double precision": CategoryReal,
	"float4":           CategoryReal,
	"float8":           CategoryReal,

	"bit":     CategoryBoolean,
	"boolean": CategoryBoolean,
	"bool":    CategoryBoolean,

	"date": CategoryDate,

	"datetime":                    CategoryDateTime,
	"smalldatetime":               CategoryDateTime,
	"datetime2":                   CategoryDateTime,
	"datetimeoffset":              CategoryDateTime,
	"timestamp":                   CategoryDateTime,
	"timestamp without time zone": CategoryDateTime,
	"timestamp with time zone":    CategoryDateTime,
	"timestamptz":                 CategoryDateTime,
}

// ClassifyType maps a raw catalog type name to its TypeCategory.
// Length/precision suffixes like "(10,2)" and MySQL's "unsigned" are ignored.
// Unrecognized names are Text.
func ClassifyType(catalogType string) TypeCategory {
	name := strings.ToLower(strings.TrimSpace(catalogType))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimSpace(strings.TrimSuffix(name, " unsigned"))

	if cat, ok := catalogCategories[name]; ok {
		return cat
	}
	return CategoryText
}
