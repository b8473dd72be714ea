package core

import "strings"

// InsertStatement is a parameterized single-row insert. Only identifiers
// are written into SQL; every value travels as a bind parameter.
type InsertStatement struct {
	SQL     string
	Columns []ColumnSpec // Bound columns, in placeholder order
}

// BuildInsert builds an insert of cols into table. When nowColumn is not
// empty that column is appended with the dialect's server-side timestamp
// expression instead of a parameter.
//
// Identifiers must already have been confirmed against the catalog.
func BuildInsert(d Dialect, database, table string, cols []ColumnSpec, nowColumn string) InsertStatement {
	names := make([]string, 0, len(cols)+1)
	values := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		names = append(names, d.QuoteIdent(c.Name))
		values = append(values, d.Placeholder(i+1))
	}
	if nowColumn != "" {
		names = append(names, d.QuoteIdent(nowColumn))
		values = append(values, d.CurrentTimestamp())
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.TableRef(database, table))
	b.WriteString(" (")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(values, ", "))
	b.WriteString(")")

	return InsertStatement{SQL: b.String(), Columns: cols}
}

// Args binds a record's values through the dialect, in statement order.
func (s InsertStatement) Args(d Dialect, rec RowRecord) []any {
	args := make([]any, 0, len(s.Columns))
	for _, c := range s.Columns {
		var v any
		for _, f := range rec.Fields {
			if f.Column.Name == c.Name {
				v = f.Value
				break
			}
		}
		args = append(args, d.Bind(c, v))
	}
	return args
}
