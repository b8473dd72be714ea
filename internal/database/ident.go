package database

import (
	"fmt"
	"strings"
)

// quoteBracket quotes a SQL Server identifier.
func quoteBracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteDouble quotes a PostgreSQL or SQLite identifier.
func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteBacktick quotes a MySQL identifier.
func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func placeholderAt(n int) string     { return fmt.Sprintf("@p%d", n) }
func placeholderDollar(n int) string { return fmt.Sprintf("$%d", n) }
func placeholderQuestion(int) string { return "?" }
