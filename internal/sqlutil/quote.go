// Package sqlutil provides SQL identifier helpers shared by the table loader.
package sqlutil

import (
	"regexp"
	"strings"
)

// Dialect selects the identifier quoting style.
type Dialect string

const (
	// DialectSQLite quotes with double quotes (mobile geodatabases are SQLite files).
	DialectSQLite Dialect = "sqlite"
	// DialectMySQL quotes with backticks.
	DialectMySQL Dialect = "mysql"
)

// QuoteIdentifier quotes an identifier (table name, column name) for the dialect.
// Embedded quote characters are escaped by doubling them.
// Example: DialectMySQL, "my_table" -> "`my_table`"
// Example: DialectSQLite, "Lys" -> "\"Lys\""
func QuoteIdentifier(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// validIdentifierRegex restricts identifiers to letters, digits and
// underscores in any script, so names such as Båke are accepted.
var validIdentifierRegex = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// IsValidIdentifier reports whether name only contains letters, digits and underscores.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes an identifier after validating it.
// Use this for identifiers that come from configuration.
func QuoteIdentifierSafe(d Dialect, name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(d, name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
