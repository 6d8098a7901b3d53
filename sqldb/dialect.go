// Package sqldb compiles filter, order and list requests into SQL fragments for the
// entities declared in core/schema, and executes them against sqlite, mysql or
// postgres databases through database/sql.
package sqldb

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Dialect captures what differs between the supported databases: the driver to
// open, the placeholder format of the final statement and how table names are
// written.
type Dialect struct {
	Name        string
	Driver      string
	Placeholder squirrel.PlaceholderFormat
	quote       func(string) string
}

var (
	// SQLite is the default dialect, used with github.com/mattn/go-sqlite3.
	SQLite = Dialect{Name: "sqlite", Driver: "sqlite3", Placeholder: squirrel.Question, quote: plainIdentifier}
	// MySQL is used with github.com/go-sql-driver/mysql.
	MySQL = Dialect{Name: "mysql", Driver: "mysql", Placeholder: squirrel.Question, quote: plainIdentifier}
	// Postgres is used with github.com/lib/pq. Table names are quoted so their
	// case survives.
	Postgres = Dialect{Name: "postgres", Driver: "postgres", Placeholder: squirrel.Dollar, quote: pq.QuoteIdentifier}
)

// Identifiers reaching SQL are validated by schema.IsIdentifier, so sqlite and
// mysql can take them as they are.
func plainIdentifier(s string) string {
	return s
}

// DialectFor returns the dialect for a driver or dialect name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported dialect %q", name)
	}
}

// QuoteIdentifier writes a table or index name for this dialect.
func (d Dialect) QuoteIdentifier(name string) string {
	if d.quote == nil {
		return name
	}
	return d.quote(name)
}

func (d Dialect) String() string {
	return d.Name
}
