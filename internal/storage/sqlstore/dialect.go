package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect captures what differs between the SQL backends. Queries are
// written with ? placeholders and rebound for backends that number them.
type Dialect struct {
	Name       string
	driverName string
	numbered   bool
	singleConn bool
	dayOfMonth func(col string) string
	month      func(col string) string
	migrator   func(*sql.DB) (database.Driver, error)

	// unboundedLimit precedes a bare OFFSET where the grammar demands a LIMIT.
	unboundedLimit string
}

var SQLite = Dialect{
	Name:           "sqlite",
	driverName:     "sqlite",
	singleConn:     true,
	unboundedLimit: "LIMIT -1",
	dayOfMonth: func(col string) string {
		return fmt.Sprintf("CAST(strftime('%%d', %s / 1000, 'unixepoch') AS INTEGER)", col)
	},
	month: func(col string) string {
		return fmt.Sprintf("CAST(strftime('%%m', %s / 1000, 'unixepoch') AS INTEGER)", col)
	},
	migrator: func(db *sql.DB) (database.Driver, error) {
		return sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	},
}

var Postgres = Dialect{
	Name:       "postgres",
	driverName: "pgx",
	numbered:   true,
	dayOfMonth: func(col string) string {
		return fmt.Sprintf("CAST(EXTRACT(DAY FROM (to_timestamp(%s / 1000.0) AT TIME ZONE 'UTC')) AS INTEGER)", col)
	},
	month: func(col string) string {
		return fmt.Sprintf("CAST(EXTRACT(MONTH FROM (to_timestamp(%s / 1000.0) AT TIME ZONE 'UTC')) AS INTEGER)", col)
	},
	migrator: func(db *sql.DB) (database.Driver, error) {
		return pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	},
}

// rebind rewrites ? placeholders as $1, $2, ... outside quoted literals.
func (d Dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n, quoted := 0, false
	for _, r := range q {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == '?' && !quoted:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
