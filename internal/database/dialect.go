package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	driverSqlite   = "sqlite3"
	driverPostgres = "postgres"
)

// dialect captures the few differences between the supported SQL backends.
type dialect struct {
	driver        string
	timestampType string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case driverSqlite, "":
		return dialect{driver: driverSqlite, timestampType: "TIMESTAMP"}, nil
	case driverPostgres:
		return dialect{driver: driverPostgres, timestampType: "TIMESTAMPTZ"}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind rewrites ? placeholders into $N for postgres.
func (d dialect) rebind(query string) string {
	if d.driver != driverPostgres {
		return query
	}

	var builder strings.Builder
	builder.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			builder.WriteByte('$')
			builder.WriteString(strconv.Itoa(n))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// isUniqueViolation reports whether err is a unique constraint failure from
// either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
