package commands

import (
	"database/sql"
	"fmt"

	// Database drivers for catalog bootstrap sources.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// openSource opens a catalog bootstrap source by config driver name.
func openSource(driver, dsn string) (*sql.DB, error) {
	name, ok := driverNames[driver]
	if !ok {
		return nil, fmt.Errorf("unknown source driver %q (want duckdb, sqlite, or postgres)", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", driver, err)
	}
	return db, nil
}

var driverNames = map[string]string{
	"duckdb":   "duckdb",
	"sqlite":   "sqlite",
	"postgres": "pgx",
	"pgx":      "pgx",
}
