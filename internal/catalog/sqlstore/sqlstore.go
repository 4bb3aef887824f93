// Package sqlstore bootstraps an in-memory catalog from any database/sql
// source. The CLI wires DuckDB, SQLite, and Postgres drivers in front of
// it; the loader itself is driver-agnostic.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/featsql/internal/catalog"
	"github.com/leapstack-labs/featsql/pkg/codec"
)

// Load pulls the named tables (schema plus all rows) into a fresh
// in-memory catalog under dbName. Tables load concurrently.
func Load(ctx context.Context, db *sql.DB, logger *slog.Logger, dbName string, tables []string) (*catalog.MemCatalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables to load for database %q", dbName)
	}

	cat := catalog.NewMemCatalog()
	cat.AddDatabase(dbName)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range tables {
		g.Go(func() error {
			table, err := loadTable(gctx, db, name)
			if err != nil {
				return fmt.Errorf("load table %s.%s: %w", dbName, name, err)
			}
			logger.Debug("table loaded", "db", dbName, "table", name, "rows", len(table.Rows))
			mu.Lock()
			defer mu.Unlock()
			return cat.AddTable(dbName, table)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cat, nil
}

func loadTable(ctx context.Context, db *sql.DB, name string) (*catalog.Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name)) //nolint:gosec // identifier is quoted
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]codec.Column, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = codec.Column{Name: ct.Name(), Type: mapColumnType(ct.DatabaseTypeName())}
	}
	schema := codec.NewSchema(cols...)

	var out []codec.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(codec.Row, len(values))
		for i, v := range values {
			nv, err := codec.Normalize(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", cols[i].Name, err)
			}
			row[i] = alignValue(nv, cols[i].Type)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &catalog.Table{Name: name, Schema: schema, Rows: out}, nil
}

// mapColumnType translates a driver's type name to the engine's value
// types. Unknown types degrade to string, which every driver can render.
func mapColumnType(dbType string) codec.Type {
	if t, err := codec.ParseType(dbType); err == nil {
		return t
	}
	up := strings.ToUpper(dbType)
	switch {
	case strings.Contains(up, "INT"):
		return codec.TypeInt
	case strings.Contains(up, "DOUBLE"), strings.Contains(up, "FLOAT"),
		strings.Contains(up, "NUMERIC"), strings.Contains(up, "DECIMAL"),
		strings.Contains(up, "REAL"):
		return codec.TypeFloat
	case strings.Contains(up, "BOOL"):
		return codec.TypeBool
	default:
		return codec.TypeString
	}
}

// alignValue nudges scanned values toward the column type. Drivers
// disagree about whether numerics scan as int64 or float64.
func alignValue(v any, typ codec.Type) any {
	if v == nil {
		return nil
	}
	switch typ {
	case codec.TypeFloat:
		if f, ok := codec.AsFloat64(v); ok {
			return f
		}
	case codec.TypeInt:
		if i, ok := codec.AsInt64(v); ok {
			return i
		}
	}
	return v
}

// quoteIdent double-quotes an identifier for the dialects the loader
// targets.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
