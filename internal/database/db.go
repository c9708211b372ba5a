package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const driverName = "sqlite"

// Conn is the connection capability the repositories run statements through.
// *sqlx.DB, *sqlx.Tx and *sqlx.Conn all satisfy it.
type Conn interface {
	sqlx.ExecerContext
	sqlx.QueryerContext
}

// Open connects to the SQLite file described by cfg. The pool is limited to a single
// connection: SQLite allows one writer, and an in-memory database exists only on the
// connection that created it.
func Open(cfg *Config) (*sqlx.DB, error) {
	log.Printf("Connecting to database: %s", cfg.FullPath())

	db, err := sqlx.Open(driverName, dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.FullPath(), err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

func dsn(cfg *Config) string {
	var params []string
	if cfg.ForeignKeys {
		params = append(params, "_pragma="+url.QueryEscape("foreign_keys(1)"))
	}
	name := "file:" + memoryDBName
	if !cfg.InMemory() {
		name = "file:" + (&url.URL{Path: cfg.FullPath()}).EscapedPath()
	}
	if len(params) == 0 {
		return name
	}
	return name + "?" + strings.Join(params, "&")
}

// FetchAll runs a query and returns every row as a column-keyed map.
func FetchAll(ctx context.Context, conn Conn, query string) ([]map[string]any, error) {
	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// IsConstraintViolation reports whether err is an SQLite constraint failure
// (UNIQUE, NOT NULL, FOREIGN KEY, CHECK, PRIMARY KEY).
func IsConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
