package store

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

// MemoryDSN keeps the journal in process memory. Runs are not kept across
// restarts.
const MemoryDSN = ":memory:"

// NewDB opens a DuckDB database. Pass MemoryDSN for the run journal.
func NewDB(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	// every connection of an in-memory duckdb gets its own database
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// the journal is tiny; one thread avoids spawning a pool per query
	if _, err := conn.Exec("SET threads = 1"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("configuring duckdb: %w", err)
	}

	return conn, nil
}
