package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an isolated in-memory store database with every table
// created. It is closed when the test finishes.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	conn, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("open in-memory store: %v", err)
	}
	tb.Cleanup(func() {
		if err := conn.Close(); err != nil {
			tb.Logf("close in-memory store: %v", err)
		}
	})

	if err := EnsureSchema(conn); err != nil {
		tb.Fatalf("apply store schema: %v", err)
	}
	return conn
}
