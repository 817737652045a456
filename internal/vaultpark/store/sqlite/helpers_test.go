package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Kushanz7/VaultPark-sub001/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Shared cache keeps the in-memory database alive for the lifetime of
	// the pool, even if sql.DB recycles the underlying connection.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func seedUser(t *testing.T, conn *sql.DB, id, role string) {
	t.Helper()
	now := time.Now().UTC().UnixMilli()
	if _, err := conn.ExecContext(context.Background(), `
INSERT INTO users(user_id, name, vehicle_number, role, created_at_ms, updated_at_ms)
VALUES (?, ?, 'KA01AB1234', ?, ?, ?);`, id, "User "+id, role, now, now); err != nil {
		t.Fatalf("seedUser %s: %v", id, err)
	}
}

func seedGate(t *testing.T, conn *sql.DB, id string, enabled bool) {
	t.Helper()
	now := time.Now().UTC().UnixMilli()
	en := 0
	if enabled {
		en = 1
	}
	if _, err := conn.ExecContext(context.Background(), `
INSERT INTO gates(gate_id, name, enabled, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?);`, id, id, en, now, now); err != nil {
		t.Fatalf("seedGate %s: %v", id, err)
	}
}
