package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:dbtest_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrate_Idempotent(t *testing.T) {
	conn := openMemoryDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, conn); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := Migrate(ctx, conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 recorded migration, got %d", n)
	}

	for _, table := range []string{"gates", "users", "parking_sessions", "scan_events"} {
		var name string
		err := conn.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0007_add_index.sql")
	if err != nil || v != 7 {
		t.Fatalf("expected 7, got %d (%v)", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Error("expected error for filename without version prefix")
	}
	if _, err := parseVersion("abc_init.sql"); err == nil {
		t.Error("expected error for non-numeric version")
	}
}

func TestOpen_CreatesFileAndSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vaultpark.db")
	ctx := context.Background()

	conn, err := Open(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	if err := SeedDev(ctx, conn, SeedDevOptions{KnownGates: []string{"north", " ", "south"}}); err != nil {
		t.Fatalf("SeedDev: %v", err)
	}
	// Seeding twice must not fail.
	if err := SeedDev(ctx, conn, SeedDevOptions{KnownGates: []string{"north"}}); err != nil {
		t.Fatalf("SeedDev again: %v", err)
	}

	var gates, users int
	_ = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM gates WHERE enabled = 1`).Scan(&gates)
	_ = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	if gates != 2 {
		t.Errorf("expected 2 enabled gates, got %d", gates)
	}
	if users != 2 {
		t.Errorf("expected 2 seeded users, got %d", users)
	}
}

func TestWorker_CommitsAndRollsBack(t *testing.T) {
	conn := openMemoryDB(t)
	ctx := context.Background()
	if _, err := conn.ExecContext(ctx, `CREATE TABLE t (v INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	w := NewWorker(conn)
	defer w.Close()

	if err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES (1)`)
		return err
	}); err != nil {
		t.Fatalf("Do commit: %v", err)
	}

	boom := errors.New("boom")
	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES (2)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, _ = tx.ExecContext(ctx, `INSERT INTO t(v) VALUES (3)`)
		panic("bad job")
	})
	if err == nil {
		t.Fatal("expected error from panicking job")
	}

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the committed row, got %d", n)
	}
}

func TestWorker_DoAfterClose(t *testing.T) {
	conn := openMemoryDB(t)
	w := NewWorker(conn)
	w.Close()
	w.Close()

	err := w.Do(context.Background(), func(context.Context, *sql.Tx) error { return nil })
	if !errors.Is(err, ErrWorkerClosed) {
		t.Fatalf("expected ErrWorkerClosed, got %v", err)
	}
}

func TestMigratePostgres_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	if err := MigratePostgres(context.Background(), nil); err != nil {
		t.Fatalf("MigratePostgres: %v", err)
	}
	if gotDir != "migrations/postgres" {
		t.Errorf("unexpected migrations dir %q", gotDir)
	}

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("relation exists")
	}
	if err := MigratePostgres(context.Background(), nil); err == nil {
		t.Error("expected migration error to propagate")
	}
}

func TestEnableGatesPostgres(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()

	mock.ExpectExec(`INSERT INTO gates`).WithArgs("north").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO gates`).WithArgs("south").WillReturnError(errors.New("boom"))

	err = EnableGatesPostgres(context.Background(), conn, []string{"north", "", "south"})
	if err == nil {
		t.Fatal("expected error from second gate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
