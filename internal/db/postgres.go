package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql
var postgresMigrationsFS embed.FS

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// OpenPostgres connects through the pgx stdlib driver and runs the goose
// migrations embedded under migrations/postgres.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := MigratePostgres(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func MigratePostgres(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(postgresMigrationsFS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "migrations/postgres"); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}
	return nil
}

// EnableGatesPostgres upserts the configured gate set as enabled.
func EnableGatesPostgres(ctx context.Context, db *sql.DB, gates []string) error {
	for _, g := range gates {
		if g == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO gates (gate_id, name, enabled)
VALUES ($1, $1, TRUE)
ON CONFLICT (gate_id) DO UPDATE SET enabled = TRUE, updated_at = now()`, g); err != nil {
			return fmt.Errorf("enable gate %s: %w", g, err)
		}
	}
	return nil
}
