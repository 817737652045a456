package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type SeedDevOptions struct {
	// KnownGates are created enabled. Defaults to "main-gate".
	KnownGates []string
}

// SeedDev inserts a starter gate set plus one driver and one guard so a
// fresh dev database can issue and scan codes immediately.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	gates := opt.KnownGates
	if len(gates) == 0 {
		gates = []string{"main-gate"}
	}
	for _, g := range gates {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO gates(gate_id, name, enabled, created_at_ms, updated_at_ms)
VALUES (?, ?, 1, ?, ?)
ON CONFLICT(gate_id) DO UPDATE SET
  enabled = 1,
  updated_at_ms = excluded.updated_at_ms;
`, g, g, now, now); err != nil {
			return fmt.Errorf("seed gate %s: %w", g, err)
		}
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO users(user_id, name, vehicle_number, role, created_at_ms, updated_at_ms)
VALUES
  ('driver-001', 'Dev Driver', 'KA01AB1234', 'DRIVER', ?, ?),
  ('guard-001', 'Dev Guard', '', 'SECURITY', ?, ?);
`, now, now, now, now); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	return nil
}
