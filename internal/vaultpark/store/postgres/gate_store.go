package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type GateStore struct {
	db DBTX
}

func NewGateStore(db DBTX) *GateStore {
	return &GateStore{db: db}
}

func (s *GateStore) IsKnown(ctx context.Context, gateID string) (bool, error) {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return false, nil
	}

	var enabled bool
	err := s.db.QueryRowContext(ctx, `SELECT enabled FROM gates WHERE gate_id = $1`, gateID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return enabled, nil
}

// MarkSeen upserts the gate row; unseen gates are created disabled.
func (s *GateStore) MarkSeen(ctx context.Context, gateID string, t time.Time) error {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now()
	}

	query := `INSERT INTO gates (gate_id, name, enabled, last_seen_at)
VALUES ($1, $1, FALSE, $2)
ON CONFLICT (gate_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, gateID, t.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
