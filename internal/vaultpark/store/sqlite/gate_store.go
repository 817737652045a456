package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/Kushanz7/VaultPark-sub001/internal/db"
)

type GateStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewGateStore(db *sql.DB, writer *dbpkg.Worker) *GateStore {
	return &GateStore{db: db, writer: writer}
}

// IsKnown reports whether the gate exists and is enabled.
func (s *GateStore) IsKnown(ctx context.Context, gateID string) (bool, error) {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return false, nil
	}

	var enabled int
	err := s.db.QueryRowContext(ctx, `
SELECT enabled FROM gates WHERE gate_id = ?;
`, gateID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsKnown query: %w", err)
	}
	return enabled == 1, nil
}

// MarkSeen records gate activity, creating a disabled row for gates the
// server has not seen before.
func (s *GateStore) MarkSeen(ctx context.Context, gateID string, t time.Time) error {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureGate(ctx, tx, gateID, ms); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE gates
SET last_seen_at_ms = ?,
    updated_at_ms   = ?
WHERE gate_id = ?;
`, ms, ms, gateID); err != nil {
			return fmt.Errorf("MarkSeen update gate: %w", err)
		}
		return nil
	})
}
