package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

type ScanEventStore struct {
	db DBTX
}

func NewScanEventStore(db DBTX) *ScanEventStore {
	return &ScanEventStore{db: db}
}

func (s *ScanEventStore) RecordEvent(ctx context.Context, rec store.ScanEventRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	query := `INSERT INTO scan_events (
  device_id, gate_id, guard_id, driver_id, outcome, reason, session_id, recorded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := s.db.ExecContext(ctx, query,
		rec.DeviceID, rec.Gate, rec.GuardID, nullString(rec.DriverID),
		string(rec.Outcome), rec.Reason, nullString(rec.SessionID), rec.RecordedAt.UTC(),
	); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
