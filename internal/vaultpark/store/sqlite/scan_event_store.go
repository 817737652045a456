package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/Kushanz7/VaultPark-sub001/internal/db"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

type ScanEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewScanEventStore(db *sql.DB, writer *dbpkg.Worker) *ScanEventStore {
	return &ScanEventStore{db: db, writer: writer}
}

func (s *ScanEventStore) RecordEvent(ctx context.Context, rec store.ScanEventRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	ms := rec.RecordedAt.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureGate(ctx, tx, rec.Gate, ms); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO scan_events(
  device_id, gate_id, guard_id, driver_id, outcome, reason, session_id, recorded_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.DeviceID, rec.Gate, rec.GuardID, nullString(rec.DriverID),
			string(rec.Outcome), rec.Reason, nullString(rec.SessionID), ms,
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}
