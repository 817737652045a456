package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	dbpkg "github.com/Kushanz7/VaultPark-sub001/internal/db"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

const sessionColumns = `
  session_id, driver_id, driver_name, vehicle_number,
  entry_time_ms, exit_time_ms, gate_location, scanned_by_guard_id, guard_name,
  exit_gate, exit_guard_id, exit_guard_name, status`

type SessionStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
	newID  func() string
}

func NewSessionStore(db *sql.DB, writer *dbpkg.Worker) *SessionStore {
	return &SessionStore{db: db, writer: writer, newID: store.NewSessionID}
}

func (s *SessionStore) FindActiveSession(ctx context.Context, driverID string) (*store.ParkingSession, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT`+sessionColumns+`
FROM parking_sessions
WHERE driver_id = ? AND status = 'ACTIVE';
`, driverID)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindActiveSession: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) CreateSession(ctx context.Context, d store.SessionDraft) (store.ParkingSession, error) {
	sess := store.NewSession(s.newID(), d)

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, `
SELECT session_id FROM parking_sessions WHERE driver_id = ? AND status = 'ACTIVE';
`, sess.DriverID).Scan(&existing)
		if err == nil {
			return store.ErrActiveSessionExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("CreateSession check active: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO parking_sessions(
  session_id, driver_id, driver_name, vehicle_number,
  entry_time_ms, gate_location, scanned_by_guard_id, guard_name, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'ACTIVE');
`,
			sess.ID, sess.DriverID, sess.DriverName, sess.VehicleNumber,
			sess.EntryTime.UnixMilli(), sess.GateLocation, sess.ScannedByGuardID, sess.GuardName,
		); err != nil {
			if isUniqueViolation(err) {
				return store.ErrActiveSessionExists
			}
			return fmt.Errorf("CreateSession insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.ParkingSession{}, err
	}
	return sess, nil
}

func (s *SessionStore) CloseSession(ctx context.Context, sessionID string, c store.SessionClose) (store.ParkingSession, error) {
	var out store.ParkingSession

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE parking_sessions
SET exit_time_ms    = ?,
    exit_gate       = ?,
    exit_guard_id   = ?,
    exit_guard_name = ?,
    status          = 'COMPLETED'
WHERE session_id = ? AND status = 'ACTIVE';
`, store.Timestamp(c.ExitTime).UnixMilli(), nullString(c.ExitGate), nullString(c.ExitGuardID), nullString(c.ExitGuardName), sessionID)
		if err != nil {
			return fmt.Errorf("CloseSession update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("CloseSession rows affected: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}

		out, err = scanSession(tx.QueryRowContext(ctx, `
SELECT`+sessionColumns+`
FROM parking_sessions WHERE session_id = ?;
`, sessionID))
		if err != nil {
			return fmt.Errorf("CloseSession reload: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.ParkingSession{}, err
	}
	return out, nil
}

func (s *SessionStore) ListRecent(ctx context.Context, f store.SessionFilter) ([]store.ParkingSession, error) {
	f = f.Normalized()

	var (
		where []string
		args  []any
	)
	if f.DriverID != "" {
		where = append(where, "driver_id = ?")
		args = append(args, f.DriverID)
	}
	if f.Gate != "" {
		where = append(where, "gate_location = ?")
		args = append(args, f.Gate)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		where = append(where, "entry_time_ms >= ?")
		args = append(args, f.From.UTC().UnixMilli())
	}
	if !f.To.IsZero() {
		where = append(where, "entry_time_ms < ?")
		args = append(args, f.To.UTC().UnixMilli())
	}

	q := `SELECT` + sessionColumns + `
FROM parking_sessions`
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY entry_time_ms DESC, session_id DESC\nLIMIT ? OFFSET ?;"
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListRecent query: %w", err)
	}
	defer rows.Close()

	var out []store.ParkingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRecent scan: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecent rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (store.ParkingSession, error) {
	var (
		sess                             store.ParkingSession
		entryMs                          int64
		exitMs                           sql.NullInt64
		exitGate, exitGuard, exitGuardNm sql.NullString
		status                           string
	)
	if err := r.Scan(
		&sess.ID, &sess.DriverID, &sess.DriverName, &sess.VehicleNumber,
		&entryMs, &exitMs, &sess.GateLocation, &sess.ScannedByGuardID, &sess.GuardName,
		&exitGate, &exitGuard, &exitGuardNm, &status,
	); err != nil {
		return store.ParkingSession{}, err
	}

	st, err := store.ParseSessionStatus(status)
	if err != nil {
		return store.ParkingSession{}, err
	}
	sess.Status = st
	sess.EntryTime = time.UnixMilli(entryMs).UTC()
	if exitMs.Valid {
		t := time.UnixMilli(exitMs.Int64).UTC()
		sess.ExitTime = &t
	}
	sess.ExitGate = exitGate.String
	sess.ExitGuardID = exitGuard.String
	sess.ExitGuardName = exitGuardNm.String
	return sess, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
