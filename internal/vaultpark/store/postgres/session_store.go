package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

const sessionColumns = `session_id, driver_id, driver_name, vehicle_number,
  entry_time, exit_time, gate_location, scanned_by_guard_id, guard_name,
  exit_gate, exit_guard_id, exit_guard_name, status`

type SessionStore struct {
	db    DBTX
	newID func() string
}

func NewSessionStore(db DBTX) *SessionStore {
	return &SessionStore{db: db, newID: store.NewSessionID}
}

func (s *SessionStore) FindActiveSession(ctx context.Context, driverID string) (*store.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + `
FROM parking_sessions
WHERE driver_id = $1 AND status = 'ACTIVE'`

	sess, err := scanSession(s.db.QueryRowContext(ctx, query, driverID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &sess, nil
}

// CreateSession relies on the partial unique index over ACTIVE rows; a
// conflicting insert surfaces as store.ErrActiveSessionExists.
func (s *SessionStore) CreateSession(ctx context.Context, d store.SessionDraft) (store.ParkingSession, error) {
	sess := store.NewSession(s.newID(), d)

	query := `INSERT INTO parking_sessions (
  session_id, driver_id, driver_name, vehicle_number,
  entry_time, gate_location, scanned_by_guard_id, guard_name, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'ACTIVE')`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.DriverID, sess.DriverName, sess.VehicleNumber,
		sess.EntryTime, sess.GateLocation, sess.ScannedByGuardID, sess.GuardName,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ParkingSession{}, store.ErrActiveSessionExists
		}
		return store.ParkingSession{}, fmt.Errorf("db error: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) CloseSession(ctx context.Context, sessionID string, c store.SessionClose) (store.ParkingSession, error) {
	query := `UPDATE parking_sessions
SET exit_time = $1, exit_gate = $2, exit_guard_id = $3, exit_guard_name = $4, status = 'COMPLETED'
WHERE session_id = $5 AND status = 'ACTIVE'
RETURNING ` + sessionColumns

	sess, err := scanSession(s.db.QueryRowContext(ctx, query,
		store.Timestamp(c.ExitTime), nullString(c.ExitGate), nullString(c.ExitGuardID), nullString(c.ExitGuardName), sessionID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return store.ParkingSession{}, store.ErrNotFound
	}
	if err != nil {
		return store.ParkingSession{}, fmt.Errorf("db error: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) ListRecent(ctx context.Context, f store.SessionFilter) ([]store.ParkingSession, error) {
	f = f.Normalized()

	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, cond+" $"+strconv.Itoa(len(args)))
	}
	if f.DriverID != "" {
		add("driver_id =", f.DriverID)
	}
	if f.Gate != "" {
		add("gate_location =", f.Gate)
	}
	if f.Status != "" {
		add("status =", string(f.Status))
	}
	if !f.From.IsZero() {
		add("entry_time >=", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("entry_time <", f.To.UTC())
	}

	query := `SELECT ` + sessionColumns + `
FROM parking_sessions`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf("\nORDER BY entry_time DESC, session_id DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []store.ParkingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (store.ParkingSession, error) {
	var (
		sess                               store.ParkingSession
		exitTime                           sql.NullTime
		exitGate, exitGuard, exitGuardName sql.NullString
		status                             string
	)
	if err := r.Scan(
		&sess.ID, &sess.DriverID, &sess.DriverName, &sess.VehicleNumber,
		&sess.EntryTime, &exitTime, &sess.GateLocation, &sess.ScannedByGuardID, &sess.GuardName,
		&exitGate, &exitGuard, &exitGuardName, &status,
	); err != nil {
		return store.ParkingSession{}, err
	}

	st, err := store.ParseSessionStatus(status)
	if err != nil {
		return store.ParkingSession{}, err
	}
	sess.Status = st
	sess.EntryTime = sess.EntryTime.UTC()
	if exitTime.Valid {
		t := exitTime.Time.UTC()
		sess.ExitTime = &t
	}
	sess.ExitGate = exitGate.String
	sess.ExitGuardID = exitGuard.String
	sess.ExitGuardName = exitGuardName.String
	return sess, nil
}
