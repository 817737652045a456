package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/Kushanz7/VaultPark-sub001/internal/db"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

type UserStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUserStore(db *sql.DB, writer *dbpkg.Worker) *UserStore {
	return &UserStore{db: db, writer: writer}
}

func (s *UserStore) FindUser(ctx context.Context, userID string) (*store.User, error) {
	var (
		u    store.User
		role string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, name, vehicle_number, role
FROM users
WHERE user_id = ?;
`, userID).Scan(&u.ID, &u.Name, &u.VehicleNumber, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindUser query: %w", err)
	}

	u.Role, err = store.ParseUserRole(role)
	if err != nil {
		return nil, fmt.Errorf("FindUser %s: %w", userID, err)
	}
	return &u, nil
}

func (s *UserStore) UpsertUser(ctx context.Context, u store.User) error {
	if _, err := store.ParseUserRole(string(u.Role)); err != nil {
		return err
	}
	now := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users(user_id, name, vehicle_number, role, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  name           = excluded.name,
  vehicle_number = excluded.vehicle_number,
  role           = excluded.role,
  updated_at_ms  = excluded.updated_at_ms;
`, u.ID, u.Name, u.VehicleNumber, string(u.Role), now, now); err != nil {
			return fmt.Errorf("UpsertUser: %w", err)
		}
		return nil
	})
}
