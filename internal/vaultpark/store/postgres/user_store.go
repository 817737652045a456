package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindUser(ctx context.Context, userID string) (*store.User, error) {
	query := `SELECT user_id, name, vehicle_number, role FROM users
WHERE user_id = $1`

	var (
		u    store.User
		role string
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Name, &u.VehicleNumber, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if u.Role, err = store.ParseUserRole(role); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) UpsertUser(ctx context.Context, u store.User) error {
	if _, err := store.ParseUserRole(string(u.Role)); err != nil {
		return err
	}

	query := `INSERT INTO users (user_id, name, vehicle_number, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
  name = EXCLUDED.name, vehicle_number = EXCLUDED.vehicle_number,
  role = EXCLUDED.role, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Name, u.VehicleNumber, string(u.Role)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
