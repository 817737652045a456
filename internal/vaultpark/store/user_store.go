package store

import (
	"context"
	"fmt"
)

type UserRole string

const (
	RoleDriver   UserRole = "DRIVER"
	RoleSecurity UserRole = "SECURITY"
)

func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleDriver, RoleSecurity:
		return UserRole(s), nil
	default:
		return "", fmt.Errorf("unknown user role %q", s)
	}
}

type User struct {
	ID            string
	Name          string
	VehicleNumber string
	Role          UserRole
}

// UserStore is read-only from the scan path. UpsertUser exists for seeding
// and admin tooling.
type UserStore interface {
	FindUser(ctx context.Context, userID string) (*User, error)
	UpsertUser(ctx context.Context, u User) error
}
