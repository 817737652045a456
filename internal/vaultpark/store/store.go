package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrActiveSessionExists = errors.New("driver already has an active session")
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(s) {
	case SessionActive, SessionCompleted:
		return SessionStatus(s), nil
	default:
		return "", fmt.Errorf("unknown session status %q", s)
	}
}

// ParkingSession is one stay, opened by an entry scan and closed at most once
// by an exit scan.
type ParkingSession struct {
	ID            string
	DriverID      string
	DriverName    string
	VehicleNumber string

	EntryTime time.Time
	ExitTime  *time.Time

	GateLocation     string
	ScannedByGuardID string
	GuardName        string

	// Set on exit only.
	ExitGate      string
	ExitGuardID   string
	ExitGuardName string

	Status SessionStatus
}

// SessionDraft carries what the entry path knows before an id is assigned.
type SessionDraft struct {
	DriverID         string
	DriverName       string
	VehicleNumber    string
	EntryTime        time.Time
	GateLocation     string
	ScannedByGuardID string
	GuardName        string
}

// SessionClose carries the exit details written by CloseSession.
type SessionClose struct {
	ExitTime      time.Time
	ExitGate      string
	ExitGuardID   string
	ExitGuardName string
}

// SessionFilter narrows ListRecent. Zero values mean "any". The time range
// applies to entry time and is half-open: [From, To).
type SessionFilter struct {
	DriverID string
	Gate     string
	Status   SessionStatus
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Normalized clamps Limit and Offset into their accepted ranges.
func (f SessionFilter) Normalized() SessionFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// SessionStore is keyed CRUD over parking sessions.
//
// FindActiveSession returns (nil, nil) when the driver has no open session.
// CloseSession returns ErrNotFound when the session does not exist or is
// no longer active. CreateSession returns ErrActiveSessionExists when the
// driver already has an open session.
type SessionStore interface {
	FindActiveSession(ctx context.Context, driverID string) (*ParkingSession, error)
	CreateSession(ctx context.Context, d SessionDraft) (ParkingSession, error)
	CloseSession(ctx context.Context, sessionID string, c SessionClose) (ParkingSession, error)
	ListRecent(ctx context.Context, f SessionFilter) ([]ParkingSession, error)
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string { return uuid.NewString() }

// Timestamp reduces t to the millisecond UTC instant every backend stores.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// NewSession materializes an ACTIVE session from a draft.
func NewSession(id string, d SessionDraft) ParkingSession {
	return ParkingSession{
		ID:               id,
		DriverID:         d.DriverID,
		DriverName:       d.DriverName,
		VehicleNumber:    d.VehicleNumber,
		EntryTime:        Timestamp(d.EntryTime),
		GateLocation:     d.GateLocation,
		ScannedByGuardID: d.ScannedByGuardID,
		GuardName:        d.GuardName,
		Status:           SessionActive,
	}
}
