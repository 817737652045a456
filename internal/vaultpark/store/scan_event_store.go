package store

import (
	"context"
	"time"
)

type ScanOutcome string

const (
	OutcomeEntry ScanOutcome = "entry"
	OutcomeExit  ScanOutcome = "exit"
	OutcomeError ScanOutcome = "error"
)

// ScanEventRecord captures one resolved scan for the audit log. Debounced
// and busy-rejected scans are not resolved and are never recorded.
type ScanEventRecord struct {
	DeviceID   string
	Gate       string
	GuardID    string
	DriverID   string // empty when the payload did not decode
	Outcome    ScanOutcome
	Reason     string
	SessionID  string
	RecordedAt time.Time
}

// ScanEventStore persists scan outcomes as an append-only audit log.
type ScanEventStore interface {
	RecordEvent(ctx context.Context, rec ScanEventRecord) error
}
