package store

import (
	"context"
	"time"
)

type GateRecord struct {
	GateID   string
	Name     string
	Enabled  bool
	LastSeen time.Time
}

type GateStore interface {
	IsKnown(ctx context.Context, gateID string) (bool, error)
	MarkSeen(ctx context.Context, gateID string, t time.Time) error
}
