package service

import (
	"context"
	"strings"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

// GateRegistry answers whether a gate may scan and records when each gate
// was last heard from.
type GateRegistry struct {
	store store.GateStore
	clock clock.Clock
}

func NewGateRegistry(st store.GateStore, clk clock.Clock) *GateRegistry {
	if clk == nil {
		clk = clock.System{}
	}
	return &GateRegistry{store: st, clock: clk}
}

func (r *GateRegistry) IsKnown(ctx context.Context, gate string) (bool, error) {
	gate = strings.TrimSpace(gate)
	if gate == "" {
		return false, nil
	}
	return r.store.IsKnown(ctx, gate)
}

func (r *GateRegistry) NoteSeen(ctx context.Context, gate string) error {
	gate = strings.TrimSpace(gate)
	if gate == "" {
		return nil
	}
	return r.store.MarkSeen(ctx, gate, r.clock.Now())
}
