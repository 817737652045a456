package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/billing"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/qrcode"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/service"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/memory"
)

// T is the reference issue time used across scenarios.
var T = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const hourlyRate = 50.0

var guard = service.Operator{ID: "guard-001", Name: "Gate Guard"}

type fixture struct {
	clock    *clock.Fake
	codec    *qrcode.Codec
	sessions *memory.SessionStore
	users    *countingUsers
	deps     service.ScannerDeps
	scanner  *service.Scanner
}

func newFixture(t *testing.T, cfg service.ScannerConfig) *fixture {
	t.Helper()

	f := &fixture{
		clock:    clock.NewFake(T),
		codec:    qrcode.Default(),
		sessions: memory.NewSessionStore(),
		users: &countingUsers{UserStore: memory.NewUserStore(
			store.User{ID: "u1", Name: "Asha", VehicleNumber: "KA01AB1234", Role: store.RoleDriver},
			store.User{ID: "u2", Name: "Ravi", VehicleNumber: "KA05MN0001", Role: store.RoleDriver},
			store.User{ID: "guard-001", Name: "Gate Guard", Role: store.RoleSecurity},
		)},
	}
	f.deps = service.ScannerDeps{
		Codec:    f.codec,
		Sessions: f.sessions,
		Users:    f.users,
		Schedule: billing.Flat(hourlyRate, nil, time.UTC),
		Clock:    f.clock,
	}
	f.scanner = service.NewScanner("dev-1", f.deps, cfg)
	t.Cleanup(f.scanner.Close)
	return f
}

// code encodes a payload for user and vehicle issued at at.
func (f *fixture) code(t *testing.T, user, vehicle string, at time.Time) string {
	t.Helper()
	raw, err := f.codec.Encode(user, vehicle, at)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return raw
}

func (f *fixture) scan(t *testing.T, raw string) service.State {
	t.Helper()
	st, err := f.scanner.Scan(context.Background(), service.ScanInput{Raw: raw, Gate: "main-gate", Operator: guard})
	if err != nil {
		t.Fatalf("Scan: unexpected admission error %v", err)
	}
	return st
}

// countingUsers counts FindUser calls.
type countingUsers struct {
	store.UserStore
	calls atomic.Int32
}

func (c *countingUsers) FindUser(ctx context.Context, id string) (*store.User, error) {
	c.calls.Add(1)
	return c.UserStore.FindUser(ctx, id)
}

// faultySessions wraps a session store and injects failures.
type faultySessions struct {
	store.SessionStore
	findErr   error
	createErr error
	closeErr  error
}

func (f *faultySessions) FindActiveSession(ctx context.Context, id string) (*store.ParkingSession, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.SessionStore.FindActiveSession(ctx, id)
}

func (f *faultySessions) CreateSession(ctx context.Context, d store.SessionDraft) (store.ParkingSession, error) {
	if f.createErr != nil {
		return store.ParkingSession{}, f.createErr
	}
	return f.SessionStore.CreateSession(ctx, d)
}

func (f *faultySessions) CloseSession(ctx context.Context, id string, c store.SessionClose) (store.ParkingSession, error) {
	if f.closeErr != nil {
		return store.ParkingSession{}, f.closeErr
	}
	return f.SessionStore.CloseSession(ctx, id, c)
}

// stubClaimer returns err from every Claim and counts releases.
type stubClaimer struct {
	err      error
	released atomic.Int32
}

func (s *stubClaimer) Claim(context.Context, string) (func(), error) {
	if s.err != nil {
		return nil, s.err
	}
	return func() { s.released.Add(1) }, nil
}

var errBackend = errors.New("backend unavailable")
