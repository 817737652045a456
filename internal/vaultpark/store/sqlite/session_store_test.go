package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	sqlitestore "github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/sqlite"
)

var entryAt = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func newSessionStore(t *testing.T) *sqlitestore.SessionStore {
	t.Helper()
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	seedUser(t, conn, "u1", "DRIVER")
	seedUser(t, conn, "u2", "DRIVER")
	return sqlitestore.NewSessionStore(conn, w)
}

func entryDraft(driver string, at time.Time) store.SessionDraft {
	return store.SessionDraft{
		DriverID:         driver,
		DriverName:       "User " + driver,
		VehicleNumber:    "KA01AB1234",
		EntryTime:        at,
		GateLocation:     "main-gate",
		ScannedByGuardID: "g1",
		GuardName:        "Guard One",
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Create / FindActive
// ═══════════════════════════════════════════════════════════════════════════

func TestSessionStore_CreateAndFindActive(t *testing.T) {
	s := newSessionStore(t)
	ctx := context.Background()

	created, err := s.CreateSession(ctx, entryDraft("u1", entryAt))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.FindActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("FindActiveSession: %v", err)
	}
	if got == nil {
		t.Fatal("expected an active session")
	}
	if diff := cmp.Diff(created, *got); diff != "" {
		t.Errorf("stored session mismatch (-created +found):\n%s", diff)
	}

	none, err := s.FindActiveSession(ctx, "u2")
	if err != nil || none != nil {
		t.Errorf("expected (nil, nil) for driver without session, got %+v, %v", none, err)
	}
}

func TestSessionStore_SecondActiveRejected(t *testing.T) {
	s := newSessionStore(t)
	ctx := context.Background()

	if _, err := s.CreateSession(ctx, entryDraft("u1", entryAt)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateSession(ctx, entryDraft("u1", entryAt.Add(time.Second)))
	if !errors.Is(err, store.ErrActiveSessionExists) {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}
}

func TestSessionStore_UnknownDriverViolatesForeignKey(t *testing.T) {
	s := newSessionStore(t)

	_, err := s.CreateSession(context.Background(), entryDraft("ghost", entryAt))
	if err == nil {
		t.Fatal("expected foreign key failure for unknown driver")
	}
	if errors.Is(err, store.ErrActiveSessionExists) {
		t.Errorf("foreign key failure must not look like a uniqueness conflict: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Close
// ═══════════════════════════════════════════════════════════════════════════

func TestSessionStore_CloseSession(t *testing.T) {
	s := newSessionStore(t)
	ctx := context.Background()

	created, _ := s.CreateSession(ctx, entryDraft("u1", entryAt))
	exit := entryAt.Add(time.Hour)

	closed, err := s.CloseSession(ctx, created.ID, store.SessionClose{
		ExitTime: exit, ExitGate: "east-gate", ExitGuardID: "g2", ExitGuardName: "Guard Two",
	})
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if closed.Status != store.SessionCompleted {
		t.Errorf("expected COMPLETED, got %s", closed.Status)
	}
	if closed.ExitTime == nil || !closed.ExitTime.Equal(exit) {
		t.Errorf("expected exit %v, got %v", exit, closed.ExitTime)
	}
	if closed.ExitGate != "east-gate" || closed.ExitGuardName != "Guard Two" {
		t.Errorf("exit details missing: %+v", closed)
	}

	active, _ := s.FindActiveSession(ctx, "u1")
	if active != nil {
		t.Errorf("expected no active session after close")
	}

	_, err = s.CloseSession(ctx, created.ID, store.SessionClose{ExitTime: exit})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound closing a completed session, got %v", err)
	}

	// A new entry is allowed once the previous stay is completed.
	if _, err := s.CreateSession(ctx, entryDraft("u1", exit.Add(time.Minute))); err != nil {
		t.Errorf("re-entry after exit: %v", err)
	}
}

func TestSessionStore_CloseBeforeEntryRejectedBySchema(t *testing.T) {
	s := newSessionStore(t)
	ctx := context.Background()

	created, _ := s.CreateSession(ctx, entryDraft("u1", entryAt))
	_, err := s.CloseSession(ctx, created.ID, store.SessionClose{ExitTime: entryAt.Add(-time.Second)})
	if err == nil {
		t.Fatal("expected CHECK constraint failure for exit before entry")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ListRecent
// ═══════════════════════════════════════════════════════════════════════════

func TestSessionStore_ListRecent(t *testing.T) {
	s := newSessionStore(t)
	ctx := context.Background()

	first, _ := s.CreateSession(ctx, entryDraft("u1", entryAt))
	if _, err := s.CloseSession(ctx, first.ID, store.SessionClose{ExitTime: entryAt.Add(time.Hour)}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.CreateSession(ctx, entryDraft("u1", entryAt.Add(2*time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := entryDraft("u2", entryAt.Add(3*time.Hour))
	other.GateLocation = "north-gate"
	if _, err := s.CreateSession(ctx, other); err != nil {
		t.Fatalf("create u2: %v", err)
	}

	all, err := s.ListRecent(ctx, store.SessionFilter{})
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(all) != 3 || all[0].DriverID != "u2" {
		t.Fatalf("expected 3 sessions newest first, got %+v", all)
	}

	byDriver, _ := s.ListRecent(ctx, store.SessionFilter{DriverID: "u1"})
	if len(byDriver) != 2 {
		t.Errorf("expected 2 sessions for u1, got %d", len(byDriver))
	}

	completed, _ := s.ListRecent(ctx, store.SessionFilter{Status: store.SessionCompleted})
	if len(completed) != 1 || completed[0].ID != first.ID {
		t.Errorf("expected only the first session completed, got %+v", completed)
	}

	byGate, _ := s.ListRecent(ctx, store.SessionFilter{Gate: "north-gate"})
	if len(byGate) != 1 {
		t.Errorf("expected 1 north-gate session, got %d", len(byGate))
	}

	window, _ := s.ListRecent(ctx, store.SessionFilter{From: entryAt.Add(time.Hour), To: entryAt.Add(3 * time.Hour)})
	if len(window) != 1 {
		t.Errorf("expected 1 session in window, got %d", len(window))
	}

	page, _ := s.ListRecent(ctx, store.SessionFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].DriverID != "u1" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestSessionStore_SubMillisecondTimesMatchStoredValues(t *testing.T) {
	s := newSessionStore(t)
	ctx := context.Background()

	at := entryAt.Add(123456789 * time.Nanosecond)
	created, err := s.CreateSession(ctx, entryDraft("u1", at))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if want := entryAt.Add(123 * time.Millisecond); !created.EntryTime.Equal(want) {
		t.Fatalf("expected entry time %v, got %v", want, created.EntryTime)
	}

	found, err := s.FindActiveSession(ctx, "u1")
	if err != nil || found == nil {
		t.Fatalf("FindActiveSession: %+v, %v", found, err)
	}
	if diff := cmp.Diff(created, *found); diff != "" {
		t.Errorf("created session differs from stored row (-created +found):\n%s", diff)
	}

	closed, err := s.CloseSession(ctx, created.ID, store.SessionClose{ExitTime: at.Add(time.Hour + 999999*time.Nanosecond)})
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if want := entryAt.Add(time.Hour + 124*time.Millisecond); closed.ExitTime == nil || !closed.ExitTime.Equal(want) {
		t.Errorf("expected exit time %v, got %v", want, closed.ExitTime)
	}
}
