package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/memory"
)

var entry = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func draft(driver string, at time.Time) store.SessionDraft {
	return store.SessionDraft{
		DriverID:         driver,
		DriverName:       "Driver " + driver,
		VehicleNumber:    "KA01AB1234",
		EntryTime:        at,
		GateLocation:     "main-gate",
		ScannedByGuardID: "g1",
		GuardName:        "Guard One",
	}
}

func TestSessionStore_CreateThenFindActive(t *testing.T) {
	s := memory.NewSessionStore()
	ctx := context.Background()

	created, err := s.CreateSession(ctx, draft("u1", entry))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Status != store.SessionActive {
		t.Errorf("expected ACTIVE, got %s", created.Status)
	}

	active, err := s.FindActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("FindActiveSession: %v", err)
	}
	if active == nil || active.ID != created.ID {
		t.Fatalf("expected active session %s, got %+v", created.ID, active)
	}
}

func TestSessionStore_SecondActiveRejected(t *testing.T) {
	s := memory.NewSessionStore()
	ctx := context.Background()

	if _, err := s.CreateSession(ctx, draft("u1", entry)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateSession(ctx, draft("u1", entry.Add(time.Minute)))
	if !errors.Is(err, store.ErrActiveSessionExists) {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}
}

func TestSessionStore_CloseCompletesOnce(t *testing.T) {
	s := memory.NewSessionStore()
	ctx := context.Background()

	created, _ := s.CreateSession(ctx, draft("u1", entry))
	exit := entry.Add(90 * time.Minute)

	closed, err := s.CloseSession(ctx, created.ID, store.SessionClose{ExitTime: exit, ExitGate: "east", ExitGuardID: "g2"})
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if closed.Status != store.SessionCompleted {
		t.Errorf("expected COMPLETED, got %s", closed.Status)
	}
	if closed.ExitTime == nil || !closed.ExitTime.Equal(exit) {
		t.Errorf("unexpected exit time %v", closed.ExitTime)
	}
	if closed.ExitGate != "east" || closed.ExitGuardID != "g2" {
		t.Errorf("exit details not recorded: %+v", closed)
	}

	active, _ := s.FindActiveSession(ctx, "u1")
	if active != nil {
		t.Errorf("expected no active session after close, got %+v", active)
	}

	if _, err := s.CloseSession(ctx, created.ID, store.SessionClose{ExitTime: exit}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second close, got %v", err)
	}
	if _, err := s.CloseSession(ctx, "missing", store.SessionClose{ExitTime: exit}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestSessionStore_ListRecentFiltersAndPages(t *testing.T) {
	s := memory.NewSessionStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sess, err := s.CreateSession(ctx, draft(fmt.Sprintf("u%d", i), entry.Add(time.Duration(i)*time.Hour)))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if i%2 == 0 {
			if _, err := s.CloseSession(ctx, sess.ID, store.SessionClose{ExitTime: sess.EntryTime.Add(time.Minute)}); err != nil {
				t.Fatalf("close %d: %v", i, err)
			}
		}
	}

	all, _ := s.ListRecent(ctx, store.SessionFilter{})
	if len(all) != 5 {
		t.Fatalf("expected 5 sessions, got %d", len(all))
	}
	if all[0].DriverID != "u4" || all[4].DriverID != "u0" {
		t.Errorf("expected newest first, got %s..%s", all[0].DriverID, all[4].DriverID)
	}

	done, _ := s.ListRecent(ctx, store.SessionFilter{Status: store.SessionCompleted})
	if len(done) != 3 {
		t.Errorf("expected 3 completed, got %d", len(done))
	}

	page, _ := s.ListRecent(ctx, store.SessionFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].DriverID != "u3" {
		t.Errorf("unexpected page: %+v", page)
	}

	ranged, _ := s.ListRecent(ctx, store.SessionFilter{From: entry.Add(time.Hour), To: entry.Add(3 * time.Hour)})
	if len(ranged) != 2 {
		t.Errorf("expected 2 sessions in [1h,3h), got %d", len(ranged))
	}

	none, _ := s.ListRecent(ctx, store.SessionFilter{Offset: 10})
	if len(none) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(none))
	}
}
