package memory_test

import (
	"context"
	"testing"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store/memory"
)

func TestUserStore_FindAndUpsert(t *testing.T) {
	s := memory.NewUserStore(store.User{ID: "u1", Name: "Asha", VehicleNumber: "KA01AB1234", Role: store.RoleDriver})
	ctx := context.Background()

	u, err := s.FindUser(ctx, "u1")
	if err != nil || u == nil || u.Name != "Asha" {
		t.Fatalf("FindUser: %+v, %v", u, err)
	}

	missing, err := s.FindUser(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for missing user, got %+v, %v", missing, err)
	}

	if err := s.UpsertUser(ctx, store.User{ID: "u1", Name: "Asha K", Role: store.RoleDriver}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	u, _ = s.FindUser(ctx, "u1")
	if u.Name != "Asha K" {
		t.Errorf("expected updated name, got %q", u.Name)
	}
}
