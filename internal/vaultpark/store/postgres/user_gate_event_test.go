package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

func TestUserStore_FindUser_Found(t *testing.T) {
	mock, db := newMock(t)
	us := NewUserStore(db)

	q := `(?s)^SELECT\s+user_id,\s*name,\s*vehicle_number,\s*role\s+FROM\s+users\s+WHERE\s+user_id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "vehicle_number", "role"}).
			AddRow("u1", "Asha", "KA01AB1234", "DRIVER"))

	u, err := us.FindUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindUser error: %v", err)
	}
	if u == nil || u.Role != store.RoleDriver || u.VehicleNumber != "KA01AB1234" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserStore_FindUser_Missing(t *testing.T) {
	mock, db := newMock(t)
	us := NewUserStore(db)

	mock.ExpectQuery(`(?s)^SELECT\s+user_id`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	u, err := us.FindUser(context.Background(), "ghost")
	if err != nil || u != nil {
		t.Fatalf("expected (nil, nil), got %+v, %v", u, err)
	}
}

func TestUserStore_FindUser_DBError(t *testing.T) {
	mock, db := newMock(t)
	us := NewUserStore(db)

	mock.ExpectQuery(`(?s)^SELECT\s+user_id`).WithArgs("u1").WillReturnError(errors.New("db err"))

	_, err := us.FindUser(context.Background(), "u1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUserStore_UpsertUser(t *testing.T) {
	mock, db := newMock(t)
	us := NewUserStore(db)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users.*ON\s+CONFLICT\s*\(user_id\)\s+DO\s+UPDATE`).
		WithArgs("g1", "Guard", "", "SECURITY").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := us.UpsertUser(context.Background(), store.User{ID: "g1", Name: "Guard", Role: store.RoleSecurity}); err != nil {
		t.Fatalf("UpsertUser error: %v", err)
	}
	if err := us.UpsertUser(context.Background(), store.User{ID: "x", Role: "ADMIN"}); err == nil {
		t.Fatal("expected role validation error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGateStore_IsKnown(t *testing.T) {
	mock, db := newMock(t)
	gs := NewGateStore(db)

	q := `(?s)^SELECT\s+enabled\s+FROM\s+gates\s+WHERE\s+gate_id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("main-gate").
		WillReturnRows(sqlmock.NewRows([]string{"enabled"}).AddRow(true))
	mock.ExpectQuery(q).WithArgs("ghost-gate").WillReturnError(sql.ErrNoRows)

	ok, err := gs.IsKnown(context.Background(), "main-gate")
	if err != nil || !ok {
		t.Fatalf("expected main-gate known, got %v, %v", ok, err)
	}
	ok, err = gs.IsKnown(context.Background(), "ghost-gate")
	if err != nil || ok {
		t.Fatalf("expected ghost-gate unknown, got %v, %v", ok, err)
	}
	if ok, _ := gs.IsKnown(context.Background(), ""); ok {
		t.Fatal("blank gate must not be known")
	}
}

func TestGateStore_MarkSeen(t *testing.T) {
	mock, db := newMock(t)
	gs := NewGateStore(db)
	at := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+gates.*ON\s+CONFLICT\s*\(gate_id\)`).
		WithArgs("main-gate", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := gs.MarkSeen(context.Background(), " main-gate ", at); err != nil {
		t.Fatalf("MarkSeen error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestScanEventStore_RecordEvent(t *testing.T) {
	mock, db := newMock(t)
	es := NewScanEventStore(db)
	at := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	q := `(?s)^INSERT\s+INTO\s+scan_events\s*\(.*\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8\)$`
	mock.ExpectExec(q).
		WithArgs("dev-1", "main-gate", "g1", nil, "error", "malformed_payload", nil, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q).WillReturnError(errors.New("db down"))

	rec := store.ScanEventRecord{
		DeviceID: "dev-1", Gate: "main-gate", GuardID: "g1",
		Outcome: store.OutcomeError, Reason: "malformed_payload", RecordedAt: at,
	}
	if err := es.RecordEvent(context.Background(), rec); err != nil {
		t.Fatalf("RecordEvent error: %v", err)
	}
	if err := es.RecordEvent(context.Background(), rec); err == nil {
		t.Fatal("expected db error")
	}
}
