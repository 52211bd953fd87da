package rsvp

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/testutil"
)

func setup(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, testutil.Logger()), db
}

func seedGuest(t *testing.T, db *gorm.DB, name, code string) models.Guest {
	t.Helper()
	g := models.Guest{Name: name, InvitationCode: code}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("seed guest: %v", err)
	}
	return g
}

func reloadGuest(t *testing.T, db *gorm.DB, id uuid.UUID) models.Guest {
	t.Helper()
	var g models.Guest
	if err := db.First(&g, "id = ?", id).Error; err != nil {
		t.Fatalf("reload guest: %v", err)
	}
	return g
}

func TestCheckExisting_DedupScenario(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	existing, err := svc.CheckExisting(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if existing != nil {
		t.Fatalf("expected no rsvp yet, got %+v", existing)
	}

	created, err := svc.Create(ctx, CreateRequest{GuestName: "Budi Santoso", Attendance: models.AttendanceYes, GuestCount: testutil.IntPtr(2)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	existing, err = svc.CheckExisting(ctx, "Budi Santoso")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if existing == nil || existing.ID != created.ID {
		t.Fatalf("expected the created rsvp back, got %+v", existing)
	}
	if existing.GuestCount == nil || *existing.GuestCount != 2 {
		t.Errorf("guest count not stored: %v", existing.GuestCount)
	}
}

func TestCreate_Normalization(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	declined, err := svc.Create(ctx, CreateRequest{GuestName: "Andi", Attendance: models.AttendanceNo, GuestCount: testutil.IntPtr(3), Message: testutil.StringPtr("  ")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if declined.GuestCount != nil {
		t.Error("declined rsvp must not carry a guest count")
	}
	if declined.Message != nil {
		t.Error("blank message should be dropped")
	}

	attending, err := svc.Create(ctx, CreateRequest{GuestName: "Dewi", Attendance: models.AttendanceYes})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if attending.GuestCount == nil || *attending.GuestCount != 1 {
		t.Errorf("missing count on attending rsvp should default to 1, got %v", attending.GuestCount)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := setup(t)

	tests := []CreateRequest{
		{GuestName: "", Attendance: models.AttendanceYes},
		{GuestName: "Andi", Attendance: "maybe"},
		{GuestName: "Andi", Attendance: models.AttendanceYes, GuestCount: testutil.IntPtr(0)},
	}
	for _, req := range tests {
		_, err := svc.Create(context.Background(), req)
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			t.Errorf("request %+v: expected validation errors, got %v", req, err)
		}
	}
}

func TestSubmit_ByInvitationCode(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	g := seedGuest(t, db, "Siti", "abc23")

	row, err := svc.Submit(ctx, SubmitRequest{InvitationCode: "abc23", GuestName: "ignored", Attendance: models.AttendanceYes, GuestCount: testutil.IntPtr(2)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.GuestName != "Siti" {
		t.Errorf("expected the guest's own name, got %q", row.GuestName)
	}
	if row.GuestID == nil || *row.GuestID != g.ID {
		t.Error("rsvp not linked to guest")
	}
	if row.InvitationCode == nil || *row.InvitationCode != "abc23" {
		t.Error("invitation code provenance missing")
	}
	if !reloadGuest(t, db, g.ID).RSVPSubmitted {
		t.Error("guest not flagged as submitted")
	}

	again, err := svc.Submit(ctx, SubmitRequest{InvitationCode: "abc23", Attendance: models.AttendanceNo})
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if again == nil || again.ID != row.ID {
		t.Error("expected the existing rsvp with the duplicate error")
	}
}

func TestSubmit_UnknownCode(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Submit(context.Background(), SubmitRequest{InvitationCode: "zzzzz", Attendance: models.AttendanceYes})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmit_ByNameRequiresName(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Submit(context.Background(), SubmitRequest{Attendance: models.AttendanceYes})
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation errors, got %v", err)
	}
}

func TestSubmit_ByNameFlagsGuest(t *testing.T) {
	svc, db := setup(t)
	g := seedGuest(t, db, "Budi Santoso", "bcd34")

	if _, err := svc.Submit(context.Background(), SubmitRequest{GuestName: " Budi Santoso ", Attendance: models.AttendanceNo}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !reloadGuest(t, db, g.ID).RSVPSubmitted {
		t.Error("guest matched by name not flagged")
	}
}

func TestDelete_ClearsGuestFlag(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	g := seedGuest(t, db, "Siti", "abc23")

	row, err := svc.Submit(ctx, SubmitRequest{InvitationCode: "abc23", Attendance: models.AttendanceYes})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Delete(ctx, row.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if reloadGuest(t, db, g.ID).RSVPSubmitted {
		t.Error("guest flag must be cleared with the rsvp")
	}
	existing, err := svc.CheckExisting(ctx, "Siti")
	if err != nil || existing != nil {
		t.Fatalf("expected rsvp gone, got %+v, %v", existing, err)
	}
	if err := svc.Delete(ctx, row.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_KeepsFlagWhileDuplicateRemains(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	g := seedGuest(t, db, "Siti", "abc23")
	if err := db.Model(&g).Update("rsvp_submitted", true).Error; err != nil {
		t.Fatalf("flag: %v", err)
	}

	// two rows under one name, as a concurrent double submit would leave behind
	first, err := svc.Create(ctx, CreateRequest{GuestName: "Siti", Attendance: models.AttendanceYes})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, CreateRequest{GuestName: "Siti", Attendance: models.AttendanceYes}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !reloadGuest(t, db, g.ID).RSVPSubmitted {
		t.Error("flag cleared although another rsvp remains")
	}
}

func TestDeleteAll(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	a := seedGuest(t, db, "A", "aaaaa")
	b := seedGuest(t, db, "B", "bbbbb")

	for _, code := range []string{"aaaaa", "bbbbb"} {
		if _, err := svc.Submit(ctx, SubmitRequest{InvitationCode: code, Attendance: models.AttendanceYes}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	n, err := svc.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	rows, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rsvps, got %d", len(rows))
	}
	if reloadGuest(t, db, a.ID).RSVPSubmitted || reloadGuest(t, db, b.ID).RSVPSubmitted {
		t.Error("guest flags not reset")
	}
}
