package settings

import (
	"context"
	"errors"
	"testing"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(testutil.SetupTestDB(t), testutil.Logger())
}

func TestGet_NotProvisioned(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrCreate_ProvisionsOnce(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, Defaults("Siti", "Andi"))
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.BrideInitial != "S" || first.GroomInitial != "A" {
		t.Errorf("unexpected initials %q %q", first.BrideInitial, first.GroomInitial)
	}
	if first.MapsDisplayOption != models.MapsBoth {
		t.Errorf("expected maps option both, got %q", first.MapsDisplayOption)
	}

	second, err := store.GetOrCreate(ctx, Defaults("Other", "Names"))
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if second.ID != first.ID || second.BrideName != "Siti" {
		t.Errorf("expected the existing row back, got %+v", second)
	}
}

func TestUpdate_WritesPrefixedColumns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, Defaults("Siti", "Andi")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	info, err := store.Update(ctx, Patch{
		"akad_venue_name":     "Masjid Agung",
		"resepsi_date":        "2026-12-12",
		"maps_display_option": "resepsi",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if info.Akad.VenueName != "Masjid Agung" {
		t.Errorf("akad venue = %q", info.Akad.VenueName)
	}
	if info.Resepsi.Date != "2026-12-12" {
		t.Errorf("resepsi date = %q", info.Resepsi.Date)
	}
	if info.MapsDisplayOption != models.MapsResepsi {
		t.Errorf("maps option = %q", info.MapsDisplayOption)
	}
	if info.BrideName != "Siti" {
		t.Errorf("untouched field changed: %q", info.BrideName)
	}
}

func TestUpdate_RejectsBadPatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.Create(ctx, Defaults("Siti", "Andi")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := store.Update(ctx, Patch{"venue": "x"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if _, err := store.Update(ctx, Patch{"maps_display_option": "sometimes"}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestUpdate_NotProvisioned(t *testing.T) {
	store := newStore(t)

	_, err := store.Update(context.Background(), Patch{"bride_name": "Siti"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchApplyTo(t *testing.T) {
	var info models.WeddingInfo
	Patch{"groom_parents": "Bapak Budi", "akad_time": "08:00", "maps_display_option": "none"}.ApplyTo(&info)

	if info.GroomParents != "Bapak Budi" || info.Akad.Time != "08:00" || info.MapsDisplayOption != models.MapsNone {
		t.Errorf("patch not applied: %+v", info)
	}
}
