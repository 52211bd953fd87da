package stats

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"wedding-invitation/internal/models"
)

var now = time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)

func ptr(i int) *int { return &i }

func fixture() ([]models.Guest, []models.RSVP) {
	old := now.Add(-30 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	guests := []models.Guest{
		{Name: "Siti", FromSide: "adel", Category: "teman", CreatedAt: old},
		{Name: "Budi", FromSide: "adel", Category: "keluarga", CreatedAt: old},
		{Name: "Andi", FromSide: "eko", Category: "teman", CreatedAt: recent},
		{Name: "Dewi", FromSide: "eko", Category: "kolega", CreatedAt: recent},
		{Name: "Rina", FromSide: "eko", Category: "teman", CreatedAt: now},
		{Name: "Tono", FromSide: "adel", Category: "teman", CreatedAt: old},
	}
	rsvps := []models.RSVP{
		{GuestName: "Siti", Attendance: models.AttendanceYes, GuestCount: ptr(2), CreatedAt: old},
		{GuestName: "Budi", Attendance: models.AttendanceNo, CreatedAt: recent},
		{GuestName: "Andi", Attendance: models.AttendanceYes, CreatedAt: recent},
	}
	return guests, rsvps
}

func TestCompute(t *testing.T) {
	guests, rsvps := fixture()
	st := Compute(guests, rsvps, now)

	if st.TotalGuests != 6 || st.TotalRSVPs != 3 {
		t.Fatalf("totals: %d guests, %d rsvps", st.TotalGuests, st.TotalRSVPs)
	}
	if st.GuestsByFromSide["adel"] != 3 || st.GuestsByFromSide["eko"] != 3 {
		t.Errorf("from_side counts: %v", st.GuestsByFromSide)
	}
	if st.GuestsByCategory["teman"] != 4 || st.GuestsByCategory["keluarga"] != 1 || st.GuestsByCategory["kolega"] != 1 {
		t.Errorf("category counts: %v", st.GuestsByCategory)
	}
	if st.Attending != 2 || st.NotAttending != 1 {
		t.Errorf("attending %d, not attending %d", st.Attending, st.NotAttending)
	}
	// Siti brings 2, Andi has no count and counts as 1
	if st.TotalAttendingCount != 3 {
		t.Errorf("total attending count %d", st.TotalAttendingCount)
	}
	if st.ResponseRate != 50 {
		t.Errorf("response rate %d", st.ResponseRate)
	}
	// 2/3 = 66.67
	if st.AttendanceRate != 67 {
		t.Errorf("attendance rate %d", st.AttendanceRate)
	}
	if st.PendingInvitations != 3 {
		t.Errorf("pending %d", st.PendingInvitations)
	}
	if st.RecentGuests != 3 || st.RecentRSVPs != 2 {
		t.Errorf("recent guests %d, recent rsvps %d", st.RecentGuests, st.RecentRSVPs)
	}
	if st.AverageGuestPerRSVP != 1.5 {
		t.Errorf("average %v", st.AverageGuestPerRSVP)
	}

	wantSides := map[string]SideBreakdown{
		"adel": {Attending: 1, NotAttending: 1, Total: 2},
		"eko":  {Attending: 1, NotAttending: 0, Total: 1},
	}
	if !reflect.DeepEqual(st.RSVPByFromSide, wantSides) {
		t.Errorf("rsvp by from_side: %v", st.RSVPByFromSide)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	guests, rsvps := fixture()
	a := Compute(guests, rsvps, now)
	b := Compute(guests, rsvps, now)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two computations over the same snapshot differ")
	}
}

func TestCompute_Empty(t *testing.T) {
	st := Compute(nil, nil, now)
	if st.ResponseRate != 0 || st.AttendanceRate != 0 || st.AverageGuestPerRSVP != 0 {
		t.Fatalf("empty snapshot must give zero rates, got %+v", st)
	}
}

func TestCompute_RatesStayInRange(t *testing.T) {
	// more rsvps than guests, e.g. after guests were deleted
	rsvps := []models.RSVP{
		{GuestName: "X", Attendance: models.AttendanceYes},
		{GuestName: "Y", Attendance: models.AttendanceYes},
	}
	st := Compute([]models.Guest{{Name: "X"}}, rsvps, now)
	if st.ResponseRate != 100 {
		t.Errorf("response rate should clamp to 100, got %d", st.ResponseRate)
	}
	if st.AttendanceRate != 100 {
		t.Errorf("attendance rate %d", st.AttendanceRate)
	}
}

func TestPercent_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		part, whole, want int
	}{
		{1, 8, 13}, // 12.5
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1}, // 0.5
		{0, 5, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("percent(%d, %d) = %d, want %d", tt.part, tt.whole, got, tt.want)
		}
	}
}

type fakeGuests struct {
	guests []models.Guest
	err    error
}

func (f fakeGuests) ListAll(context.Context) ([]models.Guest, error) { return f.guests, f.err }

type fakeRSVPs struct {
	rsvps []models.RSVP
	err   error
}

func (f fakeRSVPs) ListAll(context.Context) ([]models.RSVP, error) { return f.rsvps, f.err }

func TestService_Load(t *testing.T) {
	guests, rsvps := fixture()
	svc := NewService(fakeGuests{guests: guests}, fakeRSVPs{rsvps: rsvps})
	svc.now = func() time.Time { return now }

	st, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(st, Compute(guests, rsvps, now)) {
		t.Fatal("Load must equal Compute over the same snapshot")
	}

	boom := errors.New("boom")
	svc = NewService(fakeGuests{err: boom}, fakeRSVPs{})
	if _, err := svc.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
