// Package stats derives the admin dashboard figures from a snapshot of guests and RSVPs.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"wedding-invitation/internal/models"
)

// RecentWindow is how far back "recent" guests and RSVPs reach
const RecentWindow = 7 * 24 * time.Hour

// SideBreakdown is the RSVP tally for guests of one from_side
type SideBreakdown struct {
	Attending    int `json:"attending"`
	NotAttending int `json:"notAttending"`
	Total        int `json:"total"`
}

type Statistics struct {
	TotalGuests         int                      `json:"totalGuests"`
	GuestsByFromSide    map[string]int           `json:"guestsByFromSide"`
	GuestsByCategory    map[string]int           `json:"guestsByCategory"`
	TotalRSVPs          int                      `json:"totalRSVPs"`
	Attending           int                      `json:"attending"`
	NotAttending        int                      `json:"notAttending"`
	TotalAttendingCount int                      `json:"totalAttendingCount"`
	ResponseRate        int                      `json:"responseRate"`
	AttendanceRate      int                      `json:"attendanceRate"`
	PendingInvitations  int                      `json:"pendingInvitations"`
	RecentGuests        int                      `json:"recentGuests"`
	RecentRSVPs         int                      `json:"recentRSVPs"`
	RSVPByFromSide      map[string]SideBreakdown `json:"rsvpByFromSide"`
	AverageGuestPerRSVP float64                  `json:"averageGuestPerRSVP"`
}

// Compute derives every figure from the snapshot as of now. It reads nothing
// else, so equal inputs give equal output.
func Compute(guests []models.Guest, rsvps []models.RSVP, now time.Time) Statistics {
	st := Statistics{
		TotalGuests:      len(guests),
		GuestsByFromSide: map[string]int{},
		GuestsByCategory: map[string]int{},
		TotalRSVPs:       len(rsvps),
		RSVPByFromSide:   map[string]SideBreakdown{},
	}
	since := now.Add(-RecentWindow)

	for _, g := range guests {
		st.GuestsByFromSide[g.FromSide]++
		st.GuestsByCategory[g.Category]++
		if !g.CreatedAt.Before(since) {
			st.RecentGuests++
		}
	}

	byName := make(map[string][]models.RSVP, len(rsvps))
	for _, r := range rsvps {
		switch r.Attendance {
		case models.AttendanceYes:
			st.Attending++
			st.TotalAttendingCount += r.Attendees()
		case models.AttendanceNo:
			st.NotAttending++
		}
		if !r.CreatedAt.Before(since) {
			st.RecentRSVPs++
		}
		byName[r.GuestName] = append(byName[r.GuestName], r)
	}

	// joined on guest name, so guests sharing a name share their responses
	for _, g := range guests {
		b := st.RSVPByFromSide[g.FromSide]
		for _, r := range byName[g.Name] {
			switch r.Attendance {
			case models.AttendanceYes:
				b.Attending++
			case models.AttendanceNo:
				b.NotAttending++
			}
			b.Total++
		}
		st.RSVPByFromSide[g.FromSide] = b
	}

	st.ResponseRate = percent(st.TotalRSVPs, st.TotalGuests)
	st.AttendanceRate = percent(st.Attending, st.TotalRSVPs)
	st.PendingInvitations = st.TotalGuests - st.TotalRSVPs
	if st.Attending > 0 {
		st.AverageGuestPerRSVP = float64(st.TotalAttendingCount) / float64(st.Attending)
	}
	return st
}

// percent rounds half away from zero and clamps to [0, 100]; a zero denominator gives 0
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) * 100 / float64(whole)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// GuestLister is satisfied by the guest directory
type GuestLister interface {
	ListAll(ctx context.Context) ([]models.Guest, error)
}

// RSVPLister is satisfied by the RSVP service
type RSVPLister interface {
	ListAll(ctx context.Context) ([]models.RSVP, error)
}

type Service struct {
	guests GuestLister
	rsvps  RSVPLister
	now    func() time.Time
}

func NewService(guests GuestLister, rsvps RSVPLister) *Service {
	return &Service{guests: guests, rsvps: rsvps, now: time.Now}
}

// Load fetches a fresh snapshot and computes the statistics over it
func (s *Service) Load(ctx context.Context) (Statistics, error) {
	guests, err := s.guests.ListAll(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to load guests for statistics: %w", err)
	}
	rsvps, err := s.rsvps.ListAll(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to load rsvps for statistics: %w", err)
	}
	return Compute(guests, rsvps, s.now()), nil
}
