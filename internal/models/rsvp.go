package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance is the answer a guest gives on the RSVP form
type Attendance string

const (
	AttendanceYes Attendance = "hadir"
	AttendanceNo  Attendance = "tidak_hadir"
)

func (a Attendance) Valid() bool {
	return a == AttendanceYes || a == AttendanceNo
}

// RSVP is a recorded attendance response. GuestName is the dedup key.
type RSVP struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	GuestID        *uuid.UUID `gorm:"column:guest_id;type:uuid;index" json:"guest_id,omitempty"`
	GuestName      string     `gorm:"column:guest_name;not null;index" json:"guest_name"`
	Attendance     Attendance `gorm:"column:attendance;not null" json:"attendance"`
	GuestCount     *int       `gorm:"column:guest_count" json:"guest_count,omitempty"`
	Message        *string    `gorm:"column:message;type:text" json:"message,omitempty"`
	InvitationCode *string    `gorm:"column:invitation_code;size:5" json:"invitation_code,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

func (r *RSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Attendees returns the number of people this RSVP brings. A missing count
// on an attending RSVP means one person.
func (r *RSVP) Attendees() int {
	if r.Attendance != AttendanceYes {
		return 0
	}
	if r.GuestCount == nil {
		return 1
	}
	return *r.GuestCount
}
