package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guest represents an invited wedding guest
type Guest struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	Partner         *string   `gorm:"column:partner" json:"partner,omitempty"`
	Phone           *string   `gorm:"column:phone;index" json:"phone,omitempty"`
	FromSide        string    `gorm:"column:from_side;index" json:"from_side"`
	Category        string    `gorm:"column:category;index" json:"category"`
	InvitationCode  string    `gorm:"column:invitation_code;size:5;uniqueIndex;not null" json:"invitation_code"`
	InvitationLink  string    `gorm:"column:invitation_link" json:"invitation_link"`
	WhatsAppMessage string    `gorm:"column:whatsapp_message;type:text" json:"whatsapp_message"`
	RSVPSubmitted   bool      `gorm:"column:rsvp_submitted;not null;default:false" json:"rsvp_submitted"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Guest) TableName() string {
	return "guests"
}

func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// PartnerName returns the partner or an empty string
func (g *Guest) PartnerName() string {
	if g.Partner == nil {
		return ""
	}
	return *g.Partner
}

// RSVPState is the invitation state of a guest as seen by the admin panel
type RSVPState string

const (
	RSVPPending   RSVPState = "pending"
	RSVPSubmitted RSVPState = "submitted"
)

// State derives the guest's RSVP state from the submitted flag
func (g *Guest) State() RSVPState {
	if g.RSVPSubmitted {
		return RSVPSubmitted
	}
	return RSVPPending
}
