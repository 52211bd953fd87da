package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MapsDisplayOption controls which venue maps the public page renders
type MapsDisplayOption string

const (
	MapsAkad    MapsDisplayOption = "akad"
	MapsResepsi MapsDisplayOption = "resepsi"
	MapsBoth    MapsDisplayOption = "both"
	MapsNone    MapsDisplayOption = "none"
)

func (o MapsDisplayOption) Valid() bool {
	switch o {
	case MapsAkad, MapsResepsi, MapsBoth, MapsNone:
		return true
	}
	return false
}

// EventDetails describes one of the two ceremonies
type EventDetails struct {
	Date         string `gorm:"column:date" json:"date"`
	Time         string `gorm:"column:time" json:"time"`
	VenueName    string `gorm:"column:venue_name" json:"venue_name"`
	VenueAddress string `gorm:"column:venue_address;type:text" json:"venue_address"`
	MapURL       string `gorm:"column:map_url;type:text" json:"map_url"`
}

// WeddingInfo is the singleton settings row behind the public page
type WeddingInfo struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BrideName         string            `gorm:"column:bride_name" json:"bride_name"`
	BrideFullName     string            `gorm:"column:bride_full_name" json:"bride_full_name"`
	BrideInitial      string            `gorm:"column:bride_initial;size:4" json:"bride_initial"`
	GroomName         string            `gorm:"column:groom_name" json:"groom_name"`
	GroomFullName     string            `gorm:"column:groom_full_name" json:"groom_full_name"`
	GroomInitial      string            `gorm:"column:groom_initial;size:4" json:"groom_initial"`
	BrideParents      string            `gorm:"column:bride_parents;type:text" json:"bride_parents"`
	GroomParents      string            `gorm:"column:groom_parents;type:text" json:"groom_parents"`
	BrideChildOrder   string            `gorm:"column:bride_child_order" json:"bride_child_order"`
	GroomChildOrder   string            `gorm:"column:groom_child_order" json:"groom_child_order"`
	Akad              EventDetails      `gorm:"embedded;embeddedPrefix:akad_" json:"akad"`
	Resepsi           EventDetails      `gorm:"embedded;embeddedPrefix:resepsi_" json:"resepsi"`
	MapsDisplayOption MapsDisplayOption `gorm:"column:maps_display_option;not null;default:both" json:"maps_display_option"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (WeddingInfo) TableName() string {
	return "wedding_info"
}

func (w *WeddingInfo) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.MapsDisplayOption == "" {
		w.MapsDisplayOption = MapsBoth
	}
	return nil
}
