// Package rsvp records guests' attendance responses. At most one response per
// guest name is kept, enforced by looking before inserting.
package rsvp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/validation"
)

var ErrAlreadySubmitted = errors.New("rsvp already submitted for this guest")

// CreateRequest is a raw RSVP row as entered by an admin
type CreateRequest struct {
	GuestID        *uuid.UUID        `json:"guest_id"`
	GuestName      string            `json:"guest_name" validate:"required,max=200"`
	Attendance     models.Attendance `json:"attendance" validate:"required,oneof=hadir tidak_hadir"`
	GuestCount     *int              `json:"guest_count" validate:"omitempty,min=1,max=50"`
	Message        *string           `json:"message" validate:"omitempty,max=2000"`
	InvitationCode *string           `json:"invitation_code" validate:"omitempty,len=5"`
}

// SubmitRequest is what a guest sends from the invitation page or over WhatsApp.
// With an invitation code the guest's own name is used; without one GuestName is required.
type SubmitRequest struct {
	InvitationCode string            `json:"invitation_code" validate:"omitempty,len=5"`
	GuestName      string            `json:"guest_name" validate:"required_without=InvitationCode,max=200"`
	Attendance     models.Attendance `json:"attendance" validate:"required,oneof=hadir tidak_hadir"`
	GuestCount     *int              `json:"guest_count" validate:"omitempty,min=1,max=50"`
	Message        *string           `json:"message" validate:"omitempty,max=2000"`
}

type Service struct {
	db       *gorm.DB
	validate *validator.Validate
	log      zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		validate: validation.New(),
		log:      log.With().Str("component", "rsvp").Logger(),
	}
}

// ListAll returns every RSVP, newest first
func (s *Service) ListAll(ctx context.Context) ([]models.RSVP, error) {
	var rows []models.RSVP
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", storage.Classify(err))
	}
	return rows, nil
}

// CheckExisting returns the RSVP recorded under guestName, or nil when there is none.
// Absence is not an error.
func (s *Service) CheckExisting(ctx context.Context, guestName string) (*models.RSVP, error) {
	return findByName(s.db.WithContext(ctx), guestName)
}

func findByName(db *gorm.DB, guestName string) (*models.RSVP, error) {
	var rows []models.RSVP
	err := db.Where("guest_name = ?", guestName).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rsvp: %w", storage.Classify(err))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Create inserts an RSVP row. It does not check for duplicates; call CheckExisting first.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.RSVP, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	row := models.RSVP{
		GuestID:        req.GuestID,
		GuestName:      req.GuestName,
		Attendance:     req.Attendance,
		GuestCount:     req.GuestCount,
		Message:        req.Message,
		InvitationCode: req.InvitationCode,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create rsvp: %w", storage.Classify(err))
	}
	s.log.Info().Str("rsvp_id", row.ID.String()).Str("guest", row.GuestName).
		Str("attendance", string(row.Attendance)).Msg("rsvp recorded")
	return &row, nil
}

// Submit runs the public flow: resolve the guest, refuse a second response,
// insert, then flag the guest as submitted. The last two are separate writes;
// if flagging fails the RSVP stays recorded and the failure is logged.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.RSVP, error) {
	req.InvitationCode = strings.TrimSpace(req.InvitationCode)
	req.GuestName = strings.TrimSpace(req.GuestName)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	create := CreateRequest{
		GuestName:  req.GuestName,
		Attendance: req.Attendance,
		GuestCount: req.GuestCount,
		Message:    req.Message,
	}
	if req.InvitationCode != "" {
		var g models.Guest
		if err := s.db.WithContext(ctx).First(&g, "invitation_code = ?", req.InvitationCode).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve invitation code: %w", storage.Classify(err))
		}
		create.GuestID = &g.ID
		create.GuestName = g.Name
		code := g.InvitationCode
		create.InvitationCode = &code
	}

	existing, err := s.CheckExisting(ctx, create.GuestName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrAlreadySubmitted
	}

	row, err := s.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	if err := s.markGuest(ctx, row, true); err != nil {
		s.log.Error().Err(err).Str("rsvp_id", row.ID.String()).Str("guest", row.GuestName).
			Msg("rsvp recorded but guest flag not updated")
	}
	return row, nil
}

// Delete removes one RSVP and clears the guest's submitted flag when no other
// response remains under that name
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.RSVP
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&row).Error; err != nil {
			return err
		}

		remaining, err := findByName(tx, row.GuestName)
		if err != nil {
			return err
		}
		if remaining != nil {
			return nil
		}
		return guestScope(tx, &row).Update("rsvp_submitted", false).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete rsvp: %w", storage.Classify(err))
	}
	s.log.Info().Str("rsvp_id", id.String()).Msg("rsvp deleted")
	return nil
}

// DeleteAll removes every RSVP and resets every guest's submitted flag
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		res := global.Delete(&models.RSVP{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return global.Model(&models.Guest{}).Update("rsvp_submitted", false).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete all rsvps: %w", storage.Classify(err))
	}
	s.log.Warn().Int64("deleted", deleted).Msg("all rsvps deleted")
	return deleted, nil
}

func (s *Service) markGuest(ctx context.Context, row *models.RSVP, submitted bool) error {
	err := guestScope(s.db.WithContext(ctx), row).Update("rsvp_submitted", submitted).Error
	if err != nil {
		return fmt.Errorf("failed to flag guest: %w", storage.Classify(err))
	}
	return nil
}

// guestScope selects the guest an RSVP belongs to: by id when known, else by name
func guestScope(db *gorm.DB, row *models.RSVP) *gorm.DB {
	q := db.Model(&models.Guest{})
	if row.GuestID != nil {
		return q.Where("id = ?", *row.GuestID)
	}
	return q.Where("name = ?", row.GuestName)
}

func (r *CreateRequest) normalize() {
	r.GuestName = strings.TrimSpace(r.GuestName)
	if r.Message != nil {
		m := strings.TrimSpace(*r.Message)
		if m == "" {
			r.Message = nil
		} else {
			r.Message = &m
		}
	}
	switch r.Attendance {
	case models.AttendanceNo:
		r.GuestCount = nil
	case models.AttendanceYes:
		if r.GuestCount == nil {
			one := 1
			r.GuestCount = &one
		}
	}
}
