package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/models"
)

var ErrNoPhone = errors.New("guest has no phone number")

// Messenger delivers a text message to a phone number
type Messenger interface {
	SendMessage(ctx context.Context, phone, text string) error
}

// InvitationSender delivers a guest's stored invitation message over WhatsApp
type InvitationSender struct {
	guests    *guest.Service
	messenger Messenger
	log       zerolog.Logger
}

func NewInvitationSender(guests *guest.Service, messenger Messenger, log zerolog.Logger) *InvitationSender {
	return &InvitationSender{
		guests:    guests,
		messenger: messenger,
		log:       log.With().Str("component", "invite").Logger(),
	}
}

// SendByID sends the invitation of the guest with id
func (s *InvitationSender) SendByID(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	g, err := s.guests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return g, s.send(ctx, g)
}

// SendByCode sends the invitation of the guest addressed by code
func (s *InvitationSender) SendByCode(ctx context.Context, code string) (*models.Guest, error) {
	g, err := s.guests.GetByInvitationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return g, s.send(ctx, g)
}

func (s *InvitationSender) send(ctx context.Context, g *models.Guest) error {
	if g.Phone == nil || *g.Phone == "" {
		return fmt.Errorf("%w: %s", ErrNoPhone, g.Name)
	}
	if err := s.messenger.SendMessage(ctx, *g.Phone, g.WhatsAppMessage); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	s.log.Info().Str("guest_id", g.ID.String()).Str("code", g.InvitationCode).Msg("invitation sent")
	return nil
}
