package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/whatsapp"
)

// ReplyConfig carries the names used in confirmation replies
type ReplyConfig struct {
	BrideName string
	GroomName string
}

// RSVPReplyHandler turns WhatsApp replies from invited guests into RSVPs
type RSVPReplyHandler struct {
	guests    *guest.Service
	rsvps     *rsvp.Service
	messenger Messenger
	config    ReplyConfig
	log       zerolog.Logger
}

func NewRSVPReplyHandler(guests *guest.Service, rsvps *rsvp.Service, messenger Messenger, cfg ReplyConfig, log zerolog.Logger) *RSVPReplyHandler {
	return &RSVPReplyHandler{
		guests:    guests,
		rsvps:     rsvps,
		messenger: messenger,
		config:    cfg,
		log:       log.With().Str("component", "rsvp-reply").Logger(),
	}
}

// HandleMessage records an RSVP when a known guest answers their invitation
func (h *RSVPReplyHandler) HandleMessage(ctx context.Context, msg whatsapp.IncomingMessage) error {
	attendance, count, ok := parseReply(msg.Text)
	if !ok && !mentionsAttendance(msg.Text) {
		return nil
	}

	g, err := h.guestByPhone(ctx, msg.Phone)
	if err != nil {
		return err
	}
	if g == nil {
		// only guests we invited can answer
		return nil
	}
	if !ok {
		if g.RSVPSubmitted {
			return nil
		}
		h.log.Debug().Str("guest", g.Name).Msg("unclear rsvp reply, sending instructions")
		return h.reply(ctx, msg.Phone, instructionText)
	}

	req := rsvp.SubmitRequest{
		InvitationCode: g.InvitationCode,
		Attendance:     attendance,
	}
	if attendance == models.AttendanceYes && count > 0 {
		req.GuestCount = &count
	}

	row, err := h.rsvps.Submit(ctx, req)
	switch {
	case errors.Is(err, rsvp.ErrAlreadySubmitted):
		return h.reply(ctx, msg.Phone, h.alreadyRecordedText(row))
	case err != nil:
		return fmt.Errorf("failed to record rsvp: %w", err)
	}

	h.log.Info().Str("guest", g.Name).Str("attendance", string(attendance)).Msg("rsvp received over whatsapp")
	return h.reply(ctx, msg.Phone, h.confirmationText(row))
}

func (h *RSVPReplyHandler) guestByPhone(ctx context.Context, phone string) (*models.Guest, error) {
	guests, err := h.guests.ListWithPhone(ctx)
	if err != nil {
		return nil, err
	}
	for i := range guests {
		if whatsapp.NormalizePhoneNumber(*guests[i].Phone) == phone {
			return &guests[i], nil
		}
	}
	return nil, nil
}

func (h *RSVPReplyHandler) reply(ctx context.Context, phone, text string) error {
	if err := h.messenger.SendMessage(ctx, phone, text); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

func (h *RSVPReplyHandler) couple() string {
	return h.config.BrideName + " & " + h.config.GroomName
}

func (h *RSVPReplyHandler) confirmationText(row *models.RSVP) string {
	if row.Attendance == models.AttendanceYes {
		return fmt.Sprintf(
			"Terima kasih, konfirmasi kehadiran Anda (%d orang) di pernikahan %s sudah kami catat.\n\nSampai jumpa di hari bahagia kami!",
			row.Attendees(), h.couple(),
		)
	}
	return fmt.Sprintf(
		"Terima kasih atas kabarnya. Kami mohon doa restu untuk pernikahan %s.",
		h.couple(),
	)
}

func (h *RSVPReplyHandler) alreadyRecordedText(row *models.RSVP) string {
	answer := "tidak hadir"
	if row != nil && row.Attendance == models.AttendanceYes {
		answer = "hadir"
	}
	return fmt.Sprintf("Konfirmasi Anda (%s) sudah kami terima sebelumnya. Terima kasih!", answer)
}

const instructionText = "Mohon maaf, kami belum bisa membaca konfirmasi Anda.\n\n" +
	"Balas dengan *hadir* (atau *hadir 2* untuk jumlah tamu) atau *tidak hadir*."

var (
	// leadingWords may open a reply without changing its meaning
	leadingWords = []string{"insyaallah", "insya", "insha", "allah", "mohon", "maaf", "ya", "iya", "kami", "saya", "aku"}
	attendWords  = []string{"hadir", "datang"}
	negateWords  = []string{"tidak", "tdk", "gak", "ga", "nggak", "enggak"}
	ableWords    = []string{"bisa", "dapat"}
)

func replyWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == ',' || r == '.' || r == '!' || r == '?'
	})
}

// parseReply reads replies that open with a reply form: "hadir", "hadir 3",
// "tidak hadir", "tidak bisa hadir" or "berhalangan", optionally after words
// like "insyaallah" or "mohon maaf". Anything else is not a reply.
func parseReply(text string) (models.Attendance, int, bool) {
	words := replyWords(text)
	for len(words) > 0 && containsAny(words[:1], leadingWords...) {
		words = words[1:]
	}
	if len(words) == 0 {
		return "", 0, false
	}

	switch first := words[0]; {
	case first == "✅":
		return models.AttendanceYes, 0, true
	case first == "❌", first == "berhalangan":
		return models.AttendanceNo, 0, true
	case containsAny(words[:1], attendWords...):
		count := 0
		if len(words) > 1 {
			if n, err := strconv.Atoi(words[1]); err == nil && n > 0 && n <= 50 {
				count = n
			}
		}
		return models.AttendanceYes, count, true
	case containsAny(words[:1], negateWords...):
		rest := words[1:]
		if len(rest) > 0 && containsAny(rest[:1], ableWords...) {
			rest = rest[1:]
		}
		if len(rest) > 0 && containsAny(rest[:1], attendWords...) {
			return models.AttendanceNo, 0, true
		}
	}
	return "", 0, false
}

// mentionsAttendance reports whether a message talks about coming without
// being a reply form parseReply accepts
func mentionsAttendance(text string) bool {
	words := replyWords(text)
	return containsAny(words, attendWords...) || containsAny(words, "berhalangan", "rsvp")
}

// containsAny checks if any word equals one of the keywords
func containsAny(words []string, keywords ...string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
