package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/settings"
	"wedding-invitation/internal/storage"
)

//go:embed templates/invitation.html
var templateFS embed.FS

var invitationPage = template.Must(template.ParseFS(templateFS, "templates/invitation.html"))

// DefaultRecipient addresses visitors who came without a code or a name
const DefaultRecipient = "Tamu Undangan"

// InvitationView is everything the public page renders
type InvitationView struct {
	Code          string                    `json:"code,omitempty"`
	Recipient     string                    `json:"recipient"`
	Guest         *models.Guest             `json:"guest,omitempty"`
	RSVPSubmitted bool                      `json:"rsvp_submitted"`
	Wedding       models.WeddingInfo        `json:"wedding"`
	Maps          invitation.MapsVisibility `json:"maps"`
}

type InvitationHandler struct {
	guests   *guest.Service
	store    *settings.Store
	defaults models.WeddingInfo
	log      zerolog.Logger
}

func NewInvitationHandler(guests *guest.Service, store *settings.Store, defaults models.WeddingInfo, log zerolog.Logger) *InvitationHandler {
	return &InvitationHandler{
		guests:   guests,
		store:    store,
		defaults: defaults,
		log:      log.With().Str("component", "http").Logger(),
	}
}

// Page renders the invitation for ?code=, or for a legacy ?to=/?nama=/?guest= name
func (h *InvitationHandler) Page(c *fiber.Ctx) error {
	view, err := h.view(c.UserContext(), c.Query("code"), invitation.LegacyRecipient(func(key string) string {
		return c.Query(key)
	}))
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).SendString("Undangan tidak ditemukan")
	}
	if err != nil {
		return Fail(c, h.log, err)
	}

	var buf bytes.Buffer
	if err := invitationPage.Execute(&buf, view); err != nil {
		return Fail(c, h.log, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// Redirect rewrites the short /:code form to /?code=:code
func (h *InvitationHandler) Redirect(c *fiber.Ctx) error {
	code := c.Params("code")
	if !invitation.ValidCode(code) {
		return c.Next()
	}
	return c.Redirect("/?code="+code, fiber.StatusFound)
}

// Get returns the page's view model as JSON
func (h *InvitationHandler) Get(c *fiber.Ctx) error {
	view, err := h.view(c.UserContext(), c.Params("code"), "")
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", view)
}

func (h *InvitationHandler) view(ctx context.Context, code, legacyName string) (*InvitationView, error) {
	view := &InvitationView{Recipient: DefaultRecipient}

	if code != "" {
		if !invitation.ValidCode(code) {
			return nil, storage.ErrNotFound
		}
		g, err := h.guests.GetByInvitationCode(ctx, code)
		if err != nil {
			return nil, err
		}
		view.Code = code
		view.Guest = g
		view.RSVPSubmitted = g.RSVPSubmitted
		view.Recipient = g.Name
		if p := g.PartnerName(); p != "" {
			view.Recipient += " & " + p
		}
	} else if legacyName != "" {
		view.Recipient = legacyName
	}

	info, err := h.store.GetOrCreate(ctx, h.defaults)
	if err != nil {
		return nil, err
	}
	view.Wedding = *info
	view.Maps = invitation.Maps(info.MapsDisplayOption)
	return view, nil
}
