package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/storage"
)

type GuestHandler struct {
	guests *guest.Service
	sender *InvitationSender
	log    zerolog.Logger
}

// NewGuestHandler serves the guest directory. sender may be nil when WhatsApp is off.
func NewGuestHandler(guests *guest.Service, sender *InvitationSender, log zerolog.Logger) *GuestHandler {
	return &GuestHandler{guests: guests, sender: sender, log: log.With().Str("component", "http").Logger()}
}

func (h *GuestHandler) List(c *fiber.Ctx) error {
	guests, err := h.guests.ListAll(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", guests)
}

func (h *GuestHandler) Create(c *fiber.Ctx) error {
	var req guest.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	g, err := h.guests.Create(c.UserContext(), req)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonCreated(c, "guest created", g)
}

func (h *GuestHandler) Options(c *fiber.Ctx) error {
	counts, err := h.guests.DistinctValueCounts(c.UserContext(), c.Params("field"))
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", counts)
}

type regenerateRequest struct {
	BaseURL string `json:"base_url"`
}

func (h *GuestHandler) RegenerateLinks(c *fiber.Ctx) error {
	var req regenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return Fail(c, h.log, badRequest("invalid request body"))
		}
	}
	n, err := h.guests.RegenerateLinks(c.UserContext(), req.BaseURL)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonUpdated(c, "invitation links regenerated", fiber.Map{"updated": n})
}

func (h *GuestHandler) GetByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if !invitation.ValidCode(code) {
		return Fail(c, h.log, storage.ErrNotFound)
	}
	g, err := h.guests.GetByInvitationCode(c.UserContext(), code)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", g)
}

func (h *GuestHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	var req guest.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	g, err := h.guests.Update(c.UserContext(), id, req)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonUpdated(c, "guest updated", g)
}

func (h *GuestHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	if err := h.guests.Delete(c.UserContext(), id); err != nil {
		return Fail(c, h.log, err)
	}
	return JsonDeleted(c, "guest deleted", fiber.Map{"id": id})
}

func (h *GuestHandler) SendWhatsApp(c *fiber.Ctx) error {
	if h.sender == nil {
		return Fail(c, h.log, fiber.NewError(fiber.StatusServiceUnavailable, "WhatsApp is not enabled"))
	}
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	g, err := h.sender.SendByID(c.UserContext(), id)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "invitation sent", g)
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, badRequest("invalid " + param)
	}
	return id, nil
}
