package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/rsvp"
)

type RSVPHandler struct {
	rsvps *rsvp.Service
	log   zerolog.Logger
}

func NewRSVPHandler(rsvps *rsvp.Service, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{rsvps: rsvps, log: log.With().Str("component", "http").Logger()}
}

func (h *RSVPHandler) List(c *fiber.Ctx) error {
	rows, err := h.rsvps.ListAll(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", rows)
}

// Check reports the RSVP recorded under ?guest_name=, data is null when there is none
func (h *RSVPHandler) Check(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("guest_name"))
	if name == "" {
		return JsonValidationError(c, map[string][]string{"guest_name": {"required"}})
	}
	row, err := h.rsvps.CheckExisting(c.UserContext(), name)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", row)
}

func (h *RSVPHandler) Create(c *fiber.Ctx) error {
	var req rsvp.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	row, err := h.rsvps.Create(c.UserContext(), req)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonCreated(c, "rsvp created", row)
}

// Submit is the public RSVP form. A second answer for the same guest gets 409
// with the recorded answer as data.
func (h *RSVPHandler) Submit(c *fiber.Ctx) error {
	var req rsvp.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	row, err := h.rsvps.Submit(c.UserContext(), req)
	if errors.Is(err, rsvp.ErrAlreadySubmitted) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":    false,
			"message":    "Anda sudah mengirimkan konfirmasi kehadiran",
			"error_code": "CONFLICT",
			"data":       row,
		})
	}
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonCreated(c, "Terima kasih atas konfirmasi kehadiran Anda", row)
}

func (h *RSVPHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	if err := h.rsvps.Delete(c.UserContext(), id); err != nil {
		return Fail(c, h.log, err)
	}
	return JsonDeleted(c, "rsvp deleted", fiber.Map{"id": id})
}

func (h *RSVPHandler) DeleteAll(c *fiber.Ctx) error {
	n, err := h.rsvps.DeleteAll(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonDeleted(c, "all rsvps deleted", fiber.Map{"deleted": n})
}
