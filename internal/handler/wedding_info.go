package handler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/settings"
)

type WeddingInfoHandler struct {
	store    *settings.Store
	defaults models.WeddingInfo
	delay    time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	draft *settings.Autosaver
}

// NewWeddingInfoHandler serves the settings row. Draft edits are coalesced
// server-side and saved once no edit arrived for delay.
func NewWeddingInfoHandler(store *settings.Store, defaults models.WeddingInfo, delay time.Duration, log zerolog.Logger) *WeddingInfoHandler {
	return &WeddingInfoHandler{
		store:    store,
		defaults: defaults,
		delay:    delay,
		log:      log.With().Str("component", "http").Logger(),
	}
}

func (h *WeddingInfoHandler) Get(c *fiber.Ctx) error {
	info, err := h.store.GetOrCreate(c.UserContext(), h.defaults)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", info)
}

func (h *WeddingInfoHandler) Update(c *fiber.Ctx) error {
	var patch settings.Patch
	if err := c.BodyParser(&patch); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	if _, err := h.store.GetOrCreate(c.UserContext(), h.defaults); err != nil {
		return Fail(c, h.log, err)
	}
	info, err := h.store.Update(c.UserContext(), patch)
	if err != nil {
		return Fail(c, h.log, err)
	}

	h.mu.Lock()
	if h.draft != nil {
		h.draft.Rebase(*info)
	}
	h.mu.Unlock()
	return JsonUpdated(c, "wedding info saved", info)
}

type draftView struct {
	Status    settings.Status    `json:"status"`
	Pending   settings.Patch     `json:"pending"`
	LastError string             `json:"last_error,omitempty"`
	Info      models.WeddingInfo `json:"info"`
}

// EditDraft applies the edit to the draft right away and schedules the save
func (h *WeddingInfoHandler) EditDraft(c *fiber.Ctx) error {
	var patch settings.Patch
	if err := c.BodyParser(&patch); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	draft, err := h.autosaver(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	if err := draft.EditMany(patch); err != nil {
		return Fail(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "draft saved locally",
		"data":    viewOf(draft),
	})
}

func (h *WeddingInfoHandler) DraftStatus(c *fiber.Ctx) error {
	h.mu.Lock()
	draft := h.draft
	h.mu.Unlock()
	if draft == nil {
		return JsonOK(c, "", fiber.Map{"status": settings.StatusIdle})
	}
	return JsonOK(c, "", viewOf(draft))
}

// Close saves any pending draft edits
func (h *WeddingInfoHandler) Close(ctx context.Context) error {
	h.mu.Lock()
	draft := h.draft
	h.draft = nil
	h.mu.Unlock()
	if draft == nil {
		return nil
	}
	return draft.Close(ctx)
}

func (h *WeddingInfoHandler) autosaver(ctx context.Context) (*settings.Autosaver, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draft != nil {
		return h.draft, nil
	}

	info, err := h.store.GetOrCreate(ctx, h.defaults)
	if err != nil {
		return nil, err
	}
	save := func(ctx context.Context, patch settings.Patch) error {
		_, err := h.store.Update(ctx, patch)
		return err
	}
	h.draft = settings.NewAutosaver(*info, save, settings.AutosaveConfig{
		Delay: h.delay,
		OnStatus: func(s settings.Status) {
			h.log.Debug().Str("status", string(s)).Msg("draft autosave status")
		},
	}, h.log)
	return h.draft, nil
}

func viewOf(a *settings.Autosaver) draftView {
	v := draftView{
		Status:  a.Status(),
		Pending: a.Pending(),
		Info:    a.Snapshot(),
	}
	if err := a.LastError(); err != nil {
		v.LastError = err.Error()
	}
	return v
}
