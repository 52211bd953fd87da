package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/stats"
)

type StatsHandler struct {
	stats *stats.Service
	log   zerolog.Logger
}

func NewStatsHandler(s *stats.Service, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{stats: s, log: log.With().Str("component", "http").Logger()}
}

func (h *StatsHandler) Get(c *fiber.Ctx) error {
	st, err := h.stats.Load(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", st)
}
