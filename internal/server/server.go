// Package server assembles the fiber application: middleware, the public
// invitation routes and the admin API.
package server

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/budget"
	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/handler"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/settings"
	"wedding-invitation/internal/stats"
)

type Deps struct {
	Guests   *guest.Service
	RSVPs    *rsvp.Service
	Stats    *stats.Service
	Settings *settings.Store
	Budgets  *budget.Service
	// Sender is nil when WhatsApp is disabled
	Sender *handler.InvitationSender

	Defaults      models.WeddingInfo
	AutosaveDelay time.Duration
	CORSOrigins   string
	RSVPRateLimit int
	Log           zerolog.Logger
}

type Server struct {
	app         *fiber.App
	weddingInfo *handler.WeddingInfoHandler
	log         zerolog.Logger
}

func New(d Deps) *Server {
	log := d.Log.With().Str("component", "server").Logger()
	if d.RSVPRateLimit <= 0 {
		d.RSVPRateLimit = 20
	}
	if d.CORSOrigins == "" {
		d.CORSOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return handler.Fail(c, log, err)
		},
	})
	app.Use(requestLogger(log))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.CORSOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	s := &Server{
		app:         app,
		weddingInfo: handler.NewWeddingInfoHandler(d.Settings, d.Defaults, d.AutosaveDelay, d.Log),
		log:         log,
	}
	s.routes(d)
	return s
}

func (s *Server) routes(d Deps) {
	app := s.app
	invitations := handler.NewInvitationHandler(d.Guests, d.Settings, d.Defaults, d.Log)
	guests := handler.NewGuestHandler(d.Guests, d.Sender, d.Log)
	rsvps := handler.NewRSVPHandler(d.RSVPs, d.Log)
	statistics := handler.NewStatsHandler(d.Stats, d.Log)
	budgets := handler.NewBudgetHandler(d.Budgets, d.Log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/admin", s.adminIndex)

	api := app.Group("/api")
	api.Get("/invitations/:code", invitations.Get)
	api.Post("/rsvp", rsvpLimiter(d.RSVPRateLimit), rsvps.Submit)

	g := api.Group("/guests")
	g.Get("/", guests.List)
	g.Post("/", guests.Create)
	g.Get("/options/:field", guests.Options)
	g.Post("/regenerate-links", guests.RegenerateLinks)
	g.Get("/code/:code", guests.GetByCode)
	g.Patch("/:id", guests.Update)
	g.Delete("/:id", guests.Delete)
	g.Post("/:id/whatsapp", guests.SendWhatsApp)

	r := api.Group("/rsvps")
	r.Get("/", rsvps.List)
	r.Get("/check", rsvps.Check)
	r.Post("/", rsvps.Create)
	r.Delete("/", rsvps.DeleteAll)
	r.Delete("/:id", rsvps.Delete)

	api.Get("/stats", statistics.Get)

	w := api.Group("/wedding-info")
	w.Get("/", s.weddingInfo.Get)
	w.Patch("/", s.weddingInfo.Update)
	w.Patch("/draft", s.weddingInfo.EditDraft)
	w.Get("/draft/status", s.weddingInfo.DraftStatus)

	b := api.Group("/budgets")
	b.Get("/", budgets.List)
	b.Get("/summary", budgets.Summary)
	b.Post("/", budgets.Create)
	b.Get("/:id", budgets.Get)
	b.Delete("/:id", budgets.Delete)
	b.Post("/:id/income", budgets.AddIncome)
	b.Delete("/:id/income/:itemId", budgets.DeleteIncome)
	b.Post("/:id/expenses", budgets.AddExpense)
	b.Delete("/:id/expenses/:itemId", budgets.DeleteExpense)

	app.Get("/", invitations.Page)
	app.Get("/:code", invitations.Redirect)
}

// adminIndex lists the admin API
func (s *Server) adminIndex(c *fiber.Ctx) error {
	seen := map[string]bool{}
	var routes []string
	for _, r := range s.app.GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/api/") || r.Method == fiber.MethodHead {
			continue
		}
		key := r.Method + " " + strings.TrimSuffix(r.Path, "/")
		if !seen[key] {
			seen[key] = true
			routes = append(routes, key)
		}
	}
	sort.Strings(routes)
	return handler.JsonOK(c, "wedding invitation admin", fiber.Map{"routes": routes})
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown saves pending draft edits and stops accepting requests
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.weddingInfo.Close(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to save pending wedding info draft")
	}
	return s.app.ShutdownWithContext(ctx)
}
