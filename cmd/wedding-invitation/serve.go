package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wedding-invitation/internal/budget"
	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/handler"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/server"
	"wedding-invitation/internal/settings"
	"wedding-invitation/internal/stats"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/whatsapp"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the invitation page and the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := storage.Migrate(a.db); err != nil {
					return err
				}
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create or update tables before serving")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	guests := guest.NewService(a.db, a.cfg.BaseURL, a.log)
	rsvps := rsvp.NewService(a.db, a.log)

	var sender *handler.InvitationSender
	if a.cfg.WhatsAppEnabled {
		wa, err := whatsapp.NewService(ctx, whatsapp.Config{DataDir: a.cfg.WhatsAppDataDir}, a.log)
		if err != nil {
			return err
		}
		replies := handler.NewRSVPReplyHandler(guests, rsvps, wa, handler.ReplyConfig{
			BrideName: a.cfg.BrideName,
			GroomName: a.cfg.GroomName,
		}, a.log)
		wa.SetMessageHandler(replies.HandleMessage)
		if err := wa.Connect(ctx); err != nil {
			return err
		}
		defer wa.Disconnect()
		sender = handler.NewInvitationSender(guests, wa, a.log)
	}

	srv := server.New(server.Deps{
		Guests:        guests,
		RSVPs:         rsvps,
		Stats:         stats.NewService(guests, rsvps),
		Settings:      settings.NewStore(a.db, a.log),
		Budgets:       budget.NewService(a.db, a.log),
		Sender:        sender,
		Defaults:      settings.Defaults(a.cfg.BrideName, a.cfg.GroomName),
		AutosaveDelay: a.cfg.AutosaveDelay,
		CORSOrigins:   a.cfg.CORSOrigins,
		RSVPRateLimit: a.cfg.RSVPRateLimit,
		Log:           a.log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(":" + a.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
