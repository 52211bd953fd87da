package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"wedding-invitation/internal/guest"
	"wedding-invitation/internal/handler"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/whatsapp"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := storage.Migrate(a.db); err != nil {
				return err
			}
			a.log.Info().Str("driver", a.cfg.DatabaseDriver).Msg("schema up to date")
			return nil
		},
	}
}

func guestsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "guests",
		Short: "List guests, optionally only pending or submitted ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			svc := guest.NewService(a.db, a.cfg.BaseURL, a.log)
			var guests []models.Guest
			switch models.RSVPState(status) {
			case "":
				guests, err = svc.ListAll(cmd.Context())
			case models.RSVPPending, models.RSVPSubmitted:
				guests, err = svc.ListByState(cmd.Context(), models.RSVPState(status))
			default:
				return fmt.Errorf("unknown status %q, want pending or submitted", status)
			}
			if err != nil {
				return err
			}
			printGuests(cmd, guests)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending or submitted")
	return cmd
}

func printGuests(cmd *cobra.Command, guests []models.Guest) {
	out := cmd.OutOrStdout()
	if len(guests) == 0 {
		fmt.Fprintln(out, "No guests found.")
		return
	}

	fmt.Fprintf(out, "Guests (%d total):\n", len(guests))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, g := range guests {
		name := g.Name
		if p := g.PartnerName(); p != "" {
			name += " & " + p
		}
		fmt.Fprintf(out, "Name:   %s\n", name)
		if g.Phone != nil {
			fmt.Fprintf(out, "Phone:  %s\n", *g.Phone)
		}
		fmt.Fprintf(out, "Side:   %s / %s\n", g.FromSide, g.Category)
		fmt.Fprintf(out, "Status: %s\n", g.State())
		fmt.Fprintf(out, "Link:   %s\n", g.InvitationLink)
		fmt.Fprintln(out, strings.Repeat("-", 60))
	}
}

func inviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <code>",
		Short: "Send a guest's invitation over WhatsApp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToLower(strings.TrimSpace(args[0]))
			if !invitation.ValidCode(code) {
				return fmt.Errorf("%q is not an invitation code", args[0])
			}

			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wa, err := whatsapp.NewService(ctx, whatsapp.Config{DataDir: a.cfg.WhatsAppDataDir}, a.log)
			if err != nil {
				return err
			}
			if err := wa.Connect(ctx); err != nil {
				return err
			}
			defer wa.Disconnect()

			guests := guest.NewService(a.db, a.cfg.BaseURL, a.log)
			g, err := handler.NewInvitationSender(guests, wa, a.log).SendByCode(ctx, code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invitation sent to %s\n", g.Name)
			return nil
		},
	}
}
