package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "wedding-invitation",
		Short:         "Personalised wedding invitations, RSVPs and budget planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "file to preload environment variables from")

	root.AddCommand(serveCmd(), migrateCmd(), guestsCmd(), inviteCmd())

	if err := root.Execute(); err != nil {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
