package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"wedding-invitation/internal/config"
	"wedding-invitation/internal/storage"
)

// app is what every command starts from: configuration, a logger and the database
type app struct {
	cfg *config.Config
	log zerolog.Logger
	db  *gorm.DB
}

func bootstrap(cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(cfg.Level()).
		With().Timestamp().Logger()

	db, err := storage.Open(storage.Options{
		Driver:        cfg.DatabaseDriver,
		DSN:           cfg.DatabaseURL,
		Log:           log,
		SlowThreshold: 200 * time.Millisecond,
	})
	if err != nil {
		if hint := storage.SetupHint(err); hint != "" {
			log.Error().Msg(hint)
		}
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := storage.Close(a.db); err != nil {
		a.log.Warn().Err(err).Msg("failed to close database")
	}
}
