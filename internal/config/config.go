package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the application configuration
type Config struct {
	Port            string
	DatabaseDriver  string
	DatabaseURL     string
	BaseURL         string
	WhatsAppEnabled bool
	WhatsAppDataDir string
	AutosaveDelay   time.Duration
	BrideName       string
	GroomName       string
	LogLevel        string
	CORSOrigins     string
	RSVPRateLimit   int
}

// LoadDotEnv preloads variables from a .env file when one exists.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables or defaults
func Load() (*Config, error) {
	delay, err := time.ParseDuration(getEnv("AUTOSAVE_DELAY", "1.5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOSAVE_DELAY: %w", err)
	}
	rateLimit, err := strconv.Atoi(getEnv("RSVP_RATE_LIMIT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RSVP_RATE_LIMIT: %w", err)
	}
	whatsAppEnabled, err := strconv.ParseBool(getEnv("WHATSAPP_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid WHATSAPP_ENABLED: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:     getEnv("DATABASE_URL", "file:wedding.db?_foreign_keys=on"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:3000"),
		WhatsAppEnabled: whatsAppEnabled,
		WhatsAppDataDir: getEnv("WHATSAPP_DATA_DIR", "data"),
		AutosaveDelay:   delay,
		BrideName:       getEnv("BRIDE_NAME", "Bride"),
		GroomName:       getEnv("GROOM_NAME", "Groom"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		RSVPRateLimit:   rateLimit,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BASE_URL %q must be an absolute http(s) URL", c.BaseURL))
	}
	if c.AutosaveDelay <= 0 {
		errs = append(errs, errors.New("AUTOSAVE_DELAY must be positive"))
	}
	if c.RSVPRateLimit <= 0 {
		errs = append(errs, errors.New("RSVP_RATE_LIMIT must be positive"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Level returns the configured zerolog level, info when unset
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
