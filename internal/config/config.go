package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Token             string        `env:"DISCORD_TOKEN,required=true" validate:"required"`
	GuildID           string        `env:"GUILD_ID" validate:"omitempty,numeric"`
	CommandPrefix     string        `env:"COMMAND_PREFIX,default=!" validate:"min=1,max=5"`
	OrganizerRoleID   string        `env:"ORGANIZER_ROLE_ID" validate:"omitempty,numeric"`
	AnnounceRoleID    string        `env:"ANNOUNCE_ROLE_ID" validate:"omitempty,numeric"`
	ArchiveCategoryID string        `env:"ARCHIVE_CATEGORY_ID" validate:"omitempty,numeric"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=1m" validate:"min=1s"`
	ImminentLead      time.Duration `env:"IMMINENT_LEAD,default=30m" validate:"min=1s"`
	Retention         time.Duration `env:"RETENTION,default=72h" validate:"min=1s"`
	Locale            string        `env:"LOCALE,default=en" validate:"oneof=en fr"`
	DatabaseURL       string        `env:"DATABASE_URL" validate:"omitempty,url"`
	MetricsAddr       string        `env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	LogLevel          string        `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	Environment       string        `env:"GO_ENV,default=development"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	// .env is optional when variables come from the environment (Docker, CI).
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Token = strings.TrimSpace(c.Token)
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a slog.Logger: JSON in production, text otherwise.
func NewLogger(c *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.LogLevel)}
	if c.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
