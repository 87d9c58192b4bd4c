package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ctfbot/internal/adapters/discord"
	"ctfbot/internal/config"
	"ctfbot/internal/infrastructure/database"
	"ctfbot/internal/infrastructure/i18n"
	"ctfbot/internal/infrastructure/memory"
	"ctfbot/internal/infrastructure/telemetry"
	"ctfbot/internal/ports/output"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ctfbot: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	log := config.NewLogger(cfg)
	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var journal output.Journal = database.NoopJournal{}
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
			return exitRuntime, fmt.Errorf("migrations: %w", err)
		}
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return exitRuntime, fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		journal = database.NewJournalRepository(pool)
	}

	bot, err := discord.NewBot(cfg, discord.Dependencies{
		Registry:   memory.NewEventRegistry(),
		Journal:    journal,
		Translator: i18n.NewTranslator(cfg.Locale, log),
	}, log)
	if err != nil {
		return exitRuntime, err
	}
	if err := bot.Start(ctx); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
