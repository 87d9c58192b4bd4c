package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"ctfbot/internal/application"
	"ctfbot/internal/config"
	"ctfbot/internal/infrastructure/telemetry"
	"ctfbot/internal/ports/output"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// Dependencies are the output adapters built outside the Discord layer.
type Dependencies struct {
	Registry   output.EventRegistry
	Journal    output.Journal
	Translator output.T
}

// Bot is the Discord adapter.
type Bot struct {
	session   *discordgo.Session
	config    *config.Config
	handler   *Handler
	sweeper   *application.Sweeper
	log       *slog.Logger
	ctx       context.Context
	sweepOnce sync.Once
}

// NewBot creates a Bot and wires ports: output adapters -> application (use cases) -> handler.
func NewBot(cfg *config.Config, deps Dependencies, log *slog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = intents

	selfID := func() string {
		if s.State != nil && s.State.User != nil {
			return s.State.User.ID
		}
		return ""
	}
	platform := NewPlatform(s, deps.Translator, selfID, PlatformOptions{
		Locale:            cfg.Locale,
		ArchiveCategoryID: cfg.ArchiveCategoryID,
	}, log)

	metrics := telemetry.Recorder{}
	eventUC := application.NewEventService(deps.Registry, platform, platform, platform, deps.Journal, metrics, deps.Translator,
		application.EventOptions{Locale: cfg.Locale, OrganizerRoleID: cfg.OrganizerRoleID}, log)
	rsvpUC := application.NewRSVPService(deps.Registry, platform, platform, deps.Journal, metrics, log)
	sweeper := application.NewSweeper(deps.Registry, platform, platform, platform, deps.Journal, metrics, deps.Translator,
		application.SweepOptions{
			Interval:     cfg.SweepInterval,
			ImminentLead: cfg.ImminentLead,
			Retention:    cfg.Retention,
			Locale:       cfg.Locale,
		}, log.With("component", "sweep"))

	handler := NewHandler(s, eventUC, rsvpUC, deps.Translator, selfID, HandlerOptions{
		Prefix:         cfg.CommandPrefix,
		Locale:         cfg.Locale,
		GuildID:        cfg.GuildID,
		AnnounceRoleID: cfg.AnnounceRoleID,
		ImminentLead:   cfg.ImminentLead,
	}, log)

	bot := &Bot{
		session: s,
		config:  cfg,
		handler: handler,
		sweeper: sweeper,
		log:     log,
		ctx:     context.Background(),
	}
	bot.setupHandlers()
	return bot, nil
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handler.HandleMessage(b.ctx, m.Message)
	})
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		b.handler.HandleReactionAdd(b.ctx, r.MessageReaction, r.Member)
	})
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		b.handler.HandleReactionRemove(b.ctx, r.MessageReaction)
	})
}

// onReady starts the sweep on the first Ready only; reconnects fire Ready
// again.
func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("🤖 bot online", "user", r.User.Username, "guilds", len(r.Guilds))
	b.sweepOnce.Do(func() {
		go b.sweeper.Run(b.ctx)
	})
}

// Start runs the bot until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx
	if b.config.MetricsAddr != "" {
		go func() {
			if err := telemetry.Serve(ctx, b.config.MetricsAddr, b.log); err != nil {
				b.log.Error("❌ metrics endpoint stopped", "err", err)
			}
		}()
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer b.session.Close()

	<-ctx.Done()
	b.log.Info("shutting down")
	return nil
}
