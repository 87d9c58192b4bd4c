package discord

import (
	"log/slog"
	"time"

	"ctfbot/internal/ports/input"
	"ctfbot/internal/ports/output"
)

// HandlerOptions are the settings the gateway handlers read from
// configuration.
type HandlerOptions struct {
	Prefix         string
	Locale         string
	GuildID        string // when set, other guilds are ignored
	AnnounceRoleID string
	ImminentLead   time.Duration // quoted when a late accept is refused
}

// Handler handles Discord gateway events using use cases.
type Handler struct {
	api        chatAPI
	events     input.EventUseCase
	rsvp       input.RSVPUseCase
	translator output.T
	opts       HandlerOptions
	selfID     func() string
	log        *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	api chatAPI,
	events input.EventUseCase,
	rsvp input.RSVPUseCase,
	translator output.T,
	selfID func() string,
	opts HandlerOptions,
	log *slog.Logger,
) *Handler {
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	return &Handler{
		api:        api,
		events:     events,
		rsvp:       rsvp,
		translator: translator,
		opts:       opts,
		selfID:     selfID,
		log:        log,
	}
}

func (h *Handler) translate(key string, data map[string]any) string {
	return h.translator.T(h.opts.Locale, key, data)
}

// inScope filters out DMs and, when a guild is configured, other guilds.
func (h *Handler) inScope(guildID string) bool {
	if guildID == "" {
		return false
	}
	return h.opts.GuildID == "" || h.opts.GuildID == guildID
}
