package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	pkgdiscord "ctfbot/pkg/discord"
)

func (h *Handler) ignoreReaction(r *discordgo.MessageReaction) (domain.Response, bool) {
	if r == nil || !h.inScope(r.GuildID) || r.UserID == "" || r.UserID == h.selfID() {
		return 0, false
	}
	resp, ok := domain.ResponseFromEmoji(r.Emoji.Name)
	return resp, !ok
}

// HandleReactionAdd maps a response emoji to SetResponse and mirrors the
// result on the message: the previous category's reaction is removed, and a
// refused reaction on a locked event is taken back.
func (h *Handler) HandleReactionAdd(ctx context.Context, r *discordgo.MessageReaction, member *discordgo.Member) {
	resp, ignore := h.ignoreReaction(r)
	if ignore {
		return
	}
	if member != nil && member.User != nil && member.User.Bot {
		return
	}
	p := entities.Participant{UserID: r.UserID, DisplayName: resolveDisplayName(member, nil)}
	log := h.log.With("event", r.MessageID, "user", r.UserID, "response", resp.String())

	out, err := h.rsvp.SetResponse(ctx, r.MessageID, p, resp)
	switch {
	case errors.Is(err, domain.ErrEventLocked):
		h.removeReaction(ctx, r, resp.Emoji(), log)
		name := ""
		if event, err := h.events.GetEvent(ctx, r.MessageID); err == nil {
			name = event.Name
		}
		sendDM(ctx, h.api, log, r.UserID, h.translate("notice.locked_dm", map[string]any{
			"Name": name,
			"Lead": pkgdiscord.FormatLead(h.opts.ImminentLead),
		}))
		log.Info("🔒 response refused, event locked")
		return
	case err != nil:
		log.Error("❌ set response failed", "err", err)
		return
	case !out.Tracked:
		return
	}
	if out.HadPrevious && out.Previous != resp {
		h.removeReaction(ctx, r, out.Previous.Emoji(), log)
	}
	if out.Changed() {
		log.Info("response recorded")
	}
}

// HandleReactionRemove withdraws the matching response. Removals the bot made
// itself to mirror exclusivity find a different current category and change
// nothing.
func (h *Handler) HandleReactionRemove(ctx context.Context, r *discordgo.MessageReaction) {
	resp, ignore := h.ignoreReaction(r)
	if ignore {
		return
	}
	out, err := h.rsvp.WithdrawResponse(ctx, r.MessageID, r.UserID, resp)
	if err != nil {
		h.log.Error("❌ withdraw response failed", "event", r.MessageID, "user", r.UserID, "err", err)
		return
	}
	if out.Changed() {
		h.log.Info("response withdrawn", "event", r.MessageID, "user", r.UserID, "response", resp.String())
	}
}

func (h *Handler) removeReaction(ctx context.Context, r *discordgo.MessageReaction, emoji string, log *slog.Logger) {
	err := h.api.MessageReactionRemove(r.ChannelID, r.MessageID, emoji, r.UserID, discordgo.WithContext(ctx))
	if err != nil {
		log.Warn("remove reaction failed", "emoji", emoji, "forbidden", isForbidden(err), "err", err)
	}
}
