package discord

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/input"
	pkgdiscord "ctfbot/pkg/discord"
)

const maxListedEvents = 25 // embed field limit

var errUsage = errors.New("usage")

// HandleMessage dispatches prefixed text commands.
func (h *Handler) HandleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || !h.inScope(m.GuildID) {
		return
	}
	content := strings.TrimSpace(m.Content)
	body, ok := strings.CutPrefix(content, h.opts.Prefix)
	if !ok {
		return
	}
	name, args := splitCommand(body)
	switch strings.ToLower(name) {
	case "ctf":
		h.handleCreate(ctx, m, args)
	case "ctfs":
		h.handleList(ctx, m)
	case "archive":
		h.handleArchive(ctx, m, args)
	}
}

func splitCommand(body string) (name, args string) {
	i := strings.IndexFunc(body, unicode.IsSpace)
	if i < 0 {
		return body, ""
	}
	return body[:i], body[i:]
}

func (h *Handler) handleCreate(ctx context.Context, m *discordgo.Message, args string) {
	name, dateRange, description, err := parseCreateArgs(args)
	if err != nil {
		reply(ctx, h.api, h.log, m, h.translate("errors.usage", map[string]any{"Prefix": h.opts.Prefix}))
		return
	}
	cmd := input.CreateEventCommand{
		Name:        name,
		DateRange:   dateRange,
		Description: description,
		Actor:       h.resolveActor(ctx, m),
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
	}
	if ch, err := h.api.Channel(m.ChannelID, discordgo.WithContext(ctx)); err == nil && ch != nil {
		cmd.CategoryID = ch.ParentID
	}

	event, err := h.events.CreateEvent(ctx, cmd)
	if err != nil {
		h.replyError(ctx, m, err, nil)
		return
	}

	if h.opts.AnnounceRoleID != "" {
		ping := h.translate("reply.announce_ping", map[string]any{"Role": h.opts.AnnounceRoleID, "Name": event.Name})
		if _, err := h.api.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Content:         ping,
			AllowedMentions: &discordgo.MessageAllowedMentions{Roles: []string{h.opts.AnnounceRoleID}},
		}, discordgo.WithContext(ctx)); err != nil {
			h.log.Warn("role ping failed", "role", h.opts.AnnounceRoleID, "err", err)
		}
	}
	if err := h.api.ChannelMessageDelete(m.ChannelID, m.ID, discordgo.WithContext(ctx)); err != nil && !isForbidden(err) {
		h.log.Warn("delete command message failed", "message", m.ID, "err", err)
	}
	h.log.Info("📢 event announced", "event", event.MessageID, "name", event.Name, "by", m.Author.ID)
}

func (h *Handler) handleList(ctx context.Context, m *discordgo.Message) {
	events, err := h.events.ListEvents(ctx)
	if err != nil {
		h.replyError(ctx, m, err, nil)
		return
	}
	if len(events) == 0 {
		reply(ctx, h.api, h.log, m, h.translate("list.empty", nil))
		return
	}
	if _, err := h.api.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{h.buildListEmbed(events)},
		Reference: m.Reference(),
	}, discordgo.WithContext(ctx)); err != nil {
		h.log.Warn("send event list failed", "channel", m.ChannelID, "err", err)
	}
}

func (h *Handler) buildListEmbed(events []entities.Event) *discordgo.MessageEmbed {
	if len(events) > maxListedEvents {
		events = events[:maxListedEvents]
	}
	fields := lo.Map(events, func(e entities.Event, _ int) *discordgo.MessageEmbedField {
		name := e.Name
		if e.Locked {
			name = h.translate("list.locked", map[string]any{"Name": e.Name})
		}
		return &discordgo.MessageEmbedField{
			Name: name,
			Value: h.translate("list.entry", map[string]any{
				"StartTS":   e.StartAt.Unix(),
				"EndTS":     e.EndAt.Unix(),
				"Accepted":  e.Count(domain.ResponseAccept),
				"Tentative": e.Count(domain.ResponseTentative),
				"Rejected":  e.Count(domain.ResponseReject),
				"Space":     e.SpaceID,
			}),
		}
	})
	return &discordgo.MessageEmbed{
		Title:  h.translate("list.title", nil),
		Color:  0x5865F2,
		Fields: fields,
	}
}

func (h *Handler) handleArchive(ctx context.Context, m *discordgo.Message, args string) {
	name := strings.TrimSpace(args)
	if quoted, _, ok := cutQuoted(name); ok {
		name = strings.TrimSpace(quoted)
	}
	if name == "" {
		reply(ctx, h.api, h.log, m, h.translate("errors.archive_usage", map[string]any{"Prefix": h.opts.Prefix}))
		return
	}
	event, err := h.events.ArchiveEvent(ctx, h.resolveActor(ctx, m), name)
	if err != nil && event == nil {
		h.replyError(ctx, m, err, map[string]any{"Name": name})
		return
	}
	if err != nil {
		h.log.Warn("event archived with errors", "event", event.MessageID, "err", err)
	}
	reply(ctx, h.api, h.log, m, h.translate("reply.archived", map[string]any{"Name": event.Name}))
}

// replyError answers with the translated domain error, or a generic message.
func (h *Handler) replyError(ctx context.Context, m *discordgo.Message, err error, data map[string]any) {
	code := domain.Code(err)
	key := "errors." + code
	if code == "" {
		key = "errors.generic"
		h.log.Error("❌ command failed", "content", m.Content, "err", err)
	} else {
		h.log.Info("command rejected", "code", code, "user", m.Author.ID, "err", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Format"] = pkgdiscord.DateRangeFormat
	data["Prefix"] = h.opts.Prefix
	reply(ctx, h.api, h.log, m, h.translate(key, data))
}

// resolveActor builds the invoking member. The Administrator flag comes from
// the computed channel permissions; a lookup failure means no flag.
func (h *Handler) resolveActor(ctx context.Context, m *discordgo.Message) entities.Actor {
	actor := entities.Actor{
		ID:          m.Author.ID,
		DisplayName: resolveDisplayName(m.Member, m.Author),
	}
	if m.Member != nil {
		actor.RoleIDs = m.Member.Roles
	}
	perms, err := h.api.UserChannelPermissions(m.Author.ID, m.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		h.log.Debug("permission lookup failed", "user", m.Author.ID, "channel", m.ChannelID, "err", err)
		return actor
	}
	actor.Administrator = perms&discordgo.PermissionAdministrator != 0
	return actor
}

func isOpenQuote(r rune) bool  { return r == '"' || r == '“' }
func isCloseQuote(r rune) bool { return r == '"' || r == '”' }

// cutQuoted splits a leading quoted string off s.
func cutQuoted(s string) (quoted, rest string, ok bool) {
	r, size := utf8.DecodeRuneInString(s)
	if !isOpenQuote(r) {
		return "", s, false
	}
	body := s[size:]
	end := strings.IndexFunc(body, isCloseQuote)
	if end < 0 {
		return "", s, false
	}
	_, closeSize := utf8.DecodeRuneInString(body[end:])
	return body[:end], body[end+closeSize:], true
}

// parseCreateArgs splits `<name> "<start> – <end>" <description>`. The name
// may itself be quoted; the description keeps its inner spacing and lines.
func parseCreateArgs(args string) (name, dateRange, description string, err error) {
	args = strings.TrimLeftFunc(args, unicode.IsSpace)
	var ok bool
	if name, args, ok = cutQuoted(args); !ok {
		i := strings.IndexFunc(args, isOpenQuote)
		if i < 0 {
			return "", "", "", errUsage
		}
		name, args = args[:i], args[i:]
	}
	args = strings.TrimLeftFunc(args, unicode.IsSpace)
	if dateRange, args, ok = cutQuoted(args); !ok {
		return "", "", "", errUsage
	}
	name = strings.TrimSpace(name)
	dateRange = strings.TrimSpace(dateRange)
	description = strings.TrimSpace(args)
	if name == "" || dateRange == "" || description == "" {
		return "", "", "", errUsage
	}
	return name, dateRange, description, nil
}
