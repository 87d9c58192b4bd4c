package discord

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Nick > GlobalName > Username
func resolveDisplayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil && member != nil {
		user = member.User
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

func sendDM(ctx context.Context, api chatAPI, log *slog.Logger, userID, content string) {
	ch, err := api.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		log.Warn("open DM channel failed", "user", userID, "err", err)
		return
	}
	if _, err := api.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		log.Warn("send DM failed", "user", userID, "err", err)
	}
}

func reply(ctx context.Context, api chatAPI, log *slog.Logger, m *discordgo.Message, content string) {
	if _, err := api.ChannelMessageSendReply(m.ChannelID, content, m.Reference(), discordgo.WithContext(ctx)); err != nil {
		log.Warn("reply failed", "channel", m.ChannelID, "err", err)
	}
}

func restError(err error) (*discordgo.RESTError, bool) {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest, true
	}
	return nil, false
}

// isForbidden reports a missing-permission or missing-access answer.
func isForbidden(err error) bool {
	rest, ok := restError(err)
	if !ok {
		return false
	}
	if rest.Message != nil && (rest.Message.Code == discordgo.ErrCodeMissingPermissions || rest.Message.Code == discordgo.ErrCodeMissingAccess) {
		return true
	}
	return rest.Response.StatusCode == http.StatusForbidden
}

// isPermanent reports errors a retry cannot fix: every 4xx but 429.
func isPermanent(err error) bool {
	rest, ok := restError(err)
	if !ok {
		return false
	}
	code := rest.Response.StatusCode
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
