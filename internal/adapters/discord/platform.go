package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v5"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	"ctfbot/internal/infrastructure/telemetry"
	"ctfbot/internal/ports/output"
	pkgdiscord "ctfbot/pkg/discord"
)

var (
	_ output.Announcer     = (*Platform)(nil)
	_ output.SpaceManager  = (*Platform)(nil)
	_ output.AccessManager = (*Platform)(nil)
	_ output.Notifier      = (*Platform)(nil)
)

const (
	maxTries     = 4
	memberAccess = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	botAccess    = memberAccess | discordgo.PermissionManageChannels | discordgo.PermissionManageRoles | discordgo.PermissionReadMessageHistory
	readOnly     = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
)

// PlatformOptions configure the Discord side effects.
type PlatformOptions struct {
	Locale            string
	ArchiveCategoryID string
}

// Platform implements the announcement, channel, access and notice ports on
// a Discord session. Transient failures are retried with exponential backoff.
type Platform struct {
	api        chatAPI
	translator output.T
	opts       PlatformOptions
	selfID     func() string
	log        *slog.Logger
	newBackOff func() backoff.BackOff
}

func NewPlatform(api chatAPI, translator output.T, selfID func() string, opts PlatformOptions, log *slog.Logger) *Platform {
	return &Platform{
		api:        api,
		translator: translator,
		opts:       opts,
		selfID:     selfID,
		log:        log,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// retry runs op until it succeeds, fails permanently or runs out of tries.
func retry[T any](ctx context.Context, p *Platform, operation string, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && isPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			telemetry.IncPlatformRetry(operation)
			p.log.Debug("retrying discord call", "operation", operation, "in", next, "err", err)
		}),
	)
}

func (p *Platform) do(ctx context.Context, operation string, op func() error) error {
	_, err := retry(ctx, p, operation, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

func (p *Platform) labels() pkgdiscord.EmbedLabels {
	t := func(key string) string { return p.translator.T(p.opts.Locale, key, nil) }
	return pkgdiscord.EmbedLabels{
		When:         t("embed.when"),
		Accepted:     t("embed.accepted"),
		Rejected:     t("embed.rejected"),
		Tentative:    t("embed.tentative"),
		Empty:        t("embed.empty"),
		Footer:       t("embed.footer"),
		LockedFooter: t("embed.locked_footer"),
	}
}

func (p *Platform) Publish(ctx context.Context, channelID string, event *entities.Event) (string, error) {
	embed := pkgdiscord.BuildEventEmbed(event, p.labels())
	msg, err := retry(ctx, p, "publish", func() (*discordgo.Message, error) {
		return p.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, discordgo.WithContext(ctx))
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (p *Platform) Render(ctx context.Context, event *entities.Event) error {
	embeds := []*discordgo.MessageEmbed{pkgdiscord.BuildEventEmbed(event, p.labels())}
	return p.do(ctx, "render", func() error {
		_, err := p.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:      event.MessageID,
			Channel: event.ChannelID,
			Embeds:  &embeds,
		}, discordgo.WithContext(ctx))
		return err
	})
}

// InstallAffordances adds the three response reactions in display order.
func (p *Platform) InstallAffordances(ctx context.Context, channelID, messageID string) error {
	for _, r := range domain.Responses {
		emoji := r.Emoji()
		if err := p.do(ctx, "react", func() error {
			return p.api.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
		}); err != nil {
			return fmt.Errorf("add %s: %w", emoji, err)
		}
	}
	return nil
}

func (p *Platform) Retract(ctx context.Context, channelID, messageID string) error {
	return p.do(ctx, "retract", func() error {
		return p.api.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	})
}

// CreateSpace creates the private text channel: @everyone denied, bot and
// creator allowed.
func (p *Platform) CreateSpace(ctx context.Context, spec output.SpaceSpec) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: spec.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}
	if botID := p.selfID(); botID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Allow: botAccess})
	}
	if spec.CreatorID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: spec.CreatorID, Type: discordgo.PermissionOverwriteTypeMember, Allow: memberAccess})
	}
	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                spec.Topic,
		ParentID:             spec.CategoryID,
		PermissionOverwrites: overwrites,
	}
	ch, err := retry(ctx, p, "create_channel", func() (*discordgo.Channel, error) {
		return p.api.GuildChannelCreateComplex(spec.GuildID, data, discordgo.WithContext(ctx))
	})
	if err != nil {
		return "", err
	}
	p.log.Info("🔒 private channel created", "channel", ch.ID, "name", ch.Name)
	return ch.ID, nil
}

// ArchiveSpace renames the channel to archived-<name>, moves it to the
// archive category when one is configured, and makes member overwrites
// read-only. @everyone stays denied.
func (p *Platform) ArchiveSpace(ctx context.Context, guildID, spaceID string) error {
	ch, err := retry(ctx, p, "get_channel", func() (*discordgo.Channel, error) {
		return p.api.Channel(spaceID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	edit := &discordgo.ChannelEdit{Name: domain.ArchivedChannelName(ch.Name)}
	if p.opts.ArchiveCategoryID != "" {
		edit.ParentID = p.opts.ArchiveCategoryID
	}
	if err := p.do(ctx, "archive_channel", func() error {
		_, err := p.api.ChannelEdit(spaceID, edit, discordgo.WithContext(ctx))
		return err
	}); err != nil {
		return fmt.Errorf("edit channel: %w", err)
	}

	botID := p.selfID()
	if err := p.do(ctx, "permission", func() error {
		return p.api.ChannelPermissionSet(spaceID, guildID, discordgo.PermissionOverwriteTypeRole, 0, discordgo.PermissionViewChannel, discordgo.WithContext(ctx))
	}); err != nil {
		p.log.Warn("keep @everyone denied failed", "channel", spaceID, "err", err)
	}
	for _, o := range ch.PermissionOverwrites {
		if o.Type != discordgo.PermissionOverwriteTypeMember || o.ID == botID {
			continue
		}
		target := o.ID
		if err := p.do(ctx, "permission", func() error {
			return p.api.ChannelPermissionSet(spaceID, target, discordgo.PermissionOverwriteTypeMember, readOnly, discordgo.PermissionSendMessages, discordgo.WithContext(ctx))
		}); err != nil {
			p.log.Warn("read-only overwrite failed", "channel", spaceID, "user", target, "err", err)
		}
	}
	return nil
}

func (p *Platform) GrantAccess(ctx context.Context, spaceID, userID string) error {
	if spaceID == "" || userID == "" {
		return nil
	}
	err := p.do(ctx, "grant", func() error {
		return p.api.ChannelPermissionSet(spaceID, userID, discordgo.PermissionOverwriteTypeMember, memberAccess, 0, discordgo.WithContext(ctx))
	})
	if isForbidden(err) {
		p.log.Warn("⚠️ no permission to grant channel access", "channel", spaceID, "user", userID)
		return nil
	}
	return err
}

func (p *Platform) RevokeAccess(ctx context.Context, spaceID, userID string) error {
	if spaceID == "" || userID == "" {
		return nil
	}
	err := p.do(ctx, "revoke", func() error {
		return p.api.ChannelPermissionDelete(spaceID, userID, discordgo.WithContext(ctx))
	})
	if isForbidden(err) {
		p.log.Warn("⚠️ no permission to revoke channel access", "channel", spaceID, "user", userID)
		return nil
	}
	return err
}

func (p *Platform) Broadcast(ctx context.Context, channelID, content string) error {
	if channelID == "" || content == "" {
		return nil
	}
	return p.do(ctx, "broadcast", func() error {
		_, err := p.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         content,
			AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
		}, discordgo.WithContext(ctx))
		return err
	})
}
