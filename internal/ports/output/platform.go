package output

import (
	"context"

	"ctfbot/internal/domain/entities"
)

// Announcer publishes and re-renders announcement messages.
type Announcer interface {
	Publish(ctx context.Context, channelID string, event *entities.Event) (messageID string, err error)
	Render(ctx context.Context, event *entities.Event) error
	InstallAffordances(ctx context.Context, channelID, messageID string) error
	Retract(ctx context.Context, channelID, messageID string) error
}

// SpaceSpec describes the private channel created for an event.
type SpaceSpec struct {
	GuildID    string
	Name       string
	CategoryID string
	CreatorID  string
	Topic      string
}

// SpaceManager creates and archives per-event private channels.
type SpaceManager interface {
	CreateSpace(ctx context.Context, spec SpaceSpec) (spaceID string, err error)
	ArchiveSpace(ctx context.Context, guildID, spaceID string) error
}

// AccessManager grants and revokes a member's access to a private channel.
type AccessManager interface {
	GrantAccess(ctx context.Context, spaceID, userID string) error
	RevokeAccess(ctx context.Context, spaceID, userID string) error
}

// Notifier posts plain notices to a channel.
type Notifier interface {
	Broadcast(ctx context.Context, channelID, content string) error
}
