package input

import (
	"context"

	"ctfbot/internal/domain/entities"
)

// CreateEventCommand carries an announce command after argument splitting.
type CreateEventCommand struct {
	Name        string `validate:"required,max=100"`
	DateRange   string `validate:"required"`
	Description string `validate:"required,max=4000"`
	Actor       entities.Actor
	GuildID     string `validate:"required"`
	ChannelID   string `validate:"required"`
	CategoryID  string // parent category of ChannelID, may be empty
}

type EventUseCase interface {
	CreateEvent(ctx context.Context, cmd CreateEventCommand) (*entities.Event, error)
	GetEvent(ctx context.Context, messageID string) (*entities.Event, error)
	ListEvents(ctx context.Context) ([]entities.Event, error)
	ArchiveEvent(ctx context.Context, actor entities.Actor, name string) (*entities.Event, error)
}
