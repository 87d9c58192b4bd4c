package output

import (
	"context"

	"ctfbot/internal/domain/entities"
)

// EventRegistry owns the tracked events. Implementations hand out copies and
// serialize every mutation.
type EventRegistry interface {
	Create(ctx context.Context, event *entities.Event) error
	FindByMessageID(ctx context.Context, messageID string) (*entities.Event, error)
	FindByName(ctx context.Context, name string) (*entities.Event, error)
	List(ctx context.Context) ([]entities.Event, error)
	// Update applies fn atomically. An error returned by fn aborts the update
	// and is returned unchanged.
	Update(ctx context.Context, messageID string, fn func(*entities.Event) error) (*entities.Event, error)
	Delete(ctx context.Context, messageID string) error
}
