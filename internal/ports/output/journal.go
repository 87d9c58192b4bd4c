package output

import (
	"context"

	"ctfbot/internal/domain/entities"
)

// Journal records lifecycle and RSVP transitions.
type Journal interface {
	Record(ctx context.Context, entry entities.JournalEntry) error
}
