package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/output"
)

// archiver retires an event: it claims the event by deleting it from the
// registry, then posts the archive notice and archives the private channel.
// Only one of the sweep and a manual archive gets past the delete.
type archiver struct {
	registry   output.EventRegistry
	spaces     output.SpaceManager
	notifier   output.Notifier
	journal    output.Journal
	metrics    output.Metrics
	translator output.T
	locale     string
	log        *slog.Logger
}

func (a *archiver) archive(ctx context.Context, event *entities.Event, now time.Time, trigger string) error {
	if err := a.registry.Delete(ctx, event.MessageID); err != nil {
		return err
	}
	log := a.log.With("event", event.MessageID, "space", event.SpaceID, "trigger", trigger)

	notice := a.translator.T(a.locale, "notice.archived", map[string]any{"Name": event.Name})
	if err := a.notifier.Broadcast(ctx, event.SpaceID, notice); err != nil {
		log.Warn("archive notice failed", "err", err)
	}
	var archiveErr error
	if err := a.spaces.ArchiveSpace(ctx, event.GuildID, event.SpaceID); err != nil {
		log.Error("❌ archive channel failed", "err", err)
		archiveErr = fmt.Errorf("archive space: %w", err)
	}
	record(ctx, a.journal, log, entities.JournalEntry{EventID: event.MessageID, Kind: entities.JournalArchived, At: now})
	a.metrics.EventArchived(trigger)
	log.Info("event archived", "name", event.Name)
	return archiveErr
}

// record appends to the journal; a journal failure never fails the caller.
func record(ctx context.Context, journal output.Journal, log *slog.Logger, entry entities.JournalEntry) {
	if err := journal.Record(ctx, entry); err != nil {
		log.Warn("journal record failed", "kind", entry.Kind, "err", err)
	}
}
