package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/output"
)

var _ output.Journal = (*JournalRepository)(nil)

const insertJournalEntry = `
INSERT INTO event_journal (event_id, kind, user_id, response, recorded_at)
VALUES ($1, $2, $3, $4, $5)`

// execer is the subset of *pgxpool.Pool the journal needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// JournalRepository appends transitions to the event_journal table.
type JournalRepository struct {
	db execer
}

func NewJournalRepository(db execer) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Record(ctx context.Context, entry entities.JournalEntry) error {
	response := ""
	if entry.Response.Valid() {
		response = entry.Response.String()
	}
	if _, err := r.db.Exec(ctx, insertJournalEntry,
		entry.EventID, string(entry.Kind), entry.UserID, response, entry.At.UTC(),
	); err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// NoopJournal is used when no database is configured.
type NoopJournal struct{}

func (NoopJournal) Record(context.Context, entities.JournalEntry) error { return nil }
