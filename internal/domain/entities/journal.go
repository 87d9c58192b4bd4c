package entities

import (
	"time"

	"ctfbot/internal/domain"
)

// JournalKind names a recorded transition.
type JournalKind string

const (
	JournalCreated         JournalKind = "created"
	JournalResponseSet     JournalKind = "response_set"
	JournalResponseCleared JournalKind = "response_cleared"
	JournalLocked          JournalKind = "locked"
	JournalStarted         JournalKind = "started"
	JournalArchived        JournalKind = "archived"
)

// JournalEntry is one line of the append-only event journal.
type JournalEntry struct {
	EventID  string
	Kind     JournalKind
	UserID   string
	Response domain.Response // zero when not relevant
	At       time.Time
}
