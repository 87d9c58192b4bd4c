package entities

import (
	"maps"
	"sort"
	"time"

	"ctfbot/internal/domain"
)

// Event is a tracked CTF announcement, keyed by its announcement message ID.
type Event struct {
	MessageID   string
	GuildID     string
	ChannelID   string // channel holding the announcement
	SpaceID     string // private discussion channel
	CreatorID   string
	Name        string
	Description string
	DateRange   string // as typed by the organizer
	StartAt     time.Time
	EndAt       time.Time
	Responses   map[domain.Response]map[string]Participant

	NotifiedImminent bool
	NotifiedStarted  bool
	Locked           bool

	CreatedAt time.Time
}

// NewEvent returns an event with empty response categories.
func NewEvent(messageID string) *Event {
	e := &Event{MessageID: messageID}
	e.ensureResponses()
	return e
}

func (e *Event) ensureResponses() {
	if e.Responses == nil {
		e.Responses = make(map[domain.Response]map[string]Participant, len(domain.Responses))
	}
	for _, r := range domain.Responses {
		if e.Responses[r] == nil {
			e.Responses[r] = make(map[string]Participant)
		}
	}
}

// ResponseOf returns the category userID currently sits in.
func (e *Event) ResponseOf(userID string) (domain.Response, bool) {
	for _, r := range domain.Responses {
		if _, ok := e.Responses[r][userID]; ok {
			return r, true
		}
	}
	return 0, false
}

// SetResponse moves p into r, removing it from every other category, and
// returns the category it was in before. Re-selecting the same category keeps
// the original response time.
func (e *Event) SetResponse(p Participant, r domain.Response) (prev domain.Response, had bool) {
	e.ensureResponses()
	if old, ok := e.Responses[r][p.UserID]; ok {
		p.RespondedAt = old.RespondedAt
		e.Responses[r][p.UserID] = p
		return r, true
	}
	prev, had = e.ClearResponse(p.UserID)
	e.Responses[r][p.UserID] = p
	return prev, had
}

// ClearResponse removes userID from every category.
func (e *Event) ClearResponse(userID string) (prev domain.Response, had bool) {
	for _, r := range domain.Responses {
		if _, ok := e.Responses[r][userID]; ok {
			delete(e.Responses[r], userID)
			prev, had = r, true
		}
	}
	return prev, had
}

// Members returns the participants of r ordered by response time.
func (e *Event) Members(r domain.Response) []Participant {
	out := make([]Participant, 0, len(e.Responses[r]))
	for _, p := range e.Responses[r] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RespondedAt.Equal(out[j].RespondedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].RespondedAt.Before(out[j].RespondedAt)
	})
	return out
}

// Count returns the number of participants in r.
func (e *Event) Count(r domain.Response) int {
	return len(e.Responses[r])
}

// DueImminentNotice reports whether the pre-start notice (and lock) is due.
func (e *Event) DueImminentNotice(now time.Time, lead time.Duration) bool {
	return !e.NotifiedImminent && !now.Before(e.StartAt.Add(-lead))
}

// DueStartNotice reports whether the start notice is due.
func (e *Event) DueStartNotice(now time.Time) bool {
	return !e.NotifiedStarted && !now.Before(e.StartAt)
}

// DueArchive reports whether the retention window after the end has elapsed.
func (e *Event) DueArchive(now time.Time, retention time.Duration) bool {
	return !now.Before(e.EndAt.Add(retention))
}

// Clone returns a deep copy, so callers never share response sets with the
// registry.
func (e *Event) Clone() *Event {
	c := *e
	c.Responses = make(map[domain.Response]map[string]Participant, len(e.Responses))
	for r, set := range e.Responses {
		c.Responses[r] = maps.Clone(set)
	}
	c.ensureResponses()
	return &c
}
