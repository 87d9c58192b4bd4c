package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/output"
)

var _ output.EventRegistry = (*EventRegistry)(nil)

// EventRegistry keeps tracked events in process memory. A single mutex
// serializes all reads and writes; stored events never leave the registry,
// only clones do.
type EventRegistry struct {
	mu     sync.Mutex
	events map[string]*entities.Event
}

func NewEventRegistry() *EventRegistry {
	return &EventRegistry{events: make(map[string]*entities.Event)}
}

func (r *EventRegistry) Create(_ context.Context, event *entities.Event) error {
	if event == nil || event.MessageID == "" {
		return domain.ErrInvalidEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.MessageID]; ok {
		return domain.ErrEventExists
	}
	r.events[event.MessageID] = event.Clone()
	return nil
}

func (r *EventRegistry) FindByMessageID(_ context.Context, messageID string) (*entities.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[messageID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return e.Clone(), nil
}

// FindByName matches either the event name (case-insensitive) or the derived
// channel name, so "!archive Hack The Box" and "!archive hack-the-box" both
// work. The earliest starting event wins on ties.
func (r *EventRegistry) FindByName(ctx context.Context, name string) (*entities.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEventNotFound
	}
	channel := domain.ChannelName(name)
	events, _ := r.List(ctx)
	match, ok := lo.Find(events, func(e entities.Event) bool {
		return strings.EqualFold(e.Name, name) || domain.ChannelName(e.Name) == channel
	})
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &match, nil
}

// List returns a snapshot of every tracked event ordered by start time.
func (r *EventRegistry) List(_ context.Context) ([]entities.Event, error) {
	r.mu.Lock()
	out := lo.Map(lo.Values(r.events), func(e *entities.Event, _ int) entities.Event {
		return *e.Clone()
	})
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].MessageID < out[j].MessageID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out, nil
}

func (r *EventRegistry) Update(_ context.Context, messageID string, fn func(*entities.Event) error) (*entities.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[messageID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	draft := e.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.MessageID = messageID
	r.events[messageID] = draft
	return draft.Clone(), nil
}

func (r *EventRegistry) Delete(_ context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[messageID]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.events, messageID)
	return nil
}

// Len returns the number of tracked events.
func (r *EventRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
