package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ctfbot/internal/domain/entities"
	"ctfbot/internal/infrastructure/memory"
	"ctfbot/internal/ports/output"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAnnouncer struct {
	mu          sync.Mutex
	published   int
	publishErr  error
	renders     []entities.Event
	affordances []string
	retracted   []string
}

func (f *fakeAnnouncer) Publish(_ context.Context, _ string, _ *entities.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published++
	return fmt.Sprintf("msg-%d", f.published), nil
}

func (f *fakeAnnouncer) Render(_ context.Context, event *entities.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, *event.Clone())
	return nil
}

func (f *fakeAnnouncer) InstallAffordances(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.affordances = append(f.affordances, messageID)
	return nil
}

func (f *fakeAnnouncer) Retract(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retracted = append(f.retracted, messageID)
	return nil
}

func (f *fakeAnnouncer) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.renders)
}

type fakeSpaces struct {
	mu        sync.Mutex
	created   []output.SpaceSpec
	createErr error
	archived  []string
	archErr   error
}

func (f *fakeSpaces) CreateSpace(_ context.Context, spec output.SpaceSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, spec)
	return fmt.Sprintf("space-%d", len(f.created)), nil
}

func (f *fakeSpaces) ArchiveSpace(_ context.Context, _, spaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, spaceID)
	return f.archErr
}

type fakeAccess struct {
	mu      sync.Mutex
	grants  []string
	revokes []string
}

func (f *fakeAccess) GrantAccess(_ context.Context, spaceID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, spaceID+"/"+userID)
	return nil
}

func (f *fakeAccess) RevokeAccess(_ context.Context, spaceID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes = append(f.revokes, spaceID+"/"+userID)
	return nil
}

// gatedAccess blocks the first grant until release is closed and logs every
// call in the order it completes.
type gatedAccess struct {
	mu      sync.Mutex
	calls   []string
	granted map[string]bool
	first   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedAccess() *gatedAccess {
	return &gatedAccess{
		granted: make(map[string]bool),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedAccess) GrantAccess(_ context.Context, spaceID, userID string) error {
	g.mu.Lock()
	wait := !g.first
	g.first = true
	g.mu.Unlock()
	if wait {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "grant "+spaceID+"/"+userID)
	g.granted[userID] = true
	return nil
}

func (g *gatedAccess) RevokeAccess(_ context.Context, spaceID, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "revoke "+spaceID+"/"+userID)
	g.granted[userID] = false
	return nil
}

func (g *gatedAccess) hasAccess(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted[userID]
}

func (g *gatedAccess) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type broadcast struct {
	channelID string
	content   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []broadcast
}

func (f *fakeNotifier) Broadcast(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, broadcast{channelID: channelID, content: content})
	return nil
}

// withKey returns the broadcasts whose rendered key is key.
func (f *fakeNotifier) withKey(key string) []broadcast {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcast
	for _, b := range f.sent {
		if b.content == key {
			out = append(out, b)
		}
	}
	return out
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []entities.JournalEntry
}

func (f *fakeJournal) Record(_ context.Context, entry entities.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeJournal) kinds() []entities.JournalKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.JournalKind, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Kind)
	}
	return out
}

type fakeMetrics struct {
	mu          sync.Mutex
	created     int
	archived    []string
	responses   []string
	transitions []string
	tracked     int
}

func (m *fakeMetrics) EventCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *fakeMetrics) EventArchived(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived = append(m.archived, trigger)
}

func (m *fakeMetrics) ResponseChanged(response, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response+"/"+action)
}

func (m *fakeMetrics) Transition(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, stage)
}

func (m *fakeMetrics) TrackedEvents(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked = n
}

func (m *fakeMetrics) SweepObserved(time.Duration) {}

// keyTranslator renders every message as its key and remembers the data.
type keyTranslator struct {
	mu   sync.Mutex
	data map[string]map[string]any
}

func (k *keyTranslator) T(_, key string, data map[string]any) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.data == nil {
		k.data = make(map[string]map[string]any)
	}
	k.data[key] = data
	return key
}

func (k *keyTranslator) last(key string) map[string]any {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.data[key]
}

type fixture struct {
	registry   *memory.EventRegistry
	announcer  *fakeAnnouncer
	spaces     *fakeSpaces
	access     *fakeAccess
	notifier   *fakeNotifier
	journal    *fakeJournal
	metrics    *fakeMetrics
	translator *keyTranslator
	events     *EventService
	rsvp       *RSVPService
	sweeper    *Sweeper
	now        time.Time
}

const organizerRole = "role-organizer"

func newFixture() *fixture {
	f := &fixture{
		registry:   memory.NewEventRegistry(),
		announcer:  &fakeAnnouncer{},
		spaces:     &fakeSpaces{},
		access:     &fakeAccess{},
		notifier:   &fakeNotifier{},
		journal:    &fakeJournal{},
		metrics:    &fakeMetrics{},
		translator: &keyTranslator{},
		now:        time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.events = NewEventService(f.registry, f.announcer, f.spaces, f.notifier, f.journal, f.metrics, f.translator,
		EventOptions{Locale: "en", OrganizerRoleID: organizerRole}, discardLogger)
	f.events.now = clock
	f.rsvp = NewRSVPService(f.registry, f.announcer, f.access, f.journal, f.metrics, discardLogger)
	f.rsvp.now = clock
	f.sweeper = NewSweeper(f.registry, f.announcer, f.spaces, f.notifier, f.journal, f.metrics, f.translator,
		SweepOptions{Interval: time.Minute, ImminentLead: 30 * time.Minute, Retention: 72 * time.Hour, Locale: "en"},
		discardLogger)
	return f
}

// seed registers an event directly, bypassing announcement and channel
// creation.
func (f *fixture) seed(id string, start, end time.Time) *entities.Event {
	event := entities.NewEvent(id)
	event.GuildID = "guild"
	event.ChannelID = "announcements"
	event.SpaceID = "space-" + id
	event.Name = "Event " + id
	event.StartAt = start
	event.EndAt = end
	if err := f.registry.Create(context.Background(), event); err != nil {
		panic(err)
	}
	return event
}

func organizer() entities.Actor {
	return entities.Actor{ID: "org", DisplayName: "Organizer", RoleIDs: []string{organizerRole}}
}

func member(id string) entities.Participant {
	return entities.Participant{UserID: id, DisplayName: id}
}
