package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/input"
	"ctfbot/internal/ports/output"
)

var _ input.RSVPUseCase = (*RSVPService)(nil)

// RSVPService is the response state machine. Changes to one event are
// serialized end to end: the membership update, the access change it implies
// and the re-render complete before the next change to that event starts.
type RSVPService struct {
	registry  output.EventRegistry
	announcer output.Announcer
	access    output.AccessManager
	journal   output.Journal
	metrics   output.Metrics
	locks     eventLocks
	log       *slog.Logger
	now       func() time.Time
}

func NewRSVPService(
	registry output.EventRegistry,
	announcer output.Announcer,
	access output.AccessManager,
	journal output.Journal,
	metrics output.Metrics,
	log *slog.Logger,
) *RSVPService {
	return &RSVPService{
		registry:  registry,
		announcer: announcer,
		access:    access,
		journal:   journal,
		metrics:   metricsOrNoop(metrics),
		log:       log,
		now:       time.Now,
	}
}

// SetResponse puts p in r and out of every other category. Unknown events are
// ignored. A granting category on a locked event fails with
// domain.ErrEventLocked and changes nothing.
func (s *RSVPService) SetResponse(ctx context.Context, eventID string, p entities.Participant, r domain.Response) (input.RSVPOutcome, error) {
	if !r.Valid() {
		return input.RSVPOutcome{}, fmt.Errorf("unknown response %d", r)
	}
	if p.RespondedAt.IsZero() {
		p.RespondedAt = s.now()
	}
	defer s.locks.lock(eventID)()

	var out input.RSVPOutcome
	event, err := s.registry.Update(ctx, eventID, func(e *entities.Event) error {
		out.Previous, out.HadPrevious = e.ResponseOf(p.UserID)
		out.Current, out.HasCurrent = out.Previous, out.HadPrevious
		if e.Locked && r.GrantsAccess() {
			return domain.ErrEventLocked
		}
		e.SetResponse(p, r)
		out.Current, out.HasCurrent = r, true
		return nil
	})
	if errors.Is(err, domain.ErrEventNotFound) {
		return input.RSVPOutcome{}, nil
	}
	out.Tracked = true
	if err != nil {
		return out, err
	}

	s.applyAccess(ctx, event, p.UserID, out)
	s.render(ctx, event)
	if out.Changed() {
		s.recordChange(ctx, event.MessageID, p.UserID, out)
	}
	return out, nil
}

// ClearResponse removes userID from every category of the event.
func (s *RSVPService) ClearResponse(ctx context.Context, eventID, userID string) (input.RSVPOutcome, error) {
	return s.clear(ctx, eventID, userID, func(domain.Response) bool { return true })
}

// WithdrawResponse clears userID only when r is its current category, so a
// stale reaction removal never clears a newer answer.
func (s *RSVPService) WithdrawResponse(ctx context.Context, eventID, userID string, r domain.Response) (input.RSVPOutcome, error) {
	return s.clear(ctx, eventID, userID, func(current domain.Response) bool { return current == r })
}

func (s *RSVPService) clear(ctx context.Context, eventID, userID string, match func(domain.Response) bool) (input.RSVPOutcome, error) {
	defer s.locks.lock(eventID)()

	var out input.RSVPOutcome
	event, err := s.registry.Update(ctx, eventID, func(e *entities.Event) error {
		out.Previous, out.HadPrevious = e.ResponseOf(userID)
		out.Current, out.HasCurrent = out.Previous, out.HadPrevious
		if out.HadPrevious && match(out.Previous) {
			e.ClearResponse(userID)
			out.Current, out.HasCurrent = 0, false
		}
		return nil
	})
	if errors.Is(err, domain.ErrEventNotFound) {
		return input.RSVPOutcome{}, nil
	}
	if err != nil {
		return input.RSVPOutcome{}, err
	}
	out.Tracked = true
	if !out.Changed() {
		return out, nil
	}
	s.applyAccess(ctx, event, userID, out)
	s.render(ctx, event)
	s.recordChange(ctx, event.MessageID, userID, out)
	return out, nil
}

// applyAccess issues a grant or revoke only when access actually changes.
// Platform failures are logged; the response itself stands.
func (s *RSVPService) applyAccess(ctx context.Context, event *entities.Event, userID string, out input.RSVPOutcome) {
	had := out.HadPrevious && out.Previous.GrantsAccess()
	has := out.HasCurrent && out.Current.GrantsAccess()
	switch {
	case has && !had:
		if err := s.access.GrantAccess(ctx, event.SpaceID, userID); err != nil {
			s.log.Warn("grant channel access failed", "event", event.MessageID, "space", event.SpaceID, "user", userID, "err", err)
		}
	case had && !has:
		if err := s.access.RevokeAccess(ctx, event.SpaceID, userID); err != nil {
			s.log.Warn("revoke channel access failed", "event", event.MessageID, "space", event.SpaceID, "user", userID, "err", err)
		}
	}
}

func (s *RSVPService) render(ctx context.Context, event *entities.Event) {
	if err := s.announcer.Render(ctx, event); err != nil {
		s.log.Error("❌ announcement update failed", "event", event.MessageID, "err", err)
	}
}

func (s *RSVPService) recordChange(ctx context.Context, eventID, userID string, out input.RSVPOutcome) {
	entry := entities.JournalEntry{EventID: eventID, UserID: userID, At: s.now()}
	if out.HasCurrent {
		entry.Kind, entry.Response = entities.JournalResponseSet, out.Current
		s.metrics.ResponseChanged(out.Current.String(), "set")
	} else {
		entry.Kind, entry.Response = entities.JournalResponseCleared, out.Previous
		s.metrics.ResponseChanged(out.Previous.String(), "cleared")
	}
	record(ctx, s.journal, s.log, entry)
}

// eventLocks hands out one mutex per event ID. Entries are dropped once no
// caller holds or waits on them.
type eventLocks struct {
	mu    sync.Mutex
	locks map[string]*eventLock
}

type eventLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the caller owns id and returns the matching unlock.
func (l *eventLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*eventLock)
	}
	el, ok := l.locks[id]
	if !ok {
		el = &eventLock{}
		l.locks[id] = el
	}
	el.refs++
	l.mu.Unlock()

	el.Lock()
	return func() {
		el.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
