package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/output"
	pkgdiscord "ctfbot/pkg/discord"
)

// SweepOptions drive the lifecycle timing.
type SweepOptions struct {
	Interval     time.Duration
	ImminentLead time.Duration
	Retention    time.Duration
	Locale       string
}

// SweepReport counts what one tick fired.
type SweepReport struct {
	Imminent int
	Started  int
	Archived int
}

// Sweeper walks the registry on a fixed interval and fires the lifecycle
// notices: imminent (which also locks), started, archived.
type Sweeper struct {
	registry   output.EventRegistry
	announcer  output.Announcer
	notifier   output.Notifier
	journal    output.Journal
	metrics    output.Metrics
	translator output.T
	archiver   *archiver
	opts       SweepOptions
	log        *slog.Logger
}

func NewSweeper(
	registry output.EventRegistry,
	announcer output.Announcer,
	spaces output.SpaceManager,
	notifier output.Notifier,
	journal output.Journal,
	metrics output.Metrics,
	translator output.T,
	opts SweepOptions,
	log *slog.Logger,
) *Sweeper {
	metrics = metricsOrNoop(metrics)
	return &Sweeper{
		registry:   registry,
		announcer:  announcer,
		notifier:   notifier,
		journal:    journal,
		metrics:    metrics,
		translator: translator,
		archiver: &archiver{
			registry:   registry,
			spaces:     spaces,
			notifier:   notifier,
			journal:    journal,
			metrics:    metrics,
			translator: translator,
			locale:     opts.Locale,
			log:        log,
		},
		opts: opts,
		log:  log,
	}
}

// Run ticks once immediately, then every Interval, until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	s.log.Info("sweep started", "interval", s.opts.Interval, "lead", s.opts.ImminentLead, "retention", s.opts.Retention)
	s.Tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick evaluates every event of a registry snapshot against now. Each check
// is guarded by its own flag, re-read under the registry lock, so it fires at
// most once per event.
func (s *Sweeper) Tick(ctx context.Context, now time.Time) SweepReport {
	started := time.Now()
	defer func() { s.metrics.SweepObserved(time.Since(started)) }()
	log := s.log.With("tick", uuid.NewString())

	var report SweepReport
	events, err := s.registry.List(ctx)
	if err != nil {
		log.Error("❌ sweep snapshot failed", "err", err)
		return report
	}
	for i := range events {
		event := &events[i]
		if event.DueImminentNotice(now, s.opts.ImminentLead) {
			if s.fireImminent(ctx, log, event, now) {
				report.Imminent++
			}
		}
		if event.DueStartNotice(now) {
			if s.fireStarted(ctx, log, event, now) {
				report.Started++
			}
		}
		if event.DueArchive(now, s.opts.Retention) {
			err := s.archiver.archive(ctx, event, now, "sweep")
			switch {
			case errors.Is(err, domain.ErrEventNotFound):
				// archived by someone else since the snapshot
			case err != nil:
				report.Archived++
				log.Warn("event archived with errors", "event", event.MessageID, "err", err)
			default:
				report.Archived++
			}
		}
	}
	s.metrics.TrackedEvents(len(events) - report.Archived)
	if report != (SweepReport{}) {
		log.Info("sweep fired", "imminent", report.Imminent, "started", report.Started, "archived", report.Archived)
	}
	return report
}

func (s *Sweeper) fireImminent(ctx context.Context, log *slog.Logger, snapshot *entities.Event, now time.Time) bool {
	fired := false
	event, err := s.registry.Update(ctx, snapshot.MessageID, func(e *entities.Event) error {
		if !e.DueImminentNotice(now, s.opts.ImminentLead) {
			return nil
		}
		e.NotifiedImminent = true
		e.Locked = true
		fired = true
		return nil
	})
	if err != nil || !fired {
		return false
	}
	*snapshot = *event

	notice := s.translator.T(s.opts.Locale, "notice.imminent", map[string]any{
		"Name":     event.Name,
		"Start":    pkgdiscord.FormatEventDateTime(event.StartAt),
		"StartTS":  event.StartAt.Unix(),
		"Mentions": mentions(event),
	})
	if err := s.notifier.Broadcast(ctx, event.SpaceID, notice); err != nil {
		log.Warn("imminent notice failed", "event", event.MessageID, "err", err)
	}
	if err := s.announcer.Render(ctx, event); err != nil {
		log.Warn("locked announcement update failed", "event", event.MessageID, "err", err)
	}
	record(ctx, s.journal, log, entities.JournalEntry{EventID: event.MessageID, Kind: entities.JournalLocked, At: now})
	s.metrics.Transition("imminent")
	return true
}

func (s *Sweeper) fireStarted(ctx context.Context, log *slog.Logger, snapshot *entities.Event, now time.Time) bool {
	fired := false
	event, err := s.registry.Update(ctx, snapshot.MessageID, func(e *entities.Event) error {
		if !e.DueStartNotice(now) {
			return nil
		}
		e.NotifiedStarted = true
		fired = true
		return nil
	})
	if err != nil || !fired {
		return false
	}
	*snapshot = *event

	notice := s.translator.T(s.opts.Locale, "notice.started", map[string]any{
		"Name":  event.Name,
		"EndTS": event.EndAt.Unix(),
	})
	if err := s.notifier.Broadcast(ctx, event.SpaceID, notice); err != nil {
		log.Warn("start notice failed", "event", event.MessageID, "err", err)
	}
	record(ctx, s.journal, log, entities.JournalEntry{EventID: event.MessageID, Kind: entities.JournalStarted, At: now})
	s.metrics.Transition("started")
	return true
}

// mentions pings everyone holding a granting response.
func mentions(event *entities.Event) string {
	var ids []string
	for _, r := range domain.Responses {
		if !r.GrantsAccess() {
			continue
		}
		for _, p := range event.Members(r) {
			ids = append(ids, fmt.Sprintf("<@%s>", p.UserID))
		}
	}
	return strings.Join(ids, " ")
}
