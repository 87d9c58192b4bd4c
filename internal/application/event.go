package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ctfbot/internal/domain"
	"ctfbot/internal/domain/entities"
	"ctfbot/internal/ports/input"
	"ctfbot/internal/ports/output"
	pkgdiscord "ctfbot/pkg/discord"
)

var _ input.EventUseCase = (*EventService)(nil)

var validate = validator.New()

// EventOptions are the settings EventService reads from configuration.
type EventOptions struct {
	Locale          string
	OrganizerRoleID string
}

type EventService struct {
	registry   output.EventRegistry
	announcer  output.Announcer
	spaces     output.SpaceManager
	notifier   output.Notifier
	journal    output.Journal
	metrics    output.Metrics
	translator output.T
	archiver   *archiver
	opts       EventOptions
	log        *slog.Logger
	now        func() time.Time
}

func NewEventService(
	registry output.EventRegistry,
	announcer output.Announcer,
	spaces output.SpaceManager,
	notifier output.Notifier,
	journal output.Journal,
	metrics output.Metrics,
	translator output.T,
	opts EventOptions,
	log *slog.Logger,
) *EventService {
	metrics = metricsOrNoop(metrics)
	return &EventService{
		registry:   registry,
		announcer:  announcer,
		spaces:     spaces,
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
		now:  time.Now,
	}
}

// CreateEvent announces a new event and opens its private channel. Nothing is
// registered unless both the announcement and the channel exist.
func (s *EventService) CreateEvent(ctx context.Context, cmd input.CreateEventCommand) (*entities.Event, error) {
	if !cmd.Actor.CanManageEvents(s.opts.OrganizerRoleID) {
		return nil, domain.ErrNotAuthorized
	}
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Description = strings.TrimSpace(cmd.Description)
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}
	start, end, err := pkgdiscord.ParseDateRange(cmd.DateRange)
	if err != nil {
		return nil, err
	}

	event := entities.NewEvent("")
	event.GuildID = cmd.GuildID
	event.ChannelID = cmd.ChannelID
	event.CreatorID = cmd.Actor.ID
	event.Name = cmd.Name
	event.Description = cmd.Description
	event.DateRange = strings.TrimSpace(cmd.DateRange)
	event.StartAt = start
	event.EndAt = end
	event.CreatedAt = s.now()

	messageID, err := s.announcer.Publish(ctx, cmd.ChannelID, event)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnnouncementFailed, err)
	}
	event.MessageID = messageID
	log := s.log.With("event", messageID, "name", event.Name)

	spaceID, err := s.spaces.CreateSpace(ctx, output.SpaceSpec{
		GuildID:    cmd.GuildID,
		Name:       domain.ChannelName(cmd.Name),
		CategoryID: cmd.CategoryID,
		CreatorID:  cmd.Actor.ID,
		Topic: s.translator.T(s.opts.Locale, "space.topic", map[string]any{
			"Name":  event.Name,
			"Start": pkgdiscord.FormatEventDateTime(start),
			"End":   pkgdiscord.FormatEventDateTime(end),
		}),
	})
	if err != nil {
		if rerr := s.announcer.Retract(ctx, cmd.ChannelID, messageID); rerr != nil {
			log.Warn("retract announcement failed", "err", rerr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSpaceCreationFailed, err)
	}
	event.SpaceID = spaceID

	if err := s.registry.Create(ctx, event); err != nil {
		if rerr := s.announcer.Retract(ctx, cmd.ChannelID, messageID); rerr != nil {
			log.Warn("retract announcement failed", "err", rerr)
		}
		return nil, fmt.Errorf("register event: %w", err)
	}
	if err := s.announcer.InstallAffordances(ctx, cmd.ChannelID, messageID); err != nil {
		log.Warn("install reactions failed", "err", err)
	}
	intro := s.translator.T(s.opts.Locale, "notice.space_intro", map[string]any{
		"Name":    event.Name,
		"Creator": cmd.Actor.ID,
		"Start":   start.Unix(),
	})
	if err := s.notifier.Broadcast(ctx, spaceID, intro); err != nil {
		log.Warn("space intro failed", "err", err)
	}

	record(ctx, s.journal, log, entities.JournalEntry{EventID: messageID, Kind: entities.JournalCreated, UserID: cmd.Actor.ID, At: event.CreatedAt})
	s.metrics.EventCreated()
	log.Info("event created", "space", spaceID, "start", start, "end", end)
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, messageID string) (*entities.Event, error) {
	return s.registry.FindByMessageID(ctx, messageID)
}

func (s *EventService) ListEvents(ctx context.Context) ([]entities.Event, error) {
	return s.registry.List(ctx)
}

// ArchiveEvent archives an event before its retention window ends. A non-nil
// event with an error means the event is untracked but its channel could not
// be fully archived.
func (s *EventService) ArchiveEvent(ctx context.Context, actor entities.Actor, name string) (*entities.Event, error) {
	if !actor.CanManageEvents(s.opts.OrganizerRoleID) {
		return nil, domain.ErrNotAuthorized
	}
	event, err := s.registry.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	err = s.archiver.archive(ctx, event, s.now(), "manual")
	if errors.Is(err, domain.ErrEventNotFound) {
		return nil, err
	}
	return event, err
}
