package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
)

var ErrInvalidAdminCodeFormat = errors.New("admin code must be 4 digits")

var adminCodePattern = regexp.MustCompile(`^\d{4}$`)

type EventRepository interface {
	LoadBundle(ctx context.Context) (domain.EventBundle, error)
	SaveBundle(ctx context.Context, bundle domain.EventBundle) error
	LoadSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
}

type EventService struct {
	repo   EventRepository
	events Broadcaster
}

func NewEventService(repo EventRepository, events Broadcaster) *EventService {
	return &EventService{
		repo:   repo,
		events: events,
	}
}

func (s *EventService) Bundle(ctx context.Context) (domain.EventBundle, error) {
	bundle, err := s.repo.LoadBundle(ctx)
	if err != nil {
		return domain.EventBundle{}, fmt.Errorf("s.repo.LoadBundle -> %w", err)
	}

	return bundle, nil
}

// UpdateInfo replaces event and ticket info, keeping the setlist.
func (s *EventService) UpdateInfo(ctx context.Context, info domain.EventInfo, ticket domain.TicketInfo) (domain.EventBundle, error) {
	bundle, err := s.Bundle(ctx)
	if err != nil {
		return domain.EventBundle{}, err
	}
	bundle.Event = info
	bundle.Ticket = ticket

	return s.save(ctx, bundle)
}

// ImportSetlist replaces the setlist and the performer list derived from it.
func (s *EventService) ImportSetlist(ctx context.Context, rows []map[string]string) (domain.EventBundle, error) {
	bundle, err := s.Bundle(ctx)
	if err != nil {
		return domain.EventBundle{}, err
	}
	bundle.Setlist, bundle.Performers = ParseSetlist(rows)
	zap.L().Info("setlist imported", zap.Int("songs", len(bundle.Setlist)), zap.Int("performers", len(bundle.Performers)))

	return s.save(ctx, bundle)
}

func (s *EventService) Settings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.LoadSettings(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("s.repo.LoadSettings -> %w", err)
	}

	return settings, nil
}

func (s *EventService) SetAdminCode(ctx context.Context, code string) error {
	if !adminCodePattern.MatchString(code) {
		return ErrInvalidAdminCodeFormat
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	settings.AdminCode = code
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("s.repo.SaveSettings -> %w", err)
	}

	return nil
}

func (s *EventService) save(ctx context.Context, bundle domain.EventBundle) (domain.EventBundle, error) {
	if err := s.repo.SaveBundle(ctx, bundle); err != nil {
		return domain.EventBundle{}, fmt.Errorf("s.repo.SaveBundle -> %w", err)
	}
	if s.events != nil {
		s.events.Broadcast(TopicEvent, "event.changed", bundle)
	}

	return bundle, nil
}
