package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/repository"
)

var (
	ErrNoMatchingReservation = errors.New("no reservation matches this name and phone")
	ErrInvalidAdminCode      = errors.New("invalid admin code")
	ErrNotAPerformer         = errors.New("name is not in the performer list")
	ErrSessionNotFound       = repository.ErrSessionNotFound
	ErrNoActiveSession       = errors.New("no active session")
)

type SessionRepository interface {
	Find(ctx context.Context, id string) (domain.SessionState, error)
	Save(ctx context.Context, state domain.SessionState) (domain.SessionState, error)
	Delete(ctx context.Context, id string) error
}

type RosterReader interface {
	Load(ctx context.Context) (domain.Roster, error)
}

type EventReader interface {
	LoadBundle(ctx context.Context) (domain.EventBundle, error)
	LoadSettings(ctx context.Context) (domain.Settings, error)
}

type ProfileFinder interface {
	Find(ctx context.Context, name, phone string) (domain.NicknameProfile, bool, error)
}

type SessionService struct {
	sessions SessionRepository
	roster   RosterReader
	events   EventReader
	profiles ProfileFinder
}

func NewSessionService(sessions SessionRepository, roster RosterReader, events EventReader, profiles ProfileFinder) *SessionService {
	return &SessionService{
		sessions: sessions,
		roster:   roster,
		events:   events,
		profiles: profiles,
	}
}

// Current returns the stored session. An unknown id yields an anonymous state
// carrying that id.
func (s *SessionService) Current(ctx context.Context, id string) (domain.SessionState, error) {
	if id == "" {
		return domain.SessionState{}, ErrNoActiveSession
	}

	state, err := s.sessions.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domain.SessionState{ID: id, Kind: domain.SessionAnonymous}, nil
		}

		return domain.SessionState{}, fmt.Errorf("s.sessions.Find -> %w", err)
	}

	return state, nil
}

func (s *SessionService) LoginAttendee(ctx context.Context, id, name, phone string) (domain.SessionState, error) {
	name, phone = domain.NormalizeName(name), domain.NormalizePhone(phone)
	if name == "" || phone == "" {
		return domain.SessionState{}, ErrInvalidInput
	}

	roster, err := s.roster.Load(ctx)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("s.roster.Load -> %w", err)
	}
	i, ok := roster.Find(name, phone)
	if !ok {
		return domain.SessionState{}, ErrNoMatchingReservation
	}

	identity := domain.NewSessionIdentity(roster[i])
	if s.profiles != nil {
		profile, found, err := s.profiles.Find(ctx, identity.Name, identity.Phone)
		switch {
		case err != nil:
			zap.L().Warn("nickname lookup failed, continuing without it", zap.Error(err))
		case found:
			identity.Nickname = profile.Nickname
		}
	}

	state := domain.SessionState{ID: s.ensureID(id)}.AsAttendee(identity)

	return s.save(ctx, state)
}

func (s *SessionService) LoginAdmin(ctx context.Context, id, name, code string) (domain.SessionState, error) {
	name = domain.NormalizeName(name)
	if name == "" {
		return domain.SessionState{}, ErrInvalidInput
	}

	settings, err := s.events.LoadSettings(ctx)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("s.events.LoadSettings -> %w", err)
	}
	if strings.TrimSpace(code) != settings.AdminCode {
		return domain.SessionState{}, ErrInvalidAdminCode
	}

	bundle, err := s.events.LoadBundle(ctx)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("s.events.LoadBundle -> %w", err)
	}
	if !bundle.IsPerformer(name) {
		return domain.SessionState{}, ErrNotAPerformer
	}

	state := domain.SessionState{ID: s.ensureID(id)}.AsAdmin(name)

	return s.save(ctx, state)
}

// Refresh re-reads the roster and copies check-in fields into the cached
// identity. changed reports whether anything was overwritten.
func (s *SessionService) Refresh(ctx context.Context, id string) (state domain.SessionState, changed bool, err error) {
	state, err = s.Current(ctx, id)
	if err != nil {
		return domain.SessionState{}, false, err
	}
	if !state.IsAttendee() {
		return state, false, nil
	}

	roster, err := s.roster.Load(ctx)
	if err != nil {
		return domain.SessionState{}, false, fmt.Errorf("s.roster.Load -> %w", err)
	}
	if !state.ApplyRoster(roster) {
		return state, false, nil
	}

	state, err = s.save(ctx, state)
	if err != nil {
		return domain.SessionState{}, false, err
	}

	return state, true, nil
}

// SetNickname updates the cached nickname of an active session.
func (s *SessionService) SetNickname(ctx context.Context, id, nickname string) (domain.SessionState, error) {
	state, err := s.Current(ctx, id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if state.User == nil {
		return domain.SessionState{}, ErrNoActiveSession
	}
	state.User.Nickname = nickname

	return s.save(ctx, state)
}

func (s *SessionService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.sessions.Delete -> %w", err)
	}

	return nil
}

func (s *SessionService) ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}

	return id
}

func (s *SessionService) save(ctx context.Context, state domain.SessionState) (domain.SessionState, error) {
	saved, err := s.sessions.Save(ctx, state)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("s.sessions.Save -> %w", err)
	}

	return saved, nil
}
