package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/repository"
)

var (
	ErrInvalidInput       = errors.New("name and phone are required")
	ErrUnregisteredGuest  = errors.New("guest is not on the roster")
	ErrAlreadyCheckedIn   = errors.New("guest is already checked in")
	ErrInvalidCheckInCode = errors.New("invalid check-in code")
	ErrGuestNotFound      = repository.ErrGuestNotFound
	ErrGuestIndexInvalid  = repository.ErrGuestIndexInvalid
)

// AlreadyCheckedInError carries the entry number assigned by the first check-in.
type AlreadyCheckedInError struct {
	EntryNumber int
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("guest is already checked in with entry number %d", e.EntryNumber)
}

func (e *AlreadyCheckedInError) Is(target error) bool {
	return target == ErrAlreadyCheckedIn
}

type RosterStore interface {
	Load(ctx context.Context) (domain.Roster, error)
	ReplaceAll(ctx context.Context, records []domain.GuestRecord) error
	Update(ctx context.Context, fn func(domain.Roster) (domain.Roster, error)) (domain.Roster, error)
	UpsertByIndex(ctx context.Context, index int, mutator func(*domain.GuestRecord)) (domain.GuestRecord, error)
	FindByNameAndPhone(ctx context.Context, name, phone string) (int, domain.GuestRecord, error)
}

type SettingsReader interface {
	LoadSettings(ctx context.Context) (domain.Settings, error)
}

// Broadcaster pushes an event to every realtime subscriber of topic.
type Broadcaster interface {
	Broadcast(topic, kind string, payload any)
}

type CheckInResult struct {
	Index            int                `json:"-"`
	Guest            domain.GuestRecord `json:"guest"`
	EntryNumber      int                `json:"entryNumber"`
	AlreadyCheckedIn bool               `json:"alreadyCheckedIn"`
}

type CheckInService struct {
	roster   RosterStore
	settings SettingsReader
	events   Broadcaster
	now      func() time.Time

	mu   sync.RWMutex
	last *domain.CheckInNotice
}

func NewCheckInService(roster RosterStore, settings SettingsReader, events Broadcaster) *CheckInService {
	return &CheckInService{
		roster:   roster,
		settings: settings,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn admits the guest identified by name and phone, assigning the next
// entry number. A guest that is already in gets *AlreadyCheckedInError along
// with a result holding the existing number.
func (s *CheckInService) CheckIn(ctx context.Context, name, phone string) (CheckInResult, error) {
	name, phone = domain.NormalizeName(name), domain.NormalizePhone(phone)
	if name == "" || phone == "" {
		return CheckInResult{}, ErrInvalidInput
	}

	var result CheckInResult
	_, err := s.roster.Update(ctx, func(r domain.Roster) (domain.Roster, error) {
		i, ok := r.Find(name, phone)
		if !ok {
			return nil, ErrUnregisteredGuest
		}

		g := r[i]
		if g.CheckedIn && g.EntryNumber != nil {
			result = CheckInResult{Index: i, Guest: g, EntryNumber: *g.EntryNumber, AlreadyCheckedIn: true}
			return nil, &AlreadyCheckedInError{EntryNumber: *g.EntryNumber}
		}

		n := r.NextEntryNumber()
		r[i].MarkCheckedIn(n, s.now())
		result = CheckInResult{Index: i, Guest: r[i], EntryNumber: n}

		return r, nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			return result, err
		}
		if errors.Is(err, ErrUnregisteredGuest) {
			return CheckInResult{}, ErrUnregisteredGuest
		}

		return CheckInResult{}, fmt.Errorf("s.roster.Update -> %w", err)
	}

	notice := domain.CheckInNotice{Name: result.Guest.Name, EntryNumber: result.EntryNumber, At: *result.Guest.CheckedInAt}
	s.mu.Lock()
	s.last = &notice
	s.mu.Unlock()

	zap.L().Info("guest checked in", zap.String("name", notice.Name), zap.Int("entryNumber", notice.EntryNumber))
	if s.events != nil {
		s.events.Broadcast(TopicAdmin, "checkin", notice)
		s.events.Broadcast(TopicRoster, "roster.changed", nil)
	}

	return result, nil
}

// CheckInWithCode is the door flow: the shared code must match before the
// allocator runs.
func (s *CheckInService) CheckInWithCode(ctx context.Context, code, name, phone string) (CheckInResult, error) {
	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		return CheckInResult{}, fmt.Errorf("s.settings.LoadSettings -> %w", err)
	}
	if strings.TrimSpace(code) != settings.AdminCode {
		return CheckInResult{}, ErrInvalidCheckInCode
	}

	return s.CheckIn(ctx, name, phone)
}

// LastNotice returns the most recent check-in seen by this process.
func (s *CheckInService) LastNotice() (domain.CheckInNotice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return domain.CheckInNotice{}, false
	}

	return *s.last, true
}
