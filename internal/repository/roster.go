package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
)

var (
	ErrGuestNotFound     = errors.New("guest not found")
	ErrGuestIndexInvalid = errors.New("guest index out of range")
)

const maxStaleRetries = 3

// DocumentRepository is what the typed repositories need from the two tiers.
type DocumentRepository interface {
	Load(ctx context.Context, key string) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) (domain.Document, error)
	CompareAndSave(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error)
	List(ctx context.Context, prefix string) ([]domain.Document, error)
}

// GuestRosterStore holds the roster as one document. Mutations from this
// process are serialized and always start from the last known roster.
type GuestRosterStore struct {
	docs   DocumentRepository
	strict bool

	mu      sync.Mutex
	roster  domain.Roster
	version int64
	loaded  bool
}

// NewGuestRosterStore builds the store. With strict set, mutations use a
// conditional write and retry on a concurrent modification instead of
// overwriting it.
func NewGuestRosterStore(docs DocumentRepository, strict bool) *GuestRosterStore {
	return &GuestRosterStore{
		docs:   docs,
		strict: strict,
	}
}

func (s *GuestRosterStore) Load(ctx context.Context) (domain.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(ctx); err != nil {
		return nil, err
	}

	return s.roster.Clone(), nil
}

func (s *GuestRosterStore) ReplaceAll(ctx context.Context, records []domain.GuestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := domain.Roster(records).Clone()
	saved, err := s.saveLocked(ctx, roster)
	if err != nil {
		return err
	}
	s.roster, s.version, s.loaded = roster, saved.Version, true

	return nil
}

// Update applies fn to a copy of the last known roster and persists the
// result. fn returning an error leaves the roster untouched.
func (s *GuestRosterStore) Update(ctx context.Context, fn func(domain.Roster) (domain.Roster, error)) (domain.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.reloadLocked(ctx); err != nil {
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		next, err := fn(s.roster.Clone())
		if err != nil {
			return nil, err
		}

		if !s.strict {
			saved, err := s.saveLocked(ctx, next)
			if err != nil {
				return nil, err
			}
			s.roster, s.version = next, saved.Version
			return next.Clone(), nil
		}

		saved, err := s.compareAndSaveLocked(ctx, next)
		if err == nil {
			s.roster, s.version = next, saved.Version
			return next.Clone(), nil
		}
		if !errors.Is(err, ErrStaleDocument) || attempt >= maxStaleRetries {
			return nil, err
		}

		zap.L().Info("roster changed concurrently, retrying", zap.Int("attempt", attempt))
		if err := s.reloadLocked(ctx); err != nil {
			return nil, err
		}
	}
}

// UpsertByIndex applies mutator to the record at index and persists the roster.
func (s *GuestRosterStore) UpsertByIndex(ctx context.Context, index int, mutator func(*domain.GuestRecord)) (domain.GuestRecord, error) {
	var updated domain.GuestRecord

	_, err := s.Update(ctx, func(r domain.Roster) (domain.Roster, error) {
		if index < 0 || index >= len(r) {
			return nil, ErrGuestIndexInvalid
		}
		mutator(&r[index])
		updated = r[index]
		return r, nil
	})
	if err != nil {
		return domain.GuestRecord{}, err
	}

	return updated, nil
}

func (s *GuestRosterStore) FindByNameAndPhone(ctx context.Context, name, phone string) (int, domain.GuestRecord, error) {
	roster, err := s.Load(ctx)
	if err != nil {
		return -1, domain.GuestRecord{}, err
	}

	i, ok := roster.Find(name, phone)
	if !ok {
		return -1, domain.GuestRecord{}, ErrGuestNotFound
	}

	return i, roster[i], nil
}

// Invalidate forgets the cached roster so the next mutation reloads it.
func (s *GuestRosterStore) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *GuestRosterStore) reloadLocked(ctx context.Context) error {
	doc, err := s.docs.Load(ctx, domain.DocRoster)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			s.roster, s.version, s.loaded = domain.Roster{}, 0, true
			return nil
		}

		return fmt.Errorf("s.docs.Load -> %w", err)
	}

	var roster domain.Roster
	if len(doc.Body) > 0 {
		if err := json.Unmarshal(doc.Body, &roster); err != nil {
			return fmt.Errorf("json.Unmarshal roster -> %w", err)
		}
	}
	if roster == nil {
		roster = domain.Roster{}
	}
	s.roster, s.version, s.loaded = roster, doc.Version, true

	return nil
}

func (s *GuestRosterStore) saveLocked(ctx context.Context, roster domain.Roster) (domain.Document, error) {
	body, err := marshalRoster(roster)
	if err != nil {
		return domain.Document{}, err
	}

	saved, err := s.docs.Save(ctx, domain.Document{Key: domain.DocRoster, Body: body, Version: s.version})
	if err != nil {
		return domain.Document{}, fmt.Errorf("s.docs.Save -> %w", err)
	}

	return saved, nil
}

func (s *GuestRosterStore) compareAndSaveLocked(ctx context.Context, roster domain.Roster) (domain.Document, error) {
	body, err := marshalRoster(roster)
	if err != nil {
		return domain.Document{}, err
	}

	saved, err := s.docs.CompareAndSave(ctx, domain.Document{Key: domain.DocRoster, Body: body}, s.version)
	if err != nil {
		return domain.Document{}, fmt.Errorf("s.docs.CompareAndSave -> %w", err)
	}

	return saved, nil
}

func marshalRoster(roster domain.Roster) ([]byte, error) {
	if roster == nil {
		roster = domain.Roster{}
	}
	body, err := json.Marshal(roster)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal roster -> %w", err)
	}

	return body, nil
}
