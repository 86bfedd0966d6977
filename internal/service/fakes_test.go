package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/repository"
)

type fakeRoster struct {
	mu      sync.Mutex
	roster  domain.Roster
	writes  int
	loadErr error
	// beforeUpdate runs under the lock ahead of every Update, standing in for
	// a concurrent writer.
	beforeUpdate func(domain.Roster)
}

func newFakeRoster(records ...domain.GuestRecord) *fakeRoster {
	return &fakeRoster{roster: domain.Roster(records).Clone()}
}

func (f *fakeRoster) Load(context.Context) (domain.Roster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.roster.Clone(), nil
}

func (f *fakeRoster) ReplaceAll(_ context.Context, records []domain.GuestRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = domain.Roster(records).Clone()
	f.writes++
	return nil
}

func (f *fakeRoster) Update(_ context.Context, fn func(domain.Roster) (domain.Roster, error)) (domain.Roster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beforeUpdate != nil {
		f.beforeUpdate(f.roster)
	}
	next, err := fn(f.roster.Clone())
	if err != nil {
		return nil, err
	}
	f.roster = next
	f.writes++
	return next.Clone(), nil
}

func (f *fakeRoster) UpsertByIndex(ctx context.Context, index int, mutator func(*domain.GuestRecord)) (domain.GuestRecord, error) {
	var updated domain.GuestRecord
	_, err := f.Update(ctx, func(r domain.Roster) (domain.Roster, error) {
		if index < 0 || index >= len(r) {
			return nil, repository.ErrGuestIndexInvalid
		}
		mutator(&r[index])
		updated = r[index]
		return r, nil
	})
	return updated, err
}

func (f *fakeRoster) FindByNameAndPhone(ctx context.Context, name, phone string) (int, domain.GuestRecord, error) {
	r, _ := f.Load(ctx)
	i, ok := r.Find(name, phone)
	if !ok {
		return -1, domain.GuestRecord{}, repository.ErrGuestNotFound
	}
	return i, r[i], nil
}

type fakeEvents struct {
	bundle   domain.EventBundle
	settings domain.Settings
}

func (f *fakeEvents) LoadBundle(context.Context) (domain.EventBundle, error) { return f.bundle, nil }

func (f *fakeEvents) SaveBundle(_ context.Context, b domain.EventBundle) error {
	f.bundle = b
	return nil
}

func (f *fakeEvents) LoadSettings(context.Context) (domain.Settings, error) { return f.settings, nil }

func (f *fakeEvents) SaveSettings(_ context.Context, s domain.Settings) error {
	f.settings = s
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.SessionState
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]domain.SessionState)}
}

func (f *fakeSessions) Find(_ context.Context, id string) (domain.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.SessionState{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) Save(_ context.Context, s domain.SessionState) (domain.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

type fakeProfiles struct {
	profiles map[string]domain.NicknameProfile
	err      error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]domain.NicknameProfile)}
}

func (f *fakeProfiles) Find(_ context.Context, name, phone string) (domain.NicknameProfile, bool, error) {
	if f.err != nil {
		return domain.NicknameProfile{}, false, f.err
	}
	p, ok := f.profiles[domain.ProfileKey(name, phone)]
	return p, ok, nil
}

func (f *fakeProfiles) Save(_ context.Context, p domain.NicknameProfile) error {
	f.profiles[domain.ProfileKey(p.Name, p.Phone)] = p
	return nil
}

func (f *fakeProfiles) List(context.Context) ([]domain.NicknameProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.NicknameProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type broadcast struct {
	topic string
	kind  string
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (f *fakeBroadcaster) Broadcast(topic, kind string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, broadcast{topic: topic, kind: kind})
}

func (f *fakeBroadcaster) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, b := range f.sent {
		out = append(out, b.topic)
	}
	return out
}

var errStoreDown = errors.New("store unreachable")
