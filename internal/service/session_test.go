package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/encore-api/internal/domain"
)

func newTestSessionService(roster *fakeRoster, profiles *fakeProfiles) (*SessionService, *fakeSessions) {
	sessions := newFakeSessions()
	events := &fakeEvents{
		settings: domain.Settings{AdminCode: "0215"},
		bundle: domain.EventBundle{
			Performers: []string{"Direct"},
			Setlist: []domain.SetlistEntry{
				{Song: "Song A", Members: map[domain.SessionRole][]string{domain.RoleVocal: {"가수"}}},
			},
		},
	}

	return NewSessionService(sessions, roster, events, profiles), sessions
}

func TestSessionService_LoginAttendee(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "홍길동", Phone: "010-1234-5678"})
	profiles := newFakeProfiles()
	profiles.profiles[domain.ProfileKey("홍길동", "01012345678")] = domain.NicknameProfile{Nickname: "길동이"}
	svc, _ := newTestSessionService(roster, profiles)
	ctx := context.Background()

	state, err := svc.LoginAttendee(ctx, "", "홍길동", "01012345678")
	require.NoError(t, err)
	assert.NotEmpty(t, state.ID)
	assert.True(t, state.IsAttendee())
	assert.False(t, state.IsAdmin())
	assert.Equal(t, "길동이", state.User.Nickname)

	_, err = svc.LoginAttendee(ctx, state.ID, "홍길동", "01099999999")
	assert.ErrorIs(t, err, ErrNoMatchingReservation)
}

func TestSessionService_LoginAttendeeProfileFailureSwallowed(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "a", Phone: "1"})
	profiles := newFakeProfiles()
	profiles.err = errStoreDown
	svc, _ := newTestSessionService(roster, profiles)

	state, err := svc.LoginAttendee(context.Background(), "", "a", "1")
	require.NoError(t, err)
	assert.Empty(t, state.User.Nickname)
}

func TestSessionService_LoginAdmin(t *testing.T) {
	tests := []struct {
		name    string
		who     string
		code    string
		wantErr error
	}{
		{name: "role member", who: "가수", code: "0215"},
		{name: "direct performer", who: "Direct", code: "0215"},
		{name: "wrong code", who: "가수", code: "1234", wantErr: ErrInvalidAdminCode},
		{name: "not a performer", who: "관객", code: "0215", wantErr: ErrNotAPerformer},
		{name: "wrong code and not a performer", who: "관객", code: "0000", wantErr: ErrInvalidAdminCode},
		{name: "empty name", who: " ", code: "0215", wantErr: ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestSessionService(newFakeRoster(), newFakeProfiles())

			state, err := svc.LoginAdmin(context.Background(), "", tc.who, tc.code)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, state.IsAdmin())
			assert.Equal(t, domain.AdminPhone, state.User.Phone)
		})
	}
}

func TestSessionService_StatesAreExclusive(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "가수", Phone: "1"})
	svc, _ := newTestSessionService(roster, newFakeProfiles())
	ctx := context.Background()

	state, err := svc.LoginAttendee(ctx, "", "가수", "1")
	require.NoError(t, err)

	state, err = svc.LoginAdmin(ctx, state.ID, "가수", "0215")
	require.NoError(t, err)
	assert.True(t, state.IsAdmin())
	assert.False(t, state.IsAttendee())

	state, err = svc.LoginAttendee(ctx, state.ID, "가수", "1")
	require.NoError(t, err)
	assert.True(t, state.IsAttendee())
	assert.False(t, state.IsAdmin())
	assert.Empty(t, state.AdminName)

	require.NoError(t, svc.Logout(ctx, state.ID))
	current, err := svc.Current(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAnonymous, current.Kind)
}

func TestSessionService_Refresh(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "a", Phone: "010-1"})
	svc, _ := newTestSessionService(roster, newFakeProfiles())
	ctx := context.Background()

	state, err := svc.LoginAttendee(ctx, "", "a", "0101")
	require.NoError(t, err)

	_, changed, err := svc.Refresh(ctx, state.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = roster.UpsertByIndex(ctx, 0, func(g *domain.GuestRecord) {
		g.MarkCheckedIn(1, time.Now())
		g.Name = "renamed"
		g.Phone = "999"
	})
	require.NoError(t, err)
	// The record no longer matches, so nothing is copied.
	refreshed, changed, err := svc.Refresh(ctx, state.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "a", refreshed.User.Name)

	_, err = roster.UpsertByIndex(ctx, 0, func(g *domain.GuestRecord) {
		g.Name = "a"
		g.Phone = "010-1"
	})
	require.NoError(t, err)
	refreshed, changed, err = svc.Refresh(ctx, state.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, refreshed.User.CheckedIn)
	require.NotNil(t, refreshed.User.EntryNumber)
	assert.Equal(t, 1, *refreshed.User.EntryNumber)
	assert.Equal(t, "a", refreshed.User.Name)
	assert.Equal(t, "010-1", refreshed.User.Phone)
}

func TestSessionService_RefreshAnonymous(t *testing.T) {
	svc, _ := newTestSessionService(newFakeRoster(), newFakeProfiles())

	state, changed, err := svc.Refresh(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.SessionAnonymous, state.Kind)
}
