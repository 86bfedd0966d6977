package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/encore-api/internal/domain"
)

func newTestCheckIn(roster *fakeRoster) (*CheckInService, *fakeBroadcaster) {
	b := &fakeBroadcaster{}
	svc := NewCheckInService(roster, &fakeEvents{settings: domain.Settings{AdminCode: "0215"}}, b)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC) }

	return svc, b
}

func TestCheckInService_Scenario(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "김철수", Phone: "01011112222"})
	svc, b := newTestCheckIn(roster)
	ctx := context.Background()

	res, err := svc.CheckIn(ctx, "김철수", "010-1111-2222")
	require.NoError(t, err)
	assert.Equal(t, 1, res.EntryNumber)
	assert.False(t, res.AlreadyCheckedIn)

	res, err = svc.CheckIn(ctx, "김철수", "01011112222")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	var already *AlreadyCheckedInError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, 1, already.EntryNumber)
	assert.Equal(t, 1, res.EntryNumber)
	assert.True(t, res.AlreadyCheckedIn)

	_, err = svc.CheckIn(ctx, "이영희", "01033334444")
	assert.ErrorIs(t, err, ErrUnregisteredGuest)

	notice, ok := svc.LastNotice()
	require.True(t, ok)
	assert.Equal(t, "김철수", notice.Name)
	assert.Contains(t, b.topics(), TopicAdmin)
}

func TestCheckInService_SequentialNumbers(t *testing.T) {
	const n = 20
	records := make([]domain.GuestRecord, n)
	for i := range records {
		records[i] = domain.GuestRecord{Name: fmt.Sprintf("guest%d", i), Phone: fmt.Sprintf("010%08d", i)}
	}
	roster := newFakeRoster(records...)
	svc, _ := newTestCheckIn(roster)
	ctx := context.Background()

	// Check in out of roster order; numbers follow call order.
	for k := 0; k < n; k++ {
		i := (k * 7) % n
		res, err := svc.CheckIn(ctx, records[i].Name, records[i].Phone)
		require.NoError(t, err)
		assert.Equal(t, k+1, res.EntryNumber)
	}

	final, err := roster.Load(ctx)
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, g := range final {
		require.True(t, g.CheckedIn)
		require.NotNil(t, g.EntryNumber)
		require.NotNil(t, g.CheckedInAt)
		assert.False(t, seen[*g.EntryNumber], "duplicate entry number %d", *g.EntryNumber)
		seen[*g.EntryNumber] = true
	}
	for k := 1; k <= n; k++ {
		assert.True(t, seen[k], "missing entry number %d", k)
	}
}

func TestCheckInService_UnregisteredDoesNotMutate(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "a", Phone: "1"})
	svc, _ := newTestCheckIn(roster)
	ctx := context.Background()
	before, _ := roster.Load(ctx)

	_, err := svc.CheckIn(ctx, "b", "2")
	assert.ErrorIs(t, err, ErrUnregisteredGuest)

	after, _ := roster.Load(ctx)
	assert.Equal(t, before, after)
	assert.Zero(t, roster.writes)
}

func TestCheckInService_InvalidInput(t *testing.T) {
	svc, _ := newTestCheckIn(newFakeRoster())

	_, err := svc.CheckIn(context.Background(), "  ", "010")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CheckIn(context.Background(), "a", " - ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckInService_CheckInWithCode(t *testing.T) {
	roster := newFakeRoster(domain.GuestRecord{Name: "a", Phone: "010-1"})
	svc, _ := newTestCheckIn(roster)
	ctx := context.Background()

	_, err := svc.CheckInWithCode(ctx, "9999", "a", "0101")
	assert.ErrorIs(t, err, ErrInvalidCheckInCode)

	res, err := svc.CheckInWithCode(ctx, "0215", "a", "0101")
	require.NoError(t, err)
	assert.Equal(t, 1, res.EntryNumber)
}

func TestCheckInService_ContinuesAfterMaxNumber(t *testing.T) {
	five := 5
	at := time.Now()
	roster := newFakeRoster(
		domain.GuestRecord{Name: "a", Phone: "1", CheckedIn: true, EntryNumber: &five, CheckedInAt: &at},
		domain.GuestRecord{Name: "b", Phone: "2"},
	)
	svc, _ := newTestCheckIn(roster)

	res, err := svc.CheckIn(context.Background(), "b", "2")
	require.NoError(t, err)
	assert.Equal(t, 6, res.EntryNumber)
}
