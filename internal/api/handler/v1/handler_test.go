package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/encore-api/internal/api/middleware"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/pkg/spreadsheet"
	"github.com/vietanh2810/encore-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withSession stands in for the auth middleware.
func withSession(state domain.SessionState) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextKeySessionID, state.ID)
		ctx.Set(middleware.ContextKeySession, state)
		ctx.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func attendeeSession(name, phone string) domain.SessionState {
	return domain.SessionState{ID: "sess-1"}.AsAttendee(domain.SessionIdentity{Name: name, Phone: phone})
}

type fakeCheckInService struct {
	result service.CheckInResult
	err    error
	notice *domain.CheckInNotice

	gotCode, gotName, gotPhone string
}

func (f *fakeCheckInService) CheckIn(_ context.Context, name, phone string) (service.CheckInResult, error) {
	f.gotName, f.gotPhone = name, phone
	return f.result, f.err
}

func (f *fakeCheckInService) CheckInWithCode(ctx context.Context, code, name, phone string) (service.CheckInResult, error) {
	f.gotCode = code
	return f.CheckIn(ctx, name, phone)
}

func (f *fakeCheckInService) LastNotice() (domain.CheckInNotice, bool) {
	if f.notice == nil {
		return domain.CheckInNotice{}, false
	}
	return *f.notice, true
}

type fakeRefresher struct {
	state domain.SessionState
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(context.Context, string) (domain.SessionState, bool, error) {
	f.calls++
	return f.state, true, f.err
}

type fakeRosterService struct {
	roster   domain.Roster
	imported []map[string]string
	guest    domain.GuestRecord
	err      error
}

func (f *fakeRosterService) List(context.Context) (domain.Roster, error) { return f.roster, f.err }

func (f *fakeRosterService) Stats(context.Context) (domain.RosterStats, error) {
	return f.roster.Stats(), f.err
}

func (f *fakeRosterService) Import(_ context.Context, rows []map[string]string) (int, error) {
	f.imported = rows
	return len(rows), f.err
}

func (f *fakeRosterService) Reset(context.Context) error { return f.err }

func (f *fakeRosterService) RegisterWalkIn(_ context.Context, name, phone string) (domain.GuestRecord, error) {
	return domain.GuestRecord{Name: name, Phone: phone, IsWalkIn: true}, f.err
}

func (f *fakeRosterService) SetPaymentConfirmed(_ context.Context, _ int, confirmed bool) (domain.GuestRecord, error) {
	g := f.guest
	g.PaymentConfirmed = confirmed
	return g, f.err
}

func (f *fakeRosterService) Export(_ context.Context, w io.Writer, format spreadsheet.Format) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "name,phone\n")
	return err
}

type fakeSessionService struct {
	state domain.SessionState
	err   error
}

func (f *fakeSessionService) Current(context.Context, string) (domain.SessionState, error) {
	return f.state, f.err
}

func (f *fakeSessionService) LoginAttendee(context.Context, string, string, string) (domain.SessionState, error) {
	return f.state, f.err
}

func (f *fakeSessionService) LoginAdmin(context.Context, string, string, string) (domain.SessionState, error) {
	return f.state, f.err
}

func (f *fakeSessionService) Refresh(context.Context, string) (domain.SessionState, bool, error) {
	return f.state, false, f.err
}

func (f *fakeSessionService) Logout(context.Context, string) error { return f.err }
