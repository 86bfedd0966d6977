package v1

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/config"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/pkg/jwthelper"
	"github.com/vietanh2810/encore-api/internal/service"
)

func newSessionRouter(svc *fakeSessionService) *gin.Engine {
	conf := &config.APIConfig{JWTSigningKey: "test-key", SessionTTL: time.Hour}
	h := NewSessionHandler(conf, svc)

	r := gin.New()
	r.POST("/session/attendee", h.HandleAttendeeLogin)
	r.POST("/session/admin", h.HandleAdminLogin)
	r.POST("/session/refresh", h.HandleRefreshSession)
	r.DELETE("/session", h.HandleLogout)

	return r
}

func TestSessionHandler_HandleAttendeeLogin(t *testing.T) {
	t.Run("issues a token for the session", func(t *testing.T) {
		state := attendeeSession("Kim", "01011112222")
		w := doJSON(t, newSessionRouter(&fakeSessionService{state: state}), http.MethodPost, "/session/attendee",
			gin.H{"name": "Kim", "phone": "010-1111-2222"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp response.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.SessionAttendee, resp.Session.Kind)

		claims, err := jwthelper.ParseToken([]byte("test-key"), resp.Token)
		require.NoError(t, err)
		assert.Equal(t, state.ID, claims.SessionID)
	})

	t.Run("no matching reservation", func(t *testing.T) {
		w := doJSON(t, newSessionRouter(&fakeSessionService{err: service.ErrNoMatchingReservation}), http.MethodPost, "/session/attendee",
			gin.H{"name": "Kim", "phone": "010-1111-2222"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := doJSON(t, newSessionRouter(&fakeSessionService{}), http.MethodPost, "/session/attendee", gin.H{"name": "Kim"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_HandleAdminLogin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "wrong code", err: service.ErrInvalidAdminCode, wantStatus: http.StatusUnauthorized},
		{name: "not a performer", err: service.ErrNotAPerformer, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSessionService{state: domain.SessionState{ID: "sess-2"}.AsAdmin("Lee"), err: tt.err}

			w := doJSON(t, newSessionRouter(svc), http.MethodPost, "/session/admin", gin.H{"name": "Lee", "code": "0427"})

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestSessionHandler_RefreshAndLogout(t *testing.T) {
	r := newSessionRouter(&fakeSessionService{err: service.ErrNoActiveSession})

	w := doJSON(t, r, http.MethodPost, "/session/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, newSessionRouter(&fakeSessionService{}), http.MethodDelete, "/session", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
