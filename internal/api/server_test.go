package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/encore-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/encore-api/internal/config"
	"github.com/vietanh2810/encore-api/internal/db"
	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/repository"
	"github.com/vietanh2810/encore-api/internal/repository/dao"
)

func newTestServer(t *testing.T) (*Server, *repository.ReconcilingRepository) {
	t.Helper()

	sqlDB, err := db.OpenMirror(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mirror := repository.NewLocalMirror(dao.NewMirrorDAO(sqlDB))
	docs := repository.NewReconcilingRepository(mirror, nil, time.Second)
	t.Cleanup(docs.Close)

	conf := &config.AppConfig{
		API: &config.APIConfig{
			BaseURL:            "localhost:8080",
			AllowedCORSDomains: []string{"http://localhost:3000"},
			JWTSigningKey:      "test-key",
			SessionTTL:         time.Hour,
		},
		Gin:      &config.GinConfig{Mode: "test"},
		Postgres: &config.PostgresConfig{},
		Mirror:   &config.MirrorConfig{},
		Event:    &config.EventConfig{AdminCode: "0427", CheckInPath: "/checkin/enter"},
		Realtime: &config.RealtimeConfig{},
	}

	return NewServer(conf, docs, mirror), docs
}

func call(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	return w
}

func TestServer_CheckInFlow(t *testing.T) {
	s, docs := newTestServer(t)
	ctx := context.Background()

	_, err := docs.Save(ctx, domain.Document{
		Key:  domain.DocRoster,
		Body: []byte(`[{"name":"Kim","phone":"010-1111-2222"},{"name":"Lee","phone":"010-3333-4444"}]`),
	})
	require.NoError(t, err)

	w := call(t, s, http.MethodPost, "/api/v1/session/attendee", "", map[string]string{"name": "Kim", "phone": "01011112222"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login response.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = call(t, s, http.MethodGet, "/api/v1/checkin/enter", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first response.CheckInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "checked_in", first.Status)
	assert.Equal(t, 1, first.EntryNumber)
	require.NotNil(t, first.Session)
	require.NotNil(t, first.Session.User.EntryNumber)
	assert.Equal(t, 1, *first.Session.User.EntryNumber)

	w = call(t, s, http.MethodPost, "/api/v1/checkin/code", login.Token, map[string]string{"code": "0427"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second response.CheckInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, "already_checked_in", second.Status)
	assert.Equal(t, 1, second.EntryNumber)

	w = call(t, s, http.MethodGet, "/api/v1/admin/roster", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServer_AdminLoginNeedsPerformer(t *testing.T) {
	s, docs := newTestServer(t)
	ctx := context.Background()

	_, err := docs.Save(ctx, domain.Document{
		Key:  domain.DocEvent,
		Body: []byte(`{"event":{"title":"Encore"},"setlist":[{"song":"Encore","members":{"vocal":["Park"]}}]}`),
	})
	require.NoError(t, err)

	w := call(t, s, http.MethodPost, "/api/v1/session/admin", "", map[string]string{"name": "Park", "code": "9999"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, s, http.MethodPost, "/api/v1/session/admin", "", map[string]string{"name": "Kim", "code": "0427"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, s, http.MethodPost, "/api/v1/session/admin", "", map[string]string{"name": "Park", "code": "0427"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login response.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = call(t, s, http.MethodGet, "/api/v1/admin/roster/stats", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckInURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/checkin/enter", checkInURL("localhost:8080", "/checkin/enter"))
	assert.Equal(t, "https://encore.example/checkin/enter", checkInURL("https://encore.example/", "/checkin/enter"))
	assert.Equal(t, "encore.example", swaggerHost("https://encore.example/"))
}

func TestServer_SwaggerDescribesAPI(t *testing.T) {
	s, _ := newTestServer(t)

	w := call(t, s, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string `json:"basePath"`
		Info     struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "encore-api", doc.Info.Title)
	assert.Contains(t, doc.Info.Description, "concert companion")
	assert.Equal(t, "/api/v1", doc.BasePath)
}
