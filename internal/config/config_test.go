package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `api:
  environment: test
  port: "9090"
  jwt_signing_key: secret
  session_ttl: 2h
postgres:
  host: db.local
  user: encore
  password: pw
  db: encore
event:
  checkin_path: door
`

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	conf, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, 2*time.Hour, conf.API.SessionTTL)
	assert.Equal(t, "0215", conf.Event.AdminCode)
	assert.Equal(t, "/door", conf.Event.CheckInPath)
	assert.Equal(t, 5*time.Second, conf.Event.RemoteTimeout)
	assert.False(t, conf.Event.StrictEntryNumbers)
	assert.Equal(t, "documents", conf.Realtime.NotifyChannel)
	assert.Equal(t, "host=db.local port=5432 user=encore password=pw dbname=encore sslmode=disable", conf.RemoteDSN())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EVENT_ADMIN_CODE", "4321")
	t.Setenv("EVENT_STRICT_ENTRY_NUMBERS", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")

	conf, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "4321", conf.Event.AdminCode)
	assert.True(t, conf.Event.StrictEntryNumbers)
	assert.Equal(t, "postgres://u:p@h/db", conf.RemoteDSN())
}

func TestLoad_MissingSigningKey(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestRemoteDSN_LocalOnly(t *testing.T) {
	t.Setenv("API_JWT_SIGNING_KEY", "k")
	t.Setenv("DATABASE_URL", "")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, conf.RemoteDSN())
}
