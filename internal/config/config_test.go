package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://localhost/access
jwt:
  secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Report.VisitorLookbackMonths)
	assert.Equal(t, 100, cfg.Report.MaxPageSize)
	assert.Equal(t, "access.notifications", cfg.Notification.Subject)
	assert.Equal(t, 256, cfg.Notification.QueueSize)
	assert.Equal(t, 12*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.NoError(t, cfg.RequireServer())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://file/access
log:
  level: debug
notification:
  http:
    endpoint: http://file/push
`)
	t.Setenv("DATABASE_URL", "postgres://env/access")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PUSH_ENDPOINT", "http://env/push")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/access", cfg.Database.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "http://env/push", cfg.Notification.HTTP.Endpoint)
	assert.Equal(t, "tcp://broker:1883", cfg.Notification.MQTT.BrokerURL)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
log:
  format: xml
`)
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `
notification:
  mqtt:
    qos: 3
`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestRequireServer(t *testing.T) {
	path := writeConfig(t, "server:\n  name: gate\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.RequireServer())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
