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
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
dbname = "appointments"

[insurance_service]
url = "http://insurance:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.Scheduling.ClaimWindow())
	assert.Equal(t, 24*time.Hour, cfg.Scheduling.CancellationNotice())
	assert.Equal(t, 5*time.Minute, cfg.Scheduling.CacheTTL())
	assert.Equal(t, []time.Duration{24 * time.Hour, 2 * time.Hour}, cfg.Scheduling.ReminderOffsets())
	assert.Equal(t, 30, cfg.Scheduling.ForecastDays)
	assert.Equal(t, 20, cfg.Scheduling.MaxRankedProviders)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTimeout())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	path := writeConfig(t, `
[database]
host = "localhost"
dbname = "appointments"

[kafka]
enabled = true

[insurance_service]
url = "http://insurance:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
dbname = "appointments"

[scheduling]
timezone = "Mars/Olympus"

[insurance_service]
url = "http://insurance:8080"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
dbname = "appointments"

[rate_limit]
enabled = true
burst = -1

[insurance_service]
url = "http://insurance:8080"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
