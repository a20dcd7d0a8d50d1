package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[development]
port = 8080
log_level = "debug"
store_backend = "memory"
feed_backend = "kafka"
kafka_brokers = ["k1:9092", "k2:9092"]
kafka_topic = "changes"
allowed_origins = ["http://localhost:8080"]

[production]
host = "0.0.0.0"
port = 9000
store_backend = "postgres"
postgres_host = "db"
postgres_max_conns = 12
entries_per_minute = 5
session_ttl_minutes = 30
log_max_size_mb = 20
log_max_backups = 7
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, testConfig)

	dev, err := Load("dev", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, dev.Port)
	assert.Equal(t, "localhost", dev.Host, "defaulted")
	assert.Equal(t, "debug", dev.LogLevel)
	assert.Equal(t, "kafka", dev.FeedBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, dev.KafkaBrokers)
	assert.Equal(t, "activities:changes", dev.FeedChannel)
	assert.Equal(t, 30, dev.EntriesPerMinute)
	assert.Equal(t, 24*time.Hour, dev.SessionTTL())
	assert.Equal(t, int64(1<<20), dev.MaxBodyBytes)
	assert.Equal(t, 50, dev.LogMaxSizeMB)
	assert.Zero(t, dev.LogMaxBackups)

	prod, err := Load("Production", path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", prod.Host)
	assert.Equal(t, "postgres", prod.StoreBackend)
	assert.Equal(t, "memory", prod.FeedBackend)
	assert.Equal(t, int32(12), prod.PostgresMaxConns)
	assert.Equal(t, 5, prod.EntriesPerMinute)
	assert.Equal(t, 30*time.Minute, prod.SessionTTL())
	assert.Equal(t, 20, prod.LogMaxSizeMB)
	assert.Equal(t, 7, prod.LogMaxBackups)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := writeConfig(t, testConfig)
	_, err = Load("staging", path)
	assert.EqualError(t, err, "unknown env: staging")

	path = writeConfig(t, "[development]\nport = 1\n")
	_, err = Load("prod", path)
	assert.ErrorContains(t, err, "config for env [prod] missing")

	path = writeConfig(t, "[development\nport = ")
	_, err = Load("dev", path)
	assert.ErrorContains(t, err, "decode config")
}

func TestLoadSecrets(t *testing.T) {
	secrets, err := loadSecrets(context.Background(), envconfig.MapLookuper(map[string]string{
		"REDIS_PASS":        "redis-secret",
		"SENTRY_DSN":        "https://key@sentry.example/1",
		"HONEYCOMB_ENABLED": "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, "redis-secret", secrets.RedisPassword)
	assert.Equal(t, "https://key@sentry.example/1", secrets.SentryDSN)
	assert.True(t, secrets.HoneycombEnabled)
	assert.Empty(t, secrets.HoneycombAPIKey)
	assert.Equal(t, "activity-tracker", secrets.OtelServiceName)

	_, err = loadSecrets(context.Background(), envconfig.MapLookuper(map[string]string{
		"HONEYCOMB_ENABLED": "maybe",
	}))
	assert.Error(t, err)
}
