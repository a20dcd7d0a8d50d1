package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	// rotation of the log file, zero backups and age keep rotated files forever
	LogMaxSizeMB  int  `toml:"log_max_size_mb"`
	LogMaxBackups int  `toml:"log_max_backups"`
	LogMaxAgeDays int  `toml:"log_max_age_days"`
	SentryEnabled bool `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prom_metrics_host"`
	PrometheusMetricsPort string `toml:"prom_metrics_port"`
	// store
	StoreBackend     string `toml:"store_backend"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// change feed
	FeedBackend  string   `toml:"feed_backend"`
	FeedChannel  string   `toml:"feed_channel"`
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`
	// dashboard
	EntriesPerMinute  int      `toml:"entries_per_minute"`
	SessionCacheMB    int      `toml:"session_cache_mb"`
	SessionTTLMinutes int      `toml:"session_ttl_minutes"`
	SecureCookies     bool     `toml:"secure_cookies"`
	AllowedOrigins    []string `toml:"allowed_origins"`
	MaxBodyBytes      int64    `toml:"max_body_bytes"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 50
	}
	if c.StoreBackend == "" {
		c.StoreBackend = "memory"
	}
	if c.FeedBackend == "" {
		c.FeedBackend = "memory"
	}
	if c.FeedChannel == "" {
		c.FeedChannel = "activities:changes"
	}
	if c.EntriesPerMinute == 0 {
		c.EntriesPerMinute = 30
	}
	if c.SessionCacheMB == 0 {
		c.SessionCacheMB = 10
	}
	if c.SessionTTLMinutes == 0 {
		c.SessionTTLMinutes = 24 * 60
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the table of the given environment.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing in %s", env, path)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Secrets never live in the config file.
type Secrets struct {
	PostgresPassword string `env:"POSTGRES_PASS"`
	RedisPassword    string `env:"REDIS_PASS"`
	SentryDSN        string `env:"SENTRY_DSN"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED,default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME,default=activity-tracker"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return loadSecrets(ctx, envconfig.OsLookuper())
}

func loadSecrets(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var secrets Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &secrets,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &secrets, nil
}
