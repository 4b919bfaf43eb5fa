package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	applogger "DeskPortal/pkg/logger"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" env:"ENVIRONMENT"`
	Logger      applogger.Config `yaml:"logger"`
	Server      struct {
		Host            string        `yaml:"host" env:"SERVER_HOST"`
		Port            int           `yaml:"port" env:"SERVER_PORT"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
		AllowOrigins    []string      `yaml:"allow_origins" env:"CORS_ORIGINS" envSeparator:","`
	} `yaml:"server"`
	// Timezone is the display zone for local timestamps, e.g. "Asia/Singapore".
	Timezone string `yaml:"timezone" env:"DISPLAY_TIMEZONE"`
	Desk     struct {
		Ticker string `yaml:"ticker" env:"DESK_TICKER"`
		// LegalName appears in generated term-sheet clauses.
		LegalName string `yaml:"legal_name"`
	} `yaml:"desk"`
	Directus struct {
		URL     string        `yaml:"url" env:"DIRECTUS_URL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"directus"`
	Pricer struct {
		URL     string        `yaml:"url" env:"PRICER_URL"`
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
	} `yaml:"pricer"`
	// Portfolio serves the per-counterparty account summaries.
	Portfolio struct {
		URL     string        `yaml:"url" env:"PORTFOLIO_URL"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"portfolio"`
	Coinbase struct {
		URL      string        `yaml:"url" env:"COINBASE_URL"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"coinbase"`
	Gateway struct {
		URL       string        `yaml:"url" env:"GATEWAY_URL"`
		PublicURL string        `yaml:"public_url" env:"GATEWAY_PUBLIC_URL"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`
	Session struct {
		Secret     string `yaml:"secret" env:"SESSION_SECRET"`
		Salt       string `yaml:"salt" env:"SESSION_SALT"`
		CookieName string `yaml:"cookie_name"`
		Secure     bool   `yaml:"secure"`
		// LoginBurst and LoginPerMinute bound login attempts per client address.
		LoginBurst     int     `yaml:"login_burst"`
		LoginPerMinute float64 `yaml:"login_per_minute"`
	} `yaml:"session"`
	Risk struct {
		Timeout        time.Duration `yaml:"timeout"`
		DefaultBump    float64       `yaml:"default_bump"`
		StreamInterval time.Duration `yaml:"stream_interval"`
		StreamPongWait time.Duration `yaml:"stream_pong_wait"`
		SaveSnapshots  bool          `yaml:"save_snapshots"`
	} `yaml:"risk"`
	Cache struct {
		ReferenceTTL time.Duration `yaml:"reference_ttl"`
		MemoryMax    int           `yaml:"memory_max"`
		// L1TTL caps the memory layer in front of Redis.
		L1TTL time.Duration `yaml:"l1_ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
			Host     string `yaml:"host" env:"REDIS_HOST"`
			Port     int    `yaml:"port" env:"REDIS_PORT"`
			Password string `yaml:"password" env:"REDIS_PASSWORD"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Events struct {
		Enabled    bool          `yaml:"enabled" env:"EVENTS_ENABLED"`
		BufferSize int           `yaml:"buffer_size"`
		MaxRetries int           `yaml:"max_retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"events"`
	Kafka struct {
		Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
		Topic        string   `yaml:"topic" env:"KAFKA_TOPIC"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled" env:"CLICKHOUSE_ENABLED"`
		Addr        []string      `yaml:"addr" env:"CLICKHOUSE_ADDR" envSeparator:","`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user" env:"CLICKHOUSE_USER"`
		Password    string        `yaml:"password" env:"CLICKHOUSE_PASSWORD"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		BatchSize   int           `yaml:"batch_size"`
		// Protocol is "native" (default) or "http".
		Protocol         string        `yaml:"protocol"`
		MaxOpenConns     int           `yaml:"max_open_conns"`
		AsyncInsert      bool          `yaml:"async_insert"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(b, false)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(b, true)
}

func parse(b []byte, withEnv bool) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if withEnv {
		if err := env.Parse(&c); err != nil {
			return nil, fmt.Errorf("parse env: %w", err)
		}
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Desk.Ticker == "" {
		c.Desk.Ticker = "JABRA"
	}
	if c.Desk.LegalName == "" {
		c.Desk.LegalName = "JABRA TRADING LLC"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "admin_portal_csr"
	}
	if c.Session.LoginBurst == 0 {
		c.Session.LoginBurst = 5
	}
	if c.Session.LoginPerMinute == 0 {
		c.Session.LoginPerMinute = 5
	}
	if c.Risk.Timeout == 0 {
		c.Risk.Timeout = 15 * time.Second
	}
	if c.Risk.DefaultBump == 0 {
		c.Risk.DefaultBump = 1
	}
	if c.Risk.StreamInterval == 0 {
		c.Risk.StreamInterval = 30 * time.Second
	}
	if c.Risk.StreamPongWait == 0 {
		c.Risk.StreamPongWait = 60 * time.Second
	}
	if c.Portfolio.URL == "" {
		c.Portfolio.URL = c.Pricer.URL
	}
	if c.Coinbase.URL == "" {
		c.Coinbase.URL = "https://api.coinbase.com/v2"
	}
	if c.Coinbase.CacheTTL == 0 {
		c.Coinbase.CacheTTL = 10 * time.Second
	}
	if c.Cache.ReferenceTTL == 0 {
		c.Cache.ReferenceTTL = 5 * time.Minute
	}
	if c.Cache.MemoryMax == 0 {
		c.Cache.MemoryMax = 1000
	}
	if c.Gateway.PublicURL == "" {
		c.Gateway.PublicURL = c.Gateway.URL
	}
	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = 256
	}
}

// Location resolves the display timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Directus.URL == "" {
		return fmt.Errorf("directus.url is required")
	}
	if c.Pricer.URL == "" {
		return fmt.Errorf("pricer.url is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}
	if c.Risk.DefaultBump < 0 || c.Risk.DefaultBump > 15 {
		return fmt.Errorf("risk.default_bump must be within [0, 15], got %v", c.Risk.DefaultBump)
	}
	if c.Events.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when events are enabled")
	}
	if c.Events.Enabled && strings.TrimSpace(c.Kafka.Topic) == "" {
		return fmt.Errorf("kafka.topic is required when events are enabled")
	}
	if c.ClickHouse.Enabled && len(c.ClickHouse.Addr) == 0 {
		return fmt.Errorf("clickhouse.addr cannot be empty when clickhouse is enabled")
	}
	if _, err := time.LoadLocation(c.Timezone); c.Timezone != "" && err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}
