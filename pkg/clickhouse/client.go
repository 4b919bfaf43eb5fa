// Package clickhouse opens a database/sql pool on clickhouse-go.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type Client struct {
	db *sql.DB
}

func defaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Database:        "default",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}
}

// NewClient opens the pool and waits up to DialTimeout for the first ping.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Addr) == 0 {
		return nil, errors.New("clickhouse: no addr configured")
	}

	db := clickhouse.OpenDB(buildOptions(cfg))
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	c := NewClientFromDB(db)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := c.Health(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func NewClientFromDB(db *sql.DB) *Client { return &Client{db: db} }

func (c *Client) DB() *sql.DB { return c.db }

// Health pings the server. It backs the /healthz clickhouse check.
func (c *Client) Health(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("clickhouse ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InitSchema executes DDL statements in order and stops at the first
// failure. Statements are expected to be idempotent (IF NOT EXISTS).
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func buildOptions(cfg *ClientConfig) *clickhouse.Options {
	settings := clickhouse.Settings{}
	if cfg.MaxExecTime > 0 {
		settings["max_execution_time"] = int(cfg.MaxExecTime / time.Second)
	}
	if cfg.AsyncInsert {
		settings["async_insert"] = 1
		settings["wait_for_async_insert"] = 1
	}

	protocol := clickhouse.Native
	if cfg.UseHTTP {
		protocol = clickhouse.HTTP
	}
	return &clickhouse.Options{
		Protocol:    protocol,
		Addr:        cfg.Addr,
		Auth:        clickhouse.Auth{Database: cfg.Database, Username: cfg.User, Password: cfg.Password},
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
		Settings:    settings,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	}
}
