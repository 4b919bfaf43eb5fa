package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestBuildOptions(t *testing.T) {
	cfg := &ClientConfig{DialTimeout: time.Second}
	for _, opt := range []ClientOption{
		WithAddr("ch-1:9000", "ch-2:9000"),
		WithDatabase("desk"),
		WithCredentials("svc", "pw"),
		WithProtocol("http"),
		WithAsyncInsert(true),
		WithMaxExecutionTime(30 * time.Second),
	} {
		opt(cfg)
	}

	opts := buildOptions(cfg)
	assert.Equal(t, []string{"ch-1:9000", "ch-2:9000"}, opts.Addr)
	assert.Equal(t, "desk", opts.Auth.Database)
	assert.Equal(t, "svc", opts.Auth.Username)
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, 30, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestWithTimeoutsKeepsDefaultsForZero(t *testing.T) {
	cfg := &ClientConfig{DialTimeout: 5 * time.Second, ReadTimeout: 10 * time.Second}
	WithTimeouts(0, 2*time.Second)(cfg)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
}

func TestWithMaxConnectionsCapsIdle(t *testing.T) {
	cfg := &ClientConfig{MaxOpenConns: 10, MaxIdleConns: 5}
	WithMaxConnections(4, 8)(cfg)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 4, cfg.MaxIdleConns)

	WithProtocol("native")(cfg)
	assert.False(t, cfg.UseHTTP)
}
