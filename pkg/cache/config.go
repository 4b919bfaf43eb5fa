package cache

import "time"

// RedisOption configures a RedisCache.
type RedisOption func(*RedisConfig)

// RedisConfig holds the Redis connection settings. Keys are namespaced by
// Prefix so several desks can share one instance.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

func WithRedisHost(host string) RedisOption { return func(c *RedisConfig) { c.Host = host } }
func WithRedisPort(port int) RedisOption    { return func(c *RedisConfig) { c.Port = port } }
func WithRedisDB(db int) RedisOption        { return func(c *RedisConfig) { c.DB = db } }

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

// WithRedisPrefix sets the key namespace. Empty keeps the default.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// WithRedisPoolSize sets the connection pool size; zero keeps the default.
func WithRedisPoolSize(size int) RedisOption {
	return func(c *RedisConfig) {
		if size > 0 {
			c.PoolSize = size
			if c.MinIdleConns > size {
				c.MinIdleConns = size
			}
		}
	}
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig bounds the in-process cache.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

// WithMemoryMaxSize caps the number of entries; zero keeps the default.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

// LayeredOption configures a LayeredCache.
type LayeredOption func(*LayeredConfig)

// LayeredConfig holds the memory layer settings of a LayeredCache.
type LayeredConfig struct {
	MemoryMaxSize int
	L1TTL         time.Duration
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.MemoryMaxSize = size
		}
	}
}

// WithLayeredL1TTL caps how long values live in the memory layer, so spot
// and reference values written by another instance are picked up.
func WithLayeredL1TTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.L1TTL = ttl
		}
	}
}
