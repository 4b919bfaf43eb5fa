package clickhouse

import "time"

type ClientOption func(*ClientConfig)

// ClientConfig holds the connection pool and query settings.
type ClientConfig struct {
	Addr            []string
	Database        string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	UseHTTP         bool
	// AsyncInsert makes the server buffer inserts; the client still waits
	// for the flush before an insert returns.
	AsyncInsert bool
	MaxExecTime time.Duration
}

// WithAddr sets the server addresses (host:port).
func WithAddr(addr ...string) ClientOption {
	return func(c *ClientConfig) { c.Addr = append([]string(nil), addr...) }
}

func WithDatabase(database string) ClientOption {
	return func(c *ClientConfig) {
		if database != "" {
			c.Database = database
		}
	}
}

func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		if user != "" {
			c.User = user
		}
		c.Password = password
	}
}

// WithMaxConnections bounds the pool. Idle connections never exceed open ones.
func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *ClientConfig) {
		if maxOpen > 0 {
			c.MaxOpenConns = maxOpen
		}
		if maxIdle > c.MaxOpenConns {
			maxIdle = c.MaxOpenConns
		}
		if maxIdle > 0 {
			c.MaxIdleConns = maxIdle
		}
	}
}

// WithTimeouts sets dial and read timeouts. Zero keeps the default.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithProtocol selects "http" or the native protocol (anything else).
func WithProtocol(protocol string) ClientOption {
	return func(c *ClientConfig) { c.UseHTTP = protocol == "http" }
}

func WithAsyncInsert(enabled bool) ClientOption {
	return func(c *ClientConfig) { c.AsyncInsert = enabled }
}

// WithMaxExecutionTime sets max_execution_time for every query.
func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.MaxExecTime = d }
}
