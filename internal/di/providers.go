package di

import (
	"context"
	"fmt"
	"time"

	domrepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/handler/api"
	mid "DeskPortal/internal/middleware"
	internalrepo "DeskPortal/internal/repository"
	"DeskPortal/internal/repository/directus"
	"DeskPortal/internal/service/ratelimit"
	"DeskPortal/internal/services/coinbase"
	"DeskPortal/internal/services/gateway"
	"DeskPortal/internal/services/portfolio"
	"DeskPortal/internal/services/pricer"
	"DeskPortal/internal/usecase"
	"DeskPortal/pkg/cache"
	pkgch "DeskPortal/pkg/clickhouse"
	"DeskPortal/pkg/config"
	xhttp "DeskPortal/pkg/http"
	pkgkafka "DeskPortal/pkg/kafka"
	applogger "DeskPortal/pkg/logger"
	"DeskPortal/pkg/metrics"
	"DeskPortal/pkg/server"
	"DeskPortal/pkg/session"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

// ProvideCache returns a Redis-backed layered cache when Redis is enabled and
// an in-memory cache otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	rc := cfg.Cache.Redis
	if !rc.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMax)), nil
	}

	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(rc.Host),
		cache.WithRedisPort(rc.Port),
		cache.WithRedisPassword(rc.Password),
		cache.WithRedisDB(rc.DB),
		cache.WithRedisPoolSize(rc.PoolSize),
		cache.WithRedisPrefix(rc.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("host", rc.Host), applogger.Int("port", rc.Port))
	return cache.NewLayeredCache(redisCache,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMax),
		cache.WithLayeredL1TTL(cfg.Cache.L1TTL),
	), nil
}

// ProvideClickHouseClient opens ClickHouse and creates the portal tables. It
// returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Addr...),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxOpenConns/2),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, 0),
		pkgch.WithProtocol(cfg.ClickHouse.Protocol),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.Schema(internalrepo.DefaultSnapshotTable, internalrepo.DefaultAuditTable)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore returns nil unless snapshots are enabled and ClickHouse
// is available.
func ProvideSnapshotStore(cfg *config.Config, ch *pkgch.Client) domrepo.SnapshotStore {
	if ch == nil || !cfg.Risk.SaveSnapshots {
		return nil
	}
	return internalrepo.NewClickHouseSnapshotStore(ch.DB(), internalrepo.DefaultSnapshotTable)
}

func ProvideAuditStore(cfg *config.Config, ch *pkgch.Client) domrepo.AuditStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseAuditStore(ch.DB(), internalrepo.DefaultAuditTable, cfg.ClickHouse.BatchSize)
}

// ProvideKafkaProducer creates the desk event producer, or nil when events
// are disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPipeline buffers desk events in front of Kafka.
func ProvideEventPipeline(cfg *config.Config, producer *pkgkafka.Producer, m domrepo.Metrics, l *applogger.Logger) *mid.EventPipeline {
	if producer == nil {
		return nil
	}
	return mid.NewEventPipeline(internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), m,
		mid.WithBufferSize(cfg.Events.BufferSize),
		mid.WithRetry(cfg.Events.MaxRetries, cfg.Events.RetryDelay),
		mid.WithLogger(l),
	)
}

// ProvideEventSink exposes the pipeline to the use cases. Without a pipeline
// events are discarded.
func ProvideEventSink(p *mid.EventPipeline) domrepo.EventSink {
	if p == nil {
		return mid.DiscardSink{}
	}
	return p
}

// ProvideKafkaConsumer creates the audit consumer, or nil when it is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideAuditHandler writes consumed desk events to ClickHouse.
func ProvideAuditHandler(cfg *config.Config, store domrepo.AuditStore, m domrepo.Metrics) *usecase.AuditHandler {
	if store == nil {
		return nil
	}
	return usecase.NewAuditHandler(cfg.Kafka.Topic, store, m)
}

func ProvideDirectusClient(cfg *config.Config, m domrepo.Metrics) *directus.Client {
	return directus.NewClient(cfg.Directus.URL,
		directus.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Directus.Timeout))),
		directus.WithDeskTicker(cfg.Desk.Ticker),
		directus.WithMetrics(m),
	)
}

func ProvidePricer(cfg *config.Config, m domrepo.Metrics) domrepo.PricerService {
	return pricer.New(cfg.Pricer.URL, cfg.Pricer.Timeout, cfg.Pricer.Retries, m)
}

func ProvideSpotProvider(cfg *config.Config, c cache.Service, m domrepo.Metrics) domrepo.SpotProvider {
	return coinbase.New(cfg.Coinbase.URL, cfg.Coinbase.Timeout, c, cfg.Coinbase.CacheTTL, m)
}

func ProvidePortfolio(cfg *config.Config, m domrepo.Metrics) domrepo.PortfolioService {
	return portfolio.New(cfg.Portfolio.URL, cfg.Portfolio.Timeout, m)
}

func ProvideDealGateway(cfg *config.Config, m domrepo.Metrics) domrepo.DealGateway {
	return gateway.New(cfg.Gateway.URL, cfg.Gateway.PublicURL, cfg.Gateway.Timeout, m)
}

func ProvideSessionCodec(cfg *config.Config) (*session.Codec, error) {
	codec, err := session.NewCodec(cfg.Session.Secret, cfg.Session.Salt)
	if err != nil {
		return nil, fmt.Errorf("session codec: %w", err)
	}
	return codec, nil
}

func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

func ProvideAuthUseCase(
	cfg *config.Config,
	dc *directus.Client,
	codec *session.Codec,
	limiter *ratelimit.Limiter,
	sink domrepo.EventSink,
	l *applogger.Logger,
) *usecase.AuthUseCase {
	return usecase.NewAuthUseCase(directus.NewAuthGateway(dc), codec, limiter,
		cfg.Session.LoginBurst, cfg.Session.LoginPerMinute, sink, l)
}

func ProvideTradeUseCase(
	cfg *config.Config,
	dc *directus.Client,
	p domrepo.PricerService,
	spot domrepo.SpotProvider,
) *usecase.TradeUseCase {
	return usecase.NewTradeUseCase(directus.NewTradeRepository(dc), p, spot, cfg.Location())
}

func ProvideQuoteUseCase(
	cfg *config.Config,
	dc *directus.Client,
	sink domrepo.EventSink,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.QuoteUseCase {
	return usecase.NewQuoteUseCase(directus.NewQuoteRepository(dc), sink, m, l, cfg.Location(), cfg.Desk.Ticker)
}

func ProvideRiskUseCase(
	cfg *config.Config,
	dc *directus.Client,
	p domrepo.PricerService,
	spot domrepo.SpotProvider,
	snapshots domrepo.SnapshotStore,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.RiskAggregateUseCase {
	return usecase.NewRiskAggregateUseCase(directus.NewTradeRepository(dc), p, spot, snapshots, m, l,
		cfg.Location(), cfg.Risk.Timeout)
}

func ProvideReferenceUseCase(
	cfg *config.Config,
	dc *directus.Client,
	spot domrepo.SpotProvider,
	c cache.Service,
	sink domrepo.EventSink,
	l *applogger.Logger,
) *usecase.ReferenceUseCase {
	return usecase.NewReferenceUseCase(directus.NewReferenceRepository(dc), spot, c, cfg.Cache.ReferenceTTL, sink, l)
}

func ProvideTermSheetUseCase(
	cfg *config.Config,
	dc *directus.Client,
	deals domrepo.DealGateway,
	sink domrepo.EventSink,
	l *applogger.Logger,
) *usecase.TermSheetUseCase {
	return usecase.NewTermSheetUseCase(directus.NewTermSheetRepository(dc), deals, sink, l, cfg.Desk.LegalName)
}

func ProvideCounterpartyUseCase(
	cfg *config.Config,
	dc *directus.Client,
	p domrepo.PortfolioService,
) *usecase.CounterpartyUseCase {
	return usecase.NewCounterpartyUseCase(directus.NewCounterpartyRepository(dc), p, cfg.Location())
}

// ProvideHandler builds the portal API handler.
func ProvideHandler(
	cfg *config.Config,
	l *applogger.Logger,
	auth *usecase.AuthUseCase,
	trades *usecase.TradeUseCase,
	quotes *usecase.QuoteUseCase,
	risk *usecase.RiskAggregateUseCase,
	reference *usecase.ReferenceUseCase,
	termsheets *usecase.TermSheetUseCase,
	counterparties *usecase.CounterpartyUseCase,
	audit domrepo.AuditStore,
) *api.Handler {
	return api.NewHandler(l, auth, trades, quotes, risk, reference, termsheets, counterparties,
		api.WithCookie(cfg.Session.CookieName, cfg.Session.Secure),
		api.WithStreamInterval(cfg.Risk.StreamInterval),
		api.WithStreamKeepalive(cfg.Risk.StreamPongWait),
		api.WithAuditStore(audit),
		api.WithAllowedOrigins(cfg.Server.AllowOrigins...),
	)
}

// ProvideHTTPServer creates the Echo server with the portal routes.
func ProvideHTTPServer(cfg *config.Config, h *api.Handler, ch *pkgch.Client, c cache.Service, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(len(cfg.Server.AllowOrigins) > 0, cfg.Server.AllowOrigins...),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	}
	if ch != nil {
		opts = append(opts, xhttp.WithHealthCheck("clickhouse", ch.Health))
	}
	if p, ok := c.(cache.Pinger); ok {
		opts = append(opts, xhttp.WithHealthCheck("redis", p.Ping))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	pipeline *mid.EventPipeline,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	audit *usecase.AuditHandler,
	ch *pkgch.Client,
	c cache.Service,
	limiter *ratelimit.Limiter,
) *server.App {
	opts := []server.Option{
		server.WithLimiter(limiter),
		server.WithCleanup(func() {
			if err := c.Close(); err != nil {
				l.Warn("cache close error", applogger.Error(err))
			}
		}),
	}
	if pipeline != nil {
		opts = append(opts, server.WithEventPipeline(pipeline, producer))
	}
	switch {
	case consumer != nil && audit != nil:
		opts = append(opts, server.WithConsumer(consumer, audit))
	case consumer != nil:
		l.Warn("kafka consumer enabled without clickhouse, audit events are not stored")
	}
	if ch != nil {
		opts = append(opts, server.WithClickHouse(ch))
	}
	return server.New(cfg, l, srv, opts...)
}
