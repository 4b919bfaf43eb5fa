package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "DeskPortal/internal/middleware"
	"DeskPortal/internal/service/ratelimit"
	pkgch "DeskPortal/pkg/clickhouse"
	"DeskPortal/pkg/config"
	xhttp "DeskPortal/pkg/http"
	pkgkafka "DeskPortal/pkg/kafka"
	applogger "DeskPortal/pkg/logger"
)

const limiterIdle = 30 * time.Minute

// Option configures App.
type Option func(*App)

// WithEventPipeline runs the desk event pipeline and closes its producer on
// shutdown.
func WithEventPipeline(p *mid.EventPipeline, producer *pkgkafka.Producer) Option {
	return func(a *App) {
		a.pipeline = p
		a.producer = producer
	}
}

// WithConsumer consumes desk events with h.
func WithConsumer(c *pkgkafka.Consumer, h pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.handler = h
	}
}

func WithClickHouse(ch *pkgch.Client) Option {
	return func(a *App) {
		a.chClient = ch
	}
}

// WithLimiter prunes idle login buckets while the app runs.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(a *App) {
		a.limiter = l
	}
}

// WithCleanup registers fn to run last during shutdown.
func WithCleanup(fn func()) Option {
	return func(a *App) {
		if fn != nil {
			a.cleanups = append(a.cleanups, fn)
		}
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	pipeline   *mid.EventPipeline
	producer   *pkgkafka.Producer
	consumer   *pkgkafka.Consumer
	handler    pkgkafka.MessageHandler
	chClient   *pkgch.Client
	limiter    *ratelimit.Limiter
	cleanups   []func()
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{cfg: cfg, logger: l, httpServer: srv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Workers outlive the signal so the pipeline can drain during shutdown.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	if err := a.Start(runCtx); err != nil {
		return err
	}

	<-sigCtx.Done()
	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start launches the background workers and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.logger.Info("event pipeline started", applogger.String("topic", a.cfg.Kafka.Topic))
	}

	if a.consumer != nil && a.handler != nil {
		a.consumer.RegisterHandler(a.handler)
		if err := a.consumer.Start(ctx); err != nil {
			a.logger.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.logger.Info("kafka consumer started", applogger.String("topic", a.handler.Topic()))
	}

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.logger.Debug("login buckets pruned", applogger.Int("count", n))
			}
		}
	}
}

// Shutdown stops the server first so no new events are emitted, then the
// pipeline, the consumer and the infrastructure clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.pipeline != nil {
		if err := a.pipeline.Stop(ctx); err != nil {
			a.logger.Warn("event pipeline stop error", applogger.Int("pending", a.pipeline.Pending()), applogger.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	for _, fn := range a.cleanups {
		fn()
	}

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
