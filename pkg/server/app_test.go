package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	mid "DeskPortal/internal/middleware"
	"DeskPortal/internal/service/ratelimit"
	"DeskPortal/pkg/config"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"
	pkgmetrics "DeskPortal/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	mu     sync.Mutex
	events []models.DeskEvent
}

func (p *memPublisher) Publish(_ context.Context, e models.DeskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *memPublisher) PublishBatch(ctx context.Context, events []models.DeskEvent) error {
	for _, e := range events {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *memPublisher) Close() error { return nil }

func (p *memPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestAppDeliversEventsBeforeShutdownCompletes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Kafka.Topic = "desk.events"

	l := applogger.Nop()
	srv := xhttp.NewServer(nil, l, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	pub := &memPublisher{}
	pipeline := mid.NewEventPipeline(pub, pkgmetrics.Nop{}, mid.WithBufferSize(8))

	cleaned := false
	app := New(cfg, l, srv,
		WithEventPipeline(pipeline, nil),
		WithLimiter(ratelimit.New()),
		WithCleanup(func() { cleaned = true }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))

	now := time.Now()
	for _, subject := range []string{"G1", "G2", "G3"} {
		require.NoError(t, pipeline.Emit(ctx, models.NewDeskEvent(models.EventQuoteStatusChanged, "desk", subject, now)))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, app.Shutdown(stopCtx))

	assert.Equal(t, 3, pub.count())
	assert.Zero(t, pipeline.Pending())
	assert.True(t, cleaned)
}

func TestShutdownTimeoutDefault(t *testing.T) {
	app := New(&config.Config{}, nil, nil)
	assert.Equal(t, 10*time.Second, app.shutdownTimeout())
}
