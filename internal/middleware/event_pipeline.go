package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	applogger "DeskPortal/pkg/logger"
)

// ErrBufferFull is returned by Emit when the pipeline cannot take more events.
var ErrBufferFull = errors.New("event pipeline: buffer full")

const maxBackoff = 2 * time.Second

// EventPipeline sits between the use cases and the event publisher. Emit
// never blocks: events are buffered and delivered by a background worker that
// retries with exponential backoff.
type EventPipeline struct {
	pub        domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *applogger.Logger
	bufSize    int
	maxRetries int
	retryDelay time.Duration
	bufCh      chan models.DeskEvent
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	stopped    bool
	mu         sync.Mutex
}

var _ domrepo.EventSink = (*EventPipeline)(nil)

type PipelineOption func(*EventPipeline)

// WithBufferSize sets how many events may wait for delivery.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithRetry sets the number of retries after a failed publish and the first
// backoff delay.
func WithRetry(maxRetries int, delay time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if maxRetries >= 0 {
			p.maxRetries = maxRetries
		}
		if delay > 0 {
			p.retryDelay = delay
		}
	}
}

// WithLogger sets the logger used for failed deliveries.
func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *EventPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewEventPipeline creates a new pipeline.
func NewEventPipeline(pub domrepo.EventPublisher, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		pub:        pub,
		metrics:    metrics,
		log:        applogger.Nop(),
		bufSize:    256,
		maxRetries: 3,
		retryDelay: 50 * time.Millisecond,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.DeskEvent, p.bufSize)
	return p
}

// Start launches background delivery of buffered events. A pipeline runs
// once: Start after Stop does nothing.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case <-ctx.Done():
				return
			case e := <-p.bufCh:
				p.deliver(ctx, e)
			}
		}
	}()
}

// Stop stops the worker after it has tried to publish what is still buffered.
// It returns early when ctx ends first. Later calls return nil.
func (p *EventPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped || !p.started {
		p.stopped = true
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()
	close(p.stopCh)

	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit validates e and queues it for delivery.
func (p *EventPipeline) Emit(_ context.Context, e models.DeskEvent) error {
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	select {
	case p.bufCh <- e:
		p.metrics.RecordEvent(string(e.Type), "queued")
		return nil
	default:
		p.metrics.RecordEvent(string(e.Type), "dropped")
		return ErrBufferFull
	}
}

// Pending is the number of events waiting for delivery.
func (p *EventPipeline) Pending() int {
	return len(p.bufCh)
}

func (p *EventPipeline) deliver(ctx context.Context, e models.DeskEvent) {
	start := time.Now()
	backoff := p.retryDelay
	var err error
	for attempt := 0; ; attempt++ {
		if err = p.pub.Publish(ctx, e); err == nil {
			p.metrics.RecordEvent(string(e.Type), "published")
			p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
			return
		}
		if attempt >= p.maxRetries || !sleepCtx(ctx, backoff) {
			break
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
	p.metrics.RecordEvent(string(e.Type), "failed")
	p.log.Error("desk event not delivered",
		applogger.String("event_id", e.ID),
		applogger.String("event_type", string(e.Type)),
		applogger.Error(err),
	)
}

// drain makes one attempt per remaining event.
func (p *EventPipeline) drain(ctx context.Context) {
	for {
		select {
		case e := <-p.bufCh:
			if err := p.pub.Publish(ctx, e); err != nil {
				p.metrics.RecordEvent(string(e.Type), "failed")
				continue
			}
			p.metrics.RecordEvent(string(e.Type), "published")
		default:
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func validateEvent(e models.DeskEvent) error {
	if e.ID == "" {
		return fmt.Errorf("event id empty")
	}
	if e.Type == "" {
		return fmt.Errorf("event type empty")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("event time missing")
	}
	return nil
}

// DiscardSink drops every event. It stands in for the pipeline when events
// are disabled.
type DiscardSink struct{}

func (DiscardSink) Emit(context.Context, models.DeskEvent) error { return nil }
