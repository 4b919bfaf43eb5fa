package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "DeskPortal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads registered topics and hands each message to its handler
// with bounded retries. Messages that still fail go to the DLQ, if one is
// configured, and are committed either way so a poison message cannot stall
// the partition.
type Consumer struct {
	cfg       *ConsumerConfig
	logger    *applogger.Logger
	handlers  map[string]MessageHandler
	readers   map[string]Reader
	newReader func(topic string) Reader
	dlq       Writer
	hook      ConsumerHook

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "deskportal",
		WorkerCount: 1,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		logger:   l,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]Reader),
		hook:     TraceHook{},
	}
	c.newReader = func(topic string) Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	initConsumerMetrics()
	return c, nil
}

// RegisterHandler registers a message handler for its topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.logger.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithHook sets the hook run around every message.
func (c *Consumer) WithHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start launches the readers and workers. It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return errors.New("no handlers registered")
	}
	ctx, c.cancel = context.WithCancel(ctx)

	for topic, h := range c.handlers {
		r := c.newReader(topic)
		c.readers[topic] = r
		msgs := make(chan kafka.Message, c.cfg.WorkerCount)

		c.wg.Add(1)
		go c.fetch(ctx, topic, r, msgs)
		for i := 0; i < c.cfg.WorkerCount; i++ {
			c.wg.Add(1)
			go c.work(ctx, h, r, msgs)
		}
		c.logger.Info("kafka consumer started",
			applogger.String("topic", topic),
			applogger.String("group", c.cfg.GroupID),
			applogger.Int("workers", c.cfg.WorkerCount),
		)
	}
	return nil
}

// Stop stops the consumer and waits for in-flight messages.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		case <-done:
		}

		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.logger.Warn("kafka reader close", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
	})
	return stopErr
}

func (c *Consumer) fetch(ctx context.Context, topic string, r Reader, out chan<- kafka.Message) {
	defer c.wg.Done()
	defer close(out)

	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			if !sleepCtx(ctx, c.cfg.BackoffMin) {
				return
			}
			continue
		}
		select {
		case out <- km:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) work(ctx context.Context, h MessageHandler, r Reader, in <-chan kafka.Message) {
	defer c.wg.Done()
	for km := range in {
		c.process(ctx, h, r, km)
	}
}

func (c *Consumer) process(ctx context.Context, h MessageHandler, r Reader, km kafka.Message) {
	start := time.Now()
	err := c.handleWithRetry(ctx, h, km)
	consumerHandleLatency.WithLabelValues(km.Topic).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		consumerFailures.WithLabelValues(km.Topic).Inc()
		c.logger.Error("kafka message failed",
			applogger.String("topic", km.Topic),
			applogger.Int64("offset", km.Offset),
			applogger.Error(err),
		)
		if c.dlq == nil {
			return
		}
		if dlqErr := c.dlq.WriteMessages(ctx, kafka.Message{
			Topic:   c.cfg.DLQTopic,
			Key:     km.Key,
			Value:   km.Value,
			Headers: append(km.Headers, kafka.Header{Key: "source_topic", Value: []byte(km.Topic)}),
		}); dlqErr != nil {
			c.logger.Error("kafka dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
			return
		}
	}

	commitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.CommitMessages(commitCtx, km); err != nil {
		c.logger.Warn("kafka commit failed", applogger.String("topic", km.Topic), applogger.Error(err))
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, h MessageHandler, km kafka.Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()

	hctx, err := c.hook.BeforeHandle(ctx, km)
	if err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		err = h.Handle(hctx, km.Value)
		c.hook.AfterHandle(hctx, km, err)
		if err == nil || attempt > c.cfg.RetryMax {
			return err
		}
		if !sleepCtx(ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min << uint(attempt-1)
	if exp > max || exp <= 0 {
		exp = max
	}
	// jitter up to 50%
	return exp - time.Duration(rand.Int63n(int64(exp)/2+1))
}

var (
	consumerHandleLatency *prometheus.HistogramVec
	consumerFailures      *prometheus.CounterVec
	consumerOnce          sync.Once
)

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "deskportal_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
		consumerFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "deskportal_kafka_consumer_failures_total", Help: "Messages that exhausted their retries"},
			[]string{"topic"},
		)
	})
}
