package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is one record handed to PublishBatch. Value is sent as is when it
// is []byte or string and JSON-encoded otherwise.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

type Producer struct {
	writer      Writer
	compression string
}

var compressionCodecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// NewProducer dials nothing up front; kafka-go connects on the first write.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: no brokers configured")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  compressionCodecs[cfg.Compression],
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return NewProducerWithWriter(w, cfg.Compression), nil
}

// NewProducerWithWriter wraps w. compression only labels metrics.
func NewProducerWithWriter(w Writer, compression string) *Producer {
	return &Producer{writer: w, compression: compression}
}

// Publish sends one value to topic.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishBatch writes messages in a single call. The trace id carried by ctx
// is attached to every record as the trace_id header.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	start := time.Now()
	records, size, err := toKafka(topic, TraceIDFrom(ctx), start, messages)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, records...)
	producerStats.observe(topic, p.compression, len(records), size, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toKafka(topic, traceID string, at time.Time, messages []Message) ([]kafka.Message, int, error) {
	out := make([]kafka.Message, len(messages))
	size := 0
	for i, m := range messages {
		value, err := payload(m.Value)
		if err != nil {
			return nil, 0, err
		}
		headers := make([]kafka.Header, 0, len(m.Headers)+1)
		if traceID != "" {
			headers = append(headers, kafka.Header{Key: traceHeader, Value: []byte(traceID)})
		}
		for k, v := range m.Headers {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: value, Headers: headers, Time: at}
		size += len(value)
	}
	return out, size, nil
}

func payload(v interface{}) ([]byte, error) {
	switch raw := v.(type) {
	case []byte:
		return raw, nil
	case string:
		return []byte(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal kafka value: %w", err)
	}
	return b, nil
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var producerStats = producerMetrics{
	messages: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskportal_kafka_producer_messages_total",
		Help: "Messages written to Kafka by result",
	}, []string{"topic", "compression", "result"}),
	bytes: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskportal_kafka_producer_bytes_total",
		Help: "Payload bytes written to Kafka",
	}, []string{"topic"}),
	latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deskportal_kafka_producer_publish_seconds",
		Help:    "Time spent in one PublishBatch call",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"}),
}

func (m producerMetrics) observe(topic, compression string, count, size int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, compression, result).Add(float64(count))
	m.bytes.WithLabelValues(topic).Add(float64(size))
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}
