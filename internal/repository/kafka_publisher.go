package repository

import (
	"context"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	pkgkafka "DeskPortal/pkg/kafka"
)

// KafkaPublisher publishes desk events keyed by subject so that the events of
// one group or term sheet stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ drepo.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e models.DeskEvent) error {
	return p.PublishBatch(ctx, []models.DeskEvent{e})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []models.DeskEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(e.Subject),
			Value:   e,
			Headers: map[string]string{"event_type": string(e.Type)},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
