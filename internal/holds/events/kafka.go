package events

import (
	"context"
	"fmt"

	"brokerage/pkg/kafka"
	kafka_config "brokerage/pkg/kafka/config"
	middleware "brokerage/pkg/kafka/middleware"
	"brokerage/pkg/logger"
)

type messageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher writes hold events keyed by property id, so every event of
// one property lands on the same partition in order.
type KafkaPublisher struct {
	producer messageProducer
	source   string
}

func NewKafkaPublisher(cfg *kafka_config.Config, topic, dlqTopic, source string, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(cfg, topic, dlqTopic, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create hold event producer: %w", err)
	}
	if cfg.EnableMiddleware {
		producer.Use(middleware.LoggingProducerMiddleware(log))
	}
	return newKafkaPublisher(producer, source), nil
}

func newKafkaPublisher(producer messageProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event HoldEvent) error {
	if event.Hold == nil {
		return fmt.Errorf("%w: event %s has no hold", kafka.ErrInvalidMessage, event.EventID)
	}

	msg, err := kafka.NewMessage().
		WithKey(event.Hold.PropertyID).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(string(event.Type)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build hold event message: %w", err)
	}

	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
