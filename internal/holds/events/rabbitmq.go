package events

import (
	"context"
	"encoding/json"
	"fmt"

	"brokerage/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes hold events to a durable topic exchange using
// the event type as routing key.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	source   string
	log      *logger.Logger
}

func NewRabbitMQPublisher(url, exchange, source string, log *logger.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	p, err := newRabbitMQPublisher(ch, exchange, source, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newRabbitMQPublisher(ch amqpChannel, exchange, source string, log *logger.Logger) (*RabbitMQPublisher, error) {
	if exchange == "" {
		return nil, fmt.Errorf("exchange name is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	log.Debug("Declaring exchange", "name", exchange, "type", amqp.ExchangeTopic)
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}

	return &RabbitMQPublisher{channel: ch, exchange: exchange, source: source, log: log}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event HoldEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal hold event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		AppId:        p.source,
		Headers:      amqp.Table{"schema-version": SchemaVersion},
		Body:         body,
	}
	if event.Hold != nil {
		msg.Headers["property-id"] = event.Hold.PropertyID
	}

	if err := p.channel.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg); err != nil {
		return fmt.Errorf("failed to publish hold event: %w", err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Error("Error closing channel", "error", err)
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
