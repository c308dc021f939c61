package events

import (
	"fmt"

	"brokerage/pkg/config"
)

// NewPublisher returns the publisher selected by cfg.EventsDriver.
func NewPublisher(cfg *config.Config, source string) (Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsDriverKafka:
		return NewKafkaPublisher(cfg.Kafka, cfg.HoldEventsTopic, cfg.HoldEventsDLQTopic, source, cfg.Log)
	case config.EventsDriverRabbitMQ:
		return NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, source, cfg.Log)
	case config.EventsDriverNone, "":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
	}
}
