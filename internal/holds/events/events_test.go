package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"brokerage/pkg/config"
	"brokerage/pkg/kafka"
	"brokerage/pkg/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

type mockProducer struct {
	publishFunc func(ctx context.Context, msg kafka.Message) error
	closed      bool
}

func (m *mockProducer) Publish(ctx context.Context, msg kafka.Message) error {
	return m.publishFunc(ctx, msg)
}

func (m *mockProducer) Close() error {
	m.closed = true
	return nil
}

type mockChannel struct {
	declareFunc func(name, kind string) error
	publishFunc func(exchange, key string, msg amqp.Publishing) error
	closed      bool
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if m.declareFunc != nil {
		return m.declareFunc(name, kind)
	}
	return nil
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.publishFunc(exchange, key, msg)
}

func (m *mockChannel) Close() error {
	m.closed = true
	return nil
}

func sampleHold() *model.PropertyHold {
	return &model.PropertyHold{
		ID:         "11111111-1111-4111-8111-111111111111",
		PropertyID: "prop-1",
		CtvID:      "ctv-1",
		Status:     model.HoldStatusActive,
		HoldUntil:  time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewHoldEvent_ClonesHold(t *testing.T) {
	hold := sampleHold()
	event := NewHoldEvent(EventHoldCreated, "ctv-1", hold, time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))

	hold.Status = model.HoldStatusCancelled
	if event.Hold.Status != model.HoldStatusActive {
		t.Error("event must not share the hold with the caller")
	}
	if event.EventID == "" {
		t.Error("expected an event id")
	}
}

func TestEventTypeFor(t *testing.T) {
	tests := map[model.HoldStatus]EventType{
		model.HoldStatusExpired:          EventHoldExpired,
		model.HoldStatusAutoCancelled:    EventHoldAutoCancelled,
		model.HoldStatusCancelled:        EventHoldCancelled,
		model.HoldStatusCancelledByAdmin: EventHoldCancelled,
	}
	for status, want := range tests {
		if got := EventTypeFor(status); got != want {
			t.Errorf("EventTypeFor(%s) = %s, want %s", status, got, want)
		}
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	var got kafka.Message
	producer := &mockProducer{publishFunc: func(_ context.Context, msg kafka.Message) error {
		got = msg
		return nil
	}}
	p := newKafkaPublisher(producer, "holds-service")

	event := NewHoldEvent(EventHoldExtended, "ctv-1", sampleHold(), time.Now())
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(got.Key) != "prop-1" {
		t.Errorf("expected key prop-1, got %s", got.Key)
	}
	if got.GetEventType() != string(EventHoldExtended) {
		t.Errorf("expected event type header, got %s", got.GetEventType())
	}
	if got.GetEventID() != event.EventID {
		t.Errorf("expected event id header %s, got %s", event.EventID, got.GetEventID())
	}

	var decoded HoldEvent
	if err := got.DecodeValue(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Hold.ID != event.Hold.ID {
		t.Errorf("expected hold %s, got %s", event.Hold.ID, decoded.Hold.ID)
	}

	if err := p.Close(); err != nil || !producer.closed {
		t.Error("expected producer to be closed")
	}
}

func TestKafkaPublisher_RejectsEventWithoutHold(t *testing.T) {
	p := newKafkaPublisher(&mockProducer{publishFunc: func(context.Context, kafka.Message) error {
		t.Fatal("producer must not be called")
		return nil
	}}, "svc")

	err := p.Publish(context.Background(), HoldEvent{EventID: "e1", Type: EventHoldCreated})
	if !errors.Is(err, kafka.ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	var declared string
	var routingKey string
	var published amqp.Publishing
	ch := &mockChannel{
		declareFunc: func(name, kind string) error {
			declared = name + ":" + kind
			return nil
		},
		publishFunc: func(exchange, key string, msg amqp.Publishing) error {
			routingKey = key
			published = msg
			return nil
		},
	}

	p, err := newRabbitMQPublisher(ch, "property_holds", "holds-service", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if declared != "property_holds:topic" {
		t.Errorf("expected topic exchange declaration, got %s", declared)
	}

	event := NewHoldEvent(EventHoldExpired, "system", sampleHold(), time.Now())
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if routingKey != "hold.expired" {
		t.Errorf("expected routing key hold.expired, got %s", routingKey)
	}
	if published.Headers["property-id"] != "prop-1" {
		t.Errorf("expected property-id header, got %v", published.Headers)
	}

	var decoded HoldEvent
	if err := json.Unmarshal(published.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Type != EventHoldExpired {
		t.Errorf("expected hold.expired body, got %s", decoded.Type)
	}
}

func TestRabbitMQPublisher_DeclareFailureClosesChannel(t *testing.T) {
	ch := &mockChannel{declareFunc: func(string, string) error { return errors.New("access refused") }}

	if _, err := newRabbitMQPublisher(ch, "property_holds", "svc", nil); err == nil {
		t.Fatal("expected error")
	}
	if !ch.closed {
		t.Error("expected channel to be closed after failed declaration")
	}
}

func TestNewPublisher_None(t *testing.T) {
	p, err := NewPublisher(&config.Config{EventsDriver: config.EventsDriverNone}, "svc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(NopPublisher); !ok {
		t.Errorf("expected NopPublisher, got %T", p)
	}

	if _, err := NewPublisher(&config.Config{EventsDriver: "carrier-pigeon"}, "svc"); err == nil {
		t.Error("expected error for unknown driver")
	}
}
