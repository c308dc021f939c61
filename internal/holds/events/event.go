package events

import (
	"context"
	"time"

	"brokerage/pkg/model"

	"github.com/google/uuid"
)

type EventType string

const (
	EventHoldCreated       EventType = "hold.created"
	EventHoldExtended      EventType = "hold.extended"
	EventHoldCancelled     EventType = "hold.cancelled"
	EventHoldExpired       EventType = "hold.expired"
	EventHoldAutoCancelled EventType = "hold.auto_cancelled"
)

// SchemaVersion is bumped whenever the HoldEvent payload changes shape.
const SchemaVersion = "1"

// HoldEvent is emitted after every committed hold transition.
type HoldEvent struct {
	EventID    string              `json:"eventId"`
	Type       EventType           `json:"type"`
	OccurredAt time.Time           `json:"occurredAt"`
	Actor      string              `json:"actor"`
	Hold       *model.PropertyHold `json:"hold"`
}

func NewHoldEvent(eventType EventType, actor string, hold *model.PropertyHold, at time.Time) HoldEvent {
	return HoldEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		OccurredAt: at.UTC(),
		Actor:      actor,
		Hold:       hold.Clone(),
	}
}

// EventTypeFor maps a terminal status to the event announcing it.
func EventTypeFor(status model.HoldStatus) EventType {
	switch status {
	case model.HoldStatusExpired:
		return EventHoldExpired
	case model.HoldStatusAutoCancelled:
		return EventHoldAutoCancelled
	case model.HoldStatusCancelled, model.HoldStatusCancelledByAdmin:
		return EventHoldCancelled
	default:
		return EventHoldCreated
	}
}

// Publisher delivers hold events to downstream consumers such as notifications.
type Publisher interface {
	Publish(ctx context.Context, event HoldEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, HoldEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
