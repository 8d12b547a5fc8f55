// Package events carries domain events about completed writes to Kafka and
// to the live admin feed.
package events

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Topics double as event types.
const (
	TopicOrderCreated      = "order.created"
	TopicOrderDeleted      = "order.deleted"
	TopicDeliveryUpdated   = "delivery.updated"
	TopicCheckoutCompleted = "checkout.completed"
)

var Topics = []string{
	TopicOrderCreated,
	TopicOrderDeleted,
	TopicDeliveryUpdated,
	TopicCheckoutCompleted,
}

type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OrderID    int64       `json:"order_id"`
	Data       interface{} `json:"data,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(eventType string, orderID int64, data interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    orderID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(event Event) error
}

// Fanout publishes every event to all of its sinks. A failing sink does not
// stop delivery to the others.
type Fanout struct {
	sinks  []Publisher
	logger *logrus.Logger
}

func NewFanout(logger *logrus.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Publish(event Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(event); err != nil {
			f.logger.WithError(err).WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.Type,
			}).Warn("Failed to publish event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Broadcaster interface {
	Broadcast(messageType string, data interface{}, source string)
}

// BroadcastSink forwards events to a websocket hub. It serves both as a direct
// publisher and as the handler of a Kafka consumer.
type BroadcastSink struct {
	hub    Broadcaster
	source string
}

func NewBroadcastSink(hub Broadcaster, source string) *BroadcastSink {
	return &BroadcastSink{hub: hub, source: source}
}

func (b *BroadcastSink) Publish(event Event) error {
	b.hub.Broadcast(event.Type, event, b.source)
	return nil
}

func (b *BroadcastSink) HandleEvent(event Event) error {
	return b.Publish(event)
}
