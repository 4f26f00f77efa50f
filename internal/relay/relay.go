// Package relay forwards device-originated bus events to connected viewers.
// The ledger never consumes these; status and balance reads come straight
// from the card readers and only need fan-out.
package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/mavics/swipetopay/internal/bus"
)

// Events the dashboard listens for.
const (
	EventCardStatus  = "card-status"
	EventCardBalance = "card-balance"
)

// Broadcaster is the viewer-facing side the relay writes to.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Subscriber is the inbound side of the bus.
type Subscriber interface {
	Subscribe(topic string, handler bus.Handler)
}

type Relay struct {
	hub    Broadcaster
	topics bus.Topics
}

func New(hub Broadcaster, topics bus.Topics) *Relay {
	return &Relay{hub: hub, topics: topics}
}

// Start subscribes to the status and balance topics. Payloads are passed
// through verbatim; anything that is not valid JSON is logged and dropped so
// a misbehaving reader cannot feed garbage to viewers.
func (r *Relay) Start(sub Subscriber) {
	sub.Subscribe(r.topics.Status, r.forward(EventCardStatus))
	sub.Subscribe(r.topics.Balance, r.forward(EventCardBalance))
}

func (r *Relay) forward(event string) bus.Handler {
	return func(topic string, payload []byte) {
		if !json.Valid(payload) {
			slog.Warn("dropping malformed bus message", "topic", topic, "bytes", len(payload))
			return
		}

		slog.Debug("relaying bus message", "topic", topic, "event", event)
		r.hub.Broadcast(event, json.RawMessage(payload))
	}
}
