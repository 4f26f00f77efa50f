package service

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/mavics/swipetopay/internal/bus"
	"github.com/mavics/swipetopay/internal/relay"
)

// The publish worker decouples the commit path from broker and viewer I/O:
// Adjust only ever enqueues, and delivery failures are counted and logged,
// never surfaced back to the caller whose mutation is already durable.

// Start launches the publish worker. Call Close to stop it.
func (s *Service) Start() {
	go s.publishLoop()
}

// Close drains queued events and stops the worker. Call after the request
// surfaces have shut down, so no Adjust is still enqueueing.
func (s *Service) Close() {
	close(s.quit)
	<-s.done
}

func (s *Service) publishLoop() {
	defer close(s.done)

	for {
		select {
		case ev := <-s.queue:
			s.deliver(ev)
		case <-s.quit:
			// Drain whatever was enqueued before shutdown.
			for {
				select {
				case ev := <-s.queue:
					s.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) enqueue(ev bus.BalanceChanged) {
	select {
	case s.queue <- ev:
	default:
		n := s.dropped.inc()
		slog.Warn("publish queue full, dropping balance event",
			"uid", ev.UID, "dropped_total", n)
	}
}

func (s *Service) deliver(ev bus.BalanceChanged) {
	if s.hub != nil {
		s.hub.Broadcast(relay.EventCardBalance, ev)
	}

	if s.pub == nil {
		return
	}

	err := s.pub.Publish(s.cfg.TopupTopic, ev)
	if err != nil {
		n := s.publishErrs.inc()
		slog.Error("publish balance change failed",
			"uid", ev.UID, "topic", s.cfg.TopupTopic, "error", err, "failures_total", n)
	}
}

// DroppedEvents reports how many balance events were discarded because the
// publish queue was full.
func (s *Service) DroppedEvents() uint64 { return s.dropped.load() }

// PublishFailures reports how many bus publishes have failed since start.
func (s *Service) PublishFailures() uint64 { return s.publishErrs.load() }

type counter struct {
	v atomic.Uint64
}

func (c *counter) inc() uint64  { return c.v.Add(1) }
func (c *counter) load() uint64 { return c.v.Load() }

func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
