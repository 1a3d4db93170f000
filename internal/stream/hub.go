// Package stream fans security events out to websocket subscribers. Events
// originate from postgres NOTIFY triggers on the threats and live_attacks
// tables, so every writer (API, workers, auto-blocker) feeds the same stream.
package stream

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/model"
)

// subscriberBuffer is the per-subscriber queue depth. A subscriber that
// falls this far behind is dropped rather than stalling the broadcast.
const subscriberBuffer = 64

type Hub struct {
	mu     sync.Mutex
	subs   map[chan model.SecurityEvent]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan model.SecurityEvent]struct{}),
		logger: logger.With().Str("component", "stream").Logger(),
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan model.SecurityEvent, func()) {
	ch := make(chan model.SecurityEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers. Slow subscribers are
// disconnected instead of blocking delivery to the rest.
func (h *Hub) Publish(_ context.Context, ev model.SecurityEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, ch)
			close(ch)
			h.logger.Warn().Msg("dropped slow stream subscriber")
		}
	}
	return nil
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
