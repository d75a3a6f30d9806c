// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package auth

import (
	"log/slog"
	"sync"

	"github.com/uhailink/uhailink/internal/access"
)

const hubBuffer = 16

// Hub fans session and role changes out to every subscriber. It is the one
// process-wide change channel; each subscriber unsubscribes independently.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan access.ChangeEvent]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan access.ChangeEvent]struct{})}
}

// Subscribe registers a subscriber. The returned function removes it and
// closes the channel; calling it more than once is harmless.
func (h *Hub) Subscribe() (<-chan access.ChangeEvent, func()) {
	ch := make(chan access.ChangeEvent, hubBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to all subscribers without blocking. A subscriber
// with a full buffer already has re-evaluations pending, so the event is
// dropped for it.
func (h *Hub) Publish(ev access.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("change event dropped: subscriber buffer full",
				"change", ev.Kind.String(), "user_id", ev.UserID)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
