// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package logpipeline

import (
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives one event payload for a subscribed topic. Handlers
// must not block (§5 "subscriber callbacks... must not block").
type Handler func(payload any)

type subscription struct {
	handler Handler
	live    *bool
}

// Bus is an append-only, dead-subscriber-tolerant publish/subscribe
// registry (§9 "Subscriber lifetimes"). Subscribers cannot be physically
// removed; a Subscription's Cancel marks itself inert instead, and the
// Bus skips inert entries on every publish.
type Bus struct {
	mu     sync.Mutex
	topics map[Topic][]subscription
	logger zerolog.Logger
}

// NewBus creates an empty event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{topics: make(map[Topic][]subscription), logger: logger.With().Str("component", "log-bus").Logger()}
}

// Subscription is a best-effort cancellation token for a registered handler.
type Subscription struct {
	live *bool
}

// Cancel marks the subscription inert; the Bus will skip it on future
// publishes but the backing slice entry is never removed.
func (s *Subscription) Cancel() {
	*s.live = false
}

// Subscribe registers handler for topic and returns a cancellation token.
func (b *Bus) Subscribe(topic Topic, handler Handler) *Subscription {
	live := true
	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], subscription{handler: handler, live: &live})
	b.mu.Unlock()
	return &Subscription{live: &live}
}

// Publish delivers payload synchronously to every live subscriber of
// topic, swallowing and logging any panic so one faulty subscriber cannot
// take down the tailer (§4.C4 Multiplexing, §5 "must not block").
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.Lock()
	subs := make([]subscription, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.Unlock()

	for _, sub := range subs {
		if !*sub.live {
			continue
		}
		b.deliver(topic, sub.handler, payload)
	}
}

func (b *Bus) deliver(topic Topic, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Str("topic", string(topic)).Msg("subscriber handler panicked, dropping")
		}
	}()
	handler(payload)
}
