// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package trackchange tracks the currently-loaded match content and
// notifies subscribers when it changes - the Smart Restart Machine's
// "lobby detected" signal, since the server reloads a track between races.
package trackchange

import (
	"sync"
	"time"

	"github.com/tkprocat/WreckfestController/internal/logpipeline"
)

// Changed is published to subscribers when the loaded track transitions.
type Changed struct {
	TrackID string
	At      time.Time
}

// Tracker holds the current track id and fans out Changed notices.
type Tracker struct {
	mu      sync.Mutex
	current string
	subs    []func(Changed)
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Attach subscribes the tracker to the log bus's track-loaded topic.
func (t *Tracker) Attach(bus *logpipeline.Bus) {
	bus.Subscribe(logpipeline.TopicTrackLoaded, func(payload any) {
		ev := payload.(logpipeline.TrackLoaded)
		t.onTrackLoaded(ev)
	})
}

func (t *Tracker) onTrackLoaded(ev logpipeline.TrackLoaded) {
	t.mu.Lock()
	t.current = ev.TrackID
	subs := make([]func(Changed), len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	notice := Changed{TrackID: ev.TrackID, At: ev.At}
	for _, sub := range subs {
		notifySafely(sub, notice)
	}
}

func notifySafely(sub func(Changed), notice Changed) {
	defer func() { _ = recover() }()
	sub(notice)
}

// Subscribe registers a handler invoked on every track change. The
// registry is append-only per §9's "Subscriber lifetimes" guidance.
func (t *Tracker) Subscribe(handler func(Changed)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, handler)
}

// Current returns the currently-loaded track id, or "" if none observed yet.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
