// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package players maintains the set of connected participants derived from
// log-pipeline events: who is online, human or bot, and since when.
package players

import (
	"sort"
	"sync"
	"time"

	"github.com/tkprocat/WreckfestController/internal/logpipeline"
)

// Participant is one tracked connected entity, human or bot.
type Participant struct {
	Name       string
	IsBot      bool
	IsOnline   bool
	JoinedAt   time.Time
	LastSeenAt time.Time
	Slot       *int
}

// Tracker holds the participant map described in §4.C5. It subscribes to
// the log bus's Join/Leave/Kick topics and serves Snapshot/Count/Reset
// queries under its own mutex.
type Tracker struct {
	mu           sync.Mutex
	participants map[string]*Participant
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{participants: make(map[string]*Participant)}
}

// Attach subscribes the tracker to bus's player-lifecycle topics.
func (t *Tracker) Attach(bus *logpipeline.Bus) {
	bus.Subscribe(logpipeline.TopicJoin, func(payload any) {
		ev := payload.(logpipeline.PlayerEvent)
		t.onJoin(ev)
	})
	bus.Subscribe(logpipeline.TopicLeave, func(payload any) {
		ev := payload.(logpipeline.PlayerEvent)
		t.onDepart(ev)
	})
	bus.Subscribe(logpipeline.TopicKick, func(payload any) {
		ev := payload.(logpipeline.PlayerEvent)
		t.onDepart(ev)
	})
}

func (t *Tracker) onJoin(ev logpipeline.PlayerEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.participants[ev.Name]
	if !ok {
		p = &Participant{Name: ev.Name, IsBot: ev.IsBot, JoinedAt: ev.At}
		t.participants[ev.Name] = p
	}
	p.IsOnline = true
	p.LastSeenAt = ev.At
}

func (t *Tracker) onDepart(ev logpipeline.PlayerEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.participants[ev.Name]
	if !ok {
		return
	}
	p.IsOnline = false
	p.LastSeenAt = ev.At
}

// Snapshot returns the currently-online participants sorted by Slot
// (absent slots last) then JoinedAt (§4.C5).
func (t *Tracker) Snapshot() []Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	var online []Participant
	for _, p := range t.participants {
		if p.IsOnline {
			online = append(online, *p)
		}
	}
	sort.Slice(online, func(i, j int) bool {
		si, sj := online[i].Slot, online[j].Slot
		switch {
		case si == nil && sj == nil:
			return online[i].JoinedAt.Before(online[j].JoinedAt)
		case si == nil:
			return false
		case sj == nil:
			return true
		case *si != *sj:
			return *si < *sj
		default:
			return online[i].JoinedAt.Before(online[j].JoinedAt)
		}
	})
	return online
}

// Count returns (online_humans, total_humans). Bots are excluded because
// the restart machine decides on human presence only.
func (t *Tracker) Count() (onlineHumans, totalHumans int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range t.participants {
		if p.IsBot {
			continue
		}
		totalHumans++
		if p.IsOnline {
			onlineHumans++
		}
	}
	return onlineHumans, totalHumans
}

// Reset clears all entries, tied to a server-process stop.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.participants = make(map[string]*Participant)
}
