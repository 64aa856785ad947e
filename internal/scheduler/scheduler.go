// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scheduler periodically sweeps the schedule store, selects a due
// event, and hands it to the Smart Restart Machine, rescheduling recurring
// instances on successful activation.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkprocat/WreckfestController/internal/clock"
	"github.com/tkprocat/WreckfestController/internal/ports"
	"github.com/tkprocat/WreckfestController/internal/recurrence"
	"github.com/tkprocat/WreckfestController/internal/schedule"
)

// RestartMachine is the subset of restart.Machine the scheduler drives.
// Declared narrowly here to avoid an import cycle between scheduler and
// restart.
type RestartMachine interface {
	Initiate(event schedule.Event, onComplete func(schedule.Event)) error
}

// Config tunes the sweep cadence and due/missed windows (§4.C9).
type Config struct {
	SweepInterval   time.Duration
	DueLead         time.Duration
	MissedThreshold time.Duration
}

// DefaultConfig returns the spec's literal timings: 30s sweep, 5min due
// lead, 5min missed-event threshold.
func DefaultConfig() Config {
	return Config{SweepInterval: 30 * time.Second, DueLead: 5 * time.Minute, MissedThreshold: 5 * time.Minute}
}

// Scheduler is the process-wide sweep loop (§9 "Global mutable state").
type Scheduler struct {
	store   *schedule.Store
	machine RestartMachine
	webhook ports.Webhook
	clk     clock.Clock
	cfg     Config
	logger  zerolog.Logger

	mu         sync.Mutex
	processing bool
}

// New creates a Scheduler.
func New(store *schedule.Store, machine RestartMachine, webhook ports.Webhook, clk clock.Clock, cfg Config, logger zerolog.Logger) *Scheduler {
	return &Scheduler{store: store, machine: machine, webhook: webhook, clk: clk, cfg: cfg, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Serve runs the startup missed-events report and then sweeps on cfg's
// interval until ctx is cancelled, implementing suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.reportMissedEvents()

	ticker := s.clk.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			s.sweep()
		}
	}
}

// reportMissedEvents logs, at Warning level, every non-active event whose
// start_time is more than MissedThreshold in the past, without activating
// them (§4.C9 Lifecycle, §8 scenario 6).
func (s *Scheduler) reportMissedEvents() {
	doc := s.store.Load()
	now := s.clk.Now()
	cutoff := now.Add(-s.cfg.MissedThreshold)

	for _, e := range doc.Events {
		if !e.IsActive && e.StartTime.Before(cutoff) {
			s.logger.Warn().Int("eventId", e.ID).Str("eventName", e.Name).Time("startTime", e.StartTime).Msg("missed event detected at startup, not auto-activating")
		}
	}
}

// sweep reloads the schedule, selects the earliest due event if any, and
// hands it to the restart machine (§4.C9 Sweep/Selection/Activation).
func (s *Scheduler) sweep() {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	doc := s.store.Load()
	now := s.clk.Now()
	due := doc.DueEvents(now, s.cfg.DueLead)

	// Events more than MissedThreshold in the past are only reported (see
	// reportMissedEvents), never auto-activated.
	missedCutoff := now.Add(-s.cfg.MissedThreshold)
	kept := due[:0]
	for _, e := range due {
		if !e.StartTime.Before(missedCutoff) {
			kept = append(kept, e)
		}
	}
	due = kept

	if len(due) == 0 {
		if upcoming := doc.UpcomingEvents(now, s.cfg.DueLead); len(upcoming) > 0 {
			s.logger.Debug().Int("eventId", upcoming[0].ID).Dur("eta", upcoming[0].StartTime.Sub(now)).Msg("nearest upcoming event")
		}
		return
	}

	chosen := due[0]

	s.mu.Lock()
	s.processing = true
	s.mu.Unlock()

	if err := s.machine.Initiate(chosen, s.onActivationComplete); err != nil {
		s.logger.Warn().Err(err).Int("eventId", chosen.ID).Msg("failed to initiate restart, retrying next sweep")
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}
}

// onActivationComplete is the Smart Restart Machine's completion callback
// (§4.C9 Activation, steps 1-4).
func (s *Scheduler) onActivationComplete(activated schedule.Event) {
	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	doc := s.store.Load()
	for i := range doc.Events {
		doc.Events[i].IsActive = doc.Events[i].ID == activated.ID
	}

	if _, err := s.store.Save(doc); err != nil {
		s.logger.Error().Err(err).Int("eventId", activated.ID).Msg("failed to persist activation, continuing")
	}

	s.sendActivationNotice(activated)
	s.rescheduleIfRecurring(activated)
}

func (s *Scheduler) sendActivationNotice(activated schedule.Event) {
	if s.webhook == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	notice := ports.ActivationNotice{EventID: activated.ID, EventName: activated.Name, Timestamp: s.clk.Now()}
	if err := s.webhook.NotifyActivation(ctx, notice); err != nil {
		s.logger.Warn().Err(err).Int("eventId", activated.ID).Msg("activation webhook failed")
	}
}

func (s *Scheduler) rescheduleIfRecurring(activated schedule.Event) {
	if activated.RecurringPattern == nil {
		return
	}

	next, ok := recurrence.NextInstance(activated.RecurringPattern, s.clk.Now())

	doc := s.store.Load()
	for i := range doc.Events {
		if doc.Events[i].ID != activated.ID {
			continue
		}
		if !ok {
			return
		}
		doc.Events[i].StartTime = next
		doc.Events[i].IsActive = false
		if doc.Events[i].RecurringPattern != nil && doc.Events[i].RecurringPattern.Occurrences != nil {
			*doc.Events[i].RecurringPattern.Occurrences--
		}
		break
	}

	if _, err := s.store.Save(doc); err != nil {
		s.logger.Error().Err(err).Int("eventId", activated.ID).Msg("failed to persist recurrence reschedule")
	}
}
