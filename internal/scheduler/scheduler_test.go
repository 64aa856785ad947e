// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/clock"
	"github.com/tkprocat/WreckfestController/internal/ports"
	"github.com/tkprocat/WreckfestController/internal/schedule"
)

type fakeMachine struct {
	mu         sync.Mutex
	initiated  []schedule.Event
	initiateErr error
	completeNow bool
}

func (f *fakeMachine) Initiate(event schedule.Event, onComplete func(schedule.Event)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initiateErr != nil {
		return f.initiateErr
	}
	f.initiated = append(f.initiated, event)
	if f.completeNow && onComplete != nil {
		onComplete(event)
	}
	return nil
}

func (f *fakeMachine) calls() []schedule.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schedule.Event, len(f.initiated))
	copy(out, f.initiated)
	return out
}

type fakeWebhook struct {
	mu      sync.Mutex
	notices []ports.ActivationNotice
	err     error
}

func (f *fakeWebhook) NotifyActivation(ctx context.Context, notice ports.ActivationNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice)
	return f.err
}

func (f *fakeWebhook) calls() []ports.ActivationNotice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.ActivationNotice, len(f.notices))
	copy(out, f.notices)
	return out
}

func newTestStore(t *testing.T) *schedule.Store {
	t.Helper()
	store, err := schedule.NewStore(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	return store
}

func testSchedulerConfig() Config {
	return Config{SweepInterval: time.Minute, DueLead: 5 * time.Minute, MissedThreshold: 5 * time.Minute}
}

// Scenario 1: a due, non-recurring event is selected, activated, persisted
// as the active event, and reported to the webhook.
func TestSweepActivatesDueEventAndNotifiesWebhook(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	doc := &schedule.Schedule{Events: []schedule.Event{
		{ID: 1, Name: "Speedbowl Night", StartTime: now.Add(-time.Minute)},
	}}
	_, err := store.Save(doc)
	require.NoError(t, err)

	machine := &fakeMachine{completeNow: true}
	webhook := &fakeWebhook{}
	sched := New(store, machine, webhook, clk, testSchedulerConfig(), zerolog.Nop())

	sched.sweep()

	require.Len(t, machine.calls(), 1)
	require.Equal(t, 1, machine.calls()[0].ID)

	require.Len(t, webhook.calls(), 1)
	require.Equal(t, 1, webhook.calls()[0].EventID)

	reloaded := store.Load()
	active, ok := reloaded.ActiveEvent()
	require.True(t, ok)
	require.Equal(t, 1, active.ID)
}

// Scenario 2: nothing due yet, only an upcoming event further out than the
// due lead - sweep must not activate anything.
func TestSweepSkipsUpcomingEventNotYetDue(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	doc := &schedule.Schedule{Events: []schedule.Event{
		{ID: 1, Name: "Later Tonight", StartTime: now.Add(time.Hour)},
	}}
	_, err := store.Save(doc)
	require.NoError(t, err)

	machine := &fakeMachine{}
	sched := New(store, machine, nil, clk, testSchedulerConfig(), zerolog.Nop())

	sched.sweep()

	require.Empty(t, machine.calls())
}

// Scenario 6: a long-overdue event beyond the missed threshold is reported
// at startup but never auto-activated.
func TestReportMissedEventsDoesNotActivate(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	doc := &schedule.Schedule{Events: []schedule.Event{
		{ID: 1, Name: "Missed Long Ago", StartTime: now.Add(-time.Hour)},
	}}
	_, err := store.Save(doc)
	require.NoError(t, err)

	machine := &fakeMachine{}
	sched := New(store, machine, nil, clk, testSchedulerConfig(), zerolog.Nop())

	sched.reportMissedEvents()

	require.Empty(t, machine.calls())
	reloaded := store.Load()
	_, ok := reloaded.ActiveEvent()
	require.False(t, ok)
}

func TestSweepIsNoOpWhileAlreadyProcessing(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	doc := &schedule.Schedule{Events: []schedule.Event{
		{ID: 1, Name: "Due Now", StartTime: now.Add(-time.Minute)},
	}}
	_, err := store.Save(doc)
	require.NoError(t, err)

	machine := &fakeMachine{}
	sched := New(store, machine, nil, clk, testSchedulerConfig(), zerolog.Nop())
	sched.processing = true

	sched.sweep()

	require.Empty(t, machine.calls())
}

func TestActivationCompleteReschedulesRecurringEvent(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 10, 20, 0, 0, 0, time.UTC) // Monday, after 20:00.
	clk := clock.NewFake(now)

	occurrences := 3
	activated := schedule.Event{
		ID:        1,
		Name:      "Weekly Endurance",
		StartTime: now,
		IsActive:  false,
		RecurringPattern: &schedule.RecurringPattern{
			Type:        schedule.Weekly,
			Days:        []time.Weekday{time.Monday},
			Time:        schedule.TimeOfDay{Hour: 20, Minute: 0},
			Occurrences: &occurrences,
		},
	}
	doc := &schedule.Schedule{Events: []schedule.Event{activated}}
	_, err := store.Save(doc)
	require.NoError(t, err)

	sched := New(store, &fakeMachine{}, nil, clk, testSchedulerConfig(), zerolog.Nop())
	sched.onActivationComplete(activated)

	reloaded := store.Load()
	rescheduled, ok := reloaded.ByID(1)
	require.True(t, ok)
	require.False(t, rescheduled.IsActive)
	require.Equal(t, time.Date(2026, 8, 17, 20, 0, 0, 0, time.UTC), rescheduled.StartTime.UTC())
	require.Equal(t, 2, *rescheduled.RecurringPattern.Occurrences)
}

func TestActivationCompleteWithExhaustedRecurrenceLeavesEventAsIs(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 8, 10, 20, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	zero := 0
	activated := schedule.Event{
		ID:        1,
		Name:      "One-shot recurring, exhausted",
		StartTime: now,
		IsActive:  true,
		RecurringPattern: &schedule.RecurringPattern{
			Type:        schedule.Daily,
			Time:        schedule.TimeOfDay{Hour: 20, Minute: 0},
			Occurrences: &zero,
		},
	}
	doc := &schedule.Schedule{Events: []schedule.Event{activated}}
	_, err := store.Save(doc)
	require.NoError(t, err)

	sched := New(store, &fakeMachine{}, nil, clk, testSchedulerConfig(), zerolog.Nop())
	sched.onActivationComplete(activated)

	reloaded := store.Load()
	still, ok := reloaded.ByID(1)
	require.True(t, ok)
	require.True(t, still.IsActive)
}
