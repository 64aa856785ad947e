// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package players

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/logpipeline"
)

func TestTrackerJoinAddsOnlineParticipant(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	now := time.Now()
	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Racer1", At: now})

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, "Racer1", snapshot[0].Name)
	require.True(t, snapshot[0].IsOnline)
}

func TestTrackerLeaveMarksOffline(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Racer1", At: time.Now()})
	bus.Publish(logpipeline.TopicLeave, logpipeline.PlayerEvent{Name: "Racer1", At: time.Now()})

	require.Empty(t, tracker.Snapshot())
}

func TestTrackerKickMarksOffline(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Racer1", At: time.Now()})
	bus.Publish(logpipeline.TopicKick, logpipeline.PlayerEvent{Name: "Racer1", At: time.Now()})

	require.Empty(t, tracker.Snapshot())
}

func TestTrackerDepartureOfUnknownParticipantIsNoOp(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	bus.Publish(logpipeline.TopicLeave, logpipeline.PlayerEvent{Name: "Ghost", At: time.Now()})
	require.Empty(t, tracker.Snapshot())
}

func TestTrackerCountExcludesBots(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	now := time.Now()
	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Human1", At: now})
	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Bot1", IsBot: true, At: now})
	bus.Publish(logpipeline.TopicLeave, logpipeline.PlayerEvent{Name: "Human1", At: now})

	online, total := tracker.Count()
	require.Equal(t, 0, online)
	require.Equal(t, 1, total)
}

func TestTrackerSnapshotSortsByJoinTimeWhenSlotsUnset(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	base := time.Now()
	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "First", At: base})
	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Second", At: base.Add(time.Second)})

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 2)
	require.Equal(t, "First", snapshot[0].Name)
	require.Equal(t, "Second", snapshot[1].Name)
}

func TestTrackerResetClearsState(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	bus.Publish(logpipeline.TopicJoin, logpipeline.PlayerEvent{Name: "Racer1", At: time.Now()})
	tracker.Reset()

	require.Empty(t, tracker.Snapshot())
	online, total := tracker.Count()
	require.Equal(t, 0, online)
	require.Equal(t, 0, total)
}
