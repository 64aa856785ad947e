// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package trackchange

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/logpipeline"
)

func TestTrackerCurrentStartsEmpty(t *testing.T) {
	tracker := NewTracker()
	require.Equal(t, "", tracker.Current())
}

func TestTrackerUpdatesCurrentOnTrackLoaded(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	bus.Publish(logpipeline.TopicTrackLoaded, logpipeline.TrackLoaded{TrackID: "speedbowl", At: time.Now()})

	require.Equal(t, "speedbowl", tracker.Current())
}

func TestTrackerNotifiesSubscribers(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	var received []Changed
	tracker.Subscribe(func(c Changed) { received = append(received, c) })

	bus.Publish(logpipeline.TopicTrackLoaded, logpipeline.TrackLoaded{TrackID: "hillclimb", At: time.Now()})

	require.Len(t, received, 1)
	require.Equal(t, "hillclimb", received[0].TrackID)
}

func TestTrackerSubscriberPanicDoesNotAffectOthers(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	secondCalled := false
	tracker.Subscribe(func(c Changed) { panic("boom") })
	tracker.Subscribe(func(c Changed) { secondCalled = true })

	require.NotPanics(t, func() {
		bus.Publish(logpipeline.TopicTrackLoaded, logpipeline.TrackLoaded{TrackID: "oldtrack", At: time.Now()})
	})
	require.True(t, secondCalled)
}

func TestTrackerMultipleLoadsUpdateCurrentEachTime(t *testing.T) {
	tracker := NewTracker()
	bus := logpipeline.NewBus(zerolog.Nop())
	tracker.Attach(bus)

	bus.Publish(logpipeline.TopicTrackLoaded, logpipeline.TrackLoaded{TrackID: "a", At: time.Now()})
	require.Equal(t, "a", tracker.Current())

	bus.Publish(logpipeline.TopicTrackLoaded, logpipeline.TrackLoaded{TrackID: "b", At: time.Now()})
	require.Equal(t, "b", tracker.Current())
}
