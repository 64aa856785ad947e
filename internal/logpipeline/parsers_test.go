// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package logpipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLineJoin(t *testing.T) {
	p := parseLine("12:00:00 - Racer123 has joined.")
	require.NotNil(t, p.join)
	require.Equal(t, "Racer123", p.join.Name)
	require.False(t, p.join.IsBot)
}

func TestParseLineJoinBot(t *testing.T) {
	p := parseLine("12:00:00 - *BotDriver has joined.")
	require.NotNil(t, p.join)
	require.Equal(t, "BotDriver", p.join.Name)
	require.True(t, p.join.IsBot)
}

func TestParseLineLeave(t *testing.T) {
	p := parseLine("12:00:01 - Racer123 has quit the game.")
	require.NotNil(t, p.leave)
	require.Equal(t, "Racer123", p.leave.Name)
}

func TestParseLineKick(t *testing.T) {
	p := parseLine("12:00:02 - Troublemaker kicked.")
	require.NotNil(t, p.kick)
	require.Equal(t, "Troublemaker", p.kick.Name)
}

func TestParseLineTrackLoaded(t *testing.T) {
	p := parseLine("Current track loaded!  (speedbowl)")
	require.NotNil(t, p.track)
	require.Equal(t, "speedbowl", p.track.TrackID)
}

func TestParseLineEventStarted(t *testing.T) {
	p := parseLine("Event started!")
	require.True(t, p.started)
}

func TestParseLineUnrecognized(t *testing.T) {
	p := parseLine("some unrelated diagnostic line")
	require.Nil(t, p.join)
	require.Nil(t, p.leave)
	require.Nil(t, p.kick)
	require.Nil(t, p.track)
	require.False(t, p.started)
}
