// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package logpipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/clock"
)

func newTestTailer(t *testing.T, path string) *Tailer {
	t.Helper()
	bus := NewBus(zerolog.Nop())
	clk := clock.NewFake(time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC))
	tailer := NewTailer(path, bus, clk, zerolog.Nop())
	require.NoError(t, tailer.cursor.Seed())
	return tailer
}

func TestTailerReadOnceEmitsRawLinesAndAdvancesCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	tailer := newTestTailer(t, path)

	var lines []string
	tailer.bus.Subscribe(TopicRawLine, func(payload any) {
		lines = append(lines, payload.(RawLine).Text)
	})

	require.NoError(t, appendLine(path, "12:00:00 - Racer1 has joined."))
	require.NoError(t, tailer.readOnce())
	require.Equal(t, []string{"12:00:00 - Racer1 has joined."}, lines)
	require.EqualValues(t, len("12:00:00 - Racer1 has joined.\n"), tailer.cursor.Position)
}

func TestTailerReadOnceLeavesPartialLineForNextRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte("complete line\npartial"), 0o644))

	tailer := newTestTailer(t, path)
	tailer.cursor.Position = 0

	var lines []string
	tailer.bus.Subscribe(TopicRawLine, func(payload any) {
		lines = append(lines, payload.(RawLine).Text)
	})

	require.NoError(t, tailer.readOnce())
	require.Equal(t, []string{"complete line"}, lines)
	require.EqualValues(t, len("complete line\n"), tailer.cursor.Position)
}

func TestTailerReadOnceRecoversFromTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o644))

	tailer := newTestTailer(t, path)
	tailer.cursor.Position = 0

	var lines []string
	tailer.bus.Subscribe(TopicRawLine, func(payload any) {
		lines = append(lines, payload.(RawLine).Text)
	})

	require.NoError(t, tailer.readOnce())
	require.Equal(t, []string{"line one", "line two"}, lines)

	// The dedicated server rotates its log out from under the tailer: the
	// new file is shorter than the cursor's recorded position.
	require.NoError(t, os.WriteFile(path, []byte("fresh start\n"), 0o644))
	require.NoError(t, tailer.readOnce())

	require.Equal(t, []string{"line one", "line two", "fresh start"}, lines)
	require.EqualValues(t, len("fresh start\n"), tailer.cursor.Position)
}

func TestTailerPublishLineDispatchesParsedTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	tailer := newTestTailer(t, path)

	var joinSeen, trackSeen bool
	tailer.bus.Subscribe(TopicJoin, func(payload any) { joinSeen = true })
	tailer.bus.Subscribe(TopicTrackLoaded, func(payload any) { trackSeen = true })

	tailer.publishLine("12:00:00 - Racer1 has joined.")
	tailer.publishLine("Current track loaded!  (speedbowl)")

	require.True(t, joinSeen)
	require.True(t, trackSeen)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}
