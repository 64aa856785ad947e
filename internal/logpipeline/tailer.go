// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package logpipeline

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tkprocat/WreckfestController/internal/clock"
)

const (
	pollInterval    = 2 * time.Second
	debounceWindow  = 100 * time.Millisecond
	tryLockTimeout  = 50 * time.Millisecond
)

// tryMutex is a try-lock with a bounded wait, backing the 50ms contention
// rule in §4.C4/§5: a busy tick is skipped rather than blocked on.
type tryMutex struct{ ch chan struct{} }

func newTryMutex() *tryMutex {
	m := &tryMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

func (m *tryMutex) TryLock(timeout time.Duration) bool {
	select {
	case <-m.ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *tryMutex) Unlock() { m.ch <- struct{}{} }

// Tailer watches a growing log file and publishes parsed events on Bus. It
// implements suture.Service via Serve so the supervision tree can host it
// as a long-lived goroutine.
type Tailer struct {
	cursor Cursor
	bus    *Bus
	clock  clock.Clock
	logger zerolog.Logger
	mu     *tryMutex
	// debounce paces fsnotify-driven reads so a burst of writes inside
	// debounceWindow collapses into a single read instead of re-reading on
	// every fs event.
	debounce *rate.Limiter
}

// NewTailer creates a Tailer for the given path. The cursor is seeded at
// the end of the file at the start of every Serve call.
func NewTailer(path string, bus *Bus, clk clock.Clock, logger zerolog.Logger) *Tailer {
	return &Tailer{
		cursor:   Cursor{Path: path},
		bus:      bus,
		clock:    clk,
		logger:   logger.With().Str("component", "log-tailer").Str("path", path).Logger(),
		mu:       newTryMutex(),
		debounce: rate.NewLimiter(rate.Every(debounceWindow), 1),
	}
}

// Serve runs the watch+poll loop until ctx is cancelled.
func (t *Tailer) Serve(ctx context.Context) error {
	if err := t.cursor.Seed(); err != nil {
		t.logger.Warn().Err(err).Msg("failed to seed cursor, starting at 0")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to create filesystem watcher, falling back to poll-only")
		watcher = nil
	}
	if watcher != nil {
		defer watcher.Close()
		dir := filepath.Dir(t.cursor.Path)
		if err := watcher.Add(dir); err != nil {
			t.logger.Warn().Err(err).Msg("failed to watch log directory, falling back to poll-only")
		}
	}

	ticker := t.clock.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			t.tick()
		case ev, ok := <-watcherEvents(watcher):
			if !ok {
				continue
			}
			if filepath.Base(ev.Name) != filepath.Base(t.cursor.Path) {
				continue
			}
			if t.debounce.Allow() {
				t.tick()
			}
		}
	}
}

// watcherEvents returns w.Events, or a nil channel (which blocks forever
// in a select) when w is nil - letting the poll ticker carry the loop.
func watcherEvents(w *fsnotify.Watcher) chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func (t *Tailer) tick() {
	if !t.mu.TryLock(tryLockTimeout) {
		return
	}
	defer t.mu.Unlock()

	if err := t.readOnce(); err != nil && !os.IsNotExist(err) {
		t.logger.Warn().Err(err).Msg("log read failed")
	}
}

func (t *Tailer) readOnce() error {
	f, err := os.Open(t.cursor.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if t.cursor.ResetIfTruncated(info.Size()) {
		t.logger.Info().Msg("log file truncated, cursor reset to 0")
	}

	if _, err := f.Seek(t.cursor.Position, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(f)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			consumed += int64(len(line))
			t.publishLine(trimNewline(line))
			continue
		}
		if err == io.EOF {
			// Partial line at EOF: not yet a complete line: leave it for
			// the next read (§4.C4 "lines straddling a read boundary must
			// not be split").
			break
		}
		if err != nil {
			return err
		}
	}
	t.cursor.Position += consumed
	return nil
}

func trimNewline(s string) string {
	s = stripSuffix(s, "\n")
	s = stripSuffix(s, "\r")
	return s
}

func stripSuffix(s, suffix string) string {
	if len(s) > 0 && s[len(s)-1:] == suffix {
		return s[:len(s)-1]
	}
	return s
}

func (t *Tailer) publishLine(line string) {
	if line == "" {
		return
	}
	now := t.clock.Now()
	t.bus.Publish(TopicRawLine, RawLine{Text: line, At: now})

	parsed := parseLine(line)
	switch {
	case parsed.join != nil:
		parsed.join.At = now
		t.bus.Publish(TopicJoin, *parsed.join)
	case parsed.leave != nil:
		parsed.leave.At = now
		t.bus.Publish(TopicLeave, *parsed.leave)
	case parsed.kick != nil:
		parsed.kick.At = now
		t.bus.Publish(TopicKick, *parsed.kick)
	case parsed.track != nil:
		parsed.track.At = now
		t.bus.Publish(TopicTrackLoaded, *parsed.track)
	case parsed.started:
		t.bus.Publish(TopicEventStart, EventStarted{At: now})
	}
}
