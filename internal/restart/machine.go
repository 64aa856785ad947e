// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package restart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkprocat/WreckfestController/internal/clock"
	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
	"github.com/tkprocat/WreckfestController/internal/gameconfig"
	"github.com/tkprocat/WreckfestController/internal/players"
	"github.com/tkprocat/WreckfestController/internal/ports"
	"github.com/tkprocat/WreckfestController/internal/schedule"
	"github.com/tkprocat/WreckfestController/internal/trackchange"
)

// Notifier publishes a phase/chat notice to anything downstream (the
// websocket hub, most concretely). Kept as a narrow interface so this
// package does not import the transport package directly.
type Notifier interface {
	Publish(topic string, payload any)
}

// Machine is the single process-wide Smart Restart Machine instance (§9
// "Global mutable state"). All state reads/writes happen under mu (§5,
// I7: at most one restart in flight).
type Machine struct {
	mu sync.Mutex

	state       State
	event       *schedule.Event
	onComplete  func(schedule.Event)
	countdown   int
	pendingAt   time.Time
	generation  int

	warningTicker clock.Ticker
	pendingTicker clock.Ticker

	clk         clock.Clock
	supervisor  ports.ProcessSupervisor
	players     *players.Tracker
	configPath  string
	notifier    Notifier
	cfg         Config
	logger      zerolog.Logger
}

// New creates an Idle Machine.
func New(clk clock.Clock, supervisor ports.ProcessSupervisor, tracker *players.Tracker, configPath string, notifier Notifier, cfg Config, logger zerolog.Logger) *Machine {
	return &Machine{
		state:      Idle,
		clk:        clk,
		supervisor: supervisor,
		players:    tracker,
		configPath: configPath,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With().Str("component", "smart-restart").Logger(),
	}
}

// AttachTrackChange wires the "lobby detected" Pending termination
// condition to trackTracker's Changed notices.
func (m *Machine) AttachTrackChange(tracker *trackchange.Tracker) {
	tracker.Subscribe(m.onTrackChanged)
}

// State returns the current phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Initiate begins a restart orchestration for event, invoking onComplete
// once the machine reaches Completed. Rejected with Conflict unless the
// machine is Idle (§4.C8 Entry).
func (m *Machine) Initiate(event schedule.Event, onComplete func(schedule.Event)) error {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return ctlerrors.New(ctlerrors.Conflict, "a restart is already in flight")
	}

	m.event = &event
	m.onComplete = onComplete
	m.generation++
	gen := m.generation

	onlineHumans, _ := m.players.Count()
	if onlineHumans == 0 {
		m.state = Restarting
		m.mu.Unlock()
		m.notify("phase", Restarting)
		go m.doRestart(gen)
		return nil
	}

	m.countdown = m.cfg.CountdownMinutes
	m.state = Warning
	m.warningTicker = m.clk.NewTicker(time.Minute)
	ticker := m.warningTicker
	m.mu.Unlock()

	m.notify("phase", Warning)
	go m.runWarning(gen, ticker)
	return nil
}

// Cancel aborts a restart in progress. Valid only from Warning or Pending
// (§4.C8 Cancellation).
func (m *Machine) Cancel() error {
	m.mu.Lock()
	switch m.state {
	case Warning, Pending:
	default:
		m.mu.Unlock()
		return ctlerrors.New(ctlerrors.Conflict, "cancel is only valid during Warning or Pending")
	}
	m.stopTimersLocked()
	m.state = Idle
	m.event = nil
	m.generation++
	m.mu.Unlock()

	m.broadcast(msgCancelled)
	m.notify("phase", Idle)
	return nil
}

func (m *Machine) stopTimersLocked() {
	if m.warningTicker != nil {
		m.warningTicker.Stop()
		m.warningTicker = nil
	}
	if m.pendingTicker != nil {
		m.pendingTicker.Stop()
		m.pendingTicker = nil
	}
}

func (m *Machine) runWarning(gen int, ticker clock.Ticker) {
	for range ticker.C() {
		m.mu.Lock()
		if m.generation != gen || m.state != Warning {
			m.mu.Unlock()
			return
		}

		m.countdown--
		remaining := m.countdown
		if remaining > 0 {
			m.mu.Unlock()
			m.broadcast(fmt.Sprintf(msgWarningTemplate, remaining))
			continue
		}

		ticker.Stop()
		m.warningTicker = nil
		m.state = Pending
		m.pendingAt = m.clk.Now()
		m.pendingTicker = m.clk.NewTicker(m.cfg.CheckInterval)
		pendingTicker := m.pendingTicker
		m.mu.Unlock()

		m.broadcast(msgNextLobby)
		m.notify("phase", Pending)
		go m.runPending(gen, pendingTicker)
		return
	}
}

func (m *Machine) runPending(gen int, ticker clock.Ticker) {
	for range ticker.C() {
		if m.checkPendingTick(gen) {
			return
		}
	}
}

// checkPendingTick evaluates the Pending termination conditions on one
// check tick (§4.C8 Pending phase: Drain, Timeout). Lobby-detected is
// handled separately in onTrackChanged. Returns true once the phase has
// moved on and the caller's loop should stop.
func (m *Machine) checkPendingTick(gen int) bool {
	m.mu.Lock()
	if m.generation != gen || m.state != Pending {
		m.mu.Unlock()
		return true
	}

	onlineHumans, _ := m.players.Count()
	timedOut := m.clk.Now().Sub(m.pendingAt) >= m.cfg.PendingTimeout

	switch {
	case onlineHumans == 0:
		m.transitionToRestartingLocked(gen)
		m.mu.Unlock()
		go m.doRestart(gen)
		return true
	case timedOut:
		m.transitionToRestartingLocked(gen)
		m.mu.Unlock()
		m.broadcast(msgRestartingTimeout)
		go m.doRestart(gen)
		return true
	default:
		m.mu.Unlock()
		return false
	}
}

func (m *Machine) onTrackChanged(_ trackchange.Changed) {
	m.mu.Lock()
	if m.state != Pending {
		m.mu.Unlock()
		return
	}
	gen := m.generation
	m.transitionToRestartingLocked(gen)
	m.mu.Unlock()

	m.broadcast(msgRestartingNow)
	go m.doRestart(gen)
}

// transitionToRestartingLocked must be called with mu held.
func (m *Machine) transitionToRestartingLocked(gen int) {
	m.stopTimersLocked()
	m.state = Restarting
}

func (m *Machine) doRestart(gen int) {
	m.notify("phase", Restarting)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.supervisor.Restart(ctx); err != nil {
		m.logger.Error().Err(err).Msg("process restart failed, resetting to Idle")
		m.mu.Lock()
		if m.generation == gen {
			m.state = Idle
			m.event = nil
		}
		m.mu.Unlock()
		m.notify("phase", Idle)
		return
	}

	m.clk.Sleep(m.cfg.StabilizationWait)
	m.applyEventConfig()

	m.mu.Lock()
	event := *m.event
	onComplete := m.onComplete
	m.state = Completed
	m.mu.Unlock()

	m.notify("phase", Completed)
	if onComplete != nil {
		onComplete(event)
	}

	m.clk.Sleep(m.cfg.CompletedWait)

	m.mu.Lock()
	if m.generation == gen {
		m.state = Idle
		m.event = nil
	}
	m.mu.Unlock()
	m.notify("phase", Idle)
}

// applyEventConfig rewrites the server config per the activating event's
// overrides. Failures are logged and swallowed: the process restart is
// the primary outcome (§4.C8 Restarting phase).
func (m *Machine) applyEventConfig() {
	m.mu.Lock()
	event := *m.event
	m.mu.Unlock()

	if event.ServerConfig != nil {
		cfg, err := gameconfig.ReadBasic(m.configPath)
		if err != nil {
			m.logger.Warn().Err(err).Msg("failed to read server config for event activation")
		} else {
			applyOverride(cfg, event.ServerConfig)
			if err := gameconfig.WriteBasic(m.configPath, cfg); err != nil {
				m.logger.Warn().Err(err).Msg("failed to write server config for event activation")
			}
		}
	}

	if len(event.Tracks) > 0 {
		collectionName := event.CollectionName
		if collectionName == "" {
			collectionName = fmt.Sprintf("Event: %s", event.Name)
		}
		entries := make([]gameconfig.TrackEntry, len(event.Tracks))
		for i, t := range event.Tracks {
			entries[i] = gameconfig.TrackEntry{
				Track:                   t.Track,
				Gamemode:                t.Gamemode,
				Laps:                    t.Laps,
				Bots:                    t.Bots,
				NumTeams:                t.NumTeams,
				CarResetDisabled:        t.CarResetDisabled,
				WrongWayLimiterDisabled: t.WrongWayLimiterDisabled,
				CarClassRestriction:     t.CarClassRestriction,
				CarRestriction:          t.CarRestriction,
				Weather:                 t.Weather,
			}
		}
		if err := gameconfig.WriteTracks(m.configPath, collectionName, entries); err != nil {
			m.logger.Warn().Err(err).Msg("failed to write tracks section for event activation")
		}
	}
}

// applyOverride applies a partial ServerConfigOverride onto cfg. A nil
// field means "do not change"; for every string field except Password, an
// empty-string value also means "do not change" - only Password accepts
// an explicit empty value (§4.C8 Restarting phase).
func applyOverride(cfg *gameconfig.BasicConfig, override *schedule.ServerConfigOverride) {
	if override.ServerName != nil && *override.ServerName != "" {
		cfg.ServerName = *override.ServerName
	}
	if override.WelcomeMessage != nil && *override.WelcomeMessage != "" {
		cfg.WelcomeMessage = *override.WelcomeMessage
	}
	if override.Password != nil {
		cfg.Password = *override.Password
	}
	if override.MaxPlayers != nil {
		cfg.MaxPlayers = *override.MaxPlayers
	}
	if override.Bots != nil {
		cfg.Bots = *override.Bots
	}
	if override.AIDifficulty != nil && *override.AIDifficulty != "" {
		cfg.AIDifficulty = *override.AIDifficulty
	}
	if override.Laps != nil {
		cfg.Laps = *override.Laps
	}
	if override.VehicleDamage != nil && *override.VehicleDamage != "" {
		cfg.VehicleDamage = *override.VehicleDamage
	}
	if override.LobbyCountdown != nil {
		cfg.LobbyCountdown = *override.LobbyCountdown
	}
}

// broadcast sends a fixed in-game chat string via the process supervisor's
// console command, using "say" per the resolved chat-command ambiguity
// (§9 Open Questions).
func (m *Machine) broadcast(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.supervisor.SendConsoleCommand(ctx, "say "+message); err != nil {
		m.logger.Warn().Err(err).Str("message", message).Msg("failed to broadcast chat message")
	}
	m.notify("chat", message)
}

// notify publishes under "restart_"+topic, so "phase" and "chat" notices
// carry the hub's restart_phase and restart_chat message types.
func (m *Machine) notify(topic string, payload any) {
	if m.notifier != nil {
		m.notifier.Publish("restart_"+topic, payload)
	}
}
