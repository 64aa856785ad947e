// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for the controller daemon.
//
// # Application Architecture
//
// The process wires together, in order:
//
//  1. Configuration: load settings from environment, config file, and
//     defaults (Koanf v2).
//  2. Schedule Store: the JSON document of events under DataDir.
//  3. Log Pipeline: tails the dedicated server's log file and publishes
//     typed events on an in-process bus.
//  4. Player Tracker / Track-Change Tracker: derived state fed by the bus.
//  5. Process Supervisor / Webhook ports: wrapped in circuit breakers.
//  6. Smart Restart Machine and Scheduler: the control loop.
//  7. WebSocket Hub: streams everything above to admin clients.
//  8. Supervisor tree: starts and restarts all of the above.
//
// # Signal Handling
//
// The process shuts down gracefully on SIGINT and SIGTERM, giving every
// supervised service up to its configured shutdown timeout to stop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"github.com/tkprocat/WreckfestController/internal/clock"
	"github.com/tkprocat/WreckfestController/internal/config"
	"github.com/tkprocat/WreckfestController/internal/gameconfig"
	"github.com/tkprocat/WreckfestController/internal/logging"
	"github.com/tkprocat/WreckfestController/internal/logpipeline"
	"github.com/tkprocat/WreckfestController/internal/players"
	"github.com/tkprocat/WreckfestController/internal/ports"
	"github.com/tkprocat/WreckfestController/internal/restart"
	"github.com/tkprocat/WreckfestController/internal/schedule"
	"github.com/tkprocat/WreckfestController/internal/scheduler"
	"github.com/tkprocat/WreckfestController/internal/supervisor"
	"github.com/tkprocat/WreckfestController/internal/trackchange"
	ws "github.com/tkprocat/WreckfestController/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().Msg("starting controller with supervisor tree")

	store, err := schedule.NewStore(cfg.DataDir, "", logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize schedule store")
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	hub := ws.NewHub()
	tree.AddTransportService(hub)

	clk := clock.New()

	bus := logpipeline.NewBus(logger)

	logPath := gameconfig.ResolveLogPath(cfg.Server.ConfigPath, cfg.Server.LogFallbackPath)
	tailer := logpipeline.NewTailer(logPath, bus, clk, logger)
	tree.AddCoreService(tailer)

	relayRawLines(bus, hub)

	playerTracker := players.NewTracker()
	playerTracker.Attach(bus)

	trackTracker := trackchange.NewTracker()
	trackTracker.Attach(bus)
	relayTrackChanges(trackTracker, hub)

	processSupervisor := ports.NewExecProcessSupervisor(cfg.Server.BinPath, cfg.Server.BinArgs)
	breakingSupervisor := ports.NewBreakingSupervisor(processSupervisor, ports.DefaultBreakerConfig())

	webhookSink := buildWebhook(cfg)
	breakingWebhook := ports.NewBreakingWebhook(webhookSink, ports.DefaultBreakerConfig())

	restartCfg := restart.Config{
		CountdownMinutes:  cfg.Restart.CountdownMinutes,
		CheckInterval:     cfg.Restart.CheckInterval,
		PendingTimeout:    cfg.Restart.PendingTimeout,
		StabilizationWait: cfg.Restart.StabilizationWait,
		CompletedWait:     cfg.Restart.CompletedWait,
	}
	machine := restart.New(clk, breakingSupervisor, playerTracker, cfg.Server.ConfigPath, hub, restartCfg, logger)
	machine.AttachTrackChange(trackTracker)

	schedulerCfg := scheduler.Config{
		SweepInterval:   cfg.Scheduler.SweepInterval,
		DueLead:         cfg.Scheduler.DueLead,
		MissedThreshold: cfg.Scheduler.MissedThreshold,
	}
	sweep := scheduler.New(store, machine, breakingWebhook, clk, schedulerCfg, logger)
	tree.AddCoreService(sweep)

	httpServer := &http.Server{
		Addr:    cfg.Transport.HTTPAddr,
		Handler: wsHandler(hub),
	}
	tree.AddExternalService(&httpServerService{server: httpServer})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Transport.HTTPAddr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	logging.Info().Msg("controller stopped gracefully")
}

// buildWebhook picks the HTTP or NATS transport per configuration,
// defaulting to a no-op HTTP webhook with an empty URL (NotifyActivation
// becomes a silent no-op, per C11's fire-and-forget contract).
func buildWebhook(cfg *config.Config) ports.Webhook {
	if cfg.Webhook.NATSURL != "" {
		conn, err := nats.Connect(cfg.Webhook.NATSURL)
		if err != nil {
			logging.Warn().Err(err).Msg("failed to connect to NATS, falling back to HTTP webhook")
		} else {
			return ports.NewNATSWebhook(conn, cfg.Webhook.NATSSubject)
		}
	}
	return ports.NewHTTPWebhook(cfg.Webhook.URL)
}

// relayRawLines forwards every raw tailed line, and the parsed join, leave,
// kick, track-loaded and event-started events, onto the websocket hub.
func relayRawLines(bus *logpipeline.Bus, hub *ws.Hub) {
	bus.Subscribe(logpipeline.TopicRawLine, func(payload any) {
		hub.Publish(ws.MessageTypeRawLine, payload)
	})
	bus.Subscribe(logpipeline.TopicJoin, func(payload any) {
		hub.Publish(ws.MessageTypeJoin, payload)
	})
	bus.Subscribe(logpipeline.TopicLeave, func(payload any) {
		hub.Publish(ws.MessageTypeLeave, payload)
	})
	bus.Subscribe(logpipeline.TopicKick, func(payload any) {
		hub.Publish(ws.MessageTypeKick, payload)
	})
	bus.Subscribe(logpipeline.TopicTrackLoaded, func(payload any) {
		hub.Publish(ws.MessageTypeTrackLoaded, payload)
	})
	bus.Subscribe(logpipeline.TopicEventStart, func(payload any) {
		hub.Publish(ws.MessageTypeEventStarted, payload)
	})
}

func relayTrackChanges(tracker *trackchange.Tracker, hub *ws.Hub) {
	tracker.Subscribe(func(change trackchange.Changed) {
		hub.Publish(ws.MessageTypeTrackChanged, change)
	})
}

// wsHandler upgrades HTTP connections to websocket clients registered with
// hub.
func wsHandler(hub *ws.Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		client := ws.NewClient(hub, conn)
		hub.Register <- client
		client.Start()
	})
	return mux
}

// httpServerService adapts *http.Server to suture.Service.
type httpServerService struct {
	server *http.Server
}

func (s *httpServerService) String() string { return "websocket-http-server" }

func (s *httpServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("websocket http server: %w", err)
	}
}
