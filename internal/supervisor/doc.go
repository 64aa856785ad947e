// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package supervisor provides process supervision for the controller using
suture v4.

It implements a hierarchical supervisor tree managing the lifecycle of
every long-running service in the process, with Erlang/OTP-style
automatic restart, failure isolation, and graceful shutdown.

# Overview

The tree organizes services into three layers for failure isolation:

	RootSupervisor ("wreckfest-controller")
	├── core-layer
	│   ├── log tailer (C4)
	│   └── scheduler sweep (C9)
	├── transport-layer
	│   └── websocket hub
	└── external-layer
	    └── websocket HTTP server

The restart machine (C8) and the process-supervisor and webhook port
adapters (C10/C11) are not services: the machine runs its own goroutines
per restart, and the adapters are called synchronously behind circuit
breakers. A crashing HTTP server does not drag down the log tailer, and
vice versa - each layer restarts independently.

# Usage Example

	logger := slog.Default()
	cfg := supervisor.DefaultTreeConfig()

	tree, err := supervisor.NewSupervisorTree(logger, cfg)
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddCoreService(tailer)
	tree.AddTransportService(hub)
	tree.AddExternalService(httpServer)

	if err := tree.Serve(ctx); err != nil {
	    log.Printf("supervisor stopped: %v", err)
	}

# Failure Handling

Each service failure increments a decaying counter (TreeConfig.FailureDecay
seconds to decay). Once the counter exceeds FailureThreshold, the
supervisor backs off by FailureBackoff before the next restart attempt.

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil means the service stopped cleanly and will not be
restarted; returning an error means it crashed and will be restarted.
Context cancellation means shutdown was requested - services must
return promptly.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("service didn't stop: %v", svc)
	}
*/
package supervisor
