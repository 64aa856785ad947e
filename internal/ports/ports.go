// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ports declares the capability interfaces the core calls into but
// does not implement: the process supervisor and the outbound webhook
// sink. Real, fake, and in-memory implementations all satisfy the same
// contract (§9 "Dynamic dispatch → explicit ports").
package ports

import (
	"context"
	"time"
)

// Status is the supervised process's last-known lifecycle state.
type Status struct {
	Running bool
	PID     int
	Since   time.Time
}

// ProcessSupervisor is the external launcher/OS-process bookkeeper the core
// consumes. Only Restart and SendConsoleCommand are on the core's hot
// path (§6); Start/Stop/CurrentStatus round out the contract for
// completeness with peripheral controllers outside core scope.
type ProcessSupervisor interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	SendConsoleCommand(ctx context.Context, text string) error
	CurrentStatus(ctx context.Context) (Status, error)
}

// ActivationNotice is the fire-and-forget payload sent on event activation.
type ActivationNotice struct {
	EventID   int
	EventName string
	Timestamp time.Time
}

// Webhook is the fire-and-forget outbound notification port. Failure must
// not abort activation (§6 "Outbound webhook").
type Webhook interface {
	NotifyActivation(ctx context.Context, notice ActivationNotice) error
}
