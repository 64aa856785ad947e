// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package ports

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// BreakerConfig tunes the circuit breakers wrapping each port (§5 "the core
// does not embed that bound but must tolerate the supervisor returning
// failure after arbitrarily long waits").
type BreakerConfig struct {
	MaxRequestsHalfOpen uint32
	OpenTimeout         time.Duration
	FailureRatio        float64
}

// DefaultBreakerConfig mirrors the teacher's conservative defaults: a short
// half-open probe budget and a ratio-based trip so a single call failure
// does not immediately open the circuit.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxRequestsHalfOpen: 1, OpenTimeout: 30 * time.Second, FailureRatio: 0.5}
}

// BreakingSupervisor wraps a ProcessSupervisor so a wedged external
// launcher degrades to a fast Transient error instead of stalling C8/C9.
type BreakingSupervisor struct {
	inner ProcessSupervisor
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakingSupervisor wraps inner with a circuit breaker per cfg.
func NewBreakingSupervisor(inner ProcessSupervisor, cfg BreakerConfig) *BreakingSupervisor {
	settings := gobreaker.Settings{
		Name:        "process-supervisor",
		MaxRequests: cfg.MaxRequestsHalfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 4 && float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
	}
	return &BreakingSupervisor{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func (b *BreakingSupervisor) Start(ctx context.Context) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.inner.Start(ctx) })
	return wrapBreakerErr(err)
}

func (b *BreakingSupervisor) Stop(ctx context.Context) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.inner.Stop(ctx) })
	return wrapBreakerErr(err)
}

func (b *BreakingSupervisor) Restart(ctx context.Context) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.inner.Restart(ctx) })
	return wrapBreakerErr(err)
}

func (b *BreakingSupervisor) SendConsoleCommand(ctx context.Context, text string) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.inner.SendConsoleCommand(ctx, text) })
	return wrapBreakerErr(err)
}

func (b *BreakingSupervisor) CurrentStatus(ctx context.Context) (Status, error) {
	result, err := b.cb.Execute(func() (any, error) { return b.inner.CurrentStatus(ctx) })
	if err != nil {
		return Status{}, wrapBreakerErr(err)
	}
	return result.(Status), nil
}

// BreakingWebhook wraps a Webhook with a circuit breaker so a sink that is
// down does not accumulate a growing backlog of blocked calls.
type BreakingWebhook struct {
	inner Webhook
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakingWebhook wraps inner with a circuit breaker per cfg.
func NewBreakingWebhook(inner Webhook, cfg BreakerConfig) *BreakingWebhook {
	settings := gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: cfg.MaxRequestsHalfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 4 && float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
	}
	return &BreakingWebhook{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func (b *BreakingWebhook) NotifyActivation(ctx context.Context, notice ActivationNotice) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.inner.NotifyActivation(ctx, notice) })
	return wrapBreakerErr(err)
}

func wrapBreakerErr(err error) error {
	if err == nil {
		return nil
	}
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return ctlerrors.Wrap(ctlerrors.Transient, "circuit breaker open", err)
	}
	return err
}
