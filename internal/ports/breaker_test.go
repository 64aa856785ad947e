// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

type failingSupervisor struct {
	calls int
	err   error
}

func (f *failingSupervisor) Start(ctx context.Context) error { return nil }
func (f *failingSupervisor) Stop(ctx context.Context) error  { return nil }
func (f *failingSupervisor) Restart(ctx context.Context) error {
	f.calls++
	return f.err
}
func (f *failingSupervisor) SendConsoleCommand(ctx context.Context, text string) error { return nil }
func (f *failingSupervisor) CurrentStatus(ctx context.Context) (Status, error)         { return Status{}, nil }

type failingWebhook struct {
	calls int
	err   error
}

func (f *failingWebhook) NotifyActivation(ctx context.Context, notice ActivationNotice) error {
	f.calls++
	return f.err
}

func TestBreakingSupervisorPassesThroughOnSuccess(t *testing.T) {
	inner := &failingSupervisor{}
	breaking := NewBreakingSupervisor(inner, DefaultBreakerConfig())

	require.NoError(t, breaking.Restart(context.Background()))
	require.Equal(t, 1, inner.calls)
}

func TestBreakingSupervisorOpensAfterRepeatedFailures(t *testing.T) {
	inner := &failingSupervisor{err: errors.New("launcher wedged")}
	cfg := DefaultBreakerConfig()
	breaking := NewBreakingSupervisor(inner, cfg)

	for i := 0; i < 4; i++ {
		err := breaking.Restart(context.Background())
		require.Error(t, err)
	}
	require.Equal(t, 4, inner.calls)

	// The breaker is now open: the call must fail fast without reaching inner.
	err := breaking.Restart(context.Background())
	require.Error(t, err)
	require.True(t, ctlerrors.IsTransient(err))
	require.Equal(t, 4, inner.calls)
}

func TestBreakingSupervisorCurrentStatusUnwrapsResult(t *testing.T) {
	inner := &statusSupervisor{status: Status{Running: true, PID: 42}}
	breaking := NewBreakingSupervisor(inner, DefaultBreakerConfig())

	status, err := breaking.CurrentStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.Running)
	require.Equal(t, 42, status.PID)
}

type statusSupervisor struct {
	status Status
}

func (s *statusSupervisor) Start(ctx context.Context) error                          { return nil }
func (s *statusSupervisor) Stop(ctx context.Context) error                           { return nil }
func (s *statusSupervisor) Restart(ctx context.Context) error                        { return nil }
func (s *statusSupervisor) SendConsoleCommand(ctx context.Context, text string) error { return nil }
func (s *statusSupervisor) CurrentStatus(ctx context.Context) (Status, error) {
	return s.status, nil
}

func TestBreakingWebhookOpensAfterRepeatedFailures(t *testing.T) {
	inner := &failingWebhook{err: errors.New("sink unreachable")}
	breaking := NewBreakingWebhook(inner, DefaultBreakerConfig())

	notice := ActivationNotice{EventID: 1, Timestamp: time.Now()}
	for i := 0; i < 4; i++ {
		require.Error(t, breaking.NotifyActivation(context.Background(), notice))
	}
	require.Equal(t, 4, inner.calls)

	err := breaking.NotifyActivation(context.Background(), notice)
	require.Error(t, err)
	require.True(t, ctlerrors.IsTransient(err))
	require.Equal(t, 4, inner.calls)
}
