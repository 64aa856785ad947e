// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

func TestExecProcessSupervisorStartStopLifecycle(t *testing.T) {
	sup := NewExecProcessSupervisor("/bin/cat", nil)
	ctx := context.Background()

	require.NoError(t, sup.Start(ctx))

	status, err := sup.CurrentStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Running)
	require.NotZero(t, status.PID)

	require.NoError(t, sup.Stop(ctx))

	status, err = sup.CurrentStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.Running)
}

func TestExecProcessSupervisorStartIsIdempotent(t *testing.T) {
	sup := NewExecProcessSupervisor("/bin/cat", nil)
	ctx := context.Background()

	require.NoError(t, sup.Start(ctx))
	firstPID := sup.cmd.Process.Pid
	require.NoError(t, sup.Start(ctx))
	require.Equal(t, firstPID, sup.cmd.Process.Pid)

	require.NoError(t, sup.Stop(ctx))
}

func TestExecProcessSupervisorSendConsoleCommandBeforeStartIsConflict(t *testing.T) {
	sup := NewExecProcessSupervisor("/bin/cat", nil)
	err := sup.SendConsoleCommand(context.Background(), "say hello")
	require.Error(t, err)
	require.True(t, ctlerrors.IsConflict(err))
}

func TestExecProcessSupervisorSendConsoleCommandAfterStart(t *testing.T) {
	sup := NewExecProcessSupervisor("/bin/cat", nil)
	ctx := context.Background()
	require.NoError(t, sup.Start(ctx))
	defer sup.Stop(ctx)

	require.NoError(t, sup.SendConsoleCommand(ctx, "say hello"))
}

func TestExecProcessSupervisorRestartReplacesProcess(t *testing.T) {
	sup := NewExecProcessSupervisor("/bin/cat", nil)
	ctx := context.Background()
	require.NoError(t, sup.Start(ctx))
	firstPID := sup.cmd.Process.Pid

	require.NoError(t, sup.Restart(ctx))
	status, err := sup.CurrentStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Running)
	require.NotEqual(t, firstPID, status.PID)

	require.NoError(t, sup.Stop(ctx))
}

func TestExecProcessSupervisorStopWithoutStartIsNoOp(t *testing.T) {
	sup := NewExecProcessSupervisor("/bin/cat", nil)
	require.NoError(t, sup.Stop(context.Background()))
}

func TestExecProcessSupervisorStartFailureSurfacesTransientError(t *testing.T) {
	sup := NewExecProcessSupervisor("/nonexistent/binary/path", nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := sup.Start(ctx)
	require.Error(t, err)
	require.True(t, ctlerrors.IsTransient(err))
}
