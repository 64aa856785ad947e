// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package ports

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
	"github.com/tkprocat/WreckfestController/internal/logging"
)

// ExecProcessSupervisor launches and supervises the dedicated-server binary
// as a child process, feeding console commands over its stdin pipe.
type ExecProcessSupervisor struct {
	binPath string
	args    []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	since  time.Time
	waitCh chan struct{}
}

// NewExecProcessSupervisor builds a supervisor for the dedicated-server
// binary at binPath, launched with args.
func NewExecProcessSupervisor(binPath string, args []string) *ExecProcessSupervisor {
	return &ExecProcessSupervisor{binPath: binPath, args: args}
}

// Start launches the process if it is not already running.
func (s *ExecProcessSupervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *ExecProcessSupervisor) startLocked(ctx context.Context) error {
	if s.cmd != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.binPath, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "open stdin pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "start dedicated-server process", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.since = time.Now().UTC()
	s.waitCh = make(chan struct{})

	go func() {
		_ = cmd.Wait()
		close(s.waitCh)
	}()

	logging.Info().Str("bin", s.binPath).Int("pid", cmd.Process.Pid).Msg("dedicated-server process started")
	return nil
}

// Stop terminates the running process, if any, and waits for it to exit.
func (s *ExecProcessSupervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(ctx)
}

func (s *ExecProcessSupervisor) stopLocked(_ context.Context) error {
	if s.cmd == nil {
		return nil
	}

	if err := s.cmd.Process.Kill(); err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "kill dedicated-server process", err)
	}
	<-s.waitCh

	if err := s.stdin.Close(); err != nil {
		logging.Warn().Err(err).Msg("error closing stdin pipe on stop")
	}

	s.cmd = nil
	s.stdin = nil
	return nil
}

// Restart stops then starts the process.
func (s *ExecProcessSupervisor) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.stopLocked(ctx); err != nil {
		return err
	}
	return s.startLocked(ctx)
}

// SendConsoleCommand writes a line of input to the process's stdin, the
// same channel the dedicated server reads admin console commands from.
func (s *ExecProcessSupervisor) SendConsoleCommand(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin == nil {
		return ctlerrors.New(ctlerrors.Conflict, "dedicated-server process is not running")
	}
	if _, err := fmt.Fprintln(s.stdin, text); err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "write console command", err)
	}
	return nil
}

// CurrentStatus reports whether the process is running and since when.
func (s *ExecProcessSupervisor) CurrentStatus(_ context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return Status{Running: false}, nil
	}
	return Status{Running: true, PID: s.cmd.Process.Pid, Since: s.since}, nil
}
