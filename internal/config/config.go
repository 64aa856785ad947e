// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"time"
)

// Config is the controller's full configuration surface, loaded through
// three layers: struct defaults, an optional YAML file, then environment
// variables (LoadWithKoanf).
type Config struct {
	DataDir   string          `koanf:"data_dir"`
	Server    ServerConfig    `koanf:"server"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Restart   RestartConfig   `koanf:"restart"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Transport TransportConfig `koanf:"transport"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig locates the dedicated-server binary, its own config file,
// and its log file (C2/C4/C10).
type ServerConfig struct {
	BinPath         string   `koanf:"bin_path"`
	BinArgs         []string `koanf:"bin_args"`
	ConfigPath      string   `koanf:"config_path"`
	LogFallbackPath string   `koanf:"log_fallback_path"`
}

// SchedulerConfig tunes C9's sweep cadence and windows.
type SchedulerConfig struct {
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	DueLead         time.Duration `koanf:"due_lead"`
	MissedThreshold time.Duration `koanf:"missed_threshold"`
}

// RestartConfig tunes C8's phase timings.
type RestartConfig struct {
	CountdownMinutes  int           `koanf:"countdown_minutes"`
	CheckInterval     time.Duration `koanf:"check_interval"`
	PendingTimeout    time.Duration `koanf:"pending_timeout"`
	StabilizationWait time.Duration `koanf:"stabilization_wait"`
	CompletedWait     time.Duration `koanf:"completed_wait"`
}

// WebhookConfig selects and configures the outbound activation-notice
// transport (C11).
type WebhookConfig struct {
	URL          string `koanf:"url"`
	NATSURL      string `koanf:"nats_url"`
	NATSSubject  string `koanf:"nats_subject"`
}

// TransportConfig configures the websocket fan-out surface.
type TransportConfig struct {
	HTTPAddr string `koanf:"http_addr"`
}

// SupervisorConfig tunes the suture supervision tree (A3).
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig tunes the zerolog global logger (A1).
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate performs basic sanity checks beyond what koanf's unmarshaling
// already guarantees.
func (c *Config) Validate() error {
	if c.Server.ConfigPath == "" {
		return fmt.Errorf("server.config_path must be set")
	}
	if c.Server.BinPath == "" {
		return fmt.Errorf("server.bin_path must be set")
	}
	if c.Scheduler.SweepInterval <= 0 {
		return fmt.Errorf("scheduler.sweep_interval must be positive")
	}
	if c.Restart.CountdownMinutes < 0 {
		return fmt.Errorf("restart.countdown_minutes must not be negative")
	}
	return nil
}
