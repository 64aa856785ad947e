// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tkprocat/WreckfestController/internal/scheduler"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wreckfest-controller/config.yaml",
	"/etc/wreckfest-controller/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env
// vars.
func defaultConfig() *Config {
	return &Config{
		DataDir: "/data/wreckfest-controller",
		Server: ServerConfig{
			BinPath:         "/srv/wreckfest/wreckfest_server",
			ConfigPath:      "/data/wreckfest/server_config.cfg",
			LogFallbackPath: "/data/wreckfest/server.log",
		},
		Scheduler: SchedulerConfig{
			SweepInterval:   30 * time.Second,
			DueLead:         scheduler.DefaultConfig().DueLead,
			MissedThreshold: 5 * time.Minute,
		},
		Restart: RestartConfig{
			CountdownMinutes:  5,
			CheckInterval:     30 * time.Second,
			PendingTimeout:    10 * time.Minute,
			StabilizationWait: 2 * time.Second,
			CompletedWait:     5 * time.Second,
		},
		Webhook: WebhookConfig{
			URL:         "",
			NATSURL:     "",
			NATSSubject: "wreckfest.controller.activation",
		},
		Transport: TransportConfig{
			HTTPAddr: ":8787",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if it exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Transform environment variable names to koanf paths, e.g.
	// SCHEDULER_SWEEP_INTERVAL -> scheduler.sweep_interval
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths. Returns
// the path to the first file found, or an empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc transforms environment variable names to koanf config
// paths.
//
// Examples:
//   - DATA_DIR -> data_dir
//   - SERVER_CONFIG_PATH -> server.config_path
//   - SCHEDULER_SWEEP_INTERVAL -> scheduler.sweep_interval
//   - RESTART_COUNTDOWN_MINUTES -> restart.countdown_minutes
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"data_dir": "data_dir",

		"server_bin_path":          "server.bin_path",
		"server_config_path":       "server.config_path",
		"server_log_fallback_path": "server.log_fallback_path",

		"scheduler_sweep_interval":   "scheduler.sweep_interval",
		"scheduler_due_lead":         "scheduler.due_lead",
		"scheduler_missed_threshold": "scheduler.missed_threshold",

		"restart_countdown_minutes":  "restart.countdown_minutes",
		"restart_check_interval":     "restart.check_interval",
		"restart_pending_timeout":    "restart.pending_timeout",
		"restart_stabilization_wait": "restart.stabilization_wait",
		"restart_completed_wait":     "restart.completed_wait",

		"webhook_url":          "webhook.url",
		"webhook_nats_url":     "webhook.nats_url",
		"webhook_nats_subject": "webhook.nats_subject",

		"transport_http_addr": "transport.http_addr",

		"supervisor_failure_threshold": "supervisor.failure_threshold",
		"supervisor_failure_decay":     "supervisor.failure_decay",
		"supervisor_failure_backoff":   "supervisor.failure_backoff",
		"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped to keep random environment variables from
	// polluting config.
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage, e.g.
// hot-reload scenarios or tests that need a bespoke source.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability. The
// caller is responsible for mutex protection when swapping configuration
// during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
