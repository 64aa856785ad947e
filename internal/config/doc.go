// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package config provides centralized configuration management for the
controller.

It loads settings through three layers via koanf: struct defaults, an
optional YAML config file, then environment variables, with precedence
ENV > File > Defaults.

# Configuration Structure

	DataDir             C3 schedule store / backup location
	Server              C2/C4 dedicated-server config and log paths
	Scheduler           C9 sweep cadence and missed-event window
	Restart             C8 smart-restart phase timings
	Webhook             C11 outbound activation-notice transport
	Transport           websocket fan-out listen address
	Supervisor          suture failure-threshold tuning
	Logging             zerolog level/format/caller

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}

# Environment Variables

Environment variables are uppercase with underscores, mirroring the
koanf dotted path: SCHEDULER_SWEEP_INTERVAL maps to
scheduler.sweep_interval, RESTART_COUNTDOWN_MINUTES maps to
restart.countdown_minutes, and so on. See envTransformFunc in koanf.go
for the full mapping.

# Hot Reload

WatchConfigFile sets up a file watcher so the config file can be
reloaded without restarting the process; the caller supplies the
callback and owns synchronization of any cached *Config it replaces.
*/
package config
