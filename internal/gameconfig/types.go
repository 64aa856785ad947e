// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gameconfig edits the dedicated-server's line-oriented key=value
// configuration file: a flat set of basic keys, plus a "# Event Loop"
// section holding the track rotation. Unknown keys, comments, and ordering
// outside the sections being rewritten are preserved byte-for-byte.
package gameconfig

// BasicConfig is the typed view over the file's flat key=value keys that
// the core cares about (§3 server_config override fields). Fields absent
// from the file are left at their zero value; Unknown carries every other
// key in file order so write_basic can round-trip them untouched.
type BasicConfig struct {
	ServerName     string
	WelcomeMessage string
	Password       string
	MaxPlayers     int
	Bots           int
	AIDifficulty   string
	Laps           int
	VehicleDamage  string
	LobbyCountdown int
	LogPath        string

	// Unknown holds every key=value line outside the known set, in the
	// order encountered, so write_basic can emit them unchanged.
	Unknown []KeyValue

	// present tracks which known keys actually occurred in the source
	// file, so write_basic only rewrites lines that existed.
	present map[string]bool
}

// KeyValue is one raw line's key and value, used for unknown-key passthrough.
type KeyValue struct {
	Key   string
	Value string
}

// TrackEntry mirrors schedule.Track for the config-file representation:
// the el_* keys belonging to one "## Add event N to Loop" block.
type TrackEntry struct {
	Track                   string
	Gamemode                *string
	Laps                    *int
	Bots                    *int
	NumTeams                *int
	CarResetDisabled        *bool
	WrongWayLimiterDisabled *bool
	CarClassRestriction     *string
	CarRestriction          *string
	Weather                 *string
	// Disabled is true when the entry was read back from commented-out
	// el_* lines (§4.C2 "recover entries disabled in-place").
	Disabled bool
}

const eventLoopMarker = "# Event Loop"
