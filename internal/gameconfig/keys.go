// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameconfig

import "strconv"

// basicKeys maps the file's key= names to setter/getter pairs on
// BasicConfig. Keeping the mapping table-driven means read_basic and
// write_basic share one source of truth for "is this line a known key".
type keySpec struct {
	get func(*BasicConfig) (string, bool)
	set func(*BasicConfig, string)
}

var basicKeys = map[string]keySpec{
	"server_name": {
		get: func(c *BasicConfig) (string, bool) { return c.ServerName, c.present["server_name"] },
		set: func(c *BasicConfig, v string) { c.ServerName = v },
	},
	"welcome_message": {
		get: func(c *BasicConfig) (string, bool) { return c.WelcomeMessage, c.present["welcome_message"] },
		set: func(c *BasicConfig, v string) { c.WelcomeMessage = v },
	},
	"password": {
		get: func(c *BasicConfig) (string, bool) { return c.Password, c.present["password"] },
		set: func(c *BasicConfig, v string) { c.Password = v },
	},
	"max_players": {
		get: func(c *BasicConfig) (string, bool) { return strconv.Itoa(c.MaxPlayers), c.present["max_players"] },
		set: func(c *BasicConfig, v string) { c.MaxPlayers = atoiSafe(v) },
	},
	"bots": {
		get: func(c *BasicConfig) (string, bool) { return strconv.Itoa(c.Bots), c.present["bots"] },
		set: func(c *BasicConfig, v string) { c.Bots = atoiSafe(v) },
	},
	"ai_difficulty": {
		get: func(c *BasicConfig) (string, bool) { return c.AIDifficulty, c.present["ai_difficulty"] },
		set: func(c *BasicConfig, v string) { c.AIDifficulty = v },
	},
	"laps": {
		get: func(c *BasicConfig) (string, bool) { return strconv.Itoa(c.Laps), c.present["laps"] },
		set: func(c *BasicConfig, v string) { c.Laps = atoiSafe(v) },
	},
	"vehicle_damage": {
		get: func(c *BasicConfig) (string, bool) { return c.VehicleDamage, c.present["vehicle_damage"] },
		set: func(c *BasicConfig, v string) { c.VehicleDamage = v },
	},
	"lobby_countdown": {
		get: func(c *BasicConfig) (string, bool) { return strconv.Itoa(c.LobbyCountdown), c.present["lobby_countdown"] },
		set: func(c *BasicConfig, v string) { c.LobbyCountdown = atoiSafe(v) },
	},
	"log": {
		get: func(c *BasicConfig) (string, bool) { return c.LogPath, c.present["log"] },
		set: func(c *BasicConfig, v string) { c.LogPath = v },
	},
}

func atoiSafe(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
