// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// LineError reports a malformed line with its 1-based line number.
type LineError struct {
	Line int
	Text string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("malformed config line %d: %q", e.Line, e.Text)
}

// ReadBasic parses the flat key=value keys preceding the tracks section
// (§4.C2 Read semantics). Unknown keys are preserved in file order for a
// later WriteBasic round-trip.
func ReadBasic(path string) (*BasicConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ctlerrors.Wrap(ctlerrors.NotFound, "open server config file", err)
		}
		return nil, ctlerrors.Wrap(ctlerrors.Transient, "open server config file", err)
	}
	defer f.Close()

	cfg := &BasicConfig{present: map[string]bool{}}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == strings.TrimSpace(eventLoopMarker) || strings.HasPrefix(trimmed, eventLoopMarker) {
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "el_") {
			continue
		}
		idx := strings.IndexByte(trimmed, '=')
		if idx < 0 {
			continue
		}
		key := trimmed[:idx]
		if key == "" {
			return nil, &LineError{Line: lineNo, Text: line}
		}
		value := trimmed[idx+1:]

		if spec, ok := basicKeys[key]; ok {
			spec.set(cfg, value)
			cfg.present[key] = true
		} else {
			cfg.Unknown = append(cfg.Unknown, KeyValue{Key: key, Value: value})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ctlerrors.Wrap(ctlerrors.Transient, "read server config file", err)
	}
	return cfg, nil
}

// ResolveLogPath returns the dedicated server's actual log file path: the
// "log=" key read from configPath if present, falling back to fallback
// otherwise (§4.C4 step 1).
func ResolveLogPath(configPath, fallback string) string {
	cfg, err := ReadBasic(configPath)
	if err != nil || cfg.LogPath == "" {
		return fallback
	}
	return cfg.LogPath
}

// ReadTracks parses the "# Event Loop" section into an ordered TrackEntry
// list and the persisted collection name (§4.C2, §6 "#CollectionName").
// Lines commented out with a leading '#' before el_add/el_* are decoded as
// Disabled entries rather than dropped, recovering entries turned off
// in-place.
func ReadTracks(path string) (collectionName string, entries []TrackEntry, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return "", nil, ctlerrors.Wrap(ctlerrors.NotFound, "open server config file", openErr)
		}
		return "", nil, ctlerrors.Wrap(ctlerrors.Transient, "open server config file", openErr)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	inSection := false
	var current *TrackEntry

	flush := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inSection {
			if strings.HasPrefix(trimmed, eventLoopMarker) {
				inSection = true
			}
			continue
		}

		disabled := false
		body := trimmed
		if strings.HasPrefix(body, "#") {
			stripped := strings.TrimSpace(strings.TrimPrefix(body, "#"))
			if strings.HasPrefix(stripped, "CollectionName") {
				collectionName = strings.TrimSpace(strings.TrimPrefix(stripped, "CollectionName"))
				continue
			}
			if strings.HasPrefix(stripped, "el_") {
				disabled = true
				body = stripped
			} else {
				continue
			}
		}

		if body == "" {
			continue
		}
		idx := strings.IndexByte(body, '=')
		if idx < 0 {
			continue
		}
		key := body[:idx]
		value := body[idx+1:]

		if key == "el_add" {
			flush()
			current = &TrackEntry{Track: value, Disabled: disabled}
			continue
		}
		if current == nil {
			continue
		}
		applyTrackKey(current, strings.TrimPrefix(key, "el_"), value)
	}
	flush()
	if err := scanner.Err(); err != nil {
		return "", nil, ctlerrors.Wrap(ctlerrors.Transient, "read server config file", err)
	}
	return collectionName, entries, nil
}

func applyTrackKey(e *TrackEntry, opt, value string) {
	switch opt {
	case "gamemode":
		e.Gamemode = strPtr(value)
	case "laps":
		e.Laps = intPtr(value)
	case "bots":
		e.Bots = intPtr(value)
	case "num_teams":
		e.NumTeams = intPtr(value)
	case "car_reset_disabled":
		e.CarResetDisabled = boolPtr(value)
	case "wrong_way_limiter_disabled":
		e.WrongWayLimiterDisabled = boolPtr(value)
	case "car_class_restriction":
		e.CarClassRestriction = strPtr(value)
	case "car_restriction":
		e.CarRestriction = strPtr(value)
	case "weather":
		e.Weather = strPtr(value)
	}
}

func strPtr(s string) *string { return &s }

func intPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func boolPtr(s string) *bool {
	b := s == "1" || strings.EqualFold(s, "true")
	return &b
}
