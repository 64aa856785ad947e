// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameconfig

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// WriteBasic rewrites known-key lines in place with cfg's current values
// and keeps every other line as it is, never touching the tracks section
// (§4.C2 Write semantics). Known keys that cfg holds (those ReadBasic found
// in its source file) but the target file lacks, and entries of cfg.Unknown
// whose key the target file lacks, are appended after the existing lines.
// A field assigned on cfg whose key ReadBasic did not find is not written.
func WriteBasic(path string, cfg *BasicConfig) error {
	f, err := os.Open(path)
	if err != nil && !os.IsNotExist(err) {
		return ctlerrors.Wrap(ctlerrors.Transient, "open server config file", err)
	}

	var out []string
	emitted := map[string]bool{}
	tracksTail := ""

	if f != nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		inTracks := false
		var tail []string
		for scanner.Scan() {
			line := scanner.Text()
			trimmed := strings.TrimSpace(line)

			if inTracks {
				tail = append(tail, line)
				continue
			}
			if strings.HasPrefix(trimmed, eventLoopMarker) {
				inTracks = true
				tail = append(tail, line)
				continue
			}

			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				out = append(out, line)
				continue
			}
			idx := strings.IndexByte(trimmed, '=')
			if idx < 0 {
				out = append(out, line)
				continue
			}
			key := trimmed[:idx]
			if spec, ok := basicKeys[key]; ok {
				value, present := spec.get(cfg)
				if present {
					out = append(out, fmt.Sprintf("%s=%s", key, value))
					emitted[key] = true
					continue
				}
			}
			emitted[key] = true
			out = append(out, line)
		}
		if err := scanner.Err(); err != nil {
			return ctlerrors.Wrap(ctlerrors.Transient, "read server config file", err)
		}
		tracksTail = strings.Join(tail, "\n")
	}

	for key, spec := range basicKeys {
		if emitted[key] {
			continue
		}
		if value, present := spec.get(cfg); present {
			out = append(out, fmt.Sprintf("%s=%s", key, value))
		}
	}
	for _, kv := range cfg.Unknown {
		if emitted[kv.Key] {
			continue
		}
		out = append(out, fmt.Sprintf("%s=%s", kv.Key, kv.Value))
	}

	content := strings.Join(out, "\n")
	if tracksTail != "" {
		if content != "" {
			content += "\n"
		}
		content += tracksTail
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	return atomicWriteFile(path, []byte(content))
}

// WriteTracks replaces the tracks section with entries, preserving the
// leading comment block between the "# Event Loop" marker and the first
// "## Add" header, and persisting collectionName as a "#CollectionName"
// comment (§4.C2 Write semantics).
func WriteTracks(path, collectionName string, entries []TrackEntry) error {
	f, err := os.Open(path)
	if err != nil && !os.IsNotExist(err) {
		return ctlerrors.Wrap(ctlerrors.Transient, "open server config file", err)
	}

	var head []string
	var leadingComments []string

	if f != nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		inTracks := false
		collectingComments := false
		for scanner.Scan() {
			line := scanner.Text()
			trimmed := strings.TrimSpace(line)

			if !inTracks {
				head = append(head, line)
				if strings.HasPrefix(trimmed, eventLoopMarker) {
					inTracks = true
					collectingComments = true
				}
				continue
			}
			if collectingComments {
				if strings.HasPrefix(trimmed, "## Add") {
					break
				}
				stripped := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
				if strings.HasPrefix(stripped, "el_") {
					break
				}
				if strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(stripped, "CollectionName") {
					leadingComments = append(leadingComments, line)
					continue
				}
				if trimmed == "" {
					continue
				}
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return ctlerrors.Wrap(ctlerrors.Transient, "read server config file", err)
		}
	} else {
		head = []string{eventLoopMarker}
	}

	var out []string
	out = append(out, head...)
	out = append(out, leadingComments...)
	if collectionName != "" {
		out = append(out, fmt.Sprintf("#CollectionName %s", collectionName))
	}

	for i, e := range entries {
		out = append(out, "")
		out = append(out, fmt.Sprintf("## Add event %d to Loop", i+1))
		out = append(out, trackEntryLines(e)...)
	}

	content := strings.Join(out, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return atomicWriteFile(path, []byte(content))
}

func trackEntryLines(e TrackEntry) []string {
	prefix := ""
	if e.Disabled {
		prefix = "#"
	}
	lines := []string{fmt.Sprintf("%sel_add=%s", prefix, e.Track)}
	emit := func(opt string, value *string) {
		if value != nil {
			lines = append(lines, fmt.Sprintf("%sel_%s=%s", prefix, opt, *value))
		}
	}
	emitInt := func(opt string, value *int) {
		if value != nil {
			lines = append(lines, fmt.Sprintf("%sel_%s=%d", prefix, opt, *value))
		}
	}
	emitBool := func(opt string, value *bool) {
		if value != nil {
			v := 0
			if *value {
				v = 1
			}
			lines = append(lines, fmt.Sprintf("%sel_%s=%d", prefix, opt, v))
		}
	}
	emit("gamemode", e.Gamemode)
	emitInt("laps", e.Laps)
	emitInt("bots", e.Bots)
	emitInt("num_teams", e.NumTeams)
	emitBool("car_reset_disabled", e.CarResetDisabled)
	emitBool("wrong_way_limiter_disabled", e.WrongWayLimiterDisabled)
	emit("car_class_restriction", e.CarClassRestriction)
	emit("car_restriction", e.CarRestriction)
	emit("weather", e.Weather)
	return lines
}

// atomicWriteFile writes data to path via a temp file and rename, matching
// the same idiom used by the schedule store.
func atomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ctlerrors.Wrap(ctlerrors.Transient, "write temp config file", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			_ = os.Remove(tmp)
			return ctlerrors.Wrap(ctlerrors.Transient, "remove existing config file", err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return ctlerrors.Wrap(ctlerrors.Transient, "rename temp config file into place", err)
	}
	return nil
}
