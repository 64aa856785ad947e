// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package logpipeline

import (
	"regexp"
	"strings"
)

var (
	joinRe  = regexp.MustCompile(`- (\*?)(.+?) has joined\.`)
	leaveRe = regexp.MustCompile(`- (\*?)(.+?) has quit`)
	kickRe  = regexp.MustCompile(`- (\*?)(.+?) kicked\.`)
	trackRe = regexp.MustCompile(`Current track loaded!\s*\(([^)]+)\)`)

	eventStartedLiteral = "Event started!"
)

// parsedLine is the union of everything a single raw line can decode to,
// beyond the RawLine publication every line gets. At most one of the
// fields is non-nil (first match wins per §4.C4 Parsers).
type parsedLine struct {
	join    *PlayerEvent
	leave   *PlayerEvent
	kick    *PlayerEvent
	track   *TrackLoaded
	started bool
}

func parseLine(line string) parsedLine {
	if m := joinRe.FindStringSubmatch(line); m != nil {
		return parsedLine{join: &PlayerEvent{Name: m[2], IsBot: m[1] == "*"}}
	}
	if m := leaveRe.FindStringSubmatch(line); m != nil {
		return parsedLine{leave: &PlayerEvent{Name: m[2], IsBot: m[1] == "*"}}
	}
	if m := kickRe.FindStringSubmatch(line); m != nil {
		return parsedLine{kick: &PlayerEvent{Name: m[2], IsBot: m[1] == "*"}}
	}
	if m := trackRe.FindStringSubmatch(line); m != nil {
		return parsedLine{track: &TrackLoaded{TrackID: strings.TrimSpace(m[1])}}
	}
	if strings.Contains(line, eventStartedLiteral) {
		return parsedLine{started: true}
	}
	return parsedLine{}
}
