// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recurrence computes the next instance of a daily or weekly
// pattern. The occurrence budget, if bounded, is decremented by the
// scheduler after a successful activation, not by this package.
package recurrence

import (
	"sort"
	"time"

	"github.com/tkprocat/WreckfestController/internal/schedule"
)

// NextInstance returns the next UTC instant strictly after from, or
// (zero, false) if the pattern's occurrence budget has expired (§4.C7).
func NextInstance(p *schedule.RecurringPattern, from time.Time) (time.Time, bool) {
	if p.Expired() {
		return time.Time{}, false
	}

	switch p.Type {
	case schedule.Daily:
		return nextDaily(p, from), true
	case schedule.Weekly:
		return nextWeekly(p, from), true
	default:
		return time.Time{}, false
	}
}

func nextDaily(p *schedule.RecurringPattern, from time.Time) time.Time {
	candidate := p.Time.OnDate(from)
	if !candidate.After(from) {
		candidate = p.Time.OnDate(candidate.AddDate(0, 0, 1))
	}
	return candidate
}

func nextWeekly(p *schedule.RecurringPattern, from time.Time) time.Time {
	days := make([]int, len(p.Days))
	for i, d := range p.Days {
		days[i] = int(d)
	}
	sort.Ints(days)

	fromWeekday := int(from.Weekday())

	for _, d := range days {
		if d > fromWeekday {
			return p.Time.OnDate(from.AddDate(0, 0, d-fromWeekday))
		}
		if d == fromWeekday {
			candidate := p.Time.OnDate(from)
			if candidate.After(from) {
				return candidate
			}
		}
	}

	// Wrap to next week's smallest day.
	smallest := days[0]
	offset := (7 - fromWeekday) + smallest
	return p.Time.OnDate(from.AddDate(0, 0, offset))
}
