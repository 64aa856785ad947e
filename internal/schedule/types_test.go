// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeOfDayMarshalRoundTrip(t *testing.T) {
	in := TimeOfDay{Hour: 20, Minute: 5}
	data, err := in.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"20:05"`, string(data))

	var out TimeOfDay
	require.NoError(t, out.UnmarshalJSON(data))
	require.Equal(t, in, out)
}

func TestTimeOfDayUnmarshalRejectsOutOfRange(t *testing.T) {
	var out TimeOfDay
	require.Error(t, out.UnmarshalJSON([]byte(`"24:00"`)))
}

func TestTimeOfDayOnDate(t *testing.T) {
	tod := TimeOfDay{Hour: 18, Minute: 30}
	date := time.Date(2026, 8, 10, 3, 0, 0, 0, time.UTC)
	result := tod.OnDate(date)
	require.Equal(t, time.Date(2026, 8, 10, 18, 30, 0, 0, time.UTC), result)
}

func TestRecurringPatternExpired(t *testing.T) {
	zero := 0
	p := RecurringPattern{Occurrences: &zero}
	require.True(t, p.Expired())

	remaining := 3
	p.Occurrences = &remaining
	require.False(t, p.Expired())

	p.Occurrences = nil
	require.False(t, p.Expired())
}

func TestRecurringPatternHasDay(t *testing.T) {
	p := RecurringPattern{Days: []time.Weekday{time.Monday, time.Wednesday}}
	require.True(t, p.HasDay(time.Monday))
	require.False(t, p.HasDay(time.Friday))
}

func TestScheduleActiveEvent(t *testing.T) {
	s := &Schedule{Events: []Event{
		{ID: 1, IsActive: false},
		{ID: 2, IsActive: true},
	}}
	active, ok := s.ActiveEvent()
	require.True(t, ok)
	require.Equal(t, 2, active.ID)

	s.Events[1].IsActive = false
	_, ok = s.ActiveEvent()
	require.False(t, ok)
}

func TestScheduleByID(t *testing.T) {
	s := &Schedule{Events: []Event{{ID: 7, Name: "found"}}}

	e, ok := s.ByID(7)
	require.True(t, ok)
	require.Equal(t, "found", e.Name)

	_, ok = s.ByID(99)
	require.False(t, ok)
}

func TestScheduleDueAndUpcomingEvents(t *testing.T) {
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	s := &Schedule{Events: []Event{
		{ID: 1, Name: "past", StartTime: now.Add(-time.Hour)},
		{ID: 2, Name: "soon", StartTime: now.Add(4 * time.Minute)},
		{ID: 3, Name: "later", StartTime: now.Add(time.Hour)},
		{ID: 4, Name: "active-but-due", StartTime: now.Add(-time.Minute), IsActive: true},
	}}

	due := s.DueEvents(now, 5*time.Minute)
	require.Len(t, due, 2)
	require.Equal(t, "past", due[0].Name)
	require.Equal(t, "soon", due[1].Name)

	upcoming := s.UpcomingEvents(now, 5*time.Minute)
	require.Len(t, upcoming, 1)
	require.Equal(t, "later", upcoming[0].Name)
}

func TestScheduleDueEventsSortedAscending(t *testing.T) {
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	s := &Schedule{Events: []Event{
		{ID: 1, Name: "third", StartTime: now.Add(-time.Minute)},
		{ID: 2, Name: "first", StartTime: now.Add(-3 * time.Minute)},
		{ID: 3, Name: "second", StartTime: now.Add(-2 * time.Minute)},
	}}

	due := s.DueEvents(now, 0)
	require.Len(t, due, 3)
	require.Equal(t, []string{"first", "second", "third"}, []string{due[0].Name, due[1].Name, due[2].Name})
}
