// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

func TestValidateEventRequiresIDNameStartTime(t *testing.T) {
	causes := ValidateEvent(&Event{})
	require.Len(t, causes, 3)
	require.Contains(t, causes, "id must be greater than 0")
	require.Contains(t, causes, "name is required")
	require.Contains(t, causes, "startTime is required and must not be the zero value")
}

func TestValidateEventValid(t *testing.T) {
	e := &Event{ID: 1, Name: "Race Night", StartTime: time.Now()}
	require.Empty(t, ValidateEvent(e))
}

func TestValidateEventRejectsEmptyTrackName(t *testing.T) {
	e := &Event{ID: 1, Name: "Event", StartTime: time.Now(), Tracks: []Track{{Track: ""}}}
	causes := ValidateEvent(e)
	require.Contains(t, causes, "tracks[0].track must not be empty")
}

func TestValidateEventRequiresDaysForWeeklyPattern(t *testing.T) {
	e := &Event{
		ID: 1, Name: "Event", StartTime: time.Now(),
		RecurringPattern: &RecurringPattern{Type: Weekly},
	}
	causes := ValidateEvent(e)
	require.Contains(t, causes, "recurringPattern.days must contain at least one weekday for a Weekly pattern")
}

func TestValidateScheduleDetectsDuplicateIDs(t *testing.T) {
	now := time.Now()
	err := ValidateSchedule(&Schedule{Events: []Event{
		{ID: 1, Name: "A", StartTime: now},
		{ID: 1, Name: "B", StartTime: now},
	}})
	require.Error(t, err)
	require.True(t, ctlerrors.IsValidation(err))
}

func TestValidateScheduleDetectsMultipleActive(t *testing.T) {
	now := time.Now()
	err := ValidateSchedule(&Schedule{Events: []Event{
		{ID: 1, Name: "A", StartTime: now, IsActive: true},
		{ID: 2, Name: "B", StartTime: now, IsActive: true},
	}})
	require.Error(t, err)
}

func TestValidateScheduleAcceptsValidDocument(t *testing.T) {
	now := time.Now()
	err := ValidateSchedule(&Schedule{Events: []Event{
		{ID: 1, Name: "A", StartTime: now, IsActive: true},
		{ID: 2, Name: "B", StartTime: now.Add(time.Hour)},
	}})
	require.NoError(t, err)
}
