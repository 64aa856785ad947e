// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// validatable mirrors Event with struct tags the validator package
// understands; Event itself stays free of validation tags since it is also
// the wire/storage shape.
type validatable struct {
	ID        int       `validate:"gt=0"`
	Name      string    `validate:"required"`
	StartTime time.Time `validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateEvent applies the §6 validation rules to a single event and
// returns every violation found, not just the first (events.md example 4
// expects an enumeration).
func ValidateEvent(e *Event) []string {
	var causes []string

	v := getValidator()
	if err := v.Struct(validatable{ID: e.ID, Name: e.Name, StartTime: e.StartTime}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				causes = append(causes, fieldCause(fe))
			}
		}
	}

	for i, t := range e.Tracks {
		if t.Track == "" {
			causes = append(causes, fmt.Sprintf("tracks[%d].track must not be empty", i))
		}
	}

	if e.RecurringPattern != nil && e.RecurringPattern.Type == Weekly && len(e.RecurringPattern.Days) == 0 {
		causes = append(causes, "recurringPattern.days must contain at least one weekday for a Weekly pattern")
	}

	return causes
}

func fieldCause(fe validator.FieldError) string {
	switch fe.Field() {
	case "ID":
		return "id must be greater than 0"
	case "Name":
		return "name is required"
	case "StartTime":
		return "startTime is required and must not be the zero value"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// ValidateSchedule checks every event and the schedule-level invariants
// (I1 at most one active event, I2 unique ids). It returns a single
// *ctlerrors.Error of Kind Validation enumerating every cause found, or nil
// if the schedule is valid.
func ValidateSchedule(s *Schedule) error {
	var causes []string

	seen := make(map[int]bool, len(s.Events))
	activeCount := 0
	for i, e := range s.Events {
		for _, c := range ValidateEvent(&e) {
			causes = append(causes, fmt.Sprintf("events[%d]: %s", i, c))
		}
		if seen[e.ID] {
			causes = append(causes, fmt.Sprintf("events[%d]: duplicate id %d", i, e.ID))
		}
		seen[e.ID] = true
		if e.IsActive {
			activeCount++
		}
	}
	if activeCount > 1 {
		causes = append(causes, fmt.Sprintf("at most one event may be active, found %d", activeCount))
	}

	if len(causes) > 0 {
		return ctlerrors.NewValidation("schedule validation failed", causes...)
	}
	return nil
}
