// Package recurrence expands weekly visit series into calendar dates and
// decides whether a date falls inside an assignment's visit window.
package recurrence

import (
	"fmt"
	"time"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
)

const daysPerWeek = 7

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Expand returns weeks dates falling on weekday, the first being the
// earliest such date on or after start.
func Expand(start time.Time, weekday time.Weekday, weeks int) ([]time.Time, error) {
	if weeks < 0 {
		return nil, fmt.Errorf("%w: week count %d must not be negative", apperrors.ErrValidation, weeks)
	}

	start = Date(start)
	offset := (int(weekday) - int(start.Weekday()) + daysPerWeek) % daysPerWeek
	first := start.AddDate(0, 0, offset)

	dates := make([]time.Time, weeks)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, daysPerWeek*i)
	}

	return dates, nil
}

// Window is the set of dates on which an assignment may be visited.
// A nil Start means no lower bound; Weeks == 0 means no upper bound.
type Window struct {
	Start *time.Time
	Weeks int
	Days  domain.Weekdays
}

// WindowFor builds the window of an assignment and its optional goal.
func WindowFor(a domain.Assignment, goal *domain.VisitGoal) Window {
	w := Window{Days: a.VisitDays}

	if goal != nil {
		if goal.StartDate != nil {
			start := Date(*goal.StartDate)
			w.Start = &start
		}

		w.Weeks = goal.RecurringWeeks
	}

	return w
}

// End returns the last date of a bounded window.
func (w Window) End() (time.Time, bool) {
	if w.Start == nil || w.Weeks <= 0 {
		return time.Time{}, false
	}

	return w.Start.AddDate(0, 0, daysPerWeek*(w.Weeks-1)), true
}

func (w Window) Contains(d time.Time) bool {
	d = Date(d)

	if w.Start != nil && d.Before(*w.Start) {
		return false
	}

	if end, ok := w.End(); ok && d.After(end) {
		return false
	}

	return w.Days.Contains(domain.WeekdayOf(d))
}

// DatesBetween lists every date in [from, to] that is inside the window.
func (w Window) DatesBetween(from, to time.Time) []time.Time {
	var dates []time.Time

	for d := Date(from); !d.After(Date(to)); d = d.AddDate(0, 0, 1) {
		if w.Contains(d) {
			dates = append(dates, d)
		}
	}

	return dates
}
