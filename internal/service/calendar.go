package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/recurrence"
	"github.com/YusovID/visit-planner/internal/validation"
)

const calendarDays = 7

// Calendar lists the planned visits of a representative for the seven days
// starting at weekStart, ordered by date and start time.
func (s *AssignmentServiceImpl) Calendar(ctx context.Context, representativeID string, weekStart time.Time) ([]domain.CalendarEntry, error) {
	const op = "internal.service.assignment.Calendar"

	if representativeID == "" {
		return nil, validation.Errorf("field 'representative_id' is required")
	}

	assignments, err := s.query.ListAssignmentDetails(ctx, domain.AssignmentFilter{RepresentativeID: representativeID})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list assignments: %w", op, err)
	}

	from := recurrence.Date(weekStart)
	to := from.AddDate(0, 0, calendarDays-1)

	entries := []domain.CalendarEntry{}

	for _, a := range assignments {
		window := recurrence.WindowFor(a.Assignment, a.Goal)

		for _, d := range window.DatesBetween(from, to) {
			entries = append(entries, domain.CalendarEntry{Date: d, Assignment: a})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}

		return entries[i].Assignment.StartTime < entries[j].Assignment.StartTime
	})

	return entries, nil
}
