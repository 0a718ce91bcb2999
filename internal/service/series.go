package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/recurrence"
	"github.com/YusovID/visit-planner/internal/validation"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SeriesInput creates one assignment with a bounded weekly window per doctor.
type SeriesInput struct {
	RepresentativeID string           `validate:"required"`
	DoctorIDs        []string         `validate:"required,min=1,dive,required"`
	ProductIDs       []string         `validate:"dive,required"`
	StartTime        domain.TimeOfDay `validate:"min=0"`
	EndTime          domain.TimeOfDay `validate:"gtfield=StartTime"`
	Weekday          domain.Weekday   `validate:"required,weekday"`
	RecurringWeeks   int              `validate:"min=1"`
	StartDate        time.Time        `validate:"required"`
}

// SeriesUpdate is applied uniformly to every assignment of a series.
type SeriesUpdate struct {
	Weekday        domain.Field[domain.Weekday]
	StartTime      domain.Field[domain.TimeOfDay]
	EndTime        domain.Field[domain.TimeOfDay]
	ProductIDs     domain.Field[[]string]
	StartDate      domain.Field[time.Time]
	RecurringWeeks domain.Field[int]
}

func (u SeriesUpdate) validate() error {
	if u.Weekday.IsNull() || u.StartTime.IsNull() || u.EndTime.IsNull() || u.StartDate.IsNull() {
		return validation.Errorf("fields 'weekday', 'start_time', 'end_time' and 'start_date' cannot be cleared")
	}

	if d, ok := u.Weekday.Get(); ok && !d.Valid() {
		return validation.Errorf("field 'weekday' must be a weekday name (monday..sunday)")
	}

	if w, ok := u.RecurringWeeks.Get(); ok && w < 0 {
		return validation.Errorf("field 'recurring_weeks' must not be negative")
	}

	return nil
}

func (s *AssignmentServiceImpl) CreateWeeklySeries(ctx context.Context, actor domain.Actor, in SeriesInput) (*domain.SeriesResult, error) {
	const op = "internal.service.assignment.CreateWeeklySeries"
	log := s.log.With(slog.String("op", op), slog.String("representative_id", in.RepresentativeID))

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if err := validation.ValidateStruct(in); err != nil {
		return nil, err
	}

	if err := s.ensureParticipants(ctx, in.RepresentativeID); err != nil {
		return nil, err
	}

	dates, err := recurrence.Expand(in.StartDate, in.Weekday.Time(), in.RecurringWeeks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doctorIDs := uniqueIDs(in.DoctorIDs)
	result := &domain.SeriesResult{Items: make([]domain.SeriesItemResult, 0, len(doctorIDs))}

	for _, doctorID := range doctorIDs {
		item := domain.SeriesItemResult{DoctorID: doctorID, Dates: dates}

		id, err := s.createSeriesItem(ctx, in, doctorID, dates[0], result.ParentID)
		if err != nil {
			log.Warn("failed to create series item, continuing with the next doctor",
				slog.String("doctor_id", doctorID),
				sl.Err(err),
			)
			seriesItemsTotal.WithLabelValues("failed").Inc()

			item.Err = err
			result.Items = append(result.Items, item)

			continue
		}

		if result.ParentID == "" {
			result.ParentID = id
		}

		seriesItemsTotal.WithLabelValues("created").Inc()

		item.AssignmentID = id
		result.Items = append(result.Items, item)
	}

	log.Info("weekly series processed",
		slog.String("parent_id", result.ParentID),
		slog.Int("doctors", len(doctorIDs)),
		slog.Int("failed", len(result.Failed())),
	)

	return result, nil
}

// createSeriesItem saves the assignment of one doctor. A doctor the
// representative is already assigned to has that assignment moved into the
// series instead of getting a second one.
func (s *AssignmentServiceImpl) createSeriesItem(ctx context.Context, in SeriesInput, doctorID string, firstDate time.Time, parentID string) (string, error) {
	const op = "internal.service.assignment.createSeriesItem"

	if _, err := s.catalog.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", validation.Errorf("doctor '%s' does not exist", doctorID)
		}

		return "", fmt.Errorf("%s: failed to get doctor: %w", op, err)
	}

	var id string

	save := func() error {
		return s.transaction(ctx, op, func(tx *sqlx.Tx) error {
			a, err := s.saveSeriesAssignment(ctx, tx, in, doctorID, parentID)
			if err != nil {
				return err
			}

			if err := s.cmd.ReplaceAssignmentProducts(ctx, tx, a.ID, uniqueIDs(in.ProductIDs)); err != nil {
				return fmt.Errorf("%s: failed to link products: %w", op, err)
			}

			if err := s.cmd.UpsertVisitGoal(ctx, tx, &domain.VisitGoal{
				AssignmentID:   a.ID,
				VisitsPerWeek:  1,
				StartDate:      &firstDate,
				RecurringWeeks: in.RecurringWeeks,
			}); err != nil {
				return fmt.Errorf("%s: failed to upsert visit goal: %w", op, err)
			}

			id = a.ID

			return nil
		})
	}

	err := save()

	var existsErr *apperrors.AssignmentAlreadyExistsError
	if errors.As(err, &existsErr) {
		s.log.Warn("concurrent insert for the same pair, retrying as update",
			slog.String("op", op),
			slog.String("doctor_id", doctorID),
		)
		err = save()
	}

	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *AssignmentServiceImpl) saveSeriesAssignment(ctx context.Context, tx *sqlx.Tx, in SeriesInput, doctorID, parentID string) (*domain.Assignment, error) {
	const op = "internal.service.assignment.saveSeriesAssignment"

	a, err := s.cmd.GetAssignmentByPairWithLock(ctx, tx, in.RepresentativeID, doctorID)

	switch {
	case err == nil:
		// the old series of this assignment must not follow it into the new one
		if a.RecurringParentID == nil {
			if _, err := s.cmd.PromoteSeriesChild(ctx, tx, a.ID); err != nil {
				return nil, fmt.Errorf("%s: failed to promote series child: %w", op, err)
			}
		}

		a.VisitDays = domain.Weekdays{in.Weekday}
		a.StartTime = in.StartTime
		a.EndTime = in.EndTime
		a.RecurringParentID = nil

		if parentID != "" && parentID != a.ID {
			a.RecurringParentID = &parentID
		}

		if err := s.cmd.UpdateAssignment(ctx, tx, a); err != nil {
			return nil, fmt.Errorf("%s: failed to update assignment: %w", op, err)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		a = &domain.Assignment{
			ID:               uuid.NewString(),
			RepresentativeID: in.RepresentativeID,
			DoctorID:         doctorID,
			VisitDays:        domain.Weekdays{in.Weekday},
			StartTime:        in.StartTime,
			EndTime:          in.EndTime,
		}

		if parentID != "" {
			a.RecurringParentID = &parentID
		}

		if err := s.cmd.CreateAssignment(ctx, tx, a); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: failed to look up assignment: %w", op, err)
	}

	return a, nil
}

func (s *AssignmentServiceImpl) UpdateWeeklySeries(ctx context.Context, actor domain.Actor, parentID string, upd SeriesUpdate) ([]domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.UpdateWeeklySeries"
	log := s.log.With(slog.String("op", op), slog.String("parent_id", parentID))

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if err := upd.validate(); err != nil {
		return nil, err
	}

	var updated []domain.AssignmentDetails

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		series, err := s.cmd.GetSeriesWithLock(ctx, tx, parentID)
		if err != nil {
			return fmt.Errorf("%s: failed to get series: %w", op, err)
		}

		if len(series) == 0 {
			return fmt.Errorf("%s: %w: series with parent '%s'", op, apperrors.ErrNotFound, parentID)
		}

		updated = make([]domain.AssignmentDetails, 0, len(series))

		for i := range series {
			details, err := s.updateSeriesItem(ctx, tx, &series[i], upd)
			if err != nil {
				return err
			}

			updated = append(updated, *details)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("weekly series updated", slog.Int("assignments", len(updated)))

	return updated, nil
}

func (s *AssignmentServiceImpl) updateSeriesItem(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment, upd SeriesUpdate) (*domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.updateSeriesItem"

	if d, ok := upd.Weekday.Get(); ok {
		a.VisitDays = domain.Weekdays{d}
	}

	if start, ok := upd.StartTime.Get(); ok {
		a.StartTime = start
	}

	if end, ok := upd.EndTime.Get(); ok {
		a.EndTime = end
	}

	if err := validateSchedule(a); err != nil {
		return nil, err
	}

	if err := s.cmd.UpdateAssignment(ctx, tx, a); err != nil {
		return nil, fmt.Errorf("%s: failed to update assignment: %w", op, err)
	}

	if upd.ProductIDs.IsSet() {
		productIDs, _ := upd.ProductIDs.Get()
		if err := s.cmd.ReplaceAssignmentProducts(ctx, tx, a.ID, uniqueIDs(productIDs)); err != nil {
			return nil, fmt.Errorf("%s: failed to replace products: %w", op, err)
		}
	}

	if upd.Weekday.IsSet() || upd.StartDate.IsSet() || upd.RecurringWeeks.IsSet() {
		if err := s.realignGoal(ctx, tx, a, upd); err != nil {
			return nil, err
		}
	}

	details, err := s.query.GetAssignmentDetails(ctx, tx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load assignment: %w", op, err)
	}

	return details, nil
}

// realignGoal moves the window start to the first visit day on or after
// the requested (or current) start date.
func (s *AssignmentServiceImpl) realignGoal(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment, upd SeriesUpdate) error {
	const op = "internal.service.assignment.realignGoal"

	goal, err := s.query.GetVisitGoal(ctx, tx, a.ID)

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		goal = &domain.VisitGoal{AssignmentID: a.ID, VisitsPerWeek: 1}
	case err != nil:
		return fmt.Errorf("%s: failed to get visit goal: %w", op, err)
	}

	if upd.RecurringWeeks.IsNull() {
		goal.RecurringWeeks = 0
	} else if w, ok := upd.RecurringWeeks.Get(); ok {
		goal.RecurringWeeks = w
	}

	base, ok := upd.StartDate.Get()
	if !ok && goal.StartDate != nil {
		base, ok = *goal.StartDate, true
	}

	if ok {
		first, err := recurrence.Expand(base, a.VisitDays[0].Time(), 1)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		goal.StartDate = &first[0]
	}

	if err := s.cmd.UpsertVisitGoal(ctx, tx, goal); err != nil {
		return fmt.Errorf("%s: failed to upsert visit goal: %w", op, err)
	}

	return nil
}

func (s *AssignmentServiceImpl) DeleteWeeklySeries(ctx context.Context, actor domain.Actor, parentID string) (int64, error) {
	const op = "internal.service.assignment.DeleteWeeklySeries"

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return 0, err
	}

	var removed int64

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		removed, err = s.cmd.DeleteSeries(ctx, tx, parentID)
		if err != nil {
			return fmt.Errorf("%s: failed to delete series: %w", op, err)
		}

		if removed == 0 {
			return fmt.Errorf("%s: %w: series with parent '%s'", op, apperrors.ErrNotFound, parentID)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("weekly series deleted", slog.String("op", op), slog.String("parent_id", parentID), slog.Int64("removed", removed))

	return removed, nil
}
