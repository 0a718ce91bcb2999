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
	"github.com/YusovID/visit-planner/internal/repository"
	"github.com/YusovID/visit-planner/internal/validation"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AssignmentService interface {
	CreateOrUpdateAssignment(ctx context.Context, actor domain.Actor, in AssignmentInput) (*domain.AssignmentDetails, error)
	UpdateAssignment(ctx context.Context, actor domain.Actor, id string, upd AssignmentUpdate) (*domain.AssignmentDetails, error)
	DeleteAssignment(ctx context.Context, actor domain.Actor, id string) error
	GetAssignment(ctx context.Context, id string) (*domain.AssignmentDetails, error)
	ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.AssignmentDetails, error)

	CreateWeeklySeries(ctx context.Context, actor domain.Actor, in SeriesInput) (*domain.SeriesResult, error)
	UpdateWeeklySeries(ctx context.Context, actor domain.Actor, parentID string, upd SeriesUpdate) ([]domain.AssignmentDetails, error)
	DeleteWeeklySeries(ctx context.Context, actor domain.Actor, parentID string) (int64, error)

	Calendar(ctx context.Context, representativeID string, weekStart time.Time) ([]domain.CalendarEntry, error)
}

// GoalChange carries the visit goal fields of a create or update request.
// An absent VisitsPerWeek leaves the goal as it is; null or 0 deletes it.
type GoalChange struct {
	VisitsPerWeek  domain.Field[int]
	StartDate      domain.Field[time.Time]
	RecurringWeeks domain.Field[int]
}

func (g GoalChange) empty() bool {
	return !g.VisitsPerWeek.IsSet() && !g.StartDate.IsSet() && !g.RecurringWeeks.IsSet()
}

func (g GoalChange) deletes() bool {
	if g.VisitsPerWeek.IsNull() {
		return true
	}

	v, ok := g.VisitsPerWeek.Get()

	return ok && v == 0
}

func (g GoalChange) validate() error {
	if v, ok := g.VisitsPerWeek.Get(); ok && v < 0 {
		return validation.Errorf("field 'visits_per_week' must not be negative")
	}

	if w, ok := g.RecurringWeeks.Get(); ok && w < 0 {
		return validation.Errorf("field 'recurring_weeks' must not be negative")
	}

	return nil
}

func (g GoalChange) applyTo(goal *domain.VisitGoal) {
	if v, ok := g.VisitsPerWeek.Get(); ok {
		goal.VisitsPerWeek = v
	}

	if g.StartDate.IsNull() {
		goal.StartDate = nil
	} else if d, ok := g.StartDate.Get(); ok {
		d = recurrence.Date(d)
		goal.StartDate = &d
	}

	if g.RecurringWeeks.IsNull() {
		goal.RecurringWeeks = 0
	} else if w, ok := g.RecurringWeeks.Get(); ok {
		goal.RecurringWeeks = w
	}
}

type AssignmentInput struct {
	RepresentativeID string           `validate:"required"`
	DoctorID         string           `validate:"required"`
	VisitDays        domain.Weekdays  `validate:"required,min=1,dive,weekday"`
	StartTime        domain.TimeOfDay `validate:"min=0"`
	EndTime          domain.TimeOfDay `validate:"gtfield=StartTime"`
	ProductIDs       []string         `validate:"dive,required"`
	Goal             GoalChange
}

// AssignmentUpdate is a partial update; absent fields are left unchanged.
type AssignmentUpdate struct {
	VisitDays  domain.Field[domain.Weekdays]
	StartTime  domain.Field[domain.TimeOfDay]
	EndTime    domain.Field[domain.TimeOfDay]
	ProductIDs domain.Field[[]string]
	Goal       GoalChange
}

type AssignmentServiceImpl struct {
	BaseService
	cmd     repository.AssignmentCommandRepository
	query   repository.AssignmentQueryRepository
	catalog repository.CatalogRepository
}

func NewAssignmentService(
	db DB,
	log *slog.Logger,
	cmd repository.AssignmentCommandRepository,
	query repository.AssignmentQueryRepository,
	catalog repository.CatalogRepository,
) *AssignmentServiceImpl {
	return &AssignmentServiceImpl{
		BaseService: NewBaseService(db, log),
		cmd:         cmd,
		query:       query,
		catalog:     catalog,
	}
}

func (s *AssignmentServiceImpl) CreateOrUpdateAssignment(ctx context.Context, actor domain.Actor, in AssignmentInput) (*domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.CreateOrUpdateAssignment"
	log := s.log.With(
		slog.String("op", op),
		slog.String("representative_id", in.RepresentativeID),
		slog.String("doctor_id", in.DoctorID),
	)

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if err := validation.ValidateStruct(in); err != nil {
		return nil, err
	}

	if err := in.Goal.validate(); err != nil {
		return nil, err
	}

	if err := s.ensureParticipants(ctx, in.RepresentativeID, in.DoctorID); err != nil {
		return nil, err
	}

	var details *domain.AssignmentDetails

	upsert := func() error {
		return s.transaction(ctx, op, func(tx *sqlx.Tx) error {
			var err error
			details, err = s.upsert(ctx, tx, in)
			return err
		})
	}

	err := upsert()

	var existsErr *apperrors.AssignmentAlreadyExistsError
	if errors.As(err, &existsErr) {
		log.Warn("concurrent insert for the same pair, retrying as update")
		err = upsert()
	}

	if err != nil {
		return nil, err
	}

	log.Info("assignment saved", slog.String("assignment_id", details.ID))

	return details, nil
}

func (s *AssignmentServiceImpl) upsert(ctx context.Context, tx *sqlx.Tx, in AssignmentInput) (*domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.upsert"

	a, err := s.cmd.GetAssignmentByPairWithLock(ctx, tx, in.RepresentativeID, in.DoctorID)

	switch {
	case err == nil:
		a.VisitDays = in.VisitDays
		a.StartTime = in.StartTime
		a.EndTime = in.EndTime

		if err := s.cmd.UpdateAssignment(ctx, tx, a); err != nil {
			return nil, fmt.Errorf("%s: failed to update assignment: %w", op, err)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		a = &domain.Assignment{
			ID:               uuid.NewString(),
			RepresentativeID: in.RepresentativeID,
			DoctorID:         in.DoctorID,
			VisitDays:        in.VisitDays,
			StartTime:        in.StartTime,
			EndTime:          in.EndTime,
		}

		if err := s.cmd.CreateAssignment(ctx, tx, a); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: failed to look up assignment: %w", op, err)
	}

	if err := s.cmd.ReplaceAssignmentProducts(ctx, tx, a.ID, uniqueIDs(in.ProductIDs)); err != nil {
		return nil, fmt.Errorf("%s: failed to replace products: %w", op, err)
	}

	if err := s.applyGoal(ctx, tx, a.ID, in.Goal); err != nil {
		return nil, err
	}

	details, err := s.query.GetAssignmentDetails(ctx, tx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load assignment: %w", op, err)
	}

	return details, nil
}

func (s *AssignmentServiceImpl) UpdateAssignment(ctx context.Context, actor domain.Actor, id string, upd AssignmentUpdate) (*domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.UpdateAssignment"
	log := s.log.With(slog.String("op", op), slog.String("assignment_id", id))

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if upd.VisitDays.IsNull() || upd.StartTime.IsNull() || upd.EndTime.IsNull() {
		return nil, validation.Errorf("fields 'visit_days', 'start_time' and 'end_time' cannot be cleared")
	}

	if err := upd.Goal.validate(); err != nil {
		return nil, err
	}

	var details *domain.AssignmentDetails

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		a, err := s.cmd.GetAssignmentByIDWithLock(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%s: failed to get assignment with lock: %w", op, err)
		}

		if days, ok := upd.VisitDays.Get(); ok {
			a.VisitDays = days
		}

		if start, ok := upd.StartTime.Get(); ok {
			a.StartTime = start
		}

		if end, ok := upd.EndTime.Get(); ok {
			a.EndTime = end
		}

		if err := validateSchedule(a); err != nil {
			return err
		}

		if err := s.cmd.UpdateAssignment(ctx, tx, a); err != nil {
			return fmt.Errorf("%s: failed to update assignment: %w", op, err)
		}

		if upd.ProductIDs.IsSet() {
			productIDs, _ := upd.ProductIDs.Get()
			if err := s.cmd.ReplaceAssignmentProducts(ctx, tx, id, uniqueIDs(productIDs)); err != nil {
				return fmt.Errorf("%s: failed to replace products: %w", op, err)
			}
		}

		if err := s.applyGoal(ctx, tx, id, upd.Goal); err != nil {
			return err
		}

		details, err = s.query.GetAssignmentDetails(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%s: failed to load assignment: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("assignment updated")

	return details, nil
}

func (s *AssignmentServiceImpl) DeleteAssignment(ctx context.Context, actor domain.Actor, id string) error {
	const op = "internal.service.assignment.DeleteAssignment"

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return err
	}

	log := s.log.With(slog.String("op", op), slog.String("assignment_id", id))

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		a, err := s.cmd.GetAssignmentByIDWithLock(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("%s: failed to get assignment with lock: %w", op, err)
		}

		// a series outlives its parent
		if a.RecurringParentID == nil {
			heirID, err := s.cmd.PromoteSeriesChild(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("%s: failed to promote series child: %w", op, err)
			}

			if heirID != "" {
				log.Info("series parent moved", slog.String("parent_id", heirID))
			}
		}

		return s.cmd.DeleteAssignment(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	log.Info("assignment deleted")

	return nil
}

func (s *AssignmentServiceImpl) GetAssignment(ctx context.Context, id string) (*domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.GetAssignment"

	details, err := s.query.GetAssignmentDetails(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return details, nil
}

func (s *AssignmentServiceImpl) ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.AssignmentDetails, error) {
	const op = "internal.service.assignment.ListAssignments"

	list, err := s.query.ListAssignmentDetails(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

func (s *AssignmentServiceImpl) applyGoal(ctx context.Context, tx *sqlx.Tx, assignmentID string, change GoalChange) error {
	const op = "internal.service.assignment.applyGoal"

	if change.empty() {
		return nil
	}

	if change.deletes() {
		if err := s.cmd.DeleteVisitGoal(ctx, tx, assignmentID); err != nil {
			return fmt.Errorf("%s: failed to delete visit goal: %w", op, err)
		}

		return nil
	}

	goal, err := s.query.GetVisitGoal(ctx, tx, assignmentID)

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		if _, ok := change.VisitsPerWeek.Get(); !ok {
			// window fields without a goal to hold them
			return nil
		}

		goal = &domain.VisitGoal{AssignmentID: assignmentID}
	case err != nil:
		return fmt.Errorf("%s: failed to get visit goal: %w", op, err)
	}

	change.applyTo(goal)

	if err := s.cmd.UpsertVisitGoal(ctx, tx, goal); err != nil {
		return fmt.Errorf("%s: failed to upsert visit goal: %w", op, err)
	}

	return nil
}

// ensureParticipants turns unknown representatives and doctors into
// validation errors so nothing is written for them.
func (s *AssignmentServiceImpl) ensureParticipants(ctx context.Context, representativeID string, doctorIDs ...string) error {
	const op = "internal.service.assignment.ensureParticipants"

	if _, err := s.catalog.GetRepresentative(ctx, representativeID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return validation.Errorf("representative '%s' does not exist", representativeID)
		}

		return fmt.Errorf("%s: failed to get representative: %w", op, err)
	}

	for _, doctorID := range doctorIDs {
		if _, err := s.catalog.GetDoctor(ctx, doctorID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return validation.Errorf("doctor '%s' does not exist", doctorID)
			}

			return fmt.Errorf("%s: failed to get doctor: %w", op, err)
		}
	}

	return nil
}

func validateSchedule(a *domain.Assignment) error {
	if len(a.VisitDays) == 0 {
		return validation.Errorf("field 'visit_days' must not be empty")
	}

	for _, d := range a.VisitDays {
		if !d.Valid() {
			return validation.Errorf("field 'visit_days' contains unknown weekday '%s'", d)
		}
	}

	if a.EndTime <= a.StartTime {
		return validation.Errorf("field 'end_time' must be after 'start_time'")
	}

	return nil
}
