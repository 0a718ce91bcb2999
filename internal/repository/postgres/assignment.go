package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

var assignmentColumns = []string{
	"id", "representative_id", "doctor_id", "visit_days", "start_time", "end_time",
	"recurring_parent_id", "created_at", "updated_at",
}

type AssignmentRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewAssignmentRepository(db *sqlx.DB, log *slog.Logger) *AssignmentRepository {
	return &AssignmentRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AssignmentRepository) GetAssignmentByPairWithLock(ctx context.Context, tx *sqlx.Tx, representativeID, doctorID string) (*domain.Assignment, error) {
	const op = "internal.repository.postgres.GetAssignmentByPairWithLock"

	query, args, err := r.sq.Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"representative_id": representativeID, "doctor_id": doctorID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var a domain.Assignment
	if err := tx.GetContext(ctx, &a, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: assignment for representative '%s' and doctor '%s'", op, apperrors.ErrNotFound, representativeID, doctorID)
		}

		return nil, fmt.Errorf("%s: failed to get assignment: %w", op, err)
	}

	return &a, nil
}

func (r *AssignmentRepository) GetAssignmentByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Assignment, error) {
	const op = "internal.repository.postgres.GetAssignmentByIDWithLock"

	query, args, err := r.sq.Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var a domain.Assignment
	if err := tx.GetContext(ctx, &a, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: assignment with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get assignment with lock: %w", op, err)
	}

	return &a, nil
}

func (r *AssignmentRepository) CreateAssignment(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment) error {
	const op = "internal.repository.postgres.CreateAssignment"

	query, args, err := r.sq.Insert("assignments").
		Columns("id", "representative_id", "doctor_id", "visit_days", "start_time", "end_time", "recurring_parent_id").
		Values(a.ID, a.RepresentativeID, a.DoctorID, a.VisitDays, a.StartTime, a.EndTime, a.RecurringParentID).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err, assignmentPairConstraint) {
			return &apperrors.AssignmentAlreadyExistsError{RepresentativeID: a.RepresentativeID, DoctorID: a.DoctorID}
		}

		if isMissingReference(err) {
			return fmt.Errorf("%s: %w: representative '%s' or doctor '%s'", op, apperrors.ErrNotFound, a.RepresentativeID, a.DoctorID)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *AssignmentRepository) UpdateAssignment(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment) error {
	const op = "internal.repository.postgres.UpdateAssignment"

	query, args, err := r.sq.Update("assignments").
		Set("visit_days", a.VisitDays).
		Set("start_time", a.StartTime).
		Set("end_time", a.EndTime).
		Set("recurring_parent_id", a.RecurringParentID).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&a.UpdatedAt); err != nil {
		if isMissing(err) {
			return fmt.Errorf("%s: %w: assignment with id '%s'", op, apperrors.ErrNotFound, a.ID)
		}

		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, tx *sqlx.Tx, id string) error {
	const op = "internal.repository.postgres.DeleteAssignment"

	query, args, err := r.sq.Delete("assignments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: assignment with id '%s'", op, apperrors.ErrNotFound, id)
	}

	return nil
}

func (r *AssignmentRepository) ReplaceAssignmentProducts(ctx context.Context, tx *sqlx.Tx, assignmentID string, productIDs []string) error {
	const op = "internal.repository.postgres.ReplaceAssignmentProducts"

	deleteQuery, deleteArgs, err := r.sq.Delete("assignment_products").
		Where(sq.Eq{"assignment_id": assignmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	if len(productIDs) == 0 {
		return nil
	}

	insertBuilder := r.sq.Insert("assignment_products").
		Columns("assignment_id", "product_id")

	for _, productID := range productIDs {
		insertBuilder = insertBuilder.Values(assignmentID, productID)
	}

	insertQuery, insertArgs, err := insertBuilder.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("%s: %w: one of products %v", op, apperrors.ErrNotFound, productIDs)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *AssignmentRepository) UpsertVisitGoal(ctx context.Context, tx *sqlx.Tx, goal *domain.VisitGoal) error {
	const op = "internal.repository.postgres.UpsertVisitGoal"

	query, args, err := r.sq.Insert("visit_goals").
		Columns("assignment_id", "visits_per_week", "start_date", "recurring_weeks").
		Values(goal.AssignmentID, goal.VisitsPerWeek, goal.StartDate, goal.RecurringWeeks).
		Suffix(`
        ON CONFLICT (assignment_id) DO UPDATE SET
            visits_per_week = EXCLUDED.visits_per_week,
            start_date = EXCLUDED.start_date,
            recurring_weeks = EXCLUDED.recurring_weeks`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build upsert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute upsert: %w", op, err)
	}

	return nil
}

func (r *AssignmentRepository) DeleteVisitGoal(ctx context.Context, tx *sqlx.Tx, assignmentID string) error {
	const op = "internal.repository.postgres.DeleteVisitGoal"

	query, args, err := r.sq.Delete("visit_goals").
		Where(sq.Eq{"assignment_id": assignmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	return nil
}

func seriesPredicate(parentID string) sq.Or {
	return sq.Or{sq.Eq{"id": parentID}, sq.Eq{"recurring_parent_id": parentID}}
}

func (r *AssignmentRepository) GetSeriesWithLock(ctx context.Context, tx *sqlx.Tx, parentID string) ([]domain.Assignment, error) {
	const op = "internal.repository.postgres.GetSeriesWithLock"

	query, args, err := r.sq.Select(assignmentColumns...).
		From("assignments").
		Where(seriesPredicate(parentID)).
		OrderBy("created_at", "id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var series []domain.Assignment
	if err := tx.SelectContext(ctx, &series, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: series with parent '%s'", op, apperrors.ErrNotFound, parentID)
		}

		return nil, fmt.Errorf("%s: failed to select series: %w", op, err)
	}

	return series, nil
}

func (r *AssignmentRepository) PromoteSeriesChild(ctx context.Context, tx *sqlx.Tx, parentID string) (string, error) {
	const op = "internal.repository.postgres.PromoteSeriesChild"

	query, args, err := r.sq.Select("id").
		From("assignments").
		Where(sq.Eq{"recurring_parent_id": parentID}).
		OrderBy("created_at", "id").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var heirID string
	if err := tx.GetContext(ctx, &heirID, query, args...); err != nil {
		if isMissing(err) {
			return "", nil
		}

		return "", fmt.Errorf("%s: failed to find first child: %w", op, err)
	}

	// the heir gets NULL, every other child points at the heir
	updateQuery, updateArgs, err := r.sq.Update("assignments").
		Set("recurring_parent_id", sq.Expr("NULLIF(?::uuid, id)", heirID)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"recurring_parent_id": parentID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return "", fmt.Errorf("%s: failed to re-point series: %w", op, err)
	}

	return heirID, nil
}

func (r *AssignmentRepository) DeleteSeries(ctx context.Context, tx *sqlx.Tx, parentID string) (int64, error) {
	const op = "internal.repository.postgres.DeleteSeries"

	query, args, err := r.sq.Delete("assignments").
		Where(seriesPredicate(parentID)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isMissing(err) {
			return 0, nil
		}

		return 0, fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return deleted, nil
}
