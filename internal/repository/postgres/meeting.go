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

var meetingColumns = []string{
	"id", "assignment_id", "doctor_id", "representative_id", "start_time", "end_time",
	"status", "notes", "created_at", "updated_at",
}

var blockingStatuses = []domain.MeetingStatus{domain.MeetingInProgress, domain.MeetingCompleted}

type MeetingRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewMeetingRepository(db *sqlx.DB, log *slog.Logger) *MeetingRepository {
	return &MeetingRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *MeetingRepository) HasBlockingMeeting(ctx context.Context, tx *sqlx.Tx, assignmentID, doctorID string) (bool, error) {
	const op = "internal.repository.postgres.HasBlockingMeeting"

	subQuery, args, err := r.sq.Select("1").
		From("meetings").
		Where(sq.Eq{"assignment_id": assignmentID, "doctor_id": doctorID, "status": blockingStatuses}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, "SELECT EXISTS ("+subQuery+")", args...); err != nil {
		return false, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return exists, nil
}

func (r *MeetingRepository) CreateMeeting(ctx context.Context, tx *sqlx.Tx, m *domain.Meeting) error {
	const op = "internal.repository.postgres.CreateMeeting"

	query, args, err := r.sq.Insert("meetings").
		Columns("id", "assignment_id", "doctor_id", "representative_id", "start_time", "end_time", "status", "notes").
		Values(m.ID, m.AssignmentID, m.DoctorID, m.RepresentativeID, m.StartTime, m.EndTime, m.Status, m.Notes).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		if isUniqueViolation(err, activeMeetingConstraint) {
			return &apperrors.ActiveMeetingExistsError{AssignmentID: m.AssignmentID, DoctorID: m.DoctorID}
		}

		if isMissingReference(err) {
			return fmt.Errorf("%s: %w: assignment '%s', doctor '%s' or representative '%s'", op, apperrors.ErrNotFound, m.AssignmentID, m.DoctorID, m.RepresentativeID)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *MeetingRepository) GetMeetingByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Meeting, error) {
	const op = "internal.repository.postgres.GetMeetingByIDWithLock"

	query, args, err := r.sq.Select(meetingColumns...).
		From("meetings").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var m domain.Meeting
	if err := tx.GetContext(ctx, &m, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: meeting with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get meeting with lock: %w", op, err)
	}

	return &m, nil
}

func (r *MeetingRepository) UpdateMeetingStatus(ctx context.Context, tx *sqlx.Tx, m *domain.Meeting) error {
	const op = "internal.repository.postgres.UpdateMeetingStatus"

	query, args, err := r.sq.Update("meetings").
		Set("status", m.Status).
		Set("end_time", m.EndTime).
		Set("notes", m.Notes).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": m.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&m.UpdatedAt); err != nil {
		if isMissing(err) {
			return fmt.Errorf("%s: %w: meeting with id '%s'", op, apperrors.ErrNotFound, m.ID)
		}

		if isUniqueViolation(err, activeMeetingConstraint) {
			return &apperrors.ActiveMeetingExistsError{AssignmentID: m.AssignmentID, DoctorID: m.DoctorID}
		}

		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *MeetingRepository) AddMeetingProduct(ctx context.Context, tx *sqlx.Tx, mp *domain.MeetingProduct) (bool, error) {
	const op = "internal.repository.postgres.AddMeetingProduct"

	query, args, err := r.sq.Insert("meeting_products").
		Columns("meeting_id", "product_id", "discussed", "notes").
		Values(mp.MeetingID, mp.ProductID, mp.Discussed, mp.Notes).
		Suffix("ON CONFLICT (meeting_id, product_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isMissingReference(err) {
			return false, fmt.Errorf("%s: %w: meeting '%s' or product '%s'", op, apperrors.ErrNotFound, mp.MeetingID, mp.ProductID)
		}

		return false, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return inserted > 0, nil
}

func (r *MeetingRepository) UpdateMeetingProduct(ctx context.Context, tx *sqlx.Tx, mp *domain.MeetingProduct) error {
	const op = "internal.repository.postgres.UpdateMeetingProduct"

	query, args, err := r.sq.Update("meeting_products").
		Set("discussed", mp.Discussed).
		Set("notes", mp.Notes).
		Where(sq.Eq{"meeting_id": mp.MeetingID, "product_id": mp.ProductID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: product '%s' in meeting '%s'", op, apperrors.ErrNotFound, mp.ProductID, mp.MeetingID)
	}

	return nil
}

func (r *MeetingRepository) RemoveMeetingProduct(ctx context.Context, tx *sqlx.Tx, meetingID, productID string) error {
	const op = "internal.repository.postgres.RemoveMeetingProduct"

	query, args, err := r.sq.Delete("meeting_products").
		Where(sq.Eq{"meeting_id": meetingID, "product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: product '%s' in meeting '%s'", op, apperrors.ErrNotFound, productID, meetingID)
	}

	return nil
}

func (r *MeetingRepository) ReplaceDiscussedProducts(ctx context.Context, tx *sqlx.Tx, visitID string, productIDs []string) error {
	const op = "internal.repository.postgres.ReplaceDiscussedProducts"

	deleteQuery, deleteArgs, err := r.sq.Delete("discussed_products").
		Where(sq.Eq{"visit_id": visitID}).
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

	insertBuilder := r.sq.Insert("discussed_products").
		Columns("visit_id", "product_id")

	for _, productID := range productIDs {
		insertBuilder = insertBuilder.Values(visitID, productID)
	}

	insertQuery, insertArgs, err := insertBuilder.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		if isMissingReference(err) {
			return fmt.Errorf("%s: %w: visit '%s' or one of products %v", op, apperrors.ErrNotFound, visitID, productIDs)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}
