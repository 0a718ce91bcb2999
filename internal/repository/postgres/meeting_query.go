package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

func (r *MeetingRepository) GetMeetingByID(ctx context.Context, id string) (*domain.Meeting, error) {
	const op = "internal.repository.postgres.GetMeetingByID"

	query, args, err := r.sq.Select(meetingColumns...).
		From("meetings").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var m domain.Meeting
	if err := r.db.GetContext(ctx, &m, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: meeting with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get meeting: %w", op, err)
	}

	return &m, nil
}

type meetingRow struct {
	domain.Meeting
	AssignmentVisitDays domain.Weekdays  `db:"assignment_visit_days"`
	AssignmentStartTime domain.TimeOfDay `db:"assignment_start_time"`
	AssignmentEndTime   domain.TimeOfDay `db:"assignment_end_time"`
	AssignmentParentID  *string          `db:"assignment_recurring_parent_id"`
	AssignmentCreatedAt sql.NullTime     `db:"assignment_created_at"`
	AssignmentUpdatedAt sql.NullTime     `db:"assignment_updated_at"`
	DoctorName          string           `db:"doctor_name"`
	SpecializationID    *string          `db:"specialization_id"`
	SpecializationName  *string          `db:"specialization_name"`
	RepresentativeName  string           `db:"representative_name"`
	ManagerID           *string          `db:"manager_id"`
	ManagerName         *string          `db:"manager_name"`
}

func (r *MeetingRepository) GetMeetingDetails(ctx context.Context, id string) (*domain.MeetingDetails, error) {
	const op = "internal.repository.postgres.GetMeetingDetails"
	log := r.log.With(slog.String("op", op), slog.String("meeting_id", id))

	query, args, err := r.sq.Select(
		"mt.id", "mt.assignment_id", "mt.doctor_id", "mt.representative_id", "mt.start_time", "mt.end_time",
		"mt.status", "mt.notes", "mt.created_at", "mt.updated_at",
		"a.visit_days AS assignment_visit_days", "a.start_time AS assignment_start_time",
		"a.end_time AS assignment_end_time", "a.recurring_parent_id AS assignment_recurring_parent_id",
		"a.created_at AS assignment_created_at", "a.updated_at AS assignment_updated_at",
		"d.name AS doctor_name", "d.specialization_id", "s.name AS specialization_name",
		"rep.name AS representative_name", "rep.manager_id", "mg.name AS manager_name",
	).
		From("meetings mt").
		Join("assignments a ON a.id = mt.assignment_id").
		Join("doctors d ON d.id = mt.doctor_id").
		LeftJoin("specializations s ON s.id = d.specialization_id").
		Join("representatives rep ON rep.id = mt.representative_id").
		LeftJoin("managers mg ON mg.id = rep.manager_id").
		Where(sq.Eq{"mt.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var row meetingRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: meeting with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get meeting: %w", op, err)
	}

	products, err := r.GetMeetingProducts(ctx, r.db, id)
	if err != nil {
		log.Error("failed to get meeting products")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.MeetingDetails{
		Meeting: row.Meeting,
		Assignment: domain.Assignment{
			ID:                row.AssignmentID,
			RepresentativeID:  row.RepresentativeID,
			DoctorID:          row.DoctorID,
			VisitDays:         row.AssignmentVisitDays,
			StartTime:         row.AssignmentStartTime,
			EndTime:           row.AssignmentEndTime,
			RecurringParentID: row.AssignmentParentID,
			CreatedAt:         row.AssignmentCreatedAt.Time,
			UpdatedAt:         row.AssignmentUpdatedAt.Time,
		},
		Doctor: domain.Doctor{
			ID:                 row.DoctorID,
			Name:               row.DoctorName,
			SpecializationID:   row.SpecializationID,
			SpecializationName: row.SpecializationName,
		},
		Representative: domain.Representative{
			ID:          row.RepresentativeID,
			Name:        row.RepresentativeName,
			ManagerID:   row.ManagerID,
			ManagerName: row.ManagerName,
		},
		Products: products,
	}, nil
}

func (r *MeetingRepository) ListMeetings(ctx context.Context, filter domain.MeetingFilter) ([]domain.Meeting, error) {
	const op = "internal.repository.postgres.ListMeetings"

	builder := r.sq.Select(meetingColumns...).
		From("meetings").
		OrderBy("created_at DESC", "id")

	eq := sq.Eq{}
	if filter.RepresentativeID != "" {
		eq["representative_id"] = filter.RepresentativeID
	}

	if filter.DoctorID != "" {
		eq["doctor_id"] = filter.DoctorID
	}

	if filter.AssignmentID != "" {
		eq["assignment_id"] = filter.AssignmentID
	}

	if filter.Status != "" {
		eq["status"] = filter.Status
	}

	if len(eq) > 0 {
		builder = builder.Where(eq)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var meetings []domain.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	if meetings == nil {
		return []domain.Meeting{}, nil
	}

	return meetings, nil
}

func (r *MeetingRepository) GetMeetingProducts(ctx context.Context, ext sqlx.ExtContext, meetingID string) ([]domain.MeetingProduct, error) {
	const op = "internal.repository.postgres.GetMeetingProducts"

	query, args, err := r.sq.Select("mp.meeting_id", "mp.product_id", "p.name AS product_name", "mp.discussed", "mp.notes").
		From("meeting_products mp").
		Join("products p ON p.id = mp.product_id").
		Where(sq.Eq{"mp.meeting_id": meetingID}).
		OrderBy("p.name", "mp.product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	products := []domain.MeetingProduct{}
	if err := sqlx.SelectContext(ctx, ext, &products, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select meeting products: %w", op, err)
	}

	return products, nil
}

func (r *MeetingRepository) GetDiscussedProductIDs(ctx context.Context, visitID string) ([]string, error) {
	const op = "internal.repository.postgres.GetDiscussedProductIDs"

	query, args, err := r.sq.Select("product_id").
		From("discussed_products").
		Where(sq.Eq{"visit_id": visitID}).
		OrderBy("product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	productIDs := []string{}
	if err := r.db.SelectContext(ctx, &productIDs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select discussed products: %w", op, err)
	}

	return productIDs, nil
}

func (r *MeetingRepository) CountMeetingsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	const op = "internal.repository.postgres.CountMeetingsByStatus"

	query, args, err := r.sq.Select("status", "COUNT(*) AS count").
		From("meetings").
		GroupBy("status").
		OrderBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	counts := []domain.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return counts, nil
}
