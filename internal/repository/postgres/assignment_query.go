package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

// productColumns selects a product with its priority specializations; the
// products table must be aliased as p.
var productColumns = []string{
	"p.id", "p.name", "p.brand_id",
	"ARRAY(SELECT pps.specialization_id::text FROM product_priority_specializations pps WHERE pps.product_id = p.id ORDER BY 1) AS priority_specialization_ids",
}

type assignmentRow struct {
	domain.Assignment
	RepresentativeName string  `db:"representative_name"`
	ManagerID          *string `db:"manager_id"`
	ManagerName        *string `db:"manager_name"`
	DoctorName         string  `db:"doctor_name"`
	SpecializationID   *string `db:"specialization_id"`
	SpecializationName *string `db:"specialization_name"`
}

type assignmentProductRow struct {
	AssignmentID string `db:"assignment_id"`
	domain.Product
}

func (r *AssignmentRepository) detailsQuery() sq.SelectBuilder {
	return r.sq.Select(
		"a.id", "a.representative_id", "a.doctor_id", "a.visit_days", "a.start_time", "a.end_time",
		"a.recurring_parent_id", "a.created_at", "a.updated_at",
		"rep.name AS representative_name", "rep.manager_id", "m.name AS manager_name",
		"d.name AS doctor_name", "d.specialization_id", "s.name AS specialization_name",
	).
		From("assignments a").
		Join("representatives rep ON rep.id = a.representative_id").
		LeftJoin("managers m ON m.id = rep.manager_id").
		Join("doctors d ON d.id = a.doctor_id").
		LeftJoin("specializations s ON s.id = d.specialization_id")
}

func (r *AssignmentRepository) GetVisitGoal(ctx context.Context, ext sqlx.ExtContext, assignmentID string) (*domain.VisitGoal, error) {
	const op = "internal.repository.postgres.GetVisitGoal"

	query, args, err := r.sq.Select("assignment_id", "visits_per_week", "start_date", "recurring_weeks").
		From("visit_goals").
		Where(sq.Eq{"assignment_id": assignmentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var goal domain.VisitGoal
	if err := sqlx.GetContext(ctx, ext, &goal, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: visit goal for assignment '%s'", op, apperrors.ErrNotFound, assignmentID)
		}

		return nil, fmt.Errorf("%s: failed to get visit goal: %w", op, err)
	}

	return &goal, nil
}

func (r *AssignmentRepository) GetAssignmentDetails(ctx context.Context, ext sqlx.ExtContext, id string) (*domain.AssignmentDetails, error) {
	const op = "internal.repository.postgres.GetAssignmentDetails"

	query, args, err := r.detailsQuery().
		Where(sq.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var row assignmentRow
	if err := sqlx.GetContext(ctx, ext, &row, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: assignment with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get assignment: %w", op, err)
	}

	details, err := r.attachRelations(ctx, ext, []assignmentRow{row})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &details[0], nil
}

func (r *AssignmentRepository) ListAssignmentDetails(ctx context.Context, filter domain.AssignmentFilter) ([]domain.AssignmentDetails, error) {
	const op = "internal.repository.postgres.ListAssignmentDetails"

	builder := r.detailsQuery().OrderBy("a.created_at", "a.id")

	if filter.RepresentativeID != "" {
		builder = builder.Where(sq.Eq{"a.representative_id": filter.RepresentativeID})
	}

	if filter.DoctorID != "" {
		builder = builder.Where(sq.Eq{"a.doctor_id": filter.DoctorID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	if len(rows) == 0 {
		return []domain.AssignmentDetails{}, nil
	}

	details, err := r.attachRelations(ctx, r.db, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return details, nil
}

func (r *AssignmentRepository) CountAssignments(ctx context.Context) (int, error) {
	const op = "internal.repository.postgres.CountAssignments"

	query, args, err := r.sq.Select("COUNT(*)").From("assignments").ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return total, nil
}

// attachRelations loads products and goals of all rows with one query each.
func (r *AssignmentRepository) attachRelations(ctx context.Context, ext sqlx.ExtContext, rows []assignmentRow) ([]domain.AssignmentDetails, error) {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	productsQuery, args, err := r.sq.Select(append([]string{"ap.assignment_id"}, productColumns...)...).
		From("assignment_products ap").
		Join("products p ON p.id = ap.product_id").
		Where(sq.Eq{"ap.assignment_id": ids}).
		OrderBy("p.name", "p.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build products query: %w", err)
	}

	var products []assignmentProductRow
	if err := sqlx.SelectContext(ctx, ext, &products, productsQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to select assignment products: %w", err)
	}

	goalsQuery, args, err := r.sq.Select("assignment_id", "visits_per_week", "start_date", "recurring_weeks").
		From("visit_goals").
		Where(sq.Eq{"assignment_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build goals query: %w", err)
	}

	var goals []domain.VisitGoal
	if err := sqlx.SelectContext(ctx, ext, &goals, goalsQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to select visit goals: %w", err)
	}

	return mapAssignmentRelations(rows, products, goals), nil
}

func mapAssignmentRelations(rows []assignmentRow, products []assignmentProductRow, goals []domain.VisitGoal) []domain.AssignmentDetails {
	result := make([]domain.AssignmentDetails, len(rows))
	index := make(map[string]*domain.AssignmentDetails, len(rows))

	for i, row := range rows {
		result[i] = domain.AssignmentDetails{
			Assignment: row.Assignment,
			Representative: domain.Representative{
				ID:          row.RepresentativeID,
				Name:        row.RepresentativeName,
				ManagerID:   row.ManagerID,
				ManagerName: row.ManagerName,
			},
			Doctor: domain.Doctor{
				ID:                 row.DoctorID,
				Name:               row.DoctorName,
				SpecializationID:   row.SpecializationID,
				SpecializationName: row.SpecializationName,
			},
			Products: []domain.Product{},
		}
		index[row.ID] = &result[i]
	}

	for _, p := range products {
		if d, ok := index[p.AssignmentID]; ok {
			d.Products = append(d.Products, p.Product)
		}
	}

	for i := range goals {
		if d, ok := index[goals[i].AssignmentID]; ok {
			d.Goal = &goals[i]
		}
	}

	return result
}
