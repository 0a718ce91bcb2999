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

// CatalogRepository reads the representative, doctor and product catalog.
// The catalog is maintained elsewhere; this repository never writes to it.
type CatalogRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewCatalogRepository(db *sqlx.DB, log *slog.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *CatalogRepository) GetRepresentative(ctx context.Context, id string) (*domain.Representative, error) {
	const op = "internal.repository.postgres.GetRepresentative"

	query, args, err := r.sq.Select("rep.id", "rep.name", "rep.manager_id", "m.name AS manager_name").
		From("representatives rep").
		LeftJoin("managers m ON m.id = rep.manager_id").
		Where(sq.Eq{"rep.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rep domain.Representative
	if err := r.db.GetContext(ctx, &rep, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: representative with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get representative: %w", op, err)
	}

	return &rep, nil
}

func (r *CatalogRepository) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	const op = "internal.repository.postgres.GetDoctor"

	query, args, err := r.sq.Select("d.id", "d.name", "d.specialization_id", "s.name AS specialization_name").
		From("doctors d").
		LeftJoin("specializations s ON s.id = d.specialization_id").
		Where(sq.Eq{"d.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var doctor domain.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, args...); err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w: doctor with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get doctor: %w", op, err)
	}

	return &doctor, nil
}

func (r *CatalogRepository) GetAvailableProducts(ctx context.Context, representativeID string) ([]domain.Product, error) {
	const op = "internal.repository.postgres.GetAvailableProducts"
	log := r.log.With(slog.String("op", op), slog.String("representative_id", representativeID))

	query, args, err := r.sq.Select(productColumns...).
		From("products p").
		Join("representative_brands rb ON rb.brand_id = p.brand_id").
		Where(sq.Eq{"rb.representative_id": representativeID}).
		OrderBy("p.name", "p.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var products []domain.Product
	err = r.db.SelectContext(ctx, &products, query, args...)
	if err != nil && !isMissing(err) {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	if len(products) == 0 {
		log.Debug("representative has no brand products")
		return []domain.Product{}, nil
	}

	return products, nil
}
