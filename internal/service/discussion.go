package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/repository"
	"github.com/jmoiron/sqlx"
)

// DiscussionService keeps the set of products discussed during a visit.
type DiscussionService interface {
	AvailableProducts(ctx context.Context, representativeID string) ([]domain.Product, error)
	DiscussedProductIDs(ctx context.Context, visitID string) ([]string, error)
	ReplaceDiscussedProducts(ctx context.Context, actor domain.Actor, visitID string, productIDs []string) ([]string, error)
}

type DiscussionServiceImpl struct {
	BaseService
	meetings repository.MeetingCommandRepository
	query    repository.MeetingQueryRepository
	catalog  repository.CatalogRepository
}

func NewDiscussionService(
	db DB,
	log *slog.Logger,
	meetings repository.MeetingCommandRepository,
	query repository.MeetingQueryRepository,
	catalog repository.CatalogRepository,
) *DiscussionServiceImpl {
	return &DiscussionServiceImpl{
		BaseService: NewBaseService(db, log),
		meetings:    meetings,
		query:       query,
		catalog:     catalog,
	}
}

func (s *DiscussionServiceImpl) AvailableProducts(ctx context.Context, representativeID string) ([]domain.Product, error) {
	const op = "internal.service.discussion.AvailableProducts"

	if _, err := s.catalog.GetRepresentative(ctx, representativeID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.catalog.GetAvailableProducts(ctx, representativeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return products, nil
}

func (s *DiscussionServiceImpl) DiscussedProductIDs(ctx context.Context, visitID string) ([]string, error) {
	const op = "internal.service.discussion.DiscussedProductIDs"

	if _, err := s.query.GetMeetingByID(ctx, visitID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := s.query.GetDiscussedProductIDs(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

// ReplaceDiscussedProducts swaps the whole selection of a visit in one
// transaction. An empty list clears it.
func (s *DiscussionServiceImpl) ReplaceDiscussedProducts(ctx context.Context, actor domain.Actor, visitID string, productIDs []string) ([]string, error) {
	const op = "internal.service.discussion.ReplaceDiscussedProducts"

	if err := requireRole(actor, op, domain.RoleRepresentative); err != nil {
		return nil, err
	}

	ids := uniqueIDs(productIDs)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		m, err := s.meetings.GetMeetingByIDWithLock(ctx, tx, visitID)
		if err != nil {
			return fmt.Errorf("%s: failed to get visit with lock: %w", op, err)
		}

		if err := requireOwner(actor, op, m.RepresentativeID); err != nil {
			return err
		}

		if len(ids) > 0 {
			available, err := s.catalog.GetAvailableProducts(ctx, m.RepresentativeID)
			if err != nil {
				return fmt.Errorf("%s: failed to get available products: %w", op, err)
			}

			if err := checkPermitted(available, ids); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if err := s.meetings.ReplaceDiscussedProducts(ctx, tx, visitID, ids); err != nil {
			return fmt.Errorf("%s: failed to replace discussed products: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("discussed products replaced",
		slog.String("op", op),
		slog.String("visit_id", visitID),
		slog.Int("products", len(ids)),
	)

	return ids, nil
}
