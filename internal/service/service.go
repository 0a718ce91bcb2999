package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DB opens transactions for writes and serves plain reads.
type DB interface {
	Transactor
	sqlx.ExtContext
}

type BaseService struct {
	db  DB
	log *slog.Logger
	now func() time.Time
}

func NewBaseService(db DB, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, used by tests.
func (s *BaseService) WithClock(now func() time.Time) {
	s.now = now
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

func requireRole(actor domain.Actor, op string, roles ...domain.Role) error {
	if actor.ID == "" {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUnauthorized)
	}

	if !actor.HasRole(roles...) {
		return fmt.Errorf("%s: %w: role '%s' is not one of %v", op, apperrors.ErrForbidden, actor.Role, roles)
	}

	return nil
}

func requireOwner(actor domain.Actor, op, representativeID string) error {
	if actor.ID != representativeID {
		return fmt.Errorf("%s: %w: meeting belongs to another representative", op, apperrors.ErrForbidden)
	}

	return nil
}

// uniqueIDs drops empty and repeated ids keeping the first occurrence order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
