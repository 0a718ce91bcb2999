package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/YusovID/visit-planner/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"

	assignmentPairConstraint = "assignments_representative_doctor_key"
	activeMeetingConstraint  = "meetings_active_pair_key"
)

type Postgres struct {
	db *sqlx.DB
}

func NewDB(cfg config.Postgres, log *slog.Logger) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN()+"?sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Info("connected to postgres",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return &Postgres{db: db}, nil
}

func (p *Postgres) DB() *sqlx.DB {
	return p.db
}

func pqError(err error, code string) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == code {
		return pqErr, true
	}

	return nil, false
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := pqError(err, codeUniqueViolation)
	return ok && (constraint == "" || pqErr.Constraint == constraint)
}

// isMissing reports a lookup that matched nothing. An id that is not a
// valid uuid cannot match a row either.
func isMissing(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}

	_, ok := pqError(err, codeInvalidText)

	return ok
}

// isMissingReference reports a write that points at a row that does not exist.
func isMissingReference(err error) bool {
	if _, ok := pqError(err, codeForeignKeyViolation); ok {
		return true
	}

	_, ok := pqError(err, codeInvalidText)

	return ok
}
