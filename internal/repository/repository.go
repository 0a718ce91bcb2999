// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

// AssignmentCommandRepository defines write and locking operations on assignments, their
// product linkage and visit goals. All methods are expected to run within a transaction.
type AssignmentCommandRepository interface {
	// GetAssignmentByPairWithLock finds the assignment for a (representative, doctor) pair and
	// locks the row ("FOR UPDATE"). Returns apperrors.ErrNotFound if the pair has no assignment.
	GetAssignmentByPairWithLock(ctx context.Context, tx *sqlx.Tx, representativeID, doctorID string) (*domain.Assignment, error)

	// GetAssignmentByIDWithLock retrieves an assignment by ID and locks the row.
	// Returns apperrors.ErrNotFound if the assignment does not exist.
	GetAssignmentByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Assignment, error)

	// CreateAssignment inserts a new assignment.
	// Returns *apperrors.AssignmentAlreadyExistsError when the pair is already assigned and
	// apperrors.ErrNotFound when the representative or doctor does not exist.
	CreateAssignment(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment) error

	// UpdateAssignment overwrites visit days, time window and series parent of an assignment.
	UpdateAssignment(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment) error

	// DeleteAssignment removes an assignment; goal and products cascade.
	DeleteAssignment(ctx context.Context, tx *sqlx.Tx, id string) error

	// ReplaceAssignmentProducts deletes the whole product set of an assignment and inserts productIDs.
	ReplaceAssignmentProducts(ctx context.Context, tx *sqlx.Tx, assignmentID string, productIDs []string) error

	// UpsertVisitGoal inserts the goal or overwrites the existing one of the same assignment.
	UpsertVisitGoal(ctx context.Context, tx *sqlx.Tx, goal *domain.VisitGoal) error

	// DeleteVisitGoal removes the goal of an assignment. Deleting a missing goal is not an error.
	DeleteVisitGoal(ctx context.Context, tx *sqlx.Tx, assignmentID string) error

	// GetSeriesWithLock returns every assignment where id = parentID or recurring_parent_id = parentID
	// and locks them.
	GetSeriesWithLock(ctx context.Context, tx *sqlx.Tx, parentID string) ([]domain.Assignment, error)

	// PromoteSeriesChild makes the earliest created child of parentID the new series parent and
	// points the remaining children at it. Returns the new parent id, or "" when there are no children.
	PromoteSeriesChild(ctx context.Context, tx *sqlx.Tx, parentID string) (string, error)

	// DeleteSeries deletes every assignment of a series and reports how many were removed.
	DeleteSeries(ctx context.Context, tx *sqlx.Tx, parentID string) (int64, error)
}

// AssignmentQueryRepository defines read-only assignment operations.
type AssignmentQueryRepository interface {
	// GetVisitGoal returns the goal of an assignment or apperrors.ErrNotFound.
	// The ext argument allows this method to be executed within a transaction or directly on the DB.
	GetVisitGoal(ctx context.Context, ext sqlx.ExtContext, assignmentID string) (*domain.VisitGoal, error)

	// GetAssignmentDetails returns the assignment joined with representative, doctor, products and goal.
	GetAssignmentDetails(ctx context.Context, ext sqlx.ExtContext, id string) (*domain.AssignmentDetails, error)

	// ListAssignmentDetails returns joined assignments matching the filter.
	ListAssignmentDetails(ctx context.Context, filter domain.AssignmentFilter) ([]domain.AssignmentDetails, error)

	// CountAssignments returns the total number of assignments.
	CountAssignments(ctx context.Context) (int, error)
}

// CatalogRepository exposes the read-only lookups owned by the catalog screens.
type CatalogRepository interface {
	// GetRepresentative returns the representative with the name of their manager.
	GetRepresentative(ctx context.Context, id string) (*domain.Representative, error)

	// GetDoctor returns the doctor with their specialization.
	GetDoctor(ctx context.Context, id string) (*domain.Doctor, error)

	// GetAvailableProducts returns the products of every brand assigned to the representative.
	GetAvailableProducts(ctx context.Context, representativeID string) ([]domain.Product, error)
}

// MeetingCommandRepository defines write and locking operations on meetings.
// All methods are expected to be executed within a transaction.
type MeetingCommandRepository interface {
	// HasBlockingMeeting reports whether a meeting in progress or completed exists for the pair.
	HasBlockingMeeting(ctx context.Context, tx *sqlx.Tx, assignmentID, doctorID string) (bool, error)

	// CreateMeeting inserts a meeting. The partial unique index on active meetings turns a lost
	// race into *apperrors.ActiveMeetingExistsError.
	CreateMeeting(ctx context.Context, tx *sqlx.Tx, m *domain.Meeting) error

	// GetMeetingByIDWithLock retrieves a meeting and locks the row.
	GetMeetingByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Meeting, error)

	// UpdateMeetingStatus writes status, end time and notes of a meeting.
	UpdateMeetingStatus(ctx context.Context, tx *sqlx.Tx, m *domain.Meeting) error

	// AddMeetingProduct inserts a discussed product. It reports false when the product was
	// already attached to the meeting, leaving the existing row untouched.
	AddMeetingProduct(ctx context.Context, tx *sqlx.Tx, mp *domain.MeetingProduct) (bool, error)

	// UpdateMeetingProduct overwrites the discussed flag and notes of an attached product.
	UpdateMeetingProduct(ctx context.Context, tx *sqlx.Tx, mp *domain.MeetingProduct) error

	// RemoveMeetingProduct detaches a product from a meeting.
	RemoveMeetingProduct(ctx context.Context, tx *sqlx.Tx, meetingID, productID string) error

	// ReplaceDiscussedProducts deletes the discussed set of a visit and inserts productIDs.
	ReplaceDiscussedProducts(ctx context.Context, tx *sqlx.Tx, visitID string, productIDs []string) error
}

// MeetingQueryRepository defines read-only meeting operations.
type MeetingQueryRepository interface {
	GetMeetingByID(ctx context.Context, id string) (*domain.Meeting, error)

	// GetMeetingDetails returns the meeting joined with assignment, doctor, representative and products.
	GetMeetingDetails(ctx context.Context, id string) (*domain.MeetingDetails, error)

	ListMeetings(ctx context.Context, filter domain.MeetingFilter) ([]domain.Meeting, error)

	// GetMeetingProducts lists the products attached to a meeting.
	GetMeetingProducts(ctx context.Context, ext sqlx.ExtContext, meetingID string) ([]domain.MeetingProduct, error)

	// GetDiscussedProductIDs returns the current discussed selection of a visit.
	GetDiscussedProductIDs(ctx context.Context, visitID string) ([]string, error)

	// CountMeetingsByStatus groups meetings by status.
	CountMeetingsByStatus(ctx context.Context) ([]domain.StatusCount, error)
}
