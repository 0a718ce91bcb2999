package service

import (
	"context"
	"database/sql"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type DBMock struct {
	mock.Mock
	sqlx.ExtContext
}

var _ DB = (*DBMock)(nil)

func (m *DBMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	var tx *sqlx.Tx

	args := m.Called(ctx, opts)
	if args.Get(0) != nil {
		tx = args.Get(0).(*sqlx.Tx)
	}

	return tx, args.Error(1)
}

type AssignmentCommandRepositoryMock struct {
	mock.Mock
}

var _ repository.AssignmentCommandRepository = (*AssignmentCommandRepositoryMock)(nil)

func (m *AssignmentCommandRepositoryMock) GetAssignmentByPairWithLock(ctx context.Context, tx *sqlx.Tx, representativeID, doctorID string) (*domain.Assignment, error) {
	args := m.Called(ctx, tx, representativeID, doctorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *AssignmentCommandRepositoryMock) GetAssignmentByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Assignment, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *AssignmentCommandRepositoryMock) CreateAssignment(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment) error {
	args := m.Called(ctx, tx, a)
	return args.Error(0)
}

func (m *AssignmentCommandRepositoryMock) UpdateAssignment(ctx context.Context, tx *sqlx.Tx, a *domain.Assignment) error {
	args := m.Called(ctx, tx, a)
	return args.Error(0)
}

func (m *AssignmentCommandRepositoryMock) DeleteAssignment(ctx context.Context, tx *sqlx.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *AssignmentCommandRepositoryMock) PromoteSeriesChild(ctx context.Context, tx *sqlx.Tx, parentID string) (string, error) {
	args := m.Called(ctx, tx, parentID)
	return args.String(0), args.Error(1)
}

func (m *AssignmentCommandRepositoryMock) ReplaceAssignmentProducts(ctx context.Context, tx *sqlx.Tx, assignmentID string, productIDs []string) error {
	args := m.Called(ctx, tx, assignmentID, productIDs)
	return args.Error(0)
}

func (m *AssignmentCommandRepositoryMock) UpsertVisitGoal(ctx context.Context, tx *sqlx.Tx, goal *domain.VisitGoal) error {
	args := m.Called(ctx, tx, goal)
	return args.Error(0)
}

func (m *AssignmentCommandRepositoryMock) DeleteVisitGoal(ctx context.Context, tx *sqlx.Tx, assignmentID string) error {
	args := m.Called(ctx, tx, assignmentID)
	return args.Error(0)
}

func (m *AssignmentCommandRepositoryMock) GetSeriesWithLock(ctx context.Context, tx *sqlx.Tx, parentID string) ([]domain.Assignment, error) {
	args := m.Called(ctx, tx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Assignment), args.Error(1)
}

func (m *AssignmentCommandRepositoryMock) DeleteSeries(ctx context.Context, tx *sqlx.Tx, parentID string) (int64, error) {
	args := m.Called(ctx, tx, parentID)
	return args.Get(0).(int64), args.Error(1)
}

type AssignmentQueryRepositoryMock struct {
	mock.Mock
}

var _ repository.AssignmentQueryRepository = (*AssignmentQueryRepositoryMock)(nil)

func (m *AssignmentQueryRepositoryMock) GetVisitGoal(ctx context.Context, ext sqlx.ExtContext, assignmentID string) (*domain.VisitGoal, error) {
	args := m.Called(ctx, ext, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.VisitGoal), args.Error(1)
}

func (m *AssignmentQueryRepositoryMock) GetAssignmentDetails(ctx context.Context, ext sqlx.ExtContext, id string) (*domain.AssignmentDetails, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentQueryRepositoryMock) ListAssignmentDetails(ctx context.Context, filter domain.AssignmentFilter) ([]domain.AssignmentDetails, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentQueryRepositoryMock) CountAssignments(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type CatalogRepositoryMock struct {
	mock.Mock
}

var _ repository.CatalogRepository = (*CatalogRepositoryMock)(nil)

func (m *CatalogRepositoryMock) GetRepresentative(ctx context.Context, id string) (*domain.Representative, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Representative), args.Error(1)
}

func (m *CatalogRepositoryMock) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Doctor), args.Error(1)
}

func (m *CatalogRepositoryMock) GetAvailableProducts(ctx context.Context, representativeID string) ([]domain.Product, error) {
	args := m.Called(ctx, representativeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Product), args.Error(1)
}

type MeetingCommandRepositoryMock struct {
	mock.Mock
}

var _ repository.MeetingCommandRepository = (*MeetingCommandRepositoryMock)(nil)

func (m *MeetingCommandRepositoryMock) HasBlockingMeeting(ctx context.Context, tx *sqlx.Tx, assignmentID, doctorID string) (bool, error) {
	args := m.Called(ctx, tx, assignmentID, doctorID)
	return args.Bool(0), args.Error(1)
}

func (m *MeetingCommandRepositoryMock) CreateMeeting(ctx context.Context, tx *sqlx.Tx, meeting *domain.Meeting) error {
	args := m.Called(ctx, tx, meeting)
	return args.Error(0)
}

func (m *MeetingCommandRepositoryMock) GetMeetingByIDWithLock(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Meeting, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MeetingCommandRepositoryMock) UpdateMeetingStatus(ctx context.Context, tx *sqlx.Tx, meeting *domain.Meeting) error {
	args := m.Called(ctx, tx, meeting)
	return args.Error(0)
}

func (m *MeetingCommandRepositoryMock) AddMeetingProduct(ctx context.Context, tx *sqlx.Tx, mp *domain.MeetingProduct) (bool, error) {
	args := m.Called(ctx, tx, mp)
	return args.Bool(0), args.Error(1)
}

func (m *MeetingCommandRepositoryMock) UpdateMeetingProduct(ctx context.Context, tx *sqlx.Tx, mp *domain.MeetingProduct) error {
	args := m.Called(ctx, tx, mp)
	return args.Error(0)
}

func (m *MeetingCommandRepositoryMock) RemoveMeetingProduct(ctx context.Context, tx *sqlx.Tx, meetingID, productID string) error {
	args := m.Called(ctx, tx, meetingID, productID)
	return args.Error(0)
}

func (m *MeetingCommandRepositoryMock) ReplaceDiscussedProducts(ctx context.Context, tx *sqlx.Tx, visitID string, productIDs []string) error {
	args := m.Called(ctx, tx, visitID, productIDs)
	return args.Error(0)
}

type MeetingQueryRepositoryMock struct {
	mock.Mock
}

var _ repository.MeetingQueryRepository = (*MeetingQueryRepositoryMock)(nil)

func (m *MeetingQueryRepositoryMock) GetMeetingByID(ctx context.Context, id string) (*domain.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MeetingQueryRepositoryMock) GetMeetingDetails(ctx context.Context, id string) (*domain.MeetingDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MeetingDetails), args.Error(1)
}

func (m *MeetingQueryRepositoryMock) ListMeetings(ctx context.Context, filter domain.MeetingFilter) ([]domain.Meeting, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Meeting), args.Error(1)
}

func (m *MeetingQueryRepositoryMock) GetMeetingProducts(ctx context.Context, ext sqlx.ExtContext, meetingID string) ([]domain.MeetingProduct, error) {
	args := m.Called(ctx, ext, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.MeetingProduct), args.Error(1)
}

func (m *MeetingQueryRepositoryMock) GetDiscussedProductIDs(ctx context.Context, visitID string) ([]string, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *MeetingQueryRepositoryMock) CountMeetingsByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

var _ Notifier = (*NotifierMock)(nil)

func (m *NotifierMock) NotifyPostponed(ctx context.Context, notice domain.PostponeNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
