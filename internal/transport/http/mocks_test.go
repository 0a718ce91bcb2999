package http

import (
	"context"
	"time"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/service"
	"github.com/stretchr/testify/mock"
)

type AssignmentServiceMock struct {
	mock.Mock
}

var _ service.AssignmentService = (*AssignmentServiceMock)(nil)

func (m *AssignmentServiceMock) CreateOrUpdateAssignment(ctx context.Context, actor domain.Actor, in service.AssignmentInput) (*domain.AssignmentDetails, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentServiceMock) UpdateAssignment(ctx context.Context, actor domain.Actor, id string, upd service.AssignmentUpdate) (*domain.AssignmentDetails, error) {
	args := m.Called(ctx, actor, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentServiceMock) DeleteAssignment(ctx context.Context, actor domain.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *AssignmentServiceMock) GetAssignment(ctx context.Context, id string) (*domain.AssignmentDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentServiceMock) ListAssignments(ctx context.Context, filter domain.AssignmentFilter) ([]domain.AssignmentDetails, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentServiceMock) CreateWeeklySeries(ctx context.Context, actor domain.Actor, in service.SeriesInput) (*domain.SeriesResult, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SeriesResult), args.Error(1)
}

func (m *AssignmentServiceMock) UpdateWeeklySeries(ctx context.Context, actor domain.Actor, parentID string, upd service.SeriesUpdate) ([]domain.AssignmentDetails, error) {
	args := m.Called(ctx, actor, parentID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.AssignmentDetails), args.Error(1)
}

func (m *AssignmentServiceMock) DeleteWeeklySeries(ctx context.Context, actor domain.Actor, parentID string) (int64, error) {
	args := m.Called(ctx, actor, parentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AssignmentServiceMock) Calendar(ctx context.Context, representativeID string, weekStart time.Time) ([]domain.CalendarEntry, error) {
	args := m.Called(ctx, representativeID, weekStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.CalendarEntry), args.Error(1)
}

type MeetingServiceMock struct {
	mock.Mock
}

var _ service.MeetingService = (*MeetingServiceMock)(nil)

func (m *MeetingServiceMock) meeting(args mock.Arguments) (*domain.Meeting, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MeetingServiceMock) products(args mock.Arguments) ([]domain.MeetingProduct, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.MeetingProduct), args.Error(1)
}

func (m *MeetingServiceMock) Start(ctx context.Context, actor domain.Actor, in service.StartMeetingInput) (*domain.Meeting, error) {
	return m.meeting(m.Called(ctx, actor, in))
}

func (m *MeetingServiceMock) Postpone(ctx context.Context, actor domain.Actor, meetingID, reason string) (*domain.Meeting, error) {
	return m.meeting(m.Called(ctx, actor, meetingID, reason))
}

func (m *MeetingServiceMock) End(ctx context.Context, actor domain.Actor, meetingID string, notes *string) (*domain.Meeting, error) {
	return m.meeting(m.Called(ctx, actor, meetingID, notes))
}

func (m *MeetingServiceMock) AddMeetingProduct(ctx context.Context, actor domain.Actor, in service.MeetingProductInput) ([]domain.MeetingProduct, error) {
	return m.products(m.Called(ctx, actor, in))
}

func (m *MeetingServiceMock) UpdateMeetingProduct(ctx context.Context, actor domain.Actor, in service.MeetingProductInput) ([]domain.MeetingProduct, error) {
	return m.products(m.Called(ctx, actor, in))
}

func (m *MeetingServiceMock) RemoveMeetingProduct(ctx context.Context, actor domain.Actor, meetingID, productID string) error {
	args := m.Called(ctx, actor, meetingID, productID)
	return args.Error(0)
}

func (m *MeetingServiceMock) ProductsForMeeting(ctx context.Context, meetingID string) (*domain.MeetingProducts, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MeetingProducts), args.Error(1)
}

func (m *MeetingServiceMock) GetMeeting(ctx context.Context, id string) (*domain.MeetingDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.MeetingDetails), args.Error(1)
}

func (m *MeetingServiceMock) ListMeetings(ctx context.Context, filter domain.MeetingFilter) ([]domain.Meeting, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Meeting), args.Error(1)
}

type DiscussionServiceMock struct {
	mock.Mock
}

var _ service.DiscussionService = (*DiscussionServiceMock)(nil)

func (m *DiscussionServiceMock) AvailableProducts(ctx context.Context, representativeID string) ([]domain.Product, error) {
	args := m.Called(ctx, representativeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *DiscussionServiceMock) DiscussedProductIDs(ctx context.Context, visitID string) ([]string, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

func (m *DiscussionServiceMock) ReplaceDiscussedProducts(ctx context.Context, actor domain.Actor, visitID string, productIDs []string) ([]string, error) {
	args := m.Called(ctx, actor, visitID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

type StatsServiceMock struct {
	mock.Mock
}

func (m *StatsServiceMock) Counters(ctx context.Context, actor domain.Actor) (*domain.Counters, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Counters), args.Error(1)
}

type PingerMock struct {
	mock.Mock
}

func (m *PingerMock) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// staticTokens maps fixed bearer tokens to actors.
type staticTokens map[string]domain.Actor

func (t staticTokens) Parse(token string) (domain.Actor, error) {
	actor, ok := t[token]
	if !ok {
		return domain.Actor{}, apperrors.ErrUnauthorized
	}

	return actor, nil
}
