package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seriesInput() SeriesInput {
	return SeriesInput{
		RepresentativeID: "rep-1",
		DoctorIDs:        []string{"doc-1", "doc-2", "doc-3", "doc-1"},
		ProductIDs:       []string{"p1"},
		StartTime:        domain.NewTimeOfDay(9, 0),
		EndTime:          domain.NewTimeOfDay(9, 30),
		Weekday:          domain.Wednesday,
		RecurringWeeks:   3,
		StartDate:        date(2024, 1, 1),
	}
}

func TestAssignmentServiceImpl_CreateWeeklySeries(t *testing.T) {
	ctx := context.Background()
	wantDates := []time.Time{date(2024, 1, 3), date(2024, 1, 10), date(2024, 1, 17)}

	t.Run("Success - failed doctor does not abort the batch", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx1, smock1 := newMockDBAndTx(t)
		smock1.ExpectCommit()
		_, tx3, smock3 := newMockDBAndTx(t)
		smock3.ExpectCommit()

		var parentID string

		m.catalog.On("GetRepresentative", ctx, "rep-1").Return(&domain.Representative{ID: "rep-1"}, nil).Once()
		m.catalog.On("GetDoctor", ctx, "doc-1").Return(&domain.Doctor{ID: "doc-1"}, nil).Once()
		m.catalog.On("GetDoctor", ctx, "doc-2").Return(nil, notFound("doctor")).Once()
		m.catalog.On("GetDoctor", ctx, "doc-3").Return(&domain.Doctor{ID: "doc-3"}, nil).Once()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx1, nil).Once()
		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx3, nil).Once()

		m.cmd.On("GetAssignmentByPairWithLock", ctx, tx1, "rep-1", "doc-1").Return(nil, notFound("pair")).Once()
		m.cmd.On("GetAssignmentByPairWithLock", ctx, tx3, "rep-1", "doc-3").Return(nil, notFound("pair")).Once()
		m.cmd.On("CreateAssignment", ctx, tx1, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.DoctorID == "doc-1" && a.RecurringParentID == nil &&
				assert.ObjectsAreEqual(domain.Weekdays{domain.Wednesday}, a.VisitDays)
		})).Run(func(args mock.Arguments) {
			parentID = args.Get(2).(*domain.Assignment).ID
		}).Return(nil).Once()
		m.cmd.On("CreateAssignment", ctx, tx3, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.DoctorID == "doc-3" && a.RecurringParentID != nil && *a.RecurringParentID == parentID
		})).Return(nil).Once()

		for _, tx := range []any{tx1, tx3} {
			m.cmd.On("ReplaceAssignmentProducts", ctx, tx, mock.AnythingOfType("string"), []string{"p1"}).Return(nil).Once()
			m.cmd.On("UpsertVisitGoal", ctx, tx, mock.MatchedBy(func(g *domain.VisitGoal) bool {
				return g.VisitsPerWeek == 1 && g.RecurringWeeks == 3 &&
					g.StartDate != nil && g.StartDate.Equal(date(2024, 1, 3))
			})).Return(nil).Once()
		}

		result, err := m.service().CreateWeeklySeries(ctx, managerActor, seriesInput())

		require.NoError(t, err)
		require.Len(t, result.Items, 3)
		assert.Equal(t, parentID, result.ParentID)

		assert.Equal(t, "doc-1", result.Items[0].DoctorID)
		assert.Equal(t, parentID, result.Items[0].AssignmentID)
		assert.NoError(t, result.Items[0].Err)
		assert.Equal(t, wantDates, result.Items[0].Dates)

		assert.Equal(t, "doc-2", result.Items[1].DoctorID)
		assert.Empty(t, result.Items[1].AssignmentID)
		assert.ErrorIs(t, result.Items[1].Err, apperrors.ErrValidation)

		assert.Equal(t, "doc-3", result.Items[2].DoctorID)
		assert.NotEmpty(t, result.Items[2].AssignmentID)

		assert.Len(t, result.Failed(), 1)
		m.assertExpectations(t)
	})

	t.Run("Success - assigned doctor joins the series as parent", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx1, smock1 := newMockDBAndTx(t)
		smock1.ExpectCommit()
		_, tx2, smock2 := newMockDBAndTx(t)
		smock2.ExpectCommit()

		in := seriesInput()
		in.DoctorIDs = []string{"doc-1", "doc-2"}

		existing := &domain.Assignment{
			ID:               "a-1",
			RepresentativeID: "rep-1",
			DoctorID:         "doc-1",
			VisitDays:        domain.Weekdays{domain.Monday, domain.Friday},
			StartTime:        domain.NewTimeOfDay(14, 0),
			EndTime:          domain.NewTimeOfDay(15, 0),
		}

		m.catalog.On("GetRepresentative", ctx, "rep-1").Return(&domain.Representative{ID: "rep-1"}, nil).Once()
		m.catalog.On("GetDoctor", ctx, "doc-1").Return(&domain.Doctor{ID: "doc-1"}, nil).Once()
		m.catalog.On("GetDoctor", ctx, "doc-2").Return(&domain.Doctor{ID: "doc-2"}, nil).Once()
		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx1, nil).Once()
		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx2, nil).Once()

		m.cmd.On("GetAssignmentByPairWithLock", ctx, tx1, "rep-1", "doc-1").Return(existing, nil).Once()
		m.cmd.On("PromoteSeriesChild", ctx, tx1, "a-1").Return("", nil).Once()
		m.cmd.On("UpdateAssignment", ctx, tx1, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.ID == "a-1" && a.RecurringParentID == nil &&
				assert.ObjectsAreEqual(domain.Weekdays{domain.Wednesday}, a.VisitDays) &&
				a.StartTime == domain.NewTimeOfDay(9, 0) && a.EndTime == domain.NewTimeOfDay(9, 30)
		})).Return(nil).Once()
		m.cmd.On("ReplaceAssignmentProducts", ctx, tx1, "a-1", []string{"p1"}).Return(nil).Once()
		m.cmd.On("UpsertVisitGoal", ctx, tx1, mock.MatchedBy(func(g *domain.VisitGoal) bool {
			return g.AssignmentID == "a-1" && g.RecurringWeeks == 3
		})).Return(nil).Once()

		m.cmd.On("GetAssignmentByPairWithLock", ctx, tx2, "rep-1", "doc-2").Return(nil, notFound("pair")).Once()
		m.cmd.On("CreateAssignment", ctx, tx2, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.DoctorID == "doc-2" && a.RecurringParentID != nil && *a.RecurringParentID == "a-1"
		})).Return(nil).Once()
		m.cmd.On("ReplaceAssignmentProducts", ctx, tx2, mock.AnythingOfType("string"), []string{"p1"}).Return(nil).Once()
		m.cmd.On("UpsertVisitGoal", ctx, tx2, mock.Anything).Return(nil).Once()

		result, err := m.service().CreateWeeklySeries(ctx, managerActor, in)

		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Empty(t, result.Failed())
		assert.Equal(t, "a-1", result.ParentID)
		assert.Equal(t, "a-1", result.Items[0].AssignmentID)
		m.assertExpectations(t)
	})

	t.Run("Success - concurrent insert is retried as update", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx1, smock1 := newMockDBAndTx(t)
		smock1.ExpectRollback()
		_, tx2, smock2 := newMockDBAndTx(t)
		smock2.ExpectCommit()

		in := seriesInput()
		in.DoctorIDs = []string{"doc-1"}

		m.catalog.On("GetRepresentative", ctx, "rep-1").Return(&domain.Representative{ID: "rep-1"}, nil).Once()
		m.catalog.On("GetDoctor", ctx, "doc-1").Return(&domain.Doctor{ID: "doc-1"}, nil).Once()
		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx1, nil).Once()
		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx2, nil).Once()

		m.cmd.On("GetAssignmentByPairWithLock", ctx, tx1, "rep-1", "doc-1").Return(nil, notFound("pair")).Once()
		m.cmd.On("CreateAssignment", ctx, tx1, mock.Anything).
			Return(&apperrors.AssignmentAlreadyExistsError{RepresentativeID: "rep-1", DoctorID: "doc-1"}).Once()

		m.cmd.On("GetAssignmentByPairWithLock", ctx, tx2, "rep-1", "doc-1").
			Return(&domain.Assignment{ID: "a-1", RepresentativeID: "rep-1", DoctorID: "doc-1", RecurringParentID: strPtr("old")}, nil).Once()
		m.cmd.On("UpdateAssignment", ctx, tx2, mock.MatchedBy(func(a *domain.Assignment) bool {
			return a.ID == "a-1" && a.RecurringParentID == nil
		})).Return(nil).Once()
		m.cmd.On("ReplaceAssignmentProducts", ctx, tx2, "a-1", []string{"p1"}).Return(nil).Once()
		m.cmd.On("UpsertVisitGoal", ctx, tx2, mock.Anything).Return(nil).Once()

		result, err := m.service().CreateWeeklySeries(ctx, managerActor, in)

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.NoError(t, result.Items[0].Err)
		assert.Equal(t, "a-1", result.ParentID)
		m.assertExpectations(t)
	})

	t.Run("Failure - zero weeks", func(t *testing.T) {
		m := newAssignmentMocks()
		in := seriesInput()
		in.RecurringWeeks = 0

		_, err := m.service().CreateWeeklySeries(ctx, managerActor, in)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		m.assertExpectations(t)
	})

	t.Run("Failure - unknown weekday", func(t *testing.T) {
		m := newAssignmentMocks()
		in := seriesInput()
		in.Weekday = "someday"

		_, err := m.service().CreateWeeklySeries(ctx, managerActor, in)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		m.assertExpectations(t)
	})

	t.Run("Failure - representative role", func(t *testing.T) {
		m := newAssignmentMocks()

		_, err := m.service().CreateWeeklySeries(ctx, repActor, seriesInput())

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		m.assertExpectations(t)
	})
}

func TestAssignmentServiceImpl_UpdateWeeklySeries(t *testing.T) {
	ctx := context.Background()

	series := []domain.Assignment{
		{ID: "parent", VisitDays: domain.Weekdays{domain.Wednesday}, StartTime: domain.NewTimeOfDay(9, 0), EndTime: domain.NewTimeOfDay(10, 0)},
		{ID: "child", VisitDays: domain.Weekdays{domain.Wednesday}, StartTime: domain.NewTimeOfDay(9, 0), EndTime: domain.NewTimeOfDay(10, 0), RecurringParentID: strPtr("parent")},
	}

	t.Run("Success - weekday change moves every window", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		start := date(2024, 1, 3)

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()
		m.cmd.On("GetSeriesWithLock", ctx, tx, "parent").Return(append([]domain.Assignment(nil), series...), nil).Once()

		for _, id := range []string{"parent", "child"} {
			m.cmd.On("UpdateAssignment", ctx, tx, mock.MatchedBy(func(a *domain.Assignment) bool {
				return a.ID == id && assert.ObjectsAreEqual(domain.Weekdays{domain.Friday}, a.VisitDays)
			})).Return(nil).Once()
			m.query.On("GetVisitGoal", ctx, tx, id).Return(&domain.VisitGoal{AssignmentID: id, VisitsPerWeek: 1, StartDate: &start, RecurringWeeks: 3}, nil).Once()
			m.cmd.On("UpsertVisitGoal", ctx, tx, mock.MatchedBy(func(g *domain.VisitGoal) bool {
				return g.AssignmentID == id && g.RecurringWeeks == 5 && g.StartDate.Equal(date(2024, 1, 5))
			})).Return(nil).Once()
			m.query.On("GetAssignmentDetails", ctx, tx, id).Return(&domain.AssignmentDetails{Assignment: domain.Assignment{ID: id}}, nil).Once()
		}

		updated, err := m.service().UpdateWeeklySeries(ctx, managerActor, "parent", SeriesUpdate{
			Weekday:        domain.Value(domain.Friday),
			RecurringWeeks: domain.Value(5),
		})

		require.NoError(t, err)
		require.Len(t, updated, 2)
		assert.Equal(t, "parent", updated[0].ID)
		assert.Equal(t, "child", updated[1].ID)
		m.assertExpectations(t)
	})

	t.Run("Failure - unknown series", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx, smock := newMockDBAndTx(t)
		smock.ExpectRollback()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()
		m.cmd.On("GetSeriesWithLock", ctx, tx, "nope").Return([]domain.Assignment{}, nil).Once()

		_, err := m.service().UpdateWeeklySeries(ctx, managerActor, "nope", SeriesUpdate{StartTime: domain.Value(domain.NewTimeOfDay(8, 0))})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		m.assertExpectations(t)
	})

	t.Run("Failure - start date cannot be cleared", func(t *testing.T) {
		m := newAssignmentMocks()

		_, err := m.service().UpdateWeeklySeries(ctx, managerActor, "parent", SeriesUpdate{StartDate: domain.Null[time.Time]()})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		m.assertExpectations(t)
	})
}

func TestAssignmentServiceImpl_DeleteWeeklySeries(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - removes every row of the series", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()
		m.cmd.On("DeleteSeries", ctx, tx, "parent").Return(int64(3), nil).Once()

		removed, err := m.service().DeleteWeeklySeries(ctx, managerActor, "parent")

		require.NoError(t, err)
		assert.Equal(t, int64(3), removed)
		m.assertExpectations(t)
	})

	t.Run("Failure - nothing matched", func(t *testing.T) {
		m := newAssignmentMocks()
		_, tx, smock := newMockDBAndTx(t)
		smock.ExpectRollback()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()
		m.cmd.On("DeleteSeries", ctx, tx, "parent").Return(int64(0), nil).Once()

		_, err := m.service().DeleteWeeklySeries(ctx, managerActor, "parent")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		m.assertExpectations(t)
	})
}

func TestAssignmentServiceImpl_Calendar(t *testing.T) {
	ctx := context.Background()
	m := newAssignmentMocks()

	start := date(2024, 1, 3)
	bounded := domain.AssignmentDetails{
		Assignment: domain.Assignment{
			ID: "bounded", VisitDays: domain.Weekdays{domain.Wednesday},
			StartTime: domain.NewTimeOfDay(11, 0), EndTime: domain.NewTimeOfDay(12, 0),
		},
		Goal: &domain.VisitGoal{VisitsPerWeek: 1, StartDate: &start, RecurringWeeks: 3},
	}
	open := domain.AssignmentDetails{
		Assignment: domain.Assignment{
			ID: "open", VisitDays: domain.Weekdays{domain.Monday, domain.Wednesday},
			StartTime: domain.NewTimeOfDay(9, 0), EndTime: domain.NewTimeOfDay(10, 0),
		},
	}

	filter := domain.AssignmentFilter{RepresentativeID: "rep-1"}
	m.query.On("ListAssignmentDetails", ctx, filter).Return([]domain.AssignmentDetails{bounded, open}, nil).Times(3)

	testCases := []struct {
		name      string
		weekStart time.Time
		want      []string
	}{
		{
			name:      "Week before the window starts",
			weekStart: date(2024, 1, 1),
			want:      []string{"2024-01-01 open", "2024-01-03 open", "2024-01-03 bounded"},
		},
		{
			name:      "Last week of the window",
			weekStart: date(2024, 1, 15),
			want:      []string{"2024-01-15 open", "2024-01-17 open", "2024-01-17 bounded"},
		},
		{
			name:      "After the window ends",
			weekStart: date(2024, 1, 22),
			want:      []string{"2024-01-22 open", "2024-01-24 open"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := m.service().Calendar(ctx, "rep-1", tc.weekStart)
			require.NoError(t, err)

			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.Date.Format(time.DateOnly) + " " + e.Assignment.ID
			}

			assert.Equal(t, tc.want, got)
		})
	}

	m.assertExpectations(t)

	_, err := m.service().Calendar(ctx, "", date(2024, 1, 1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
