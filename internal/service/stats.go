package service

import (
	"context"
	"fmt"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/repository"
)

type StatsService interface {
	Counters(ctx context.Context, actor domain.Actor) (*domain.Counters, error)
}

type StatsServiceImpl struct {
	assignments repository.AssignmentQueryRepository
	meetings    repository.MeetingQueryRepository
}

func NewStatsService(assignments repository.AssignmentQueryRepository, meetings repository.MeetingQueryRepository) *StatsServiceImpl {
	return &StatsServiceImpl{assignments: assignments, meetings: meetings}
}

func (s *StatsServiceImpl) Counters(ctx context.Context, actor domain.Actor) (*domain.Counters, error) {
	const op = "internal.service.stats.Counters"

	if err := requireRole(actor, op, domain.RoleManager, domain.RoleAdmin); err != nil {
		return nil, err
	}

	total, err := s.assignments.CountAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count assignments: %w", op, err)
	}

	byStatus, err := s.meetings.CountMeetingsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to count meetings: %w", op, err)
	}

	counters := &domain.Counters{
		TotalAssignments: total,
		MeetingsByStatus: make(map[domain.MeetingStatus]int, len(byStatus)),
	}

	for _, c := range byStatus {
		counters.MeetingsByStatus[c.Status] = c.Count
	}

	return counters, nil
}
