package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/repository"
	"github.com/YusovID/visit-planner/internal/validation"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MeetingService interface {
	Start(ctx context.Context, actor domain.Actor, in StartMeetingInput) (*domain.Meeting, error)
	Postpone(ctx context.Context, actor domain.Actor, meetingID, reason string) (*domain.Meeting, error)
	End(ctx context.Context, actor domain.Actor, meetingID string, notes *string) (*domain.Meeting, error)

	AddMeetingProduct(ctx context.Context, actor domain.Actor, in MeetingProductInput) ([]domain.MeetingProduct, error)
	UpdateMeetingProduct(ctx context.Context, actor domain.Actor, in MeetingProductInput) ([]domain.MeetingProduct, error)
	RemoveMeetingProduct(ctx context.Context, actor domain.Actor, meetingID, productID string) error
	ProductsForMeeting(ctx context.Context, meetingID string) (*domain.MeetingProducts, error)

	GetMeeting(ctx context.Context, id string) (*domain.MeetingDetails, error)
	ListMeetings(ctx context.Context, filter domain.MeetingFilter) ([]domain.Meeting, error)
}

type StartMeetingInput struct {
	AssignmentID     string `validate:"required"`
	DoctorID         string `validate:"required"`
	RepresentativeID string `validate:"required"`
}

type MeetingProductInput struct {
	MeetingID string `validate:"required"`
	ProductID string `validate:"required"`
	Discussed bool
	Notes     *string
}

type MeetingServiceImpl struct {
	BaseService
	assignments repository.AssignmentCommandRepository
	cmd         repository.MeetingCommandRepository
	query       repository.MeetingQueryRepository
	catalog     repository.CatalogRepository
	notifier    Notifier
}

func NewMeetingService(
	db DB,
	log *slog.Logger,
	assignments repository.AssignmentCommandRepository,
	cmd repository.MeetingCommandRepository,
	query repository.MeetingQueryRepository,
	catalog repository.CatalogRepository,
	notifier Notifier,
) *MeetingServiceImpl {
	return &MeetingServiceImpl{
		BaseService: NewBaseService(db, log),
		assignments: assignments,
		cmd:         cmd,
		query:       query,
		catalog:     catalog,
		notifier:    notifier,
	}
}

func (s *MeetingServiceImpl) Start(ctx context.Context, actor domain.Actor, in StartMeetingInput) (*domain.Meeting, error) {
	const op = "internal.service.meeting.Start"
	log := s.log.With(
		slog.String("op", op),
		slog.String("assignment_id", in.AssignmentID),
		slog.String("doctor_id", in.DoctorID),
	)

	if err := requireRole(actor, op, domain.RoleRepresentative); err != nil {
		return nil, err
	}

	if err := validation.ValidateStruct(in); err != nil {
		return nil, err
	}

	if err := requireOwner(actor, op, in.RepresentativeID); err != nil {
		return nil, err
	}

	now := s.now()
	m := &domain.Meeting{
		ID:               uuid.NewString(),
		AssignmentID:     in.AssignmentID,
		DoctorID:         in.DoctorID,
		RepresentativeID: in.RepresentativeID,
		StartTime:        &now,
		Status:           domain.MeetingInProgress,
	}

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		a, err := s.assignments.GetAssignmentByIDWithLock(ctx, tx, in.AssignmentID)
		if err != nil {
			return fmt.Errorf("%s: failed to get assignment with lock: %w", op, err)
		}

		if a.RepresentativeID != in.RepresentativeID {
			return fmt.Errorf("%s: %w: assignment belongs to another representative", op, apperrors.ErrForbidden)
		}

		if a.DoctorID != in.DoctorID {
			return validation.Errorf("assignment '%s' is not for doctor '%s'", in.AssignmentID, in.DoctorID)
		}

		blocked, err := s.cmd.HasBlockingMeeting(ctx, tx, in.AssignmentID, in.DoctorID)
		if err != nil {
			return fmt.Errorf("%s: failed to check existing meetings: %w", op, err)
		}

		if blocked {
			return &apperrors.ActiveMeetingExistsError{AssignmentID: in.AssignmentID, DoctorID: in.DoctorID}
		}

		return s.cmd.CreateMeeting(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}

	meetingTransitionsTotal.WithLabelValues(string(domain.MeetingInProgress)).Inc()
	log.Info("meeting started", slog.String("meeting_id", m.ID))

	return m, nil
}

func (s *MeetingServiceImpl) Postpone(ctx context.Context, actor domain.Actor, meetingID, reason string) (*domain.Meeting, error) {
	const op = "internal.service.meeting.Postpone"
	log := s.log.With(slog.String("op", op), slog.String("meeting_id", meetingID))

	if err := requireRole(actor, op, domain.RoleRepresentative); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validation.Errorf("field 'reason' is required to postpone a meeting")
	}

	m, err := s.transition(ctx, op, actor, meetingID, func(m *domain.Meeting) {
		m.Status = domain.MeetingPostponed
		m.Notes = &reason
	})
	if err != nil {
		return nil, err
	}

	meetingTransitionsTotal.WithLabelValues(string(domain.MeetingPostponed)).Inc()
	log.Info("meeting postponed")

	s.notifyPostponed(ctx, m, reason)

	return m, nil
}

func (s *MeetingServiceImpl) End(ctx context.Context, actor domain.Actor, meetingID string, notes *string) (*domain.Meeting, error) {
	const op = "internal.service.meeting.End"

	if err := requireRole(actor, op, domain.RoleRepresentative); err != nil {
		return nil, err
	}

	now := s.now()

	m, err := s.transition(ctx, op, actor, meetingID, func(m *domain.Meeting) {
		m.Status = domain.MeetingCompleted
		m.EndTime = &now
		m.Notes = notes
	})
	if err != nil {
		return nil, err
	}

	meetingTransitionsTotal.WithLabelValues(string(domain.MeetingCompleted)).Inc()
	s.log.Info("meeting ended", slog.String("op", op), slog.String("meeting_id", meetingID))

	return m, nil
}

// transition moves an in-progress meeting owned by actor to the state set by apply.
func (s *MeetingServiceImpl) transition(ctx context.Context, op string, actor domain.Actor, meetingID string, apply func(m *domain.Meeting)) (*domain.Meeting, error) {
	var m *domain.Meeting

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		m, err = s.cmd.GetMeetingByIDWithLock(ctx, tx, meetingID)
		if err != nil {
			return fmt.Errorf("%s: failed to get meeting with lock: %w", op, err)
		}

		if err := requireOwner(actor, op, m.RepresentativeID); err != nil {
			return err
		}

		if m.Status != domain.MeetingInProgress {
			return fmt.Errorf("%s: %w: meeting is %s", op, apperrors.ErrInvalidTransition, m.Status)
		}

		apply(m)

		if err := s.cmd.UpdateMeetingStatus(ctx, tx, m); err != nil {
			return fmt.Errorf("%s: failed to update meeting: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// notifyPostponed informs the manager after the transaction has committed.
// Failures never reach the caller.
func (s *MeetingServiceImpl) notifyPostponed(ctx context.Context, m *domain.Meeting, reason string) {
	const op = "internal.service.meeting.notifyPostponed"
	log := s.log.With(slog.String("op", op), slog.String("meeting_id", m.ID))

	notice := domain.PostponeNotice{
		MeetingID:        m.ID,
		RepresentativeID: m.RepresentativeID,
		Reason:           reason,
	}

	rep, err := s.catalog.GetRepresentative(ctx, m.RepresentativeID)
	if err != nil {
		log.Warn("failed to look up manager for notification", sl.Err(err))
	} else {
		notice.RepresentativeName = rep.Name
		if rep.ManagerName != nil {
			notice.ManagerName = *rep.ManagerName
		}
	}

	if err := s.notifier.NotifyPostponed(ctx, notice); err != nil {
		log.Warn("failed to notify manager about postponed meeting", sl.Err(err))
	}
}

func (s *MeetingServiceImpl) AddMeetingProduct(ctx context.Context, actor domain.Actor, in MeetingProductInput) ([]domain.MeetingProduct, error) {
	const op = "internal.service.meeting.AddMeetingProduct"

	if err := validation.ValidateStruct(in); err != nil {
		return nil, err
	}

	return s.changeProducts(ctx, op, actor, in.MeetingID, in.ProductID, func(tx *sqlx.Tx) error {
		mp := &domain.MeetingProduct{MeetingID: in.MeetingID, ProductID: in.ProductID, Discussed: in.Discussed, Notes: in.Notes}

		added, err := s.cmd.AddMeetingProduct(ctx, tx, mp)
		if err != nil {
			return fmt.Errorf("%s: failed to add product: %w", op, err)
		}

		if !added {
			s.log.Debug("product already attached to meeting",
				slog.String("op", op),
				slog.String("meeting_id", in.MeetingID),
				slog.String("product_id", in.ProductID),
			)
		}

		return nil
	})
}

func (s *MeetingServiceImpl) UpdateMeetingProduct(ctx context.Context, actor domain.Actor, in MeetingProductInput) ([]domain.MeetingProduct, error) {
	const op = "internal.service.meeting.UpdateMeetingProduct"

	if err := validation.ValidateStruct(in); err != nil {
		return nil, err
	}

	return s.changeProducts(ctx, op, actor, in.MeetingID, "", func(tx *sqlx.Tx) error {
		mp := &domain.MeetingProduct{MeetingID: in.MeetingID, ProductID: in.ProductID, Discussed: in.Discussed, Notes: in.Notes}

		if err := s.cmd.UpdateMeetingProduct(ctx, tx, mp); err != nil {
			return fmt.Errorf("%s: failed to update product: %w", op, err)
		}

		return nil
	})
}

func (s *MeetingServiceImpl) RemoveMeetingProduct(ctx context.Context, actor domain.Actor, meetingID, productID string) error {
	const op = "internal.service.meeting.RemoveMeetingProduct"

	_, err := s.changeProducts(ctx, op, actor, meetingID, "", func(tx *sqlx.Tx) error {
		if err := s.cmd.RemoveMeetingProduct(ctx, tx, meetingID, productID); err != nil {
			return fmt.Errorf("%s: failed to remove product: %w", op, err)
		}

		return nil
	})

	return err
}

// changeProducts locks the meeting, checks ownership and, when permitProductID
// is set, that the product is in the representative's catalog before running fn.
func (s *MeetingServiceImpl) changeProducts(ctx context.Context, op string, actor domain.Actor, meetingID, permitProductID string, fn func(tx *sqlx.Tx) error) ([]domain.MeetingProduct, error) {
	if err := requireRole(actor, op, domain.RoleRepresentative); err != nil {
		return nil, err
	}

	var products []domain.MeetingProduct

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		m, err := s.cmd.GetMeetingByIDWithLock(ctx, tx, meetingID)
		if err != nil {
			return fmt.Errorf("%s: failed to get meeting with lock: %w", op, err)
		}

		if err := requireOwner(actor, op, m.RepresentativeID); err != nil {
			return err
		}

		if permitProductID != "" {
			if err := s.ensurePermitted(ctx, m.RepresentativeID, permitProductID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if err := fn(tx); err != nil {
			return err
		}

		products, err = s.query.GetMeetingProducts(ctx, tx, meetingID)
		if err != nil {
			return fmt.Errorf("%s: failed to list meeting products: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (s *MeetingServiceImpl) ensurePermitted(ctx context.Context, representativeID string, productIDs ...string) error {
	available, err := s.catalog.GetAvailableProducts(ctx, representativeID)
	if err != nil {
		return fmt.Errorf("failed to get available products: %w", err)
	}

	return checkPermitted(available, productIDs)
}

func (s *MeetingServiceImpl) ProductsForMeeting(ctx context.Context, meetingID string) (*domain.MeetingProducts, error) {
	const op = "internal.service.meeting.ProductsForMeeting"

	m, err := s.query.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doctor, err := s.catalog.GetDoctor(ctx, m.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get doctor: %w", op, err)
	}

	available, err := s.catalog.GetAvailableProducts(ctx, m.RepresentativeID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get available products: %w", op, err)
	}

	partition := partitionProducts(available, doctor.SpecializationID)

	return &partition, nil
}

func (s *MeetingServiceImpl) GetMeeting(ctx context.Context, id string) (*domain.MeetingDetails, error) {
	const op = "internal.service.meeting.GetMeeting"

	details, err := s.query.GetMeetingDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return details, nil
}

func (s *MeetingServiceImpl) ListMeetings(ctx context.Context, filter domain.MeetingFilter) ([]domain.Meeting, error) {
	const op = "internal.service.meeting.ListMeetings"

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validation.Errorf("unknown meeting status '%s'", filter.Status)
	}

	meetings, err := s.query.ListMeetings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return meetings, nil
}

// partitionProducts splits products into those whose priority list names
// the doctor's specialization and the rest. Both slices are never nil.
func partitionProducts(products []domain.Product, specializationID *string) domain.MeetingProducts {
	partition := domain.MeetingProducts{
		Priority: []domain.Product{},
		Other:    []domain.Product{},
	}

	for _, p := range products {
		if specializationID != nil && p.PrioritySpecializationIDs.Contains(*specializationID) {
			partition.Priority = append(partition.Priority, p)
			continue
		}

		partition.Other = append(partition.Other, p)
	}

	return partition
}

func checkPermitted(available []domain.Product, productIDs []string) error {
	permitted := make(map[string]struct{}, len(available))
	for _, p := range available {
		permitted[p.ID] = struct{}{}
	}

	for _, id := range productIDs {
		if _, ok := permitted[id]; !ok {
			return fmt.Errorf("%w: '%s'", apperrors.ErrProductNotPermitted, id)
		}
	}

	return nil
}
