package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrConflict      = errors.New("conflict")

	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation failed")

	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("actor is not allowed to perform this action")

	ErrVisitAlreadyActive  = errors.New("visit already active or completed")
	ErrInvalidTransition   = errors.New("meeting status does not allow this transition")
	ErrProductNotPermitted = errors.New("product is not in the representative's catalog")
)

// AssignmentAlreadyExistsError is returned by the store when the
// (representative_id, doctor_id) unique constraint rejects an insert.
type AssignmentAlreadyExistsError struct {
	RepresentativeID string
	DoctorID         string
}

func (e *AssignmentAlreadyExistsError) Error() string {
	return fmt.Sprintf("assignment for representative '%s' and doctor '%s' already exists", e.RepresentativeID, e.DoctorID)
}

func (e *AssignmentAlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ActiveMeetingExistsError is returned when a meeting for the pair is
// already in progress or completed.
type ActiveMeetingExistsError struct {
	AssignmentID string
	DoctorID     string
}

func (e *ActiveMeetingExistsError) Error() string {
	return fmt.Sprintf("visit already active or completed for assignment '%s' and doctor '%s'", e.AssignmentID, e.DoctorID)
}

func (e *ActiveMeetingExistsError) Is(target error) bool {
	return target == ErrVisitAlreadyActive || target == ErrConflict
}
