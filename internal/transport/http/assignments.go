package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/auth"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/export"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/oapi-codegen/runtime/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createAssignment"

	var req assignmentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	details, err := s.assignments.CreateOrUpdateAssignment(r.Context(), auth.ActorFromContext(r.Context()), req.input())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]assignmentResponse{"assignment": newAssignmentResponse(details)})
}

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listAssignments"

	var filter domain.AssignmentFilter

	if err := queryID(r, "representative_id", &filter.RepresentativeID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := queryID(r, "doctor_id", &filter.DoctorID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	list, err := s.assignments.ListAssignments(r.Context(), filter)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]assignmentResponse{"assignments": newAssignmentResponses(list)})
}

func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getAssignment"

	id, err := pathParam(r, "assignmentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	details, err := s.assignments.GetAssignment(r.Context(), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]assignmentResponse{"assignment": newAssignmentResponse(details)})
}

func (s *Server) updateAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.updateAssignment"

	id, err := pathParam(r, "assignmentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req assignmentPatchRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	details, err := s.assignments.UpdateAssignment(r.Context(), auth.ActorFromContext(r.Context()), id, req.update())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]assignmentResponse{"assignment": newAssignmentResponse(details)})
}

func (s *Server) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteAssignment"

	id, err := pathParam(r, "assignmentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.assignments.DeleteAssignment(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createSeries(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createSeries"

	var req seriesRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	result, err := s.assignments.CreateWeeklySeries(r.Context(), auth.ActorFromContext(r.Context()), req.input())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	// a series where every doctor failed has no parent
	code := http.StatusCreated
	if result.ParentID == "" {
		code = http.StatusUnprocessableEntity
	}

	s.respond(w, code, map[string]seriesResponse{"series": newSeriesResponse(result)})
}

func (s *Server) updateSeries(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.updateSeries"

	parentID, err := pathParam(r, "parentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req seriesPatchRequest
	if err := s.decode(r.Body, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	list, err := s.assignments.UpdateWeeklySeries(r.Context(), auth.ActorFromContext(r.Context()), parentID, req.update())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]assignmentResponse{"assignments": newAssignmentResponses(list)})
}

func (s *Server) deleteSeries(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteSeries"

	parentID, err := pathParam(r, "parentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	removed, err := s.assignments.DeleteWeeklySeries(r.Context(), auth.ActorFromContext(r.Context()), parentID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]int64{"removed": removed})
}

// calendar resolves the representative and week of a calendar request and
// loads its entries. Representatives default to their own calendar.
func (s *Server) calendar(r *http.Request) ([]domain.CalendarEntry, error) {
	var (
		representativeID string
		weekStart        types.Date
	)

	if err := queryID(r, "representative_id", &representativeID); err != nil {
		return nil, err
	}

	if err := queryParam(r, "week_start", true, &weekStart); err != nil {
		return nil, err
	}

	if representativeID == "" {
		actor := auth.ActorFromContext(r.Context())
		if actor.Role != domain.RoleRepresentative {
			return nil, fmt.Errorf("%w: representative_id is required", apperrors.ErrInvalidRequest)
		}

		representativeID = actor.ID
	}

	return s.assignments.Calendar(r.Context(), representativeID, weekStart.Time)
}

func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getCalendar"

	entries, err := s.calendar(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]calendarEntryResponse{"entries": newCalendarResponse(entries)})
}

func (s *Server) exportCalendar(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.exportCalendar"

	entries, err := s.calendar(r)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCalendar(&buf, entries); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.xlsx"`)
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		s.log.Error("failed to write calendar export", slog.String("op", op), sl.Err(err))
	}
}
