package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/YusovID/visit-planner/internal/auth"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/service"
)

func (s *Server) startMeeting(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.startMeeting"

	var req startMeetingRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if req.RepresentativeID == "" {
		req.RepresentativeID = actor.ID
	}

	m, err := s.meetings.Start(r.Context(), actor, service.StartMeetingInput{
		AssignmentID:     req.AssignmentID,
		DoctorID:         req.DoctorID,
		RepresentativeID: req.RepresentativeID,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]meetingResponse{"meeting": newMeetingResponse(m)})
}

func (s *Server) listMeetings(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listMeetings"

	var (
		filter domain.MeetingFilter
		status string
	)

	for name, dest := range map[string]*string{
		"representative_id": &filter.RepresentativeID,
		"doctor_id":         &filter.DoctorID,
		"assignment_id":     &filter.AssignmentID,
	} {
		if err := queryID(r, name, dest); err != nil {
			s.handleServiceError(w, r, op, err)
			return
		}
	}

	if err := queryParam(r, "status", false, &status); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	filter.Status = domain.MeetingStatus(status)

	list, err := s.meetings.ListMeetings(r.Context(), filter)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	out := make([]meetingResponse, 0, len(list))
	for i := range list {
		out = append(out, newMeetingResponse(&list[i]))
	}

	s.respond(w, http.StatusOK, map[string][]meetingResponse{"meetings": out})
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getMeeting"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	details, err := s.meetings.GetMeeting(r.Context(), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]meetingDetailsResponse{"meeting": {
		meetingResponse:    newMeetingResponse(&details.Meeting),
		DoctorName:         details.Doctor.Name,
		RepresentativeName: details.Representative.Name,
		VisitDays:          details.Assignment.VisitDays,
		Products:           newMeetingProductResponses(details.Products),
	}})
}

func (s *Server) postponeMeeting(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.postponeMeeting"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req postponeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	m, err := s.meetings.Postpone(r.Context(), auth.ActorFromContext(r.Context()), id, req.Reason)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]meetingResponse{"meeting": newMeetingResponse(m)})
}

func (s *Server) endMeeting(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.endMeeting"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	// the body is optional
	var req endMeetingRequest
	if err := s.decodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.handleServiceError(w, r, op, err)
		return
	}

	m, err := s.meetings.End(r.Context(), auth.ActorFromContext(r.Context()), id, req.Notes)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]meetingResponse{"meeting": newMeetingResponse(m)})
}

func (s *Server) productsForMeeting(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.productsForMeeting"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	products, err := s.meetings.ProductsForMeeting(r.Context(), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, meetingProductsResponse{
		Priority: newProductResponses(products.Priority),
		Other:    newProductResponses(products.Other),
	})
}

func (s *Server) addMeetingProduct(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.addMeetingProduct"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req meetingProductRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	products, err := s.meetings.AddMeetingProduct(r.Context(), auth.ActorFromContext(r.Context()), service.MeetingProductInput{
		MeetingID: id,
		ProductID: req.ProductID,
		Discussed: req.Discussed,
		Notes:     req.Notes,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]meetingProductResponse{"products": newMeetingProductResponses(products)})
}

func (s *Server) updateMeetingProduct(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.updateMeetingProduct"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	productID, err := pathParam(r, "productID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req meetingProductPatchRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	products, err := s.meetings.UpdateMeetingProduct(r.Context(), auth.ActorFromContext(r.Context()), service.MeetingProductInput{
		MeetingID: id,
		ProductID: productID,
		Discussed: req.Discussed,
		Notes:     req.Notes,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]meetingProductResponse{"products": newMeetingProductResponses(products)})
}

func (s *Server) removeMeetingProduct(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.removeMeetingProduct"

	id, err := pathParam(r, "meetingID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	productID, err := pathParam(r, "productID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.meetings.RemoveMeetingProduct(r.Context(), auth.ActorFromContext(r.Context()), id, productID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) availableProducts(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.availableProducts"

	id, err := pathParam(r, "representativeID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	products, err := s.discussion.AvailableProducts(r.Context(), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]productResponse{"products": newProductResponses(products)})
}

func (s *Server) discussedProducts(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.discussedProducts"

	id, err := pathParam(r, "visitID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	ids, err := s.discussion.DiscussedProductIDs(r.Context(), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]string{"product_ids": ids})
}

func (s *Server) replaceDiscussedProducts(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.replaceDiscussedProducts"

	id, err := pathParam(r, "visitID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req discussedProductsRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	ids, err := s.discussion.ReplaceDiscussedProducts(r.Context(), auth.ActorFromContext(r.Context()), id, req.ProductIDs)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]string{"product_ids": ids})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getStats"

	counters, err := s.stats.Counters(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	byStatus := make(map[string]int, len(counters.MeetingsByStatus))
	for status, n := range counters.MeetingsByStatus {
		byStatus[string(status)] = n
	}

	s.respond(w, http.StatusOK, countersResponse{TotalAssignments: counters.TotalAssignments, MeetingsByStatus: byStatus})
}
