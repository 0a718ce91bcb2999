// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/YusovID/visit-planner/internal/apperrors"
	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/service"
	"github.com/YusovID/visit-planner/internal/validation"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenParser turns a bearer token into the calling actor.
type TokenParser interface {
	Parse(token string) (domain.Actor, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups the use cases exposed over HTTP.
type Services struct {
	Assignments service.AssignmentService
	Meetings    service.MeetingService
	Discussion  service.DiscussionService
	Stats       service.StatsService
}

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log         *slog.Logger
	assignments service.AssignmentService
	meetings    service.MeetingService
	discussion  service.DiscussionService
	stats       service.StatsService
	tokens      TokenParser
	db          Pinger
}

// NewServer creates a new instance of the HTTP server.
func NewServer(log *slog.Logger, services Services, tokens TokenParser, db Pinger) *Server {
	return &Server{
		log:         log,
		assignments: services.Assignments,
		meetings:    services.Meetings,
		discussion:  services.Discussion,
		stats:       services.Stats,
		tokens:      tokens,
		db:          db,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/healthz", s.healthz)

	mux.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", s.createAssignment)
			r.Get("/", s.listAssignments)
			r.Get("/{assignmentID}", s.getAssignment)
			r.Patch("/{assignmentID}", s.updateAssignment)
			r.Delete("/{assignmentID}", s.deleteAssignment)
		})

		r.Get("/calendar", s.getCalendar)
		r.Get("/calendar/export", s.exportCalendar)

		r.Route("/series", func(r chi.Router) {
			r.Post("/", s.createSeries)
			r.Patch("/{parentID}", s.updateSeries)
			r.Delete("/{parentID}", s.deleteSeries)
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Post("/", s.startMeeting)
			r.Get("/", s.listMeetings)
			r.Get("/{meetingID}", s.getMeeting)
			r.Post("/{meetingID}/postpone", s.postponeMeeting)
			r.Post("/{meetingID}/end", s.endMeeting)
			r.Get("/{meetingID}/products", s.productsForMeeting)
			r.Post("/{meetingID}/products", s.addMeetingProduct)
			r.Patch("/{meetingID}/products/{productID}", s.updateMeetingProduct)
			r.Delete("/{meetingID}/products/{productID}", s.removeMeetingProduct)
		})

		r.Get("/representatives/{representativeID}/products", s.availableProducts)
		r.Get("/visits/{visitID}/discussed-products", s.discussedProducts)
		r.Put("/visits/{visitID}/discussed-products", s.replaceDiscussedProducts)

		r.Get("/stats", s.getStats)
	})

	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.healthz"

	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.log.Error("database is unreachable", slog.String("op", op), sl.Err(err))
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database is unreachable")

			return
		}
	}

	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) respondError(w http.ResponseWriter, code int, errCode, message string) {
	s.respond(w, code, errorResponse{Error: errorBody{Code: errCode, Message: message}})
}

// decodeAndValidate is a helper that deserializes a JSON request body into a struct
// and then runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v any) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v any) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// pathParam binds a uuid path parameter registered on the chi route.
func pathParam(r *http.Request, name string) (string, error) {
	var id types.UUID

	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return "", fmt.Errorf("%w: invalid path parameter '%s': %w", apperrors.ErrInvalidRequest, name, err)
	}

	return id.String(), nil
}

// queryParam binds a form-style query parameter into dest.
func queryParam(r *http.Request, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("%w: invalid query parameter '%s': %w", apperrors.ErrInvalidRequest, name, err)
	}

	return nil
}

// queryID binds an optional uuid query parameter. An absent one leaves dest empty.
func queryID(r *http.Request, name string, dest *string) error {
	var id *types.UUID

	if err := queryParam(r, name, false, &id); err != nil {
		return err
	}

	if id != nil {
		*dest = id.String()
	}

	return nil
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
func (s *Server) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op), slog.String("request_id", getRequestID(r.Context())))

	var (
		validationErr *validation.ValidationError
		assignmentErr *apperrors.AssignmentAlreadyExistsError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusBadRequest, "VALIDATION", validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request")
	case errors.Is(err, apperrors.ErrProductNotPermitted):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusUnprocessableEntity, "PRODUCT_NOT_PERMITTED", apperrors.ErrProductNotPermitted.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", apperrors.ErrUnauthorized.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", apperrors.ErrForbidden.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, apperrors.ErrVisitAlreadyActive):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusConflict, "VISIT_ACTIVE", apperrors.ErrVisitAlreadyActive.Error())
	case errors.As(err, &assignmentErr):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusConflict, "ASSIGNMENT_EXISTS", assignmentErr.Error())
	case errors.Is(err, apperrors.ErrInvalidTransition):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusConflict, "INVALID_TRANSITION", apperrors.ErrInvalidTransition.Error())
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		log.Warn("request rejected", sl.Err(err))
		s.respondError(w, http.StatusConflict, "CONFLICT", "conflict")
	default:
		log.Error("service error occurred", sl.Err(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
