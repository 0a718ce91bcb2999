package http

import (
	"time"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/oapi-codegen/runtime/types"
)

type productResponse struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	BrandID                   string   `json:"brand_id"`
	PrioritySpecializationIDs []string `json:"priority_specialization_ids"`
}

func newProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))

	for _, p := range products {
		ids := []string(p.PrioritySpecializationIDs)
		if ids == nil {
			ids = []string{}
		}

		out = append(out, productResponse{ID: p.ID, Name: p.Name, BrandID: p.BrandID, PrioritySpecializationIDs: ids})
	}

	return out
}

type goalResponse struct {
	VisitsPerWeek  int         `json:"visits_per_week"`
	StartDate      *types.Date `json:"start_date"`
	RecurringWeeks int         `json:"recurring_weeks"`
}

type assignmentResponse struct {
	ID                 string            `json:"id"`
	RepresentativeID   string            `json:"representative_id"`
	RepresentativeName string            `json:"representative_name"`
	DoctorID           string            `json:"doctor_id"`
	DoctorName         string            `json:"doctor_name"`
	Specialization     *string           `json:"specialization"`
	VisitDays          domain.Weekdays   `json:"visit_days"`
	StartTime          domain.TimeOfDay  `json:"start_time"`
	EndTime            domain.TimeOfDay  `json:"end_time"`
	RecurringParentID  *string           `json:"recurring_parent_id"`
	Products           []productResponse `json:"products"`
	Goal               *goalResponse     `json:"goal"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func newAssignmentResponse(d *domain.AssignmentDetails) assignmentResponse {
	resp := assignmentResponse{
		ID:                 d.ID,
		RepresentativeID:   d.RepresentativeID,
		RepresentativeName: d.Representative.Name,
		DoctorID:           d.DoctorID,
		DoctorName:         d.Doctor.Name,
		Specialization:     d.Doctor.SpecializationName,
		VisitDays:          d.VisitDays,
		StartTime:          d.StartTime,
		EndTime:            d.EndTime,
		RecurringParentID:  d.RecurringParentID,
		Products:           newProductResponses(d.Products),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}

	if d.Goal != nil {
		resp.Goal = &goalResponse{VisitsPerWeek: d.Goal.VisitsPerWeek, RecurringWeeks: d.Goal.RecurringWeeks}
		if d.Goal.StartDate != nil {
			resp.Goal.StartDate = &types.Date{Time: *d.Goal.StartDate}
		}
	}

	return resp
}

func newAssignmentResponses(list []domain.AssignmentDetails) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(list))
	for i := range list {
		out = append(out, newAssignmentResponse(&list[i]))
	}

	return out
}

type seriesItemResponse struct {
	DoctorID     string       `json:"doctor_id"`
	AssignmentID string       `json:"assignment_id,omitempty"`
	Dates        []types.Date `json:"dates"`
	Error        string       `json:"error,omitempty"`
}

type seriesResponse struct {
	ParentID string               `json:"parent_id,omitempty"`
	Items    []seriesItemResponse `json:"items"`
}

func newSeriesResponse(r *domain.SeriesResult) seriesResponse {
	resp := seriesResponse{ParentID: r.ParentID, Items: make([]seriesItemResponse, 0, len(r.Items))}

	for _, item := range r.Items {
		dates := make([]types.Date, 0, len(item.Dates))
		for _, d := range item.Dates {
			dates = append(dates, types.Date{Time: d})
		}

		out := seriesItemResponse{DoctorID: item.DoctorID, AssignmentID: item.AssignmentID, Dates: dates}
		if item.Err != nil {
			out.Error = item.Err.Error()
		}

		resp.Items = append(resp.Items, out)
	}

	return resp
}

type calendarEntryResponse struct {
	Date       types.Date         `json:"date"`
	Weekday    domain.Weekday     `json:"weekday"`
	Assignment assignmentResponse `json:"assignment"`
}

func newCalendarResponse(entries []domain.CalendarEntry) []calendarEntryResponse {
	out := make([]calendarEntryResponse, 0, len(entries))

	for i := range entries {
		out = append(out, calendarEntryResponse{
			Date:       types.Date{Time: entries[i].Date},
			Weekday:    domain.WeekdayOf(entries[i].Date),
			Assignment: newAssignmentResponse(&entries[i].Assignment),
		})
	}

	return out
}

type meetingResponse struct {
	ID               string               `json:"id"`
	AssignmentID     string               `json:"assignment_id"`
	DoctorID         string               `json:"doctor_id"`
	RepresentativeID string               `json:"representative_id"`
	StartTime        *time.Time           `json:"start_time"`
	EndTime          *time.Time           `json:"end_time"`
	Status           domain.MeetingStatus `json:"status"`
	Notes            *string              `json:"notes"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func newMeetingResponse(m *domain.Meeting) meetingResponse {
	return meetingResponse{
		ID:               m.ID,
		AssignmentID:     m.AssignmentID,
		DoctorID:         m.DoctorID,
		RepresentativeID: m.RepresentativeID,
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		Status:           m.Status,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type meetingProductResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Discussed   bool    `json:"discussed"`
	Notes       *string `json:"notes"`
}

func newMeetingProductResponses(products []domain.MeetingProduct) []meetingProductResponse {
	out := make([]meetingProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, meetingProductResponse{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Discussed:   p.Discussed,
			Notes:       p.Notes,
		})
	}

	return out
}

type meetingDetailsResponse struct {
	meetingResponse
	DoctorName         string                   `json:"doctor_name"`
	RepresentativeName string                   `json:"representative_name"`
	VisitDays          domain.Weekdays          `json:"visit_days"`
	Products           []meetingProductResponse `json:"products"`
}

type meetingProductsResponse struct {
	Priority []productResponse `json:"priority"`
	Other    []productResponse `json:"other"`
}

type countersResponse struct {
	TotalAssignments int            `json:"total_assignments"`
	MeetingsByStatus map[string]int `json:"meetings_by_status"`
}
