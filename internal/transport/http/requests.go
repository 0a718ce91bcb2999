package http

import (
	"time"

	"github.com/YusovID/visit-planner/internal/domain"
	"github.com/YusovID/visit-planner/internal/service"
	"github.com/oapi-codegen/runtime/types"
)

// goalRequest holds the optional visit goal of an assignment body.
// Absent fields keep the stored goal; visits_per_week null or 0 removes it.
type goalRequest struct {
	VisitsPerWeek  domain.Field[int]        `json:"visits_per_week"`
	StartDate      domain.Field[types.Date] `json:"start_date"`
	RecurringWeeks domain.Field[int]        `json:"recurring_weeks"`
}

func (g goalRequest) change() service.GoalChange {
	return service.GoalChange{
		VisitsPerWeek:  g.VisitsPerWeek,
		StartDate:      dateField(g.StartDate),
		RecurringWeeks: g.RecurringWeeks,
	}
}

type assignmentRequest struct {
	RepresentativeID string          `json:"representative_id" validate:"required,uuid"`
	DoctorID         string          `json:"doctor_id" validate:"required,uuid"`
	VisitDays        domain.Weekdays `json:"visit_days" validate:"required,min=1,max=7,dive,weekday"`
	StartTime        string          `json:"start_time" validate:"required,time_of_day"`
	EndTime          string          `json:"end_time" validate:"required,time_of_day"`
	ProductIDs       []string        `json:"product_ids" validate:"omitempty,dive,required,uuid"`
	goalRequest
}

func (req assignmentRequest) input() service.AssignmentInput {
	start, _ := domain.ParseTimeOfDay(req.StartTime)
	end, _ := domain.ParseTimeOfDay(req.EndTime)

	return service.AssignmentInput{
		RepresentativeID: req.RepresentativeID,
		DoctorID:         req.DoctorID,
		VisitDays:        req.VisitDays,
		StartTime:        start,
		EndTime:          end,
		ProductIDs:       req.ProductIDs,
		Goal:             req.change(),
	}
}

type assignmentPatchRequest struct {
	VisitDays  domain.Field[domain.Weekdays]  `json:"visit_days"`
	StartTime  domain.Field[domain.TimeOfDay] `json:"start_time"`
	EndTime    domain.Field[domain.TimeOfDay] `json:"end_time"`
	ProductIDs domain.Field[[]string]         `json:"product_ids"`
	goalRequest
}

func (req assignmentPatchRequest) update() service.AssignmentUpdate {
	return service.AssignmentUpdate{
		VisitDays:  req.VisitDays,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		ProductIDs: req.ProductIDs,
		Goal:       req.change(),
	}
}

type seriesRequest struct {
	RepresentativeID string     `json:"representative_id" validate:"required,uuid"`
	DoctorIDs        []string   `json:"doctor_ids" validate:"required,min=1,dive,required,uuid"`
	ProductIDs       []string   `json:"product_ids" validate:"omitempty,dive,required,uuid"`
	StartTime        string     `json:"start_time" validate:"required,time_of_day"`
	EndTime          string     `json:"end_time" validate:"required,time_of_day"`
	Weekday          string     `json:"weekday" validate:"required,weekday"`
	RecurringWeeks   int        `json:"recurring_weeks" validate:"min=1,max=104"`
	StartDate        types.Date `json:"start_date"`
}

func (req seriesRequest) input() service.SeriesInput {
	start, _ := domain.ParseTimeOfDay(req.StartTime)
	end, _ := domain.ParseTimeOfDay(req.EndTime)

	return service.SeriesInput{
		RepresentativeID: req.RepresentativeID,
		DoctorIDs:        req.DoctorIDs,
		ProductIDs:       req.ProductIDs,
		StartTime:        start,
		EndTime:          end,
		Weekday:          domain.Weekday(req.Weekday),
		RecurringWeeks:   req.RecurringWeeks,
		StartDate:        req.StartDate.Time,
	}
}

type seriesPatchRequest struct {
	Weekday        domain.Field[domain.Weekday]   `json:"weekday"`
	StartTime      domain.Field[domain.TimeOfDay] `json:"start_time"`
	EndTime        domain.Field[domain.TimeOfDay] `json:"end_time"`
	ProductIDs     domain.Field[[]string]         `json:"product_ids"`
	StartDate      domain.Field[types.Date]       `json:"start_date"`
	RecurringWeeks domain.Field[int]              `json:"recurring_weeks"`
}

func (req seriesPatchRequest) update() service.SeriesUpdate {
	return service.SeriesUpdate{
		Weekday:        req.Weekday,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ProductIDs:     req.ProductIDs,
		StartDate:      dateField(req.StartDate),
		RecurringWeeks: req.RecurringWeeks,
	}
}

type startMeetingRequest struct {
	AssignmentID     string `json:"assignment_id" validate:"required,uuid"`
	DoctorID         string `json:"doctor_id" validate:"required,uuid"`
	RepresentativeID string `json:"representative_id" validate:"omitempty,uuid"`
}

type postponeRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type endMeetingRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=4000"`
}

type meetingProductRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Discussed bool    `json:"discussed"`
	Notes     *string `json:"notes" validate:"omitempty,max=4000"`
}

type meetingProductPatchRequest struct {
	Discussed bool    `json:"discussed"`
	Notes     *string `json:"notes" validate:"omitempty,max=4000"`
}

type discussedProductsRequest struct {
	ProductIDs []string `json:"product_ids" validate:"dive,required,uuid"`
}

func dateField(f domain.Field[types.Date]) domain.Field[time.Time] {
	if f.IsNull() {
		return domain.Null[time.Time]()
	}

	if d, ok := f.Get(); ok {
		return domain.Value(d.Time)
	}

	return domain.Field[time.Time]{}
}
