package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleRepresentative Role = "representative"
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}

	return false
}

type Assignment struct {
	ID                string    `db:"id"`
	RepresentativeID  string    `db:"representative_id"`
	DoctorID          string    `db:"doctor_id"`
	VisitDays         Weekdays  `db:"visit_days"`
	StartTime         TimeOfDay `db:"start_time"`
	EndTime           TimeOfDay `db:"end_time"`
	RecurringParentID *string   `db:"recurring_parent_id"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// VisitGoal is the recurrence window owned by one assignment.
// RecurringWeeks == 0 means the window has no end.
type VisitGoal struct {
	AssignmentID   string     `db:"assignment_id"`
	VisitsPerWeek  int        `db:"visits_per_week"`
	StartDate      *time.Time `db:"start_date"`
	RecurringWeeks int        `db:"recurring_weeks"`
}

type Representative struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	ManagerID   *string `db:"manager_id"`
	ManagerName *string `db:"manager_name"`
}

type Doctor struct {
	ID                 string  `db:"id"`
	Name               string  `db:"name"`
	SpecializationID   *string `db:"specialization_id"`
	SpecializationName *string `db:"specialization_name"`
}

type Product struct {
	ID                        string     `db:"id"`
	Name                      string     `db:"name"`
	BrandID                   string     `db:"brand_id"`
	PrioritySpecializationIDs StringList `db:"priority_specialization_ids"`
}

// AssignmentDetails is an assignment joined with everything a calendar or
// detail view renders.
type AssignmentDetails struct {
	Assignment
	Representative Representative
	Doctor         Doctor
	Products       []Product
	Goal           *VisitGoal
}

type AssignmentFilter struct {
	RepresentativeID string
	DoctorID         string
}

type MeetingStatus string

const (
	MeetingScheduled  MeetingStatus = "scheduled"
	MeetingInProgress MeetingStatus = "in_progress"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingPostponed  MeetingStatus = "postponed"
	MeetingCancelled  MeetingStatus = "cancelled"
)

func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingScheduled, MeetingInProgress, MeetingCompleted, MeetingPostponed, MeetingCancelled:
		return true
	}

	return false
}

func (s MeetingStatus) Terminal() bool {
	return s == MeetingCompleted || s == MeetingCancelled
}

// BlocksStart reports whether a meeting in this status prevents a new
// meeting from being started for the same assignment and doctor.
func (s MeetingStatus) BlocksStart() bool {
	return s == MeetingInProgress || s == MeetingCompleted
}

type Meeting struct {
	ID               string        `db:"id"`
	AssignmentID     string        `db:"assignment_id"`
	DoctorID         string        `db:"doctor_id"`
	RepresentativeID string        `db:"representative_id"`
	StartTime        *time.Time    `db:"start_time"`
	EndTime          *time.Time    `db:"end_time"`
	Status           MeetingStatus `db:"status"`
	Notes            *string       `db:"notes"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

type MeetingProduct struct {
	MeetingID   string  `db:"meeting_id"`
	ProductID   string  `db:"product_id"`
	ProductName string  `db:"product_name"`
	Discussed   bool    `db:"discussed"`
	Notes       *string `db:"notes"`
}

type MeetingDetails struct {
	Meeting
	Assignment     Assignment
	Doctor         Doctor
	Representative Representative
	Products       []MeetingProduct
}

type MeetingFilter struct {
	RepresentativeID string
	DoctorID         string
	AssignmentID     string
	Status           MeetingStatus
}

// MeetingProducts partitions a representative's catalog for one meeting.
type MeetingProducts struct {
	Priority []Product
	Other    []Product
}

type StatusCount struct {
	Status MeetingStatus `db:"status"`
	Count  int           `db:"count"`
}

type Counters struct {
	TotalAssignments int
	MeetingsByStatus map[MeetingStatus]int
}

// SeriesItemResult reports the outcome of one doctor in a weekly series.
type SeriesItemResult struct {
	DoctorID     string
	AssignmentID string
	Dates        []time.Time
	Err          error
}

type SeriesResult struct {
	ParentID string
	Items    []SeriesItemResult
}

// CalendarEntry is one planned visit on a concrete date.
type CalendarEntry struct {
	Date       time.Time
	Assignment AssignmentDetails
}

// PostponeNotice is sent to the manager of a representative when a visit is postponed.
type PostponeNotice struct {
	MeetingID          string `json:"meeting_id"`
	RepresentativeID   string `json:"representative_id"`
	RepresentativeName string `json:"representative_name"`
	ManagerName        string `json:"manager_name"`
	Reason             string `json:"reason"`
}

// Failed returns the items that could not be created.
func (r SeriesResult) Failed() []SeriesItemResult {
	var failed []SeriesItemResult

	for _, item := range r.Items {
		if item.Err != nil {
			failed = append(failed, item)
		}
	}

	return failed
}
