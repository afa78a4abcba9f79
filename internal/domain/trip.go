// Package domain contains the core data types for the trip approval service.
// This package has no dependencies on other internal packages and is imported
// by every layer (core, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	StatusDraft     TripStatus = "draft"
	StatusPending   TripStatus = "pending"
	StatusApproved  TripStatus = "approved"
	StatusRejected  TripStatus = "rejected"
	StatusCancelled TripStatus = "cancelled"
)

var validStatuses = map[TripStatus]bool{
	StatusDraft:     true,
	StatusPending:   true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// IsValid reports whether s is a known trip status.
func (s TripStatus) IsValid() bool {
	return validStatuses[s]
}

// Editable reports whether the owner may still change the trip contents.
func (s TripStatus) Editable() bool {
	return s == StatusDraft || s == StatusPending || s == StatusRejected
}

// Trip is a proposed or approved activity. It is the top-level aggregate:
// the general info and timeline are persisted together as one JSON payload,
// with a handful of flat columns copied out for filtering and sorting.
type Trip struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Status  TripStatus

	Info           GeneralInfo
	Coordinator    CoordinatorSnapshot
	SecondaryStaff *StaffMember
	Timeline       []TimelineEntry

	// CancellationReason is set only when Status is StatusCancelled.
	CancellationReason string

	// Branch and Department are copied from the owner's profile when the trip
	// is first saved so reviewer dashboards can filter on them.
	Branch     string
	Department string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeneralInfo holds the top-level form fields of a trip.
// Dates are calendar dates (time of day ignored); StartTime/EndTime are "15:04".
type GeneralInfo struct {
	TripType       string     `json:"trip_type"`
	Name           string     `json:"name"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	StartTime      string     `json:"start_time,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	EndTime        string     `json:"end_time,omitempty"`
	TraineeCount   *int       `json:"trainee_count,omitempty"`
	TotalTravelers *int       `json:"total_travelers,omitempty"`
	GradeFrom      string     `json:"grade_from,omitempty"`
	GradeTo        string     `json:"grade_to,omitempty"`
	StaffTags      []string   `json:"staff_tags"`
	Comments       string     `json:"comments,omitempty"`
}

// StartsAt combines StartDate and StartTime in loc.
// A missing or malformed StartTime counts as midnight.
// ok is false when StartDate is nil.
func (g GeneralInfo) StartsAt(loc *time.Location) (t time.Time, ok bool) {
	if g.StartDate == nil {
		return time.Time{}, false
	}
	d := *g.StartDate
	hour, minute := 0, 0
	if g.StartTime != "" {
		if hm, err := time.Parse("15:04", g.StartTime); err == nil {
			hour, minute = hm.Hour(), hm.Minute()
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), true
}

// CoordinatorSnapshot is the coordinator's identity as it was when the trip
// was submitted. It is deliberately a copy, not a reference to the profile.
type CoordinatorSnapshot struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// StaffMember is the optional secondary staff record attached to a trip.
type StaffMember struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

// TripFilter narrows a trip listing. Zero values mean "any".
type TripFilter struct {
	Status     TripStatus
	OwnerID    uuid.UUID
	Department string
	Branch     string
}
