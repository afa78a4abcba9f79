package handler

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/service"
)

// generalInfoBody is the wire form of domain.GeneralInfo. Dates travel as
// "2006-01-02".
type generalInfoBody struct {
	TripType       string              `json:"trip_type" validate:"max=64"`
	Name           string              `json:"name" validate:"max=200"`
	StartDate      *openapi_types.Date `json:"start_date,omitempty"`
	StartTime      string              `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndDate        *openapi_types.Date `json:"end_date,omitempty"`
	EndTime        string              `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	TraineeCount   *int                `json:"trainee_count,omitempty"`
	TotalTravelers *int                `json:"total_travelers,omitempty"`
	GradeFrom      string              `json:"grade_from,omitempty" validate:"max=32"`
	GradeTo        string              `json:"grade_to,omitempty" validate:"max=32"`
	StaffTags      []string            `json:"staff_tags,omitempty" validate:"max=20,dive,max=64"`
	Comments       string              `json:"comments,omitempty" validate:"max=2000"`
}

type entryBody struct {
	ID            uuid.UUID          `json:"id"`
	Date          openapi_types.Date `json:"date"`
	Category      string             `json:"category" validate:"max=64"`
	SubCategory   string             `json:"sub_category" validate:"max=200"`
	Detail        string             `json:"detail,omitempty" validate:"max=500"`
	LocationType  string             `json:"location_type" validate:"omitempty,oneof=home_base city"`
	Location      string             `json:"location,omitempty" validate:"max=200"`
	LicenseFile   *domain.FileRef    `json:"license_file,omitempty"`
	InsuranceFile *domain.FileRef    `json:"insurance_file,omitempty"`
}

// tripBody is the request body of every full trip write.
type tripBody struct {
	GeneralInfo             generalInfoBody     `json:"general_info"`
	SecondaryStaff          *domain.StaffMember `json:"secondary_staff,omitempty"`
	Timeline                []entryBody         `json:"timeline" validate:"max=200,dive"`
	ConfirmMissingDocuments bool                `json:"confirm_missing_documents"`
}

type entryResponse struct {
	entryBody
	RequiresLicense  bool   `json:"requires_license"`
	FinalLocation    string `json:"final_location"`
	FinalSubCategory string `json:"final_sub_category"`
	MissingDocuments bool   `json:"missing_documents"`
}

type tripResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	OwnerID            uuid.UUID                  `json:"owner_id"`
	Status             domain.TripStatus          `json:"status"`
	GeneralInfo        generalInfoBody            `json:"general_info"`
	Coordinator        domain.CoordinatorSnapshot `json:"coordinator"`
	SecondaryStaff     *domain.StaffMember        `json:"secondary_staff,omitempty"`
	Timeline           []entryResponse            `json:"timeline"`
	CancellationReason string                     `json:"cancellation_reason,omitempty"`
	Branch             string                     `json:"branch"`
	Department         string                     `json:"department"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// --- mapping helpers --------------------------------------------------------

func dateToDomain(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func dateFromDomain(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

func (b generalInfoBody) toDomain() domain.GeneralInfo {
	return domain.GeneralInfo{
		TripType:       b.TripType,
		Name:           b.Name,
		StartDate:      dateToDomain(b.StartDate),
		StartTime:      b.StartTime,
		EndDate:        dateToDomain(b.EndDate),
		EndTime:        b.EndTime,
		TraineeCount:   b.TraineeCount,
		TotalTravelers: b.TotalTravelers,
		GradeFrom:      b.GradeFrom,
		GradeTo:        b.GradeTo,
		StaffTags:      b.StaffTags,
		Comments:       b.Comments,
	}
}

func generalInfoFromDomain(g domain.GeneralInfo) generalInfoBody {
	return generalInfoBody{
		TripType:       g.TripType,
		Name:           g.Name,
		StartDate:      dateFromDomain(g.StartDate),
		StartTime:      g.StartTime,
		EndDate:        dateFromDomain(g.EndDate),
		EndTime:        g.EndTime,
		TraineeCount:   g.TraineeCount,
		TotalTravelers: g.TotalTravelers,
		GradeFrom:      g.GradeFrom,
		GradeTo:        g.GradeTo,
		StaffTags:      g.StaffTags,
		Comments:       g.Comments,
	}
}

// toDomain keeps only client-owned fields; derived fields are recomputed
// by the line validator.
func (b entryBody) toDomain() domain.TimelineEntry {
	return domain.TimelineEntry{
		ID:            b.ID,
		Date:          b.Date.Time,
		Category:      b.Category,
		SubCategory:   b.SubCategory,
		Detail:        b.Detail,
		LocationType:  b.LocationType,
		Location:      b.Location,
		LicenseFile:   b.LicenseFile,
		InsuranceFile: b.InsuranceFile,
	}
}

func (b tripBody) toInput() service.TripInput {
	timeline := make([]domain.TimelineEntry, len(b.Timeline))
	for i, e := range b.Timeline {
		timeline[i] = e.toDomain()
	}
	return service.TripInput{
		Info:           b.GeneralInfo.toDomain(),
		SecondaryStaff: b.SecondaryStaff,
		Timeline:       timeline,
	}
}

func entryToResponse(e domain.TimelineEntry) entryResponse {
	return entryResponse{
		entryBody: entryBody{
			ID:            e.ID,
			Date:          openapi_types.Date{Time: e.Date},
			Category:      e.Category,
			SubCategory:   e.SubCategory,
			Detail:        e.Detail,
			LocationType:  e.LocationType,
			Location:      e.Location,
			LicenseFile:   e.LicenseFile,
			InsuranceFile: e.InsuranceFile,
		},
		RequiresLicense:  e.RequiresLicense,
		FinalLocation:    e.FinalLocation,
		FinalSubCategory: e.FinalSubCategory,
		MissingDocuments: e.MissingDocuments(),
	}
}

// tripToResponse converts a domain.Trip into its wire form.
func tripToResponse(t domain.Trip) tripResponse {
	timeline := make([]entryResponse, len(t.Timeline))
	for i, e := range t.Timeline {
		timeline[i] = entryToResponse(e)
	}
	return tripResponse{
		ID:                 t.ID,
		OwnerID:            t.OwnerID,
		Status:             t.Status,
		GeneralInfo:        generalInfoFromDomain(t.Info),
		Coordinator:        t.Coordinator,
		SecondaryStaff:     t.SecondaryStaff,
		Timeline:           timeline,
		CancellationReason: t.CancellationReason,
		Branch:             t.Branch,
		Department:         t.Department,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func tripsToResponse(trips []domain.Trip) []tripResponse {
	out := make([]tripResponse, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	return out
}
