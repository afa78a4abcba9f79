package domain

import (
	"time"

	"github.com/google/uuid"
)

// Timeline categories.
const (
	CategoryTransport  = "transport"
	CategoryHiking     = "hiking"
	CategoryAttraction = "attraction"
	CategoryFood       = "food"
	CategorySettlement = "settlement"
	CategorySleeping   = "sleeping"
	CategoryOther      = "other"
)

// SubCategoryOther is the free-form sub-category accepted by every category.
// When chosen, Detail holds the actual activity.
const SubCategoryOther = "other"

// SubCategoryStructureLodging is the sleeping option that requires the
// lodging name or address in Detail.
const SubCategoryStructureLodging = "Structure lodging"

// Location types.
const (
	LocationHomeBase = "home_base"
	LocationCity     = "city"
)

// HomeBaseLabel is the display location of entries held at the home base.
const HomeBaseLabel = "Home base"

// FileRef points at an uploaded document. It lives inside the trip JSON
// payload; there is no foreign key to the blob store.
type FileRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// TimelineEntry is one scheduled activity within a trip.
// RequiresLicense, FinalLocation and FinalSubCategory are derived when the
// entry is accepted and are never taken from user input.
type TimelineEntry struct {
	ID           uuid.UUID `json:"id"`
	Date         time.Time `json:"date"`
	Category     string    `json:"category"`
	SubCategory  string    `json:"sub_category"`
	Detail       string    `json:"detail,omitempty"`
	LocationType string    `json:"location_type"`
	Location     string    `json:"location,omitempty"`

	RequiresLicense  bool   `json:"requires_license"`
	FinalLocation    string `json:"final_location"`
	FinalSubCategory string `json:"final_sub_category"`

	LicenseFile   *FileRef `json:"license_file,omitempty"`
	InsuranceFile *FileRef `json:"insurance_file,omitempty"`
}

// MissingDocuments reports whether the entry requires a license but lacks
// the license or the insurance file.
func (e TimelineEntry) MissingDocuments() bool {
	if !e.RequiresLicense {
		return false
	}
	return e.LicenseFile == nil || e.LicenseFile.URL == "" ||
		e.InsuranceFile == nil || e.InsuranceFile.URL == ""
}
