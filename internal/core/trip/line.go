package trip

import (
	"strings"
	"time"

	"github.com/tripdesk/backend/internal/catalog"
	"github.com/tripdesk/backend/internal/domain"
)

// LineContext provides context for validating one timeline entry.
type LineContext struct {
	Entry domain.TimelineEntry
	// TripEndDate is the trip's current end date; nil when not set yet.
	TripEndDate *time.Time
}

// LineResult is the outcome of ValidateLine. When Allowed, Entry is the
// normalized entry ready to append and NextDate is the default date for the
// line the user adds after it.
type LineResult struct {
	GuardResult
	Entry    domain.TimelineEntry
	NextDate time.Time
}

// ValidateLine evaluates a candidate timeline entry.
// Rules, first failure wins:
// - Category is required and must be configured
// - Sub-category is required and must be a configured option or "other"
// - Location is required unless the entry is at the home base
// - Sub-category "other" needs the detail text
// - Structure lodging needs the detail text (lodging name or address)
// - Date is required
// - Sleeping entries advance the next date by one day, which must not pass
//   the trip end date
func ValidateLine(cat *catalog.Catalog, ctx LineContext) LineResult {
	e := ctx.Entry
	e.Category = strings.TrimSpace(e.Category)
	e.SubCategory = strings.TrimSpace(e.SubCategory)
	e.Detail = strings.TrimSpace(e.Detail)
	e.Location = strings.TrimSpace(e.Location)
	isOther := strings.EqualFold(e.SubCategory, domain.SubCategoryOther)

	if e.Category == "" {
		return LineResult{GuardResult: deny(GateLine, "category is required")}
	}
	if !cat.HasCategory(e.Category) {
		return LineResult{GuardResult: deny(GateLine, "unknown category %q", e.Category)}
	}
	if e.SubCategory == "" {
		return LineResult{GuardResult: deny(GateLine, "sub-category is required")}
	}
	if !cat.HasOption(e.Category, e.SubCategory) {
		return LineResult{GuardResult: deny(GateLine,
			"sub-category %q is not an option of category %q", e.SubCategory, e.Category)}
	}
	if e.LocationType != domain.LocationHomeBase && e.Location == "" {
		return LineResult{GuardResult: deny(GateLine, "location is required")}
	}
	if isOther && e.Detail == "" {
		return LineResult{GuardResult: deny(GateLine, "detail is required when sub-category is other")}
	}
	if e.SubCategory == domain.SubCategoryStructureLodging && e.Detail == "" {
		return LineResult{GuardResult: deny(GateLine, "lodging name or address is required for structure lodging")}
	}
	if e.Date.IsZero() {
		return LineResult{GuardResult: deny(GateLine, "date is required")}
	}

	day := dateOnly(e.Date)
	next := day
	if e.Category == domain.CategorySleeping {
		next = day.AddDate(0, 0, 1)
		if ctx.TripEndDate != nil && next.After(dateOnly(*ctx.TripEndDate)) {
			return LineResult{GuardResult: deny(GateLine,
				"sleeping on %s ends after the trip end date %s; extend the trip end date first",
				day.Format(time.DateOnly), dateOnly(*ctx.TripEndDate).Format(time.DateOnly))}
		}
	}

	e.Date = day
	e.RequiresLicense = cat.RequiresLicense(e.Category, e.SubCategory)
	if e.LocationType == domain.LocationHomeBase {
		e.Location = ""
		e.FinalLocation = domain.HomeBaseLabel
	} else {
		e.LocationType = domain.LocationCity
		e.FinalLocation = e.Location
	}
	if isOther {
		e.SubCategory = domain.SubCategoryOther
		e.FinalSubCategory = e.Detail
	} else {
		e.FinalSubCategory = e.SubCategory
	}

	return LineResult{GuardResult: allow(), Entry: e, NextDate: next}
}
