package domain

// ExportRow is a single row in the reviewer export.
// It is a flat, denormalized view: one row per timeline entry, with trip
// fields repeated for every entry on that trip. Trips with an empty timeline
// yield one row with zero values for all entry fields.
type ExportRow struct {
	// Trip fields, repeated for every entry on the trip.
	TripID          string
	TripName        string
	TripType        string
	Status          string
	TripStartDate   string // "2006-01-02", empty when unset
	TripEndDate     string // "2006-01-02", empty when unset
	CoordinatorName string
	Department      string
	Branch          string

	// Entry fields, zero values when the trip has no timeline.
	EntryDate        string
	Category         string
	SubCategory      string
	Location         string
	RequiresLicense  bool
	MissingDocuments bool
}
