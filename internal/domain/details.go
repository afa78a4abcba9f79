package domain

// TripDetails is the denormalized JSON payload stored alongside the flat
// trip columns. Every trip write carries the whole payload.
type TripDetails struct {
	GeneralInfo        GeneralInfo         `json:"general_info"`
	Coordinator        CoordinatorSnapshot `json:"coordinator"`
	SecondaryStaff     *StaffMember        `json:"secondary_staff,omitempty"`
	Timeline           []TimelineEntry     `json:"timeline"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
}

// Details extracts the JSON payload of t.
func (t Trip) Details() TripDetails {
	timeline := t.Timeline
	if timeline == nil {
		timeline = []TimelineEntry{}
	}
	return TripDetails{
		GeneralInfo:        t.Info,
		Coordinator:        t.Coordinator,
		SecondaryStaff:     t.SecondaryStaff,
		Timeline:           timeline,
		CancellationReason: t.CancellationReason,
	}
}

// WithDetails returns a copy of t whose payload fields are replaced by d.
func (t Trip) WithDetails(d TripDetails) Trip {
	t.Info = d.GeneralInfo
	t.Coordinator = d.Coordinator
	t.SecondaryStaff = d.SecondaryStaff
	t.Timeline = d.Timeline
	t.CancellationReason = d.CancellationReason
	return t
}
