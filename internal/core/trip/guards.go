// Package trip contains the pure business rules of the trip lifecycle:
// timeline line validation, draft and submission gating, and status
// transition guards. Nothing here performs I/O; callers pass the current
// time and everything else the rules need.
package trip

import (
	"fmt"
	"time"
)

// Gate names identify which rule stopped an operation. They are stable and
// used as metric labels.
const (
	GateLine            = "line"
	GateDraft           = "draft"
	GateCoordinator     = "coordinator"
	GateGeneralInfo     = "general_info"
	GateTimelineEmpty   = "timeline_empty"
	GateTimelineMinRows = "timeline_min_rows"
	GateDeparture       = "departure_window"
	GateDocuments       = "documents"
	GateStatus          = "status"
	GateActor           = "actor"
	GateCancellation    = "cancellation"
)

// MinNoticeHours is how far ahead of departure a trip must be submitted.
const MinNoticeHours = 48

// MinCancellationReason is the shortest accepted cancellation reason, in
// characters, after trimming.
const MinCancellationReason = 5

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Gate    string
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

func allow() GuardResult {
	return GuardResult{Allowed: true}
}

func deny(gate, format string, args ...any) GuardResult {
	return GuardResult{Gate: gate, Reason: fmt.Sprintf(format, args...)}
}

// dateOnly strips the clock from t, keeping its calendar date.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
