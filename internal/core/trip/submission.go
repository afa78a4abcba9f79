package trip

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/catalog"
	"github.com/tripdesk/backend/internal/domain"
)

// CanSaveDraft evaluates whether a trip can be stored as a draft.
// Rules:
// - A trip type must be chosen
// - The trip type must be configured in the catalog
func CanSaveDraft(cat *catalog.Catalog, info domain.GeneralInfo) GuardResult {
	if strings.TrimSpace(info.TripType) == "" {
		return deny(GateDraft, "choose a trip type before saving")
	}
	if _, ok := cat.TripType(info.TripType); !ok {
		return deny(GateDraft, "unknown trip type %q", info.TripType)
	}
	return allow()
}

// SubmitContext provides context for submission gating.
type SubmitContext struct {
	Info        domain.GeneralInfo
	Coordinator domain.CoordinatorSnapshot
	Timeline    []domain.TimelineEntry

	Now      time.Time
	Location *time.Location

	// ConfirmMissingDocuments is the user's answer to the missing-documents
	// prompt. False means the prompt has not been answered yet.
	ConfirmMissingDocuments bool
}

// SubmitResult is the outcome of CanSubmit.
// NeedsConfirmation is set, with Allowed false, when only the soft
// document gate failed; MissingDocuments lists the offending entries.
type SubmitResult struct {
	GuardResult
	NeedsConfirmation bool
	MissingDocuments  []uuid.UUID
}

// CanSubmit evaluates whether a trip can move to pending.
// Rules, in order, first failure wins:
// - Coordinator name and id number must be present
// - General info must be complete and consistent
// - The timeline must not be empty
// - The timeline must meet the trip type minimum
// - Departure must not be less than 48 hours away (unless already past)
// - Entries needing a license must have both documents, or the user must
//   confirm submitting without them
func CanSubmit(cat *catalog.Catalog, ctx SubmitContext) SubmitResult {
	if strings.TrimSpace(ctx.Coordinator.Name) == "" || strings.TrimSpace(ctx.Coordinator.IDNumber) == "" {
		return SubmitResult{GuardResult: deny(GateCoordinator,
			"coordinator name and id number are missing; complete your profile first")}
	}

	if r := checkGeneralInfo(cat, ctx.Info); !r.Allowed {
		return SubmitResult{GuardResult: r}
	}

	if len(ctx.Timeline) == 0 {
		return SubmitResult{GuardResult: deny(GateTimelineEmpty, "at least one timeline entry is required")}
	}

	if tt, _ := cat.TripType(ctx.Info.TripType); len(ctx.Timeline) < tt.MinRows {
		return SubmitResult{GuardResult: deny(GateTimelineMinRows,
			"trip type %q requires at least %d timeline entries (has %d)", ctx.Info.TripType, tt.MinRows, len(ctx.Timeline))}
	}

	loc := ctx.Location
	if loc == nil {
		loc = time.UTC
	}
	if startsAt, ok := ctx.Info.StartsAt(loc); ok {
		until := startsAt.Sub(ctx.Now)
		if until >= 0 && until < MinNoticeHours*time.Hour {
			return SubmitResult{GuardResult: deny(GateDeparture,
				"trips starting within %d hours cannot be submitted", MinNoticeHours)}
		}
	}

	var missing []uuid.UUID
	for _, e := range ctx.Timeline {
		if e.MissingDocuments() {
			missing = append(missing, e.ID)
		}
	}
	if len(missing) > 0 && !ctx.ConfirmMissingDocuments {
		return SubmitResult{
			GuardResult: deny(GateDocuments,
				"%d timeline entries are missing a required license or insurance document; submit anyway?", len(missing)),
			NeedsConfirmation: true,
			MissingDocuments:  missing,
		}
	}

	return SubmitResult{GuardResult: allow(), MissingDocuments: missing}
}

// checkGeneralInfo enforces the required general fields and their invariants.
func checkGeneralInfo(cat *catalog.Catalog, info domain.GeneralInfo) GuardResult {
	var missing []string
	if strings.TrimSpace(info.TripType) == "" {
		missing = append(missing, "trip type")
	}
	if strings.TrimSpace(info.Name) == "" {
		missing = append(missing, "name")
	}
	if info.StartDate == nil {
		missing = append(missing, "start date")
	}
	if info.EndDate == nil {
		missing = append(missing, "end date")
	}
	if info.TraineeCount == nil {
		missing = append(missing, "trainee count")
	}
	if info.TotalTravelers == nil {
		missing = append(missing, "total travelers")
	}
	if len(missing) > 0 {
		return deny(GateGeneralInfo, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if _, ok := cat.TripType(info.TripType); !ok {
		return deny(GateGeneralInfo, "unknown trip type %q", info.TripType)
	}

	if dateOnly(*info.EndDate).Before(dateOnly(*info.StartDate)) {
		return deny(GateGeneralInfo, "end date must not be before start date")
	}
	if *info.TraineeCount < 0 || *info.TotalTravelers < 0 {
		return deny(GateGeneralInfo, "participant counts must not be negative")
	}
	if *info.TotalTravelers < *info.TraineeCount {
		return deny(GateGeneralInfo,
			"participant count inconsistency: total travelers (%d) is less than trainee count (%d)",
			*info.TotalTravelers, *info.TraineeCount)
	}
	return allow()
}
