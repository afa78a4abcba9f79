package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/catalog"
	"github.com/tripdesk/backend/internal/core/trip"
	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
)

// TripInput is the owner-editable content of a trip.
type TripInput struct {
	Info           domain.GeneralInfo
	SecondaryStaff *domain.StaffMember
	Timeline       []domain.TimelineEntry
}

// TripService implements the trip lifecycle: draft saves, submission,
// review, cancellation and deletion. Every rule runs before the first write,
// so a failed operation leaves the stored trip untouched.
type TripService struct {
	trips    repo.TripRepo
	profiles repo.ProfileRepo
	catalog  *catalog.Catalog
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
	rec      Recorder
}

// NewTripService constructs a TripService. loc is the zone trip dates and
// times are interpreted in.
func NewTripService(trips repo.TripRepo, profiles repo.ProfileRepo, cat *catalog.Catalog, notifier Notifier, loc *time.Location) *TripService {
	if loc == nil {
		loc = time.UTC
	}
	return &TripService{
		trips:    trips,
		profiles: profiles,
		catalog:  cat,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		rec:      nopRecorder{},
	}
}

// WithClock replaces the time source.
func (s *TripService) WithClock(now func() time.Time) *TripService {
	s.now = now
	return s
}

// WithRecorder reports transitions and gate failures to rec.
func (s *TripService) WithRecorder(rec Recorder) *TripService {
	s.rec = rec
	return s
}

// Get returns a trip visible to the actor: their own, or any trip for
// reviewers.
func (s *TripService) Get(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error) {
	p, err := loadProfile(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	if t.OwnerID != actorID && !p.Role.IsReviewer() {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", forbiddenErr("you can only view your own trips"))
	}
	return t, nil
}

// List returns one page of trips. Coordinators only ever see their own.
func (s *TripService) List(ctx context.Context, actorID uuid.UUID, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	prof, err := loadProfile(ctx, s.profiles, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", validationErr(fmt.Sprintf("unknown status %q", f.Status)))
	}
	if !prof.Role.IsReviewer() {
		f.OwnerID = actorID
	}
	trips, total, err := s.trips.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// SaveDraft stores a new trip as a draft. Only the trip type is required.
func (s *TripService) SaveDraft(ctx context.Context, actorID uuid.UUID, in TripInput) (domain.Trip, error) {
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SaveDraft: %w", err)
	}
	if r := trip.CanSaveDraft(s.catalog, in.Info); !r.Allowed {
		return domain.Trip{}, fmt.Errorf("service.TripService.SaveDraft: %w", deny(s.rec, r))
	}
	t, err := s.newTrip(p, in)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SaveDraft: %w", err)
	}
	t.Status = domain.StatusDraft

	created, err := s.trips.Create(ctx, t)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SaveDraft: %w", err)
	}
	s.rec.Transition("", string(domain.StatusDraft))
	return created, nil
}

// SubmitNew creates a trip directly in pending.
func (s *TripService) SubmitNew(ctx context.Context, actorID uuid.UUID, in TripInput, confirm bool) (domain.Trip, error) {
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SubmitNew: %w", err)
	}
	t, err := s.newTrip(p, in)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SubmitNew: %w", err)
	}
	result, err := s.submit(ctx, p, t, confirm)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.SubmitNew: %w", err)
	}
	return result, nil
}

// Update replaces the content of an editable trip. Drafts and rejected trips
// keep their status; a pending trip is re-validated as a fresh submission.
func (s *TripService) Update(ctx context.Context, actorID, id uuid.UUID, in TripInput, confirm bool) (domain.Trip, error) {
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	t, err := s.editable(ctx, actorID, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	if r := trip.CanSaveDraft(s.catalog, in.Info); !r.Allowed {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", deny(s.rec, r))
	}
	timeline, err := s.normalizeTimeline(in.Info, in.Timeline)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	t.Info = in.Info
	t.SecondaryStaff = in.SecondaryStaff
	t.Timeline = timeline

	if t.Status == domain.StatusPending {
		result, err := s.submit(ctx, p, t, confirm)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
		}
		return result, nil
	}

	t.Coordinator = p.Snapshot()
	updated, err := s.trips.Update(ctx, t, t.Status)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return updated, nil
}

// Submit moves a stored draft, pending or rejected trip to pending.
func (s *TripService) Submit(ctx context.Context, actorID, id uuid.UUID, confirm bool) (domain.Trip, error) {
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Submit: %w", err)
	}
	t, err := s.editable(ctx, actorID, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Submit: %w", err)
	}
	result, err := s.submit(ctx, p, t, confirm)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Submit: %w", err)
	}
	return result, nil
}

// Approve moves a pending trip to approved and tells the owner.
func (s *TripService) Approve(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error) {
	t, err := s.review(ctx, actorID, id, domain.StatusApproved)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Approve: %w", err)
	}
	return t, nil
}

// Reject moves a pending trip to rejected and asks the owner to review it.
func (s *TripService) Reject(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error) {
	t, err := s.review(ctx, actorID, id, domain.StatusRejected)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Reject: %w", err)
	}
	return t, nil
}

// Cancel moves a pending or approved trip to cancelled, stores the reason
// and informs the reviewers of the trip's department.
func (s *TripService) Cancel(ctx context.Context, actorID, id uuid.UUID, reason string) (domain.Trip, error) {
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}

	cc := trip.CancelContext{
		Status:  t.Status,
		IsOwner: t.OwnerID == actorID,
		Reason:  reason,
		Now:     s.now(),
	}
	if startsAt, ok := t.Info.StartsAt(s.loc); ok {
		cc.StartsAt = &startsAt
	}
	if r := trip.CanCancel(cc); !r.Allowed {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", deny(s.rec, r))
	}

	reason = strings.TrimSpace(reason)
	cancelled, err := s.trips.Cancel(ctx, id, t.Status, reason)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Cancel: %w", err)
	}
	s.rec.Transition(string(t.Status), string(domain.StatusCancelled))

	reviewers, err := s.profiles.ListReviewerIDs(ctx, cancelled.Department)
	if err != nil {
		slog.WarnContext(ctx, "cancel: list reviewers failed", "trip_id", id, "error", err)
		return cancelled, nil
	}
	draft := trip.CancelNotification(cancelled, reason)
	for _, uid := range reviewers {
		s.notify(ctx, uid, draft)
	}
	return cancelled, nil
}

// Delete permanently removes a draft.
func (s *TripService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if r := trip.CanDelete(trip.OwnerContext{Status: t.Status, IsOwner: t.OwnerID == actorID}); !r.Allowed {
		return fmt.Errorf("service.TripService.Delete: %w", deny(s.rec, r))
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// newTrip builds an unsaved trip owned by p.
func (s *TripService) newTrip(p domain.Profile, in TripInput) (domain.Trip, error) {
	timeline, err := s.normalizeTimeline(in.Info, in.Timeline)
	if err != nil {
		return domain.Trip{}, err
	}
	return domain.Trip{
		OwnerID:        p.UserID,
		Info:           in.Info,
		Coordinator:    p.Snapshot(),
		SecondaryStaff: in.SecondaryStaff,
		Timeline:       timeline,
		Branch:         p.Branch,
		Department:     p.Department,
	}, nil
}

// editable loads a trip the actor may still change.
func (s *TripService) editable(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error) {
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if r := trip.CanEdit(trip.OwnerContext{Status: t.Status, IsOwner: t.OwnerID == actorID}); !r.Allowed {
		return domain.Trip{}, deny(s.rec, r)
	}
	return t, nil
}

// saveEdited writes an edited trip under a compare-and-swap on its status.
// A pending trip goes back through the submission gate.
func (s *TripService) saveEdited(ctx context.Context, actorID uuid.UUID, t domain.Trip, confirm bool) (domain.Trip, error) {
	if t.Status != domain.StatusPending {
		return s.trips.Update(ctx, t, t.Status)
	}
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, err
	}
	return s.submit(ctx, p, t, confirm)
}

// normalizeTimeline runs every entry through the line validator so derived
// fields are always computed, never taken from the client.
func (s *TripService) normalizeTimeline(info domain.GeneralInfo, entries []domain.TimelineEntry) ([]domain.TimelineEntry, error) {
	out := make([]domain.TimelineEntry, 0, len(entries))
	for i, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		res := trip.ValidateLine(s.catalog, trip.LineContext{Entry: e, TripEndDate: info.EndDate})
		if !res.Allowed {
			res.Reason = fmt.Sprintf("timeline entry %d: %s", i+1, res.Reason)
			return nil, deny(s.rec, res.GuardResult)
		}
		out = append(out, res.Entry)
	}
	return out, nil
}

// submit runs the full submission gate and writes t as pending.
func (s *TripService) submit(ctx context.Context, p domain.Profile, t domain.Trip, confirm bool) (domain.Trip, error) {
	from := t.Status
	if r := trip.CanTransition(from, domain.StatusPending); !r.Allowed {
		return domain.Trip{}, deny(s.rec, r)
	}

	snapshot := p.Snapshot()
	res := trip.CanSubmit(s.catalog, trip.SubmitContext{
		Info:                    t.Info,
		Coordinator:             snapshot,
		Timeline:                t.Timeline,
		Now:                     s.now(),
		Location:                s.loc,
		ConfirmMissingDocuments: confirm,
	})
	if res.NeedsConfirmation {
		s.rec.GateFailure(res.Gate)
		return domain.Trip{}, &ConfirmationError{Message: res.Reason, MissingDocuments: res.MissingDocuments}
	}
	if !res.Allowed {
		return domain.Trip{}, deny(s.rec, res.GuardResult)
	}

	t.Coordinator = snapshot
	t.Status = domain.StatusPending

	var (
		saved domain.Trip
		err   error
	)
	if from == "" {
		saved, err = s.trips.Create(ctx, t)
	} else {
		saved, err = s.trips.Update(ctx, t, from)
	}
	if err != nil {
		return domain.Trip{}, err
	}
	s.rec.Transition(string(from), string(domain.StatusPending))
	return saved, nil
}

// review applies a reviewer decision with a compare-and-swap on the status.
func (s *TripService) review(ctx context.Context, actorID, id uuid.UUID, to domain.TripStatus) (domain.Trip, error) {
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return domain.Trip{}, err
	}
	t, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	rc := trip.ReviewContext{
		Status:          t.Status,
		TripDepartment:  t.Department,
		ActorRole:       p.Role,
		ActorDepartment: p.Department,
	}
	if r := trip.CanReview(rc, to); !r.Allowed {
		return domain.Trip{}, deny(s.rec, r)
	}

	updated, err := s.trips.UpdateStatus(ctx, id, t.Status, to)
	if err != nil {
		return domain.Trip{}, err
	}
	s.rec.Transition(string(t.Status), string(to))
	s.notify(ctx, updated.OwnerID, trip.ReviewNotification(updated, to))
	return updated, nil
}

// notify sends a notification. The transition it reports has already been
// written, so a failure is logged rather than returned.
func (s *TripService) notify(ctx context.Context, userID uuid.UUID, d trip.NotificationDraft) {
	_, err := s.notifier.Notify(ctx, domain.Notification{
		UserID: userID,
		Title:  d.Title,
		Body:   d.Body,
		Type:   d.Type,
		Link:   d.Link,
	})
	if err != nil {
		slog.WarnContext(ctx, "trip notification failed", "user_id", userID, "title", d.Title, "error", err)
	}
}
