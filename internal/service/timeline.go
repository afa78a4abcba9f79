package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/core/trip"
	"github.com/tripdesk/backend/internal/domain"
)

// TimelineService edits the timeline of a stored trip one entry at a time.
// It shares the trip lifecycle rules of TripService: a pending trip only
// accepts an edit that would itself pass submission.
type TimelineService struct {
	lifecycle *TripService
}

// NewTimelineService constructs a TimelineService on top of trips.
func NewTimelineService(trips *TripService) *TimelineService {
	return &TimelineService{lifecycle: trips}
}

// AddEntry validates e against the trip and appends it. The returned date is
// the default date for the next entry. confirm answers the missing-documents
// prompt when the trip is pending.
func (s *TimelineService) AddEntry(ctx context.Context, actorID, tripID uuid.UUID, e domain.TimelineEntry, confirm bool) (domain.Trip, time.Time, error) {
	t, err := s.lifecycle.editable(ctx, actorID, tripID)
	if err != nil {
		return domain.Trip{}, time.Time{}, fmt.Errorf("service.TimelineService.AddEntry: %w", err)
	}

	e.ID = uuid.New()
	res := trip.ValidateLine(s.lifecycle.catalog, trip.LineContext{Entry: e, TripEndDate: t.Info.EndDate})
	if !res.Allowed {
		return domain.Trip{}, time.Time{}, fmt.Errorf("service.TimelineService.AddEntry: %w", deny(s.lifecycle.rec, res.GuardResult))
	}

	t.Timeline = append(slices.Clone(t.Timeline), res.Entry)
	updated, err := s.lifecycle.saveEdited(ctx, actorID, t, confirm)
	if err != nil {
		return domain.Trip{}, time.Time{}, fmt.Errorf("service.TimelineService.AddEntry: %w", err)
	}
	return updated, res.NextDate, nil
}

// RemoveEntry deletes one entry from the timeline.
func (s *TimelineService) RemoveEntry(ctx context.Context, actorID, tripID, entryID uuid.UUID, confirm bool) (domain.Trip, error) {
	t, err := s.lifecycle.editable(ctx, actorID, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.RemoveEntry: %w", err)
	}
	i, err := entryIndex(t, entryID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.RemoveEntry: %w", err)
	}

	t.Timeline = slices.Delete(slices.Clone(t.Timeline), i, i+1)
	updated, err := s.lifecycle.saveEdited(ctx, actorID, t, confirm)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.RemoveEntry: %w", err)
	}
	return updated, nil
}

// AttachDocuments sets the license and insurance files of an entry. A nil
// reference leaves the current file in place.
func (s *TimelineService) AttachDocuments(ctx context.Context, actorID, tripID, entryID uuid.UUID, license, insurance *domain.FileRef, confirm bool) (domain.Trip, error) {
	if license == nil && insurance == nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.AttachDocuments: %w", validationErr("no document to attach"))
	}
	for _, f := range []*domain.FileRef{license, insurance} {
		if f != nil && f.URL == "" {
			return domain.Trip{}, fmt.Errorf("service.TimelineService.AttachDocuments: %w", validationErr("document url is required"))
		}
	}

	t, err := s.lifecycle.editable(ctx, actorID, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.AttachDocuments: %w", err)
	}
	i, err := entryIndex(t, entryID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.AttachDocuments: %w", err)
	}

	t.Timeline = slices.Clone(t.Timeline)
	if license != nil {
		t.Timeline[i].LicenseFile = license
	}
	if insurance != nil {
		t.Timeline[i].InsuranceFile = insurance
	}
	updated, err := s.lifecycle.saveEdited(ctx, actorID, t, confirm)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TimelineService.AttachDocuments: %w", err)
	}
	return updated, nil
}

func entryIndex(t domain.Trip, entryID uuid.UUID) (int, error) {
	i := slices.IndexFunc(t.Timeline, func(e domain.TimelineEntry) bool { return e.ID == entryID })
	if i < 0 {
		return 0, fmt.Errorf("%w: timeline entry %s", domain.ErrNotFound, entryID)
	}
	return i, nil
}
