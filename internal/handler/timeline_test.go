package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/handler"
	"github.com/tripdesk/backend/internal/service"
)

type mockTimelineServicer struct {
	addEntry        func(ctx context.Context, actorID, tripID uuid.UUID, e domain.TimelineEntry, confirm bool) (domain.Trip, time.Time, error)
	removeEntry     func(ctx context.Context, actorID, tripID, entryID uuid.UUID, confirm bool) (domain.Trip, error)
	attachDocuments func(ctx context.Context, actorID, tripID, entryID uuid.UUID, license, insurance *domain.FileRef, confirm bool) (domain.Trip, error)
}

func (m *mockTimelineServicer) AddEntry(ctx context.Context, actorID, tripID uuid.UUID, e domain.TimelineEntry, confirm bool) (domain.Trip, time.Time, error) {
	return m.addEntry(ctx, actorID, tripID, e, confirm)
}
func (m *mockTimelineServicer) RemoveEntry(ctx context.Context, actorID, tripID, entryID uuid.UUID, confirm bool) (domain.Trip, error) {
	return m.removeEntry(ctx, actorID, tripID, entryID, confirm)
}
func (m *mockTimelineServicer) AttachDocuments(ctx context.Context, actorID, tripID, entryID uuid.UUID, license, insurance *domain.FileRef, confirm bool) (domain.Trip, error) {
	return m.attachDocuments(ctx, actorID, tripID, entryID, license, insurance, confirm)
}

var _ handler.TimelineServicer = (*mockTimelineServicer)(nil)

func timelineHandler(svc *mockTimelineServicer) http.Handler {
	return newHTTPHandler(handler.Services{Timeline: svc})
}

func TestAddTimelineEntry_201(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	trip := tripFixture(me.id, domain.StatusDraft)
	svc := &mockTimelineServicer{
		addEntry: func(_ context.Context, _ uuid.UUID, tripID uuid.UUID, e domain.TimelineEntry, confirm bool) (domain.Trip, time.Time, error) {
			assert.Equal(t, trip.ID, tripID)
			assert.False(t, confirm)
			assert.Equal(t, domain.CategoryFood, e.Category)
			assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), e.Date)
			return trip, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), nil
		},
	}

	rec := do(t, timelineHandler(svc), me, http.MethodPost, "/trips/"+trip.ID.String()+"/timeline", map[string]any{
		"date":          "2025-06-15",
		"category":      "food",
		"sub_category":  "Restaurant",
		"location_type": "home_base",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Trip     tripJSON `json:"trip"`
		NextDate string   `json:"next_date"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2025-06-16", resp.NextDate)
	assert.Equal(t, trip.ID, resp.Trip.ID)
}

func TestAddTimelineEntry_OutsideTripDates(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	svc := &mockTimelineServicer{
		addEntry: func(context.Context, uuid.UUID, uuid.UUID, domain.TimelineEntry, bool) (domain.Trip, time.Time, error) {
			return domain.Trip{}, time.Time{}, fmt.Errorf("service.TimelineService.AddEntry: %w: entry date is after the trip end date", domain.ErrValidation)
		},
	}

	rec := do(t, timelineHandler(svc), me, http.MethodPost, "/trips/"+uuid.NewString()+"/timeline", map[string]any{"date": "2025-07-01"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "entry date is after the trip end date", decodeError(t, rec).Error.Message)
}

func TestAddTimelineEntry_PendingTripConfirmation(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	trip := tripFixture(me.id, domain.StatusPending)
	entryID := uuid.New()
	svc := &mockTimelineServicer{
		addEntry: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ domain.TimelineEntry, confirm bool) (domain.Trip, time.Time, error) {
			if !confirm {
				return domain.Trip{}, time.Time{}, fmt.Errorf("service.TimelineService.AddEntry: %w", &service.ConfirmationError{
					Message:          "1 timeline entries are missing a required license or insurance document; submit anyway?",
					MissingDocuments: []uuid.UUID{entryID},
				})
			}
			return trip, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), nil
		},
	}
	body := map[string]any{
		"date":          "2025-06-15",
		"category":      "attraction",
		"sub_category":  "Water park",
		"location_type": "city",
		"location":      "Eilat",
	}

	rec := do(t, timelineHandler(svc), me, http.MethodPost, "/trips/"+trip.ID.String()+"/timeline", body)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmation_required", decodeError(t, rec).Error.Code)

	body["confirm_missing_documents"] = true
	rec = do(t, timelineHandler(svc), me, http.MethodPost, "/trips/"+trip.ID.String()+"/timeline", body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRemoveTimelineEntry(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	tripID, entryID := uuid.New(), uuid.New()

	t.Run("200", func(t *testing.T) {
		svc := &mockTimelineServicer{
			removeEntry: func(_ context.Context, _ uuid.UUID, gotTrip, gotEntry uuid.UUID, confirm bool) (domain.Trip, error) {
				assert.Equal(t, tripID, gotTrip)
				assert.Equal(t, entryID, gotEntry)
				assert.False(t, confirm)
				return tripFixture(me.id, domain.StatusDraft), nil
			},
		}
		rec := do(t, timelineHandler(svc), me, http.MethodDelete, fmt.Sprintf("/trips/%s/timeline/%s", tripID, entryID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("confirmation from the query", func(t *testing.T) {
		svc := &mockTimelineServicer{
			removeEntry: func(_ context.Context, _ uuid.UUID, _, _ uuid.UUID, confirm bool) (domain.Trip, error) {
				assert.True(t, confirm)
				return tripFixture(me.id, domain.StatusPending), nil
			},
		}
		rec := do(t, timelineHandler(svc), me, http.MethodDelete,
			fmt.Sprintf("/trips/%s/timeline/%s?confirm_missing_documents=true", tripID, entryID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("below the trip type minimum is 422", func(t *testing.T) {
		svc := &mockTimelineServicer{
			removeEntry: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, bool) (domain.Trip, error) {
				return domain.Trip{}, fmt.Errorf("service.TimelineService.RemoveEntry: %w: at least one timeline entry is required", domain.ErrValidation)
			},
		}
		rec := do(t, timelineHandler(svc), me, http.MethodDelete, fmt.Sprintf("/trips/%s/timeline/%s", tripID, entryID), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "at least one timeline entry is required", decodeError(t, rec).Error.Message)
	})

	t.Run("unknown entry is 404", func(t *testing.T) {
		svc := &mockTimelineServicer{
			removeEntry: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, bool) (domain.Trip, error) {
				return domain.Trip{}, fmt.Errorf("%w: timeline entry %s", domain.ErrNotFound, entryID)
			},
		}
		rec := do(t, timelineHandler(svc), me, http.MethodDelete, fmt.Sprintf("/trips/%s/timeline/%s", tripID, entryID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad entry id is 422", func(t *testing.T) {
		rec := do(t, timelineHandler(&mockTimelineServicer{}), me, http.MethodDelete, fmt.Sprintf("/trips/%s/timeline/nope", tripID), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error.Message, "entryId")
	})
}

func TestAttachDocuments(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	trip := tripFixture(me.id, domain.StatusDraft)
	entryID := trip.Timeline[0].ID
	svc := &mockTimelineServicer{
		attachDocuments: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, got uuid.UUID, license, insurance *domain.FileRef, confirm bool) (domain.Trip, error) {
			assert.Equal(t, entryID, got)
			assert.False(t, confirm)
			require.NotNil(t, license)
			assert.Equal(t, "/files/l.pdf", license.URL)
			assert.Nil(t, insurance)
			trip.Timeline[0].LicenseFile = license
			return trip, nil
		},
	}

	rec := do(t, timelineHandler(svc), me, http.MethodPut,
		fmt.Sprintf("/trips/%s/timeline/%s/documents", trip.ID, entryID),
		map[string]any{"license_file": map[string]any{"url": "/files/l.pdf", "name": "l.pdf"}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp tripJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Timeline, 1)
	assert.True(t, resp.Timeline[0].MissingDocuments)
}
