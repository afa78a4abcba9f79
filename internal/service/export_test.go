package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/service"
)

func TestExportService_Export_RowPerEntry(t *testing.T) {
	owner := coordinator()
	staff := reviewer(domain.RoleSafetyAdmin, "")

	withTwo := storedTrip(owner, domain.StatusApproved)
	second := sleepingEntry(day(5))
	second.RequiresLicense = true
	second.FinalSubCategory = "Hostel"
	second.FinalLocation = "Tiberias"
	withTwo.Timeline = append(withTwo.Timeline, second)

	empty := storedTrip(owner, domain.StatusDraft)
	empty.Timeline = nil
	empty.Info.StartDate = nil

	var gotFilter domain.TripFilter
	trips := &mockTripRepo{
		list: func(_ context.Context, f domain.TripFilter) ([]domain.Trip, error) {
			gotFilter = f
			return []domain.Trip{withTwo, empty}, nil
		},
	}
	svc := service.NewExportService(trips, profilesOf(staff))

	rows, err := svc.Export(context.Background(), staff.UserID, domain.TripFilter{Department: "north"})

	require.NoError(t, err)
	assert.Equal(t, "north", gotFilter.Department)
	require.Len(t, rows, 3)

	assert.Equal(t, withTwo.ID.String(), rows[0].TripID)
	assert.Equal(t, "Museum", rows[0].SubCategory)
	assert.Equal(t, day(5).Format("2006-01-02"), rows[0].TripStartDate)
	assert.False(t, rows[0].MissingDocuments)

	assert.Equal(t, "Hostel", rows[1].SubCategory)
	assert.True(t, rows[1].RequiresLicense)
	assert.True(t, rows[1].MissingDocuments)

	assert.Equal(t, empty.ID.String(), rows[2].TripID)
	assert.Empty(t, rows[2].TripStartDate)
	assert.Empty(t, rows[2].Category)
}

func TestExportService_Export_ReviewersOnly(t *testing.T) {
	me := coordinator()
	svc := service.NewExportService(&mockTripRepo{}, profilesOf(me))

	_, err := svc.Export(context.Background(), me.UserID, domain.TripFilter{})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
