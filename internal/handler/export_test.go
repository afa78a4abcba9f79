package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/handler"
)

type mockExportServicer struct {
	export func(ctx context.Context, actorID uuid.UUID, f domain.TripFilter) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context, actorID uuid.UUID, f domain.TripFilter) ([]domain.ExportRow, error) {
	return m.export(ctx, actorID, f)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

var exportRows = []domain.ExportRow{
	{
		TripID: "t1", TripName: "Galilee camp", TripType: "summer_camp", Status: "approved",
		TripStartDate: "2025-06-15", TripEndDate: "2025-06-16",
		CoordinatorName: "Dana", Department: "north", Branch: "haifa",
		EntryDate: "2025-06-15", Category: "attraction", SubCategory: "Water park", Location: "Haifa",
		RequiresLicense: true, MissingDocuments: true,
	},
	{TripID: "t2", TripName: "Empty", TripType: "seminar", Status: "draft", Department: "north"},
}

func exportHandler(svc *mockExportServicer) http.Handler {
	return newHTTPHandler(handler.Services{Export: svc})
}

func TestGetExport_JSON(t *testing.T) {
	staff := newCaller(t, domain.RoleDeptStaff)
	var gotFilter domain.TripFilter
	svc := &mockExportServicer{
		export: func(_ context.Context, actorID uuid.UUID, f domain.TripFilter) ([]domain.ExportRow, error) {
			assert.Equal(t, staff.id, actorID)
			gotFilter = f
			return exportRows, nil
		},
	}

	rec := do(t, exportHandler(svc), staff, http.MethodGet, "/export?status=approved&department=north", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusApproved, gotFilter.Status)
	assert.Equal(t, "north", gotFilter.Department)

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Water park", rows[0]["sub_category"])
	assert.Equal(t, true, rows[0]["missing_documents"])
	assert.NotContains(t, rows[1], "entry_date")
}

func TestGetExport_CSV(t *testing.T) {
	staff := newCaller(t, domain.RoleSafetyAdmin)
	svc := &mockExportServicer{
		export: func(context.Context, uuid.UUID, domain.TripFilter) ([]domain.ExportRow, error) {
			return exportRows, nil
		},
	}

	rec := do(t, exportHandler(svc), staff, http.MethodGet, "/export?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trips.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "trip_id", records[0][0])
	assert.Equal(t, "missing_documents", records[0][14])
	assert.Equal(t, []string{
		"t1", "Galilee camp", "summer_camp", "approved", "2025-06-15", "2025-06-16",
		"Dana", "north", "haifa",
		"2025-06-15", "attraction", "Water park", "Haifa", "true", "true",
	}, records[1])
	assert.Equal(t, "", records[2][9])
}

func TestGetExport_CoordinatorForbidden(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	svc := &mockExportServicer{
		export: func(context.Context, uuid.UUID, domain.TripFilter) ([]domain.ExportRow, error) {
			t.Fatal("service must not be reached")
			return nil, nil
		},
	}

	rec := do(t, exportHandler(svc), me, http.MethodGet, "/export", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Error.Code)
}
