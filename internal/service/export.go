package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
)

const exportDateLayout = "2006-01-02"

// ExportService flattens trips and their timelines for reviewers.
type ExportService struct {
	trips    repo.TripRepo
	profiles repo.ProfileRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(trips repo.TripRepo, profiles repo.ProfileRepo) *ExportService {
	return &ExportService{trips: trips, profiles: profiles}
}

// Export returns one ExportRow per timeline entry across all trips matching
// f. Trips with no entries contribute one row with empty entry fields.
func (s *ExportService) Export(ctx context.Context, actorID uuid.UUID, f domain.TripFilter) ([]domain.ExportRow, error) {
	if _, err := loadReviewer(ctx, s.profiles, actorID); err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	trips, err := s.trips.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, t := range trips {
		base := domain.ExportRow{
			TripID:          t.ID.String(),
			TripName:        t.Info.Name,
			TripType:        t.Info.TripType,
			Status:          string(t.Status),
			TripStartDate:   formatDate(t.Info.StartDate),
			TripEndDate:     formatDate(t.Info.EndDate),
			CoordinatorName: t.Coordinator.Name,
			Department:      t.Department,
			Branch:          t.Branch,
		}
		if len(t.Timeline) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, e := range t.Timeline {
			row := base
			row.EntryDate = e.Date.Format(exportDateLayout)
			row.Category = e.Category
			row.SubCategory = e.FinalSubCategory
			row.Location = e.FinalLocation
			row.RequiresLicense = e.RequiresLicense
			row.MissingDocuments = e.MissingDocuments()
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateLayout)
}
