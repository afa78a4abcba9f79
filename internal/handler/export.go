package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/tripdesk/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_type", "status", "trip_start_date", "trip_end_date",
	"coordinator_name", "department", "branch",
	"entry_date", "category", "sub_category", "location", "requires_license", "missing_documents",
}

// exportRow is the JSON form of domain.ExportRow. Entry fields are omitted
// on the single row of a trip without a timeline.
type exportRow struct {
	TripID           string `json:"trip_id"`
	TripName         string `json:"trip_name"`
	TripType         string `json:"trip_type"`
	Status           string `json:"status"`
	TripStartDate    string `json:"trip_start_date,omitempty"`
	TripEndDate      string `json:"trip_end_date,omitempty"`
	CoordinatorName  string `json:"coordinator_name"`
	Department       string `json:"department"`
	Branch           string `json:"branch"`
	EntryDate        string `json:"entry_date,omitempty"`
	Category         string `json:"category,omitempty"`
	SubCategory      string `json:"sub_category,omitempty"`
	Location         string `json:"location,omitempty"`
	RequiresLicense  bool   `json:"requires_license"`
	MissingDocuments bool   `json:"missing_documents"`
}

// GetExport handles GET /export.
// It returns one row per timeline entry across the filtered trips.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if !queryParam(w, r, "format", &format) {
		return
	}
	f, ok := tripFilter(w, r)
	if !ok {
		return
	}

	rows, err := s.Export.Export(r.Context(), actorID(r), f)
	if err != nil {
		fail(w, r, err)
		return
	}

	if format != nil && *format == "csv" {
		writeCSV(w, rows)
		return
	}
	out := make([]exportRow, len(rows))
	for i, row := range rows {
		out[i] = exportRow(row)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows as CSV with a header line.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // writes to a bytes.Buffer cannot fail
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write([]string{
			r.TripID, r.TripName, r.TripType, r.Status, r.TripStartDate, r.TripEndDate,
			r.CoordinatorName, r.Department, r.Branch,
			r.EntryDate, r.Category, r.SubCategory, r.Location,
			strconv.FormatBool(r.RequiresLicense), strconv.FormatBool(r.MissingDocuments),
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
