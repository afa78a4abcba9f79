package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripdesk/backend/internal/domain"
)

type addEntryBody struct {
	entryBody
	ConfirmMissingDocuments bool `json:"confirm_missing_documents"`
}

type addEntryResponse struct {
	Trip     tripResponse       `json:"trip"`
	NextDate openapi_types.Date `json:"next_date"`
}

// AddTimelineEntry handles POST /trips/{id}/timeline.
// The response carries the default date for the next entry. Editing a
// pending trip re-runs submission, so the body may carry
// confirm_missing_documents.
func (s *Server) AddTimelineEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body addEntryBody
	if !s.decode(w, r, &body) {
		return
	}

	trip, next, err := s.Timeline.AddEntry(r.Context(), actorID(r), id, body.toDomain(), body.ConfirmMissingDocuments)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addEntryResponse{
		Trip:     tripToResponse(trip),
		NextDate: openapi_types.Date{Time: next},
	})
}

// RemoveTimelineEntry handles DELETE /trips/{id}/timeline/{entryId}.
// ?confirm_missing_documents=true answers the prompt for pending trips.
func (s *Server) RemoveTimelineEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(w, r, "entryId")
	if !ok {
		return
	}
	var confirm *bool
	if !queryParam(w, r, "confirm_missing_documents", &confirm) {
		return
	}

	trip, err := s.Timeline.RemoveEntry(r.Context(), actorID(r), id, entryID, confirm != nil && *confirm)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

type documentsBody struct {
	LicenseFile   *domain.FileRef `json:"license_file,omitempty"`
	InsuranceFile *domain.FileRef `json:"insurance_file,omitempty"`

	ConfirmMissingDocuments bool `json:"confirm_missing_documents"`
}

// AttachDocuments handles PUT /trips/{id}/timeline/{entryId}/documents.
func (s *Server) AttachDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(w, r, "entryId")
	if !ok {
		return
	}
	var body documentsBody
	if !s.decode(w, r, &body) {
		return
	}

	trip, err := s.Timeline.AttachDocuments(r.Context(), actorID(r), id, entryID, body.LicenseFile, body.InsuranceFile, body.ConfirmMissingDocuments)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}
