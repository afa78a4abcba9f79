package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// ListTrips handles GET /trips.
// Supports ?status=, ?department=, ?branch=, ?owner_id=, ?page= and ?limit=
// (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	f, ok := tripFilter(w, r)
	if !ok {
		return
	}
	params, ok := pagination(w, r)
	if !ok {
		return
	}

	trips, total, err := s.Trips.List(r.Context(), actorID(r), f, params)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(tripsToResponse(trips), params, total))
}

// tripFilter reads the listing filters shared by /trips and /export.
func tripFilter(w http.ResponseWriter, r *http.Request) (domain.TripFilter, bool) {
	var (
		status, department, branch *string
		ownerID                    *uuid.UUID
	)
	if !queryParam(w, r, "status", &status) ||
		!queryParam(w, r, "department", &department) ||
		!queryParam(w, r, "branch", &branch) ||
		!queryParam(w, r, "owner_id", &ownerID) {
		return domain.TripFilter{}, false
	}

	var f domain.TripFilter
	if status != nil {
		f.Status = domain.TripStatus(*status)
	}
	if department != nil {
		f.Department = *department
	}
	if branch != nil {
		f.Branch = *branch
	}
	if ownerID != nil {
		f.OwnerID = *ownerID
	}
	return f, true
}

// CreateDraft handles POST /trips.
func (s *Server) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var body tripBody
	if !s.decode(w, r, &body) {
		return
	}

	created, err := s.Trips.SaveDraft(r.Context(), actorID(r), body.toInput())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// SubmitNewTrip handles POST /trips/submit.
func (s *Server) SubmitNewTrip(w http.ResponseWriter, r *http.Request) {
	var body tripBody
	if !s.decode(w, r, &body) {
		return
	}

	created, err := s.Trips.SubmitNew(r.Context(), actorID(r), body.toInput(), body.ConfirmMissingDocuments)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	trip, err := s.Trips.Get(r.Context(), actorID(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PUT /trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body tripBody
	if !s.decode(w, r, &body) {
		return
	}

	updated, err := s.Trips.Update(r.Context(), actorID(r), id, body.toInput(), body.ConfirmMissingDocuments)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := s.Trips.Delete(r.Context(), actorID(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitBody struct {
	ConfirmMissingDocuments bool `json:"confirm_missing_documents"`
}

// SubmitTrip handles POST /trips/{id}/submit. The body is optional.
func (s *Server) SubmitTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body submitBody
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}

	trip, err := s.Trips.Submit(r.Context(), actorID(r), id, body.ConfirmMissingDocuments)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// ApproveTrip handles POST /trips/{id}/approve.
func (s *Server) ApproveTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	trip, err := s.Trips.Approve(r.Context(), actorID(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// RejectTrip handles POST /trips/{id}/reject.
func (s *Server) RejectTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	trip, err := s.Trips.Reject(r.Context(), actorID(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

type cancelBody struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// CancelTrip handles POST /trips/{id}/cancel.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body cancelBody
	if !s.decode(w, r, &body) {
		return
	}

	trip, err := s.Trips.Cancel(r.Context(), actorID(r), id, body.Reason)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}
