package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

type contactBody struct {
	Subject string `json:"subject" validate:"max=200"`
	Body    string `json:"body" validate:"max=5000"`
}

type replyBody struct {
	Reply string `json:"reply" validate:"max=5000"`
}

type contactResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Reply     string     `json:"reply,omitempty"`
	RepliedBy *uuid.UUID `json:"replied_by,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func contactToResponse(m domain.ContactMessage) contactResponse {
	return contactResponse(m)
}

// SendContactMessage handles POST /contact.
func (s *Server) SendContactMessage(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if !s.decode(w, r, &body) {
		return
	}

	m, err := s.Contact.Send(r.Context(), actorID(r), body.Subject, body.Body)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contactToResponse(m))
}

// ListContactMessages handles GET /contact. Supports ?unanswered=true,
// ?page= and ?limit=.
func (s *Server) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	var unanswered *bool
	if !queryParam(w, r, "unanswered", &unanswered) {
		return
	}
	params, ok := pagination(w, r)
	if !ok {
		return
	}

	ms, total, err := s.Contact.List(r.Context(), actorID(r), unanswered != nil && *unanswered, params)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]contactResponse, len(ms))
	for i, m := range ms {
		out[i] = contactToResponse(m)
	}
	writeJSON(w, http.StatusOK, newPage(out, params, total))
}

// ReplyContactMessage handles POST /contact/{id}/reply.
func (s *Server) ReplyContactMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body replyBody
	if !s.decode(w, r, &body) {
		return
	}

	m, err := s.Contact.Reply(r.Context(), actorID(r), id, body.Reply)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactToResponse(m))
}
