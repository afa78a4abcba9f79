package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/service"
)

// errorDetail is the body of every error response:
// {"error":{"code":"...","message":"..."}}.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// MissingDocuments lists the timeline entries without their required
	// documents on confirmation_required responses.
	MissingDocuments []uuid.UUID `json:"missing_documents,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// requestError rejects a request that never reached the service layer
// (malformed body, bad path or query parameter).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// fail maps a service error to its HTTP status. Unknown errors are logged
// and answered with a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var ce *service.ConfirmationError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{
			Code:             "confirmation_required",
			Message:          ce.Message,
			MissingDocuments: ce.MissingDocuments,
		}})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", unwrapMessage(err))
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized", unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", unwrapMessage(err))
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// sentinels are the domain error texts a message is cut after.
var sentinels = []error{
	domain.ErrValidation,
	domain.ErrForbidden,
	domain.ErrUnauthenticated,
	domain.ErrConflict,
	domain.ErrNotFound,
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Submit: validation error: at least one timeline entry is required"
// → "at least one timeline entry is required". A bare sentinel is returned as is.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range sentinels {
		marker := s.Error() + ": "
		if i := strings.Index(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
