package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user may not perform the operation
// (wrong role, not the owner, account not yet approved).
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned when credentials are missing or invalid.
// Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict is returned when a status transition lost a race against
// another writer, or a unique key is already taken.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrConfirmationRequired is returned by a submission that passed every hard
// gate but has timeline entries missing required documents. The caller must
// repeat the request with explicit confirmation to proceed.
var ErrConfirmationRequired = errors.New("confirmation required")
