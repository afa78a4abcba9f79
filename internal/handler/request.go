package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/domain"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. On failure it writes
// the response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		case errors.Is(err, io.EOF):
			requestError(w, "request body is required")
		default:
			requestError(w, "malformed request body: "+err.Error())
		}
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		requestError(w, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders the first validator failure as one sentence.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}
	fe := ve[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

// pathUUID binds a uuid path parameter. On failure it writes the response
// and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter %s: must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryParam binds an optional form-style query parameter into dest, which
// must be a pointer to a pointer. On failure it writes the response and
// returns false.
func queryParam(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter %s", name))
		return false
	}
	return true
}

// pagination reads ?page= and ?limit=.
func pagination(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	var page, limit *int
	if !queryParam(w, r, "page", &page) || !queryParam(w, r, "limit", &limit) {
		return domain.PaginationParams{}, false
	}
	return domain.NewPaginationParams(page, limit), true
}

// actorID returns the authenticated user. Routes behind auth.Authenticate
// always have one.
func actorID(r *http.Request) uuid.UUID {
	a, _ := auth.ActorFromContext(r.Context())
	return a.UserID
}

// pageResponse wraps a list with the pagination envelope.
type pageResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination paginationInfo `json:"pagination"`
}

type paginationInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func newPage[T any](data []T, p domain.PaginationParams, total int64) pageResponse[T] {
	if data == nil {
		data = []T{}
	}
	return pageResponse[T]{Data: data, Pagination: paginationInfo{Page: p.Page, Limit: p.Limit, Total: total}}
}
