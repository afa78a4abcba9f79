package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/handler"
)

var testIssuer = auth.NewIssuer("handler-test-secret", time.Hour)

// newHTTPHandler wires a Server with the given services into the router,
// exactly as main does, with real token verification.
func newHTTPHandler(svc handler.Services) http.Handler {
	return handler.NewServer(svc).Handler(testIssuer)
}

// caller is an authenticated test user.
type caller struct {
	id    uuid.UUID
	token string
}

func newCaller(t *testing.T, role domain.Role) caller {
	t.Helper()
	id := uuid.New()
	token, _, err := testIssuer.Issue(id, role)
	require.NoError(t, err)
	return caller{id: id, token: token}
}

// do sends a request through h. A nil body sends none; a non-nil one is
// encoded as JSON. An empty caller token sends no Authorization header.
func do(t *testing.T, h http.Handler, c caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error struct {
		Code             string      `json:"code"`
		Message          string      `json:"message"`
		MissingDocuments []uuid.UUID `json:"missing_documents"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}
