package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/handler"
	"github.com/tripdesk/backend/internal/service"
)

type mockAuthServicer struct {
	signUp            func(ctx context.Context, in service.SignUpInput) (service.Session, error)
	login             func(ctx context.Context, email, password string) (service.Session, error)
	updateCredentials func(ctx context.Context, userID uuid.UUID, in service.CredentialsInput) (domain.User, error)
}

func (m *mockAuthServicer) SignUp(ctx context.Context, in service.SignUpInput) (service.Session, error) {
	return m.signUp(ctx, in)
}
func (m *mockAuthServicer) Login(ctx context.Context, email, password string) (service.Session, error) {
	return m.login(ctx, email, password)
}
func (m *mockAuthServicer) UpdateCredentials(ctx context.Context, userID uuid.UUID, in service.CredentialsInput) (domain.User, error) {
	return m.updateCredentials(ctx, userID, in)
}

var _ handler.AuthServicer = (*mockAuthServicer)(nil)

type mockProfileServicer struct {
	me            func(ctx context.Context, userID uuid.UUID) (domain.User, domain.Profile, error)
	updateProfile func(ctx context.Context, userID uuid.UUID, in service.ProfileInput) (domain.Profile, error)
	listProfiles  func(ctx context.Context, actorID uuid.UUID, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error)
	setApproval   func(ctx context.Context, actorID, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error)
}

func (m *mockProfileServicer) Me(ctx context.Context, userID uuid.UUID) (domain.User, domain.Profile, error) {
	return m.me(ctx, userID)
}
func (m *mockProfileServicer) UpdateProfile(ctx context.Context, userID uuid.UUID, in service.ProfileInput) (domain.Profile, error) {
	return m.updateProfile(ctx, userID, in)
}
func (m *mockProfileServicer) ListProfiles(ctx context.Context, actorID uuid.UUID, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error) {
	return m.listProfiles(ctx, actorID, status, p)
}
func (m *mockProfileServicer) SetApproval(ctx context.Context, actorID, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error) {
	return m.setApproval(ctx, actorID, userID, status)
}

var _ handler.ProfileServicer = (*mockProfileServicer)(nil)

func profileFixture(id uuid.UUID) domain.Profile {
	return domain.Profile{
		UserID:         id,
		FullName:       "Dana Levi",
		Email:          "dana@example.org",
		Role:           domain.RoleCoordinator,
		Department:     "north",
		ApprovalStatus: domain.AccountPending,
	}
}

type sessionJSON struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"user"`
	Profile struct {
		FullName       string `json:"full_name"`
		ApprovalStatus string `json:"approval_status"`
	} `json:"profile"`
}

// ---- POST /auth/signup -----------------------------------------------------

func TestSignUp_201(t *testing.T) {
	id := uuid.New()
	var got service.SignUpInput
	svc := &mockAuthServicer{
		signUp: func(_ context.Context, in service.SignUpInput) (service.Session, error) {
			got = in
			return service.Session{
				Token:     "tok",
				ExpiresAt: time.Now().Add(time.Hour),
				User:      domain.User{ID: id, Email: in.Email},
				Profile:   profileFixture(id),
			}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Auth: svc})

	rec := do(t, h, caller{}, http.MethodPost, "/auth/signup", map[string]any{
		"email":     "dana@example.org",
		"password":  "correct horse",
		"full_name": "Dana Levi",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "dana@example.org", got.Email)
	assert.Equal(t, "Dana Levi", got.FullName)

	var resp sessionJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, id, resp.User.ID)
	assert.Equal(t, "pending", resp.Profile.ApprovalStatus)
}

func TestSignUp_422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Auth: &mockAuthServicer{}})

	tests := []struct {
		name string
		body any
		want string
	}{
		{"bad email", map[string]any{"email": "not-an-email", "password": "longenough"}, "malformed request body"},
		{"short password", map[string]any{"email": "a@b.org", "password": "short"}, "password must be at least 8 characters"},
		{"missing password", map[string]any{"email": "a@b.org"}, "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, caller{}, http.MethodPost, "/auth/signup", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, decodeError(t, rec).Error.Message, tt.want)
		})
	}
}

func TestSignUp_409_EmailTaken(t *testing.T) {
	svc := &mockAuthServicer{
		signUp: func(context.Context, service.SignUpInput) (service.Session, error) {
			return service.Session{}, fmt.Errorf("service.AuthService.SignUp: %w: email already registered", domain.ErrConflict)
		},
	}
	h := newHTTPHandler(handler.Services{Auth: svc})

	rec := do(t, h, caller{}, http.MethodPost, "/auth/signup", map[string]any{"email": "a@b.org", "password": "longenough"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already registered", decodeError(t, rec).Error.Message)
}

// ---- POST /auth/login ------------------------------------------------------

func TestLogin_401(t *testing.T) {
	svc := &mockAuthServicer{
		login: func(_ context.Context, email, password string) (service.Session, error) {
			assert.Equal(t, "a@b.org", email)
			assert.Equal(t, "wrong", password)
			return service.Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
		},
	}
	h := newHTTPHandler(handler.Services{Auth: svc})

	rec := do(t, h, caller{}, http.MethodPost, "/auth/login", map[string]any{"email": "a@b.org", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "unauthorized", env.Error.Code)
	assert.Equal(t, "invalid email or password", env.Error.Message)
}

// ---- /me -------------------------------------------------------------------

func TestGetMe(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	profiles := &mockProfileServicer{
		me: func(_ context.Context, userID uuid.UUID) (domain.User, domain.Profile, error) {
			return domain.User{ID: userID, Email: "dana@example.org", PasswordHash: "secret-hash"}, profileFixture(userID), nil
		},
	}
	h := newHTTPHandler(handler.Services{Profiles: profiles})

	rec := do(t, h, me, http.MethodGet, "/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	var resp sessionJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, me.id, resp.User.ID)
	assert.Equal(t, "Dana Levi", resp.Profile.FullName)
}

func TestUpdateMe_CredentialsThenProfile(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	var calls []string
	authSvc := &mockAuthServicer{
		updateCredentials: func(_ context.Context, userID uuid.UUID, in service.CredentialsInput) (domain.User, error) {
			calls = append(calls, "credentials")
			assert.Equal(t, "old-password", in.CurrentPassword)
			require.NotNil(t, in.Email)
			assert.Equal(t, "new@example.org", *in.Email)
			assert.Nil(t, in.Password)
			return domain.User{ID: userID, Email: *in.Email}, nil
		},
	}
	profiles := &mockProfileServicer{
		updateProfile: func(_ context.Context, _ uuid.UUID, in service.ProfileInput) (domain.Profile, error) {
			calls = append(calls, "profile")
			assert.Equal(t, "123456789", in.IDNumber)
			return domain.Profile{}, nil
		},
		me: func(_ context.Context, userID uuid.UUID) (domain.User, domain.Profile, error) {
			return domain.User{ID: userID, Email: "new@example.org"}, profileFixture(userID), nil
		},
	}
	h := newHTTPHandler(handler.Services{Auth: authSvc, Profiles: profiles})

	rec := do(t, h, me, http.MethodPut, "/me", map[string]any{
		"profile":     map[string]any{"full_name": "Dana Levi", "id_number": "123456789"},
		"credentials": map[string]any{"current_password": "old-password", "email": "new@example.org"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"credentials", "profile"}, calls)
}

func TestUpdateMe_EmptyBody422(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	h := newHTTPHandler(handler.Services{Auth: &mockAuthServicer{}, Profiles: &mockProfileServicer{}})

	rec := do(t, h, me, http.MethodPut, "/me", map[string]any{})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "profile or credentials is required", decodeError(t, rec).Error.Message)
}

func TestUpdateMe_WrongPasswordStopsProfileUpdate(t *testing.T) {
	me := newCaller(t, domain.RoleCoordinator)
	authSvc := &mockAuthServicer{
		updateCredentials: func(context.Context, uuid.UUID, service.CredentialsInput) (domain.User, error) {
			return domain.User{}, fmt.Errorf("%w: current password is incorrect", domain.ErrForbidden)
		},
	}
	profiles := &mockProfileServicer{
		updateProfile: func(context.Context, uuid.UUID, service.ProfileInput) (domain.Profile, error) {
			t.Fatal("profile must not be updated")
			return domain.Profile{}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Auth: authSvc, Profiles: profiles})

	rec := do(t, h, me, http.MethodPut, "/me", map[string]any{
		"profile":     map[string]any{"full_name": "Dana"},
		"credentials": map[string]any{"current_password": "nope", "password": "new-password"},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "current password is incorrect", decodeError(t, rec).Error.Message)
}

// ---- /admin ----------------------------------------------------------------

func TestListProfiles_AdminOnly(t *testing.T) {
	staff := newCaller(t, domain.RoleDeptStaff)
	h := newHTTPHandler(handler.Services{Profiles: &mockProfileServicer{}})

	rec := do(t, h, staff, http.MethodGet, "/admin/profiles", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListProfiles(t *testing.T) {
	admin := newCaller(t, domain.RoleAdmin)
	profiles := &mockProfileServicer{
		listProfiles: func(_ context.Context, _ uuid.UUID, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error) {
			assert.Equal(t, domain.AccountPending, status)
			assert.Equal(t, 2, p.Page)
			return []domain.Profile{profileFixture(uuid.New())}, 21, nil
		},
	}
	h := newHTTPHandler(handler.Services{Profiles: profiles})

	rec := do(t, h, admin, http.MethodGet, "/admin/profiles?status=pending&page=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Page  int   `json:"page"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, int64(21), resp.Pagination.Total)
}

func TestSetApproval(t *testing.T) {
	admin := newCaller(t, domain.RoleAdmin)
	target := uuid.New()
	profiles := &mockProfileServicer{
		setApproval: func(_ context.Context, actorID, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error) {
			assert.Equal(t, admin.id, actorID)
			assert.Equal(t, target, userID)
			p := profileFixture(userID)
			p.ApprovalStatus = status
			return p, nil
		},
	}
	h := newHTTPHandler(handler.Services{Profiles: profiles})

	t.Run("approved", func(t *testing.T) {
		rec := do(t, h, admin, http.MethodPost, "/admin/profiles/"+target.String()+"/approval", map[string]any{"status": "approved"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"approval_status":"approved"`)
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		rec := do(t, h, admin, http.MethodPost, "/admin/profiles/"+target.String()+"/approval", map[string]any{"status": "pending"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "status must be one of: approved rejected", decodeError(t, rec).Error.Message)
	})
}
