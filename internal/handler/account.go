package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/service"
)

type signUpBody struct {
	Email      openapi_types.Email `json:"email" validate:"required"`
	Password   string              `json:"password" validate:"required,min=8,max=128"`
	FullName   string              `json:"full_name" validate:"max=200"`
	Phone      string              `json:"phone" validate:"max=32"`
	Department string              `json:"department" validate:"max=64"`
	Branch     string              `json:"branch" validate:"max=64"`
}

type loginBody struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileResponse struct {
	UserID         uuid.UUID             `json:"user_id"`
	FullName       string                `json:"full_name"`
	IDNumber       string                `json:"id_number"`
	Phone          string                `json:"phone"`
	Email          string                `json:"email"`
	Role           domain.Role           `json:"role"`
	Department     string                `json:"department"`
	Branch         string                `json:"branch"`
	ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type sessionResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        userResponse    `json:"user"`
	Profile     profileResponse `json:"profile"`
}

type meResponse struct {
	User    userResponse    `json:"user"`
	Profile profileResponse `json:"profile"`
}

func profileToResponse(p domain.Profile) profileResponse {
	return profileResponse{
		UserID:         p.UserID,
		FullName:       p.FullName,
		IDNumber:       p.IDNumber,
		Phone:          p.Phone,
		Email:          p.Email,
		Role:           p.Role,
		Department:     p.Department,
		Branch:         p.Branch,
		ApprovalStatus: p.ApprovalStatus,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func sessionToResponse(sess service.Session) sessionResponse {
	return sessionResponse{
		AccessToken: sess.Token,
		TokenType:   "Bearer",
		ExpiresAt:   sess.ExpiresAt,
		User:        userResponse{ID: sess.User.ID, Email: sess.User.Email},
		Profile:     profileToResponse(sess.Profile),
	}
}

// SignUp handles POST /auth/signup.
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var body signUpBody
	if !s.decode(w, r, &body) {
		return
	}

	sess, err := s.Auth.SignUp(r.Context(), service.SignUpInput{
		Email:      string(body.Email),
		Password:   body.Password,
		FullName:   body.FullName,
		Phone:      body.Phone,
		Department: body.Department,
		Branch:     body.Branch,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !s.decode(w, r, &body) {
		return
	}

	sess, err := s.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// GetMe handles GET /me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	u, p, err := s.Profiles.Me(r.Context(), actorID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		User:    userResponse{ID: u.ID, Email: u.Email},
		Profile: profileToResponse(p),
	})
}

type profileBody struct {
	FullName   string `json:"full_name" validate:"max=200"`
	IDNumber   string `json:"id_number" validate:"max=9"`
	Phone      string `json:"phone" validate:"max=32"`
	Department string `json:"department" validate:"max=64"`
	Branch     string `json:"branch" validate:"max=64"`
}

type credentialsBody struct {
	CurrentPassword string               `json:"current_password" validate:"required"`
	Email           *openapi_types.Email `json:"email,omitempty"`
	Password        *string              `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

// updateMeBody changes the profile, the login credentials, or both.
type updateMeBody struct {
	Profile     *profileBody     `json:"profile,omitempty"`
	Credentials *credentialsBody `json:"credentials,omitempty"`
}

// UpdateMe handles PUT /me.
func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body updateMeBody
	if !s.decode(w, r, &body) {
		return
	}
	if body.Profile == nil && body.Credentials == nil {
		requestError(w, "profile or credentials is required")
		return
	}
	ctx, uid := r.Context(), actorID(r)

	if c := body.Credentials; c != nil {
		in := service.CredentialsInput{CurrentPassword: c.CurrentPassword, Password: c.Password}
		if c.Email != nil {
			email := string(*c.Email)
			in.Email = &email
		}
		if _, err := s.Auth.UpdateCredentials(ctx, uid, in); err != nil {
			fail(w, r, err)
			return
		}
	}
	if p := body.Profile; p != nil {
		_, err := s.Profiles.UpdateProfile(ctx, uid, service.ProfileInput{
			FullName:   p.FullName,
			IDNumber:   p.IDNumber,
			Phone:      p.Phone,
			Department: p.Department,
			Branch:     p.Branch,
		})
		if err != nil {
			fail(w, r, err)
			return
		}
	}
	s.GetMe(w, r)
}

// ListProfiles handles GET /admin/profiles. Supports ?status=, ?page= and ?limit=.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	var status *string
	if !queryParam(w, r, "status", &status) {
		return
	}
	params, ok := pagination(w, r)
	if !ok {
		return
	}
	var st domain.ApprovalStatus
	if status != nil {
		st = domain.ApprovalStatus(*status)
	}

	profiles, total, err := s.Profiles.ListProfiles(r.Context(), actorID(r), st, params)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]profileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = profileToResponse(p)
	}
	writeJSON(w, http.StatusOK, newPage(out, params, total))
}

type approvalBody struct {
	Status domain.ApprovalStatus `json:"status" validate:"required,oneof=approved rejected"`
}

// SetApproval handles POST /admin/profiles/{id}/approval.
func (s *Server) SetApproval(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body approvalBody
	if !s.decode(w, r, &body) {
		return
	}

	p, err := s.Profiles.SetApproval(r.Context(), actorID(r), id, body.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(p))
}
