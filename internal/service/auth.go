package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

// TokenIssuer mints access tokens. *auth.Issuer satisfies it.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role domain.Role) (string, time.Time, error)
}

// Session is the result of a successful sign-up or login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
	Profile   domain.Profile
}

// SignUpInput is a new account request.
type SignUpInput struct {
	Email      string
	Password   string
	FullName   string
	Phone      string
	Department string
	Branch     string
}

// CredentialsInput changes the login of the current user. Nil fields are
// left unchanged. CurrentPassword is always required.
type CredentialsInput struct {
	CurrentPassword string
	Email           *string
	Password        *string
}

var errBadLogin = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)

// AuthService manages identities and issues access tokens.
type AuthService struct {
	users    repo.UserRepo
	profiles repo.ProfileRepo
	issuer   TokenIssuer
	cost     int
}

// NewAuthService constructs an AuthService hashing with bcrypt.DefaultCost.
func NewAuthService(users repo.UserRepo, profiles repo.ProfileRepo, issuer TokenIssuer) *AuthService {
	return &AuthService{users: users, profiles: profiles, issuer: issuer, cost: bcrypt.DefaultCost}
}

// WithHashCost sets the bcrypt cost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// SignUp creates a user and its pending coordinator profile, then logs in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: %w", validationErr("email is required"))
	}
	if len(in.Password) < MinPasswordLength {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: %w",
			validationErr(fmt.Sprintf("password must be at least %d characters", MinPasswordLength)))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: hash: %w", err)
	}
	u, err := s.users.Create(ctx, email, string(hash))
	if errors.Is(err, domain.ErrConflict) {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: %w: email already registered", domain.ErrConflict)
	}
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: %w", err)
	}

	p, err := s.profiles.Upsert(ctx, domain.Profile{
		UserID:         u.ID,
		FullName:       strings.TrimSpace(in.FullName),
		Phone:          strings.TrimSpace(in.Phone),
		Email:          email,
		Role:           domain.RoleCoordinator,
		Department:     strings.TrimSpace(in.Department),
		Branch:         strings.TrimSpace(in.Branch),
		ApprovalStatus: domain.AccountPending,
	})
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: %w", err)
	}

	sess, err := s.session(u, p)
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.SignUp: %w", err)
	}
	return sess, nil
}

// Login checks the password of email and issues a token. Unknown emails
// and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", errBadLogin)
	}
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", errBadLogin)
	}

	p, err := s.profiles.Get(ctx, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	sess, err := s.session(u, p)
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return sess, nil
}

// UpdateCredentials changes the email and/or password of userID. The
// profile email mirror follows the login email.
func (s *AuthService) UpdateCredentials(ctx context.Context, userID uuid.UUID, in CredentialsInput) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: %w", forbiddenErr("current password is incorrect"))
	}

	email, hash := u.Email, u.PasswordHash
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		if email == "" {
			return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: %w", validationErr("email is required"))
		}
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: %w",
				validationErr(fmt.Sprintf("password must be at least %d characters", MinPasswordLength)))
		}
		b, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: hash: %w", err)
		}
		hash = string(b)
	}

	updated, err := s.users.UpdateCredentials(ctx, userID, email, hash)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: %w", err)
	}
	if email != u.Email {
		p, err := s.profiles.Get(ctx, userID)
		if err == nil {
			p.Email = email
			_, err = s.profiles.Upsert(ctx, p)
		}
		if err != nil {
			return domain.User{}, fmt.Errorf("service.AuthService.UpdateCredentials: profile: %w", err)
		}
	}
	return updated, nil
}

func (s *AuthService) session(u domain.User, p domain.Profile) (Session, error) {
	token, exp, err := s.issuer.Issue(u.ID, p.Role)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: u, Profile: p}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
