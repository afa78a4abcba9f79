package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
)

// ProfileInput holds the profile fields a user may change about themselves.
type ProfileInput struct {
	FullName   string
	IDNumber   string
	Phone      string
	Department string
	Branch     string
}

// ProfileService manages profiles and account approval.
type ProfileService struct {
	users    repo.UserRepo
	profiles repo.ProfileRepo
	notifier Notifier
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users repo.UserRepo, profiles repo.ProfileRepo, notifier Notifier) *ProfileService {
	return &ProfileService{users: users, profiles: profiles, notifier: notifier}
}

// Me returns the identity and profile of userID.
func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID) (domain.User, domain.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("service.ProfileService.Me: %w", err)
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("service.ProfileService.Me: %w", err)
	}
	return u, p, nil
}

// UpdateProfile writes the caller's own profile. Role and approval status
// are never changed here.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (domain.Profile, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.IDNumber = strings.TrimSpace(in.IDNumber)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validateProfile(in); err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.UpdateProfile: %w", err)
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.UpdateProfile: %w", err)
	}
	p.FullName = in.FullName
	p.IDNumber = in.IDNumber
	p.Phone = in.Phone
	p.Department = strings.TrimSpace(in.Department)
	p.Branch = strings.TrimSpace(in.Branch)

	saved, err := s.profiles.Upsert(ctx, p)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.UpdateProfile: %w", err)
	}
	return saved, nil
}

func validateProfile(in ProfileInput) error {
	if in.FullName == "" {
		return validationErr("full name is required")
	}
	if in.IDNumber == "" {
		return validationErr("id number is required")
	}
	if len(in.IDNumber) > 9 || strings.IndexFunc(in.IDNumber, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return validationErr("id number must be up to 9 digits")
	}
	return nil
}

// ListProfiles returns one page of profiles, optionally filtered by
// approval status. Admins only.
func (s *ProfileService) ListProfiles(ctx context.Context, actorID uuid.UUID, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, 0, fmt.Errorf("service.ProfileService.ListProfiles: %w", err)
	}
	switch status {
	case "", domain.AccountPending, domain.AccountApproved, domain.AccountRejected:
	default:
		return nil, 0, fmt.Errorf("service.ProfileService.ListProfiles: %w", validationErr(fmt.Sprintf("unknown approval status %q", status)))
	}
	profiles, total, err := s.profiles.ListPaged(ctx, status, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ProfileService.ListProfiles: %w", err)
	}
	return profiles, total, nil
}

// SetApproval approves or rejects an account and tells its owner.
func (s *ProfileService) SetApproval(ctx context.Context, actorID, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.SetApproval: %w", err)
	}
	if status != domain.AccountApproved && status != domain.AccountRejected {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.SetApproval: %w", validationErr("status must be approved or rejected"))
	}

	p, err := s.profiles.SetApproval(ctx, userID, status)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.SetApproval: %w", err)
	}

	n := domain.Notification{UserID: userID, Link: "/profile"}
	if status == domain.AccountApproved {
		n.Type = domain.NotifySuccess
		n.Title = "Account approved"
		n.Body = "Your account was approved. You can now create and submit trips."
	} else {
		n.Type = domain.NotifyError
		n.Title = "Account rejected"
		n.Body = "Your account request was rejected. Contact headquarters for details."
	}
	if _, err := s.notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "approval notification failed", "user_id", userID, "error", err)
	}
	return p, nil
}

func (s *ProfileService) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	p, err := loadApproved(ctx, s.profiles, actorID)
	if err != nil {
		return err
	}
	if p.Role != domain.RoleAdmin {
		return forbiddenErr("admins only")
	}
	return nil
}
