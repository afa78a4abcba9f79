package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level of a user.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleDeptStaff   Role = "dept_staff"
	RoleSafetyAdmin Role = "safety_admin"
	RoleAdmin       Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleCoordinator, RoleDeptStaff, RoleSafetyAdmin, RoleAdmin:
		return true
	}
	return false
}

// IsReviewer reports whether r may approve or reject trips.
func (r Role) IsReviewer() bool {
	return r == RoleDeptStaff || r == RoleSafetyAdmin || r == RoleAdmin
}

// ApprovalStatus is the state of a user account as decided by an admin.
type ApprovalStatus string

const (
	AccountPending  ApprovalStatus = "pending"
	AccountApproved ApprovalStatus = "approved"
	AccountRejected ApprovalStatus = "rejected"
)

// User is an identity record. PasswordHash must never leave the repo and
// service layers.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the denormalized mirror of a user used for fast reads and for
// the coordinator snapshot taken at submission time.
type Profile struct {
	UserID         uuid.UUID
	FullName       string
	IDNumber       string
	Phone          string
	Email          string
	Role           Role
	Department     string
	Branch         string
	ApprovalStatus ApprovalStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot captures the coordinator identity fields as they are right now.
func (p Profile) Snapshot() CoordinatorSnapshot {
	return CoordinatorSnapshot{
		Name:     p.FullName,
		IDNumber: p.IDNumber,
		Phone:    p.Phone,
		Email:    p.Email,
	}
}
