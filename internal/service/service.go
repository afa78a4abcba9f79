// Package service contains the business logic for the trip approval API.
// Services load state, run the pure rules in internal/core/trip, and
// orchestrate repo calls. No SQL lives here: services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/core/trip"
	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
)

// Recorder receives workflow events for metrics. *metrics.Metrics satisfies it.
type Recorder interface {
	Transition(from, to string)
	GateFailure(gate string)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string, string) {}
func (nopRecorder) GateFailure(string)        {}

// Notifier stores a notification and pushes it to live subscribers.
// *NotificationService satisfies it.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) (domain.Notification, error)
}

// ConfirmationError is returned by submissions that passed every hard gate
// but carry timeline entries without their required documents. It wraps
// domain.ErrConfirmationRequired.
type ConfirmationError struct {
	Message          string
	MissingDocuments []uuid.UUID
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrConfirmationRequired, e.Message)
}

func (e *ConfirmationError) Unwrap() error {
	return domain.ErrConfirmationRequired
}

// validationErr wraps a rule message in domain.ErrValidation.
func validationErr(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, reason)
}

// forbiddenErr wraps a rule message in domain.ErrForbidden.
func forbiddenErr(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrForbidden, reason)
}

// deny converts a failed guard into an error, counting the gate. Actor gates
// are permission problems; every other gate is a validation failure.
func deny(rec Recorder, r trip.GuardResult) error {
	rec.GateFailure(r.Gate)
	if r.Gate == trip.GateActor {
		return forbiddenErr(r.Reason)
	}
	return validationErr(r.Reason)
}

// loadProfile returns the caller's profile. A caller without one has not
// finished signing up and may do nothing but complete it.
func loadProfile(ctx context.Context, profiles repo.ProfileRepo, userID uuid.UUID) (domain.Profile, error) {
	p, err := profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, forbiddenErr("complete your profile first")
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// loadApproved is loadProfile for operations reserved to approved accounts.
func loadApproved(ctx context.Context, profiles repo.ProfileRepo, userID uuid.UUID) (domain.Profile, error) {
	p, err := loadProfile(ctx, profiles, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if p.ApprovalStatus != domain.AccountApproved {
		return domain.Profile{}, forbiddenErr("your account is awaiting approval")
	}
	return p, nil
}

// loadReviewer is loadApproved for headquarters staff only.
func loadReviewer(ctx context.Context, profiles repo.ProfileRepo, userID uuid.UUID) (domain.Profile, error) {
	p, err := loadApproved(ctx, profiles, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !p.Role.IsReviewer() {
		return domain.Profile{}, forbiddenErr("headquarters staff only")
	}
	return p, nil
}
