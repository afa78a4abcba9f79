package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/tripdesk/backend/internal/domain"
)

// transitions lists the statuses reachable from each status. The empty
// status stands for a trip that has not been stored yet.
var transitions = map[domain.TripStatus][]domain.TripStatus{
	"":                     {domain.StatusDraft, domain.StatusPending},
	domain.StatusDraft:     {domain.StatusDraft, domain.StatusPending},
	domain.StatusPending:   {domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusRejected:  {domain.StatusPending},
	domain.StatusApproved:  {domain.StatusCancelled},
	domain.StatusCancelled: nil,
}

// CanTransition evaluates whether a trip may move from one status to another.
func CanTransition(from, to domain.TripStatus) GuardResult {
	for _, s := range transitions[from] {
		if s == to {
			return allow()
		}
	}
	if from == "" {
		return deny(GateStatus, "a new trip cannot start as %s", to)
	}
	return deny(GateStatus, "cannot move a %s trip to %s", from, to)
}

// OwnerContext provides context for guards on owner-only operations.
type OwnerContext struct {
	Status  domain.TripStatus
	IsOwner bool
}

// CanEdit evaluates whether the owner may change trip contents.
// Rules:
// - Only the owner edits
// - Only draft, pending, and rejected trips are editable
func CanEdit(ctx OwnerContext) GuardResult {
	if !ctx.IsOwner {
		return deny(GateActor, "only the trip owner can edit this trip")
	}
	if !ctx.Status.Editable() {
		return deny(GateStatus, "trips in status %s can no longer be edited", ctx.Status)
	}
	return allow()
}

// CanDelete evaluates whether a trip can be permanently deleted.
// Rules:
// - Only the owner deletes
// - Only drafts can be deleted
func CanDelete(ctx OwnerContext) GuardResult {
	if !ctx.IsOwner {
		return deny(GateActor, "only the trip owner can delete this trip")
	}
	if ctx.Status != domain.StatusDraft {
		return deny(GateStatus, "only drafts can be deleted (current status: %s)", ctx.Status)
	}
	return allow()
}

// ReviewContext provides context for reviewer decisions.
type ReviewContext struct {
	Status          domain.TripStatus
	TripDepartment  string
	ActorRole       domain.Role
	ActorDepartment string
}

// CanReview evaluates whether a reviewer may approve or reject the trip.
// Rules:
// - The actor must hold a reviewer role
// - Department staff only review trips of their own department
// - The trip must be pending
func CanReview(ctx ReviewContext, to domain.TripStatus) GuardResult {
	if !ctx.ActorRole.IsReviewer() {
		return deny(GateActor, "only headquarters staff can review trips")
	}
	if ctx.ActorRole == domain.RoleDeptStaff && ctx.ActorDepartment != ctx.TripDepartment {
		return deny(GateActor, "department staff can only review trips of their own department")
	}
	if to != domain.StatusApproved && to != domain.StatusRejected {
		return deny(GateStatus, "a review can only approve or reject")
	}
	if ctx.Status != domain.StatusPending {
		return deny(GateStatus, "only pending trips can be reviewed (current status: %s)", ctx.Status)
	}
	return allow()
}

// CancelContext provides context for cancellation guards.
type CancelContext struct {
	Status   domain.TripStatus
	IsOwner  bool
	Reason   string
	StartsAt *time.Time
	Now      time.Time
}

// CanCancel evaluates whether the owner may cancel the trip.
// Rules:
// - Only the owner cancels
// - Only pending and approved trips can be cancelled
// - A trip that has already started cannot be cancelled, whatever the reason
// - The reason must have at least five characters after trimming
func CanCancel(ctx CancelContext) GuardResult {
	if !ctx.IsOwner {
		return deny(GateActor, "only the trip owner can cancel this trip")
	}
	if r := CanTransition(ctx.Status, domain.StatusCancelled); !r.Allowed {
		return r
	}
	if ctx.StartsAt != nil && ctx.StartsAt.Before(ctx.Now) {
		return deny(GateCancellation, "a trip that has already started cannot be cancelled")
	}
	reason := strings.TrimSpace(ctx.Reason)
	if reason == "" {
		return deny(GateCancellation, "a cancellation reason is required")
	}
	if len([]rune(reason)) < MinCancellationReason {
		return deny(GateCancellation, "the cancellation reason must be at least %d characters", MinCancellationReason)
	}
	return allow()
}

// NotificationDraft is a notification a transition asks the caller to send.
type NotificationDraft struct {
	Title string
	Body  string
	Type  domain.NotificationType
	Link  string
}

// ReviewNotification describes the notification sent to the trip owner after
// a reviewer decision.
func ReviewNotification(t domain.Trip, to domain.TripStatus) NotificationDraft {
	link := "/trips/" + t.ID.String()
	if to == domain.StatusApproved {
		return NotificationDraft{
			Title: "Trip approved",
			Body:  fmt.Sprintf("Your trip %q was approved.", t.Info.Name),
			Type:  domain.NotifySuccess,
			Link:  link,
		}
	}
	return NotificationDraft{
		Title: "Trip rejected",
		Body:  fmt.Sprintf("Your trip %q was rejected. Review the trip details and submit again.", t.Info.Name),
		Type:  domain.NotifyError,
		Link:  link,
	}
}

// CancelNotification describes the informational notification sent to
// reviewers when an owner cancels a trip.
func CancelNotification(t domain.Trip, reason string) NotificationDraft {
	return NotificationDraft{
		Title: "Trip cancelled",
		Body:  fmt.Sprintf("%s cancelled the trip %q: %s", t.Coordinator.Name, t.Info.Name, strings.TrimSpace(reason)),
		Type:  domain.NotifyInfo,
		Link:  "/trips/" + t.ID.String(),
	}
}
