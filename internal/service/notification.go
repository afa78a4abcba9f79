package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/realtime"
	"github.com/tripdesk/backend/internal/repo"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

// NotificationRecorder counts stored notifications. *metrics.Metrics
// satisfies it.
type NotificationRecorder interface {
	Notification(typ string, published bool)
}

type nopNotificationRecorder struct{}

func (nopNotificationRecorder) Notification(string, bool) {}

// NotificationService stores notifications and feeds the realtime broker.
type NotificationService struct {
	repo   repo.NotificationRepo
	broker realtime.Broker
	rec    NotificationRecorder
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(r repo.NotificationRepo, broker realtime.Broker) *NotificationService {
	return &NotificationService{repo: r, broker: broker, rec: nopNotificationRecorder{}}
}

// WithRecorder reports stored notifications to rec.
func (s *NotificationService) WithRecorder(rec NotificationRecorder) *NotificationService {
	s.rec = rec
	return s
}

// Notify stores n and publishes it to the recipient's live subscribers.
// The stored row is the source of truth: a publish failure is logged and the
// client picks the notification up on its next inbox read.
func (s *NotificationService) Notify(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return domain.Notification{}, fmt.Errorf("service.NotificationService.Notify: %w", validationErr("title is required"))
	}
	if n.UserID == uuid.Nil {
		return domain.Notification{}, fmt.Errorf("service.NotificationService.Notify: %w", validationErr("recipient is required"))
	}
	switch n.Type {
	case domain.NotifyInfo, domain.NotifySuccess, domain.NotifyWarning, domain.NotifyError:
	case "":
		n.Type = domain.NotifyInfo
	default:
		return domain.Notification{}, fmt.Errorf("service.NotificationService.Notify: %w", validationErr(fmt.Sprintf("unknown notification type %q", n.Type)))
	}

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("service.NotificationService.Notify: %w", err)
	}

	published := true
	if err := s.broker.Publish(ctx, created); err != nil {
		published = false
		slog.WarnContext(ctx, "notification publish failed",
			"notification_id", created.ID, "user_id", created.UserID, "error", err)
	}
	s.rec.Notification(string(created.Type), published)
	return created, nil
}

// List returns the newest notifications of userID. A limit outside
// 1..200 falls back to 50.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit < 1 || limit > maxInboxLimit {
		limit = defaultInboxLimit
	}
	ns, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("service.NotificationService.List: %w", err)
	}
	return ns, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("service.NotificationService.MarkRead: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service.NotificationService.MarkAllRead: %w", err)
	}
	return n, nil
}

// Delete removes one of the user's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.NotificationService.Delete: %w", err)
	}
	return nil
}

// Subscribe returns the live feed of notifications for userID until ctx
// is done.
func (s *NotificationService) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error) {
	ch, err := s.broker.Subscribe(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.NotificationService.Subscribe: %w", err)
	}
	return ch, nil
}
