package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// NotificationRepo persists per-user notifications. Every mutating call is
// scoped to the recipient so one user can never touch another's inbox.
type NotificationRepo interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	// ListByUser returns the newest notifications first, at most limit.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)
	// MarkRead returns domain.ErrNotFound when the notification is not the user's.
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	// MarkAllRead returns how many notifications changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type pgNotificationRepo struct {
	db db
}

// NewNotificationRepo constructs a NotificationRepo backed by the provided db connection.
func NewNotificationRepo(db db) NotificationRepo {
	return &pgNotificationRepo{db: db}
}

func (r *pgNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const q = `
		INSERT INTO notifications (user_id, title, body, type, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, title, body, type, is_read, link, created_at`

	row := r.db.QueryRow(ctx, q, n.UserID, n.Title, n.Body, string(n.Type), n.Link)
	result, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("repo.NotificationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	const q = `
		SELECT id, user_id, title, body, type, is_read, link, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, q, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	list := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.NotificationRepo.ListByUser: scan: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByUser: rows: %w", err)
	}
	return list, nil
}

func (r *pgNotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.MarkRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.NotificationRepo.MarkRead: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("repo.NotificationRepo.MarkAllRead: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgNotificationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.NotificationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n   domain.Notification
		typ string
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &typ, &n.IsRead, &n.Link, &n.CreatedAt); err != nil {
		return domain.Notification{}, mapErr(err)
	}
	n.Type = domain.NotificationType(typ)
	return n, nil
}
