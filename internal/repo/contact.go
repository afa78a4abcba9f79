package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// ContactRepo persists messages sent to headquarters.
type ContactRepo interface {
	Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ContactMessage, error)
	// ListPaged returns messages newest first. unansweredOnly hides replied ones.
	ListPaged(ctx context.Context, unansweredOnly bool, p domain.PaginationParams) ([]domain.ContactMessage, int64, error)
	// Reply stores a reviewer's answer. A message is answered once; a second
	// reply returns domain.ErrConflict.
	Reply(ctx context.Context, id, repliedBy uuid.UUID, reply string) (domain.ContactMessage, error)
}

type pgContactRepo struct {
	db db
}

// NewContactRepo constructs a ContactRepo backed by the provided db connection.
func NewContactRepo(db db) ContactRepo {
	return &pgContactRepo{db: db}
}

const contactColumns = `id, user_id, subject, body, reply, replied_by, replied_at, created_at`

func (r *pgContactRepo) Create(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	const q = `
		INSERT INTO contact_messages (user_id, subject, body)
		VALUES ($1, $2, $3)
		RETURNING ` + contactColumns

	result, err := scanContact(r.db.QueryRow(ctx, q, m.UserID, m.Subject, m.Body))
	if err != nil {
		return domain.ContactMessage{}, fmt.Errorf("repo.ContactRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgContactRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ContactMessage, error) {
	result, err := scanContact(r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contact_messages WHERE id = $1`, id))
	if err != nil {
		return domain.ContactMessage{}, fmt.Errorf("repo.ContactRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgContactRepo) ListPaged(ctx context.Context, unansweredOnly bool, p domain.PaginationParams) ([]domain.ContactMessage, int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM contact_messages WHERE (NOT $1 OR replied_at IS NULL)`, unansweredOnly).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ContactRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + contactColumns + `
		FROM contact_messages
		WHERE (NOT $1 OR replied_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, q, unansweredOnly, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ContactRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	list := []domain.ContactMessage{}
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ContactRepo.ListPaged: scan: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ContactRepo.ListPaged: rows: %w", err)
	}
	return list, total, nil
}

func (r *pgContactRepo) Reply(ctx context.Context, id, repliedBy uuid.UUID, reply string) (domain.ContactMessage, error) {
	const q = `
		UPDATE contact_messages
		SET reply = $2, replied_by = $3, replied_at = now()
		WHERE id = $1 AND replied_at IS NULL
		RETURNING ` + contactColumns

	result, err := scanContact(r.db.QueryRow(ctx, q, id, reply, repliedBy))
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ContactMessage{}, fmt.Errorf("repo.ContactRepo.Reply: %w", err)
	}
	// No row: either unknown or already answered.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return domain.ContactMessage{}, fmt.Errorf("repo.ContactRepo.Reply: %w", domain.ErrNotFound)
	}
	return domain.ContactMessage{}, fmt.Errorf("repo.ContactRepo.Reply: already answered: %w", domain.ErrConflict)
}

func scanContact(s scanner) (domain.ContactMessage, error) {
	var m domain.ContactMessage
	err := s.Scan(&m.ID, &m.UserID, &m.Subject, &m.Body, &m.Reply, &m.RepliedBy, &m.RepliedAt, &m.CreatedAt)
	if err != nil {
		return domain.ContactMessage{}, mapErr(err)
	}
	return m, nil
}
