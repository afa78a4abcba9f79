package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tripdesk/backend/internal/domain"
)

// UserRepo persists login identities.
type UserRepo interface {
	// Create inserts a user. Returns domain.ErrConflict when the email is taken.
	Create(ctx context.Context, email, passwordHash string) (domain.User, error)
	// GetByEmail looks a user up case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	// UpdateCredentials replaces the email and password hash of a user.
	UpdateCredentials(ctx context.Context, id uuid.UUID, email, passwordHash string) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, email, password_hash, created_at, updated_at`

func (r *pgUserRepo) Create(ctx context.Context, email, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, password_hash)
		VALUES (@email, @password_hash)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email, "password_hash": passwordHash}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(@email)`

	u, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	u, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return u, nil
}

func (r *pgUserRepo) UpdateCredentials(ctx context.Context, id uuid.UUID, email, passwordHash string) (domain.User, error) {
	const q = `
		UPDATE users
		SET email = @email, password_hash = @password_hash, updated_at = now()
		WHERE id = @id
		RETURNING ` + userColumns

	args := pgx.NamedArgs{"id": id, "email": email, "password_hash": passwordHash}
	u, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateCredentials: %w", err)
	}
	return u, nil
}

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}
