package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tripdesk/backend/internal/domain"
)

// ProfileRepo persists the profile mirror of each user.
type ProfileRepo interface {
	// Upsert inserts or replaces the editable fields of a profile. Role and
	// approval status are only written on insert.
	Upsert(ctx context.Context, p domain.Profile) (domain.Profile, error)
	// Get returns the profile of a user, or domain.ErrNotFound.
	Get(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
	// ListPaged returns profiles filtered by approval status (empty = any),
	// oldest first, and the total count.
	ListPaged(ctx context.Context, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error)
	// SetApproval records an admin decision on an account.
	SetApproval(ctx context.Context, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error)
	// ListReviewerIDs returns approved reviewers of a department plus every
	// approved safety admin and admin.
	ListReviewerIDs(ctx context.Context, department string) ([]uuid.UUID, error)
}

type pgProfileRepo struct {
	db db
}

// NewProfileRepo constructs a ProfileRepo backed by the provided db connection.
func NewProfileRepo(db db) ProfileRepo {
	return &pgProfileRepo{db: db}
}

const profileColumns = `user_id, full_name, id_number, phone, email, role, department, branch,
	approval_status, created_at, updated_at`

func (r *pgProfileRepo) Upsert(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	const q = `
		INSERT INTO profiles (user_id, full_name, id_number, phone, email, role, department, branch, approval_status)
		VALUES (@user_id, @full_name, @id_number, @phone, @email, @role, @department, @branch, @approval_status)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name  = EXCLUDED.full_name,
		    id_number  = EXCLUDED.id_number,
		    phone      = EXCLUDED.phone,
		    email      = EXCLUDED.email,
		    department = EXCLUDED.department,
		    branch     = EXCLUDED.branch,
		    updated_at = now()
		RETURNING ` + profileColumns

	role := p.Role
	if role == "" {
		role = domain.RoleCoordinator
	}
	approval := p.ApprovalStatus
	if approval == "" {
		approval = domain.AccountPending
	}
	args := pgx.NamedArgs{
		"user_id":         p.UserID,
		"full_name":       p.FullName,
		"id_number":       p.IDNumber,
		"phone":           p.Phone,
		"email":           p.Email,
		"role":            string(role),
		"department":      p.Department,
		"branch":          p.Branch,
		"approval_status": string(approval),
	}

	result, err := scanProfile(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgProfileRepo) Get(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	const q = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = @user_id`

	result, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.Get: %w", err)
	}
	return result, nil
}

func (r *pgProfileRepo) ListPaged(ctx context.Context, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error) {
	const countQ = `
		SELECT count(*) FROM profiles
		WHERE @status = '' OR approval_status = @status`
	const q = `
		SELECT ` + profileColumns + ` FROM profiles
		WHERE @status = '' OR approval_status = @status
		ORDER BY created_at, user_id
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"status": string(status), "limit": p.Limit, "offset": p.Offset()}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ProfileRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ProfileRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ProfileRepo.ListPaged: scan: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ProfileRepo.ListPaged: rows: %w", err)
	}
	return profiles, total, nil
}

func (r *pgProfileRepo) SetApproval(ctx context.Context, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error) {
	const q = `
		UPDATE profiles
		SET approval_status = @status, updated_at = now()
		WHERE user_id = @user_id
		RETURNING ` + profileColumns

	result, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "status": string(status)}))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.SetApproval: %w", err)
	}
	return result, nil
}

func (r *pgProfileRepo) ListReviewerIDs(ctx context.Context, department string) ([]uuid.UUID, error) {
	const q = `
		SELECT user_id FROM profiles
		WHERE approval_status = 'approved'
		  AND (role IN ('safety_admin', 'admin')
		       OR (role = 'dept_staff' AND department = @department))
		ORDER BY user_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"department": department})
	if err != nil {
		return nil, fmt.Errorf("repo.ProfileRepo.ListReviewerIDs: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("repo.ProfileRepo.ListReviewerIDs: %w", err)
	}
	return ids, nil
}

func scanProfile(s scanner) (domain.Profile, error) {
	var (
		p              domain.Profile
		role, approval string
	)
	err := s.Scan(&p.UserID, &p.FullName, &p.IDNumber, &p.Phone, &p.Email, &role,
		&p.Department, &p.Branch, &approval, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapErr(err)
	}
	p.Role = domain.Role(role)
	p.ApprovalStatus = domain.ApprovalStatus(approval)
	return p, nil
}
