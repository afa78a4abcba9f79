package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tripdesk/backend/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns one page of trips matching the filter, ordered by
	// start_date descending, and the total number of matches.
	ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// List returns every trip matching the filter, ordered like ListPaged.
	List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error)

	// Update writes the full details payload, the flat columns and the status
	// of an existing trip, provided its stored status still equals from.
	// Returns domain.ErrConflict when it changed and domain.ErrNotFound when
	// the trip does not exist.
	Update(ctx context.Context, trip domain.Trip, from domain.TripStatus) (domain.Trip, error)

	// UpdateStatus moves a trip from one status to another. The write only
	// applies while the stored status still equals from; otherwise it returns
	// domain.ErrConflict (or domain.ErrNotFound when the trip is gone).
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TripStatus) (domain.Trip, error)

	// Cancel is UpdateStatus to cancelled that also stores the reason in the
	// cancellation column and in the details payload.
	Cancel(ctx context.Context, id uuid.UUID, from domain.TripStatus, reason string) (domain.Trip, error)

	// Delete removes a draft trip by ID. Returns domain.ErrNotFound if no
	// draft with that ID exists.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, owner_id, status, branch, department, cancellation_reason, details, created_at, updated_at`

// tripArgs maps the writable columns of t. The flat columns are copies of
// payload fields so dashboards can filter and sort without touching JSON.
func tripArgs(t domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                  t.ID,
		"owner_id":            t.OwnerID,
		"status":              string(t.Status),
		"trip_type":           t.Info.TripType,
		"name":                t.Info.Name,
		"start_date":          t.Info.StartDate, // nil becomes NULL
		"end_date":            t.Info.EndDate,
		"coordinator_name":    t.Coordinator.Name,
		"branch":              t.Branch,
		"department":          t.Department,
		"cancellation_reason": t.CancellationReason,
		"details":             t.Details(),
	}
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (owner_id, status, trip_type, name, start_date, end_date,
		                   coordinator_name, branch, department, cancellation_reason, details)
		VALUES (@owner_id, @status, @trip_type, @name, @start_date, @end_date,
		        @coordinator_name, @branch, @department, @cancellation_reason, @details)
		RETURNING ` + tripColumns

	result, err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// filterClause builds the WHERE clause for f. Zero-valued fields are skipped.
func filterClause(f domain.TripFilter) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}
	if f.Status != "" {
		conds = append(conds, "status = @status")
		args["status"] = string(f.Status)
	}
	if f.OwnerID != uuid.Nil {
		conds = append(conds, "owner_id = @owner_id")
		args["owner_id"] = f.OwnerID
	}
	if f.Department != "" {
		conds = append(conds, "department = @department")
		args["department"] = f.Department
	}
	if f.Branch != "" {
		conds = append(conds, "branch = @branch")
		args["branch"] = f.Branch
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListPaged returns one page of trips and the total match count.
func (r *pgTripRepo) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	where, args := filterClause(f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	q := `SELECT ` + tripColumns + ` FROM trips` + where +
		` ORDER BY start_date DESC NULLS LAST, created_at DESC LIMIT @limit OFFSET @offset`

	trips, err := r.query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	return trips, total, nil
}

// List returns all trips matching f.
func (r *pgTripRepo) List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error) {
	where, args := filterClause(f)
	q := `SELECT ` + tripColumns + ` FROM trips` + where + ` ORDER BY start_date DESC NULLS LAST, created_at DESC`

	trips, err := r.query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// Update overwrites the payload, flat columns and status of a trip.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip, from domain.TripStatus) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status              = @status,
		    trip_type           = @trip_type,
		    name                = @name,
		    start_date          = @start_date,
		    end_date            = @end_date,
		    coordinator_name    = @coordinator_name,
		    branch              = @branch,
		    department          = @department,
		    cancellation_reason = @cancellation_reason,
		    details             = @details,
		    updated_at          = now()
		WHERE id = @id AND status = @from
		RETURNING ` + tripColumns

	args := tripArgs(trip)
	args["from"] = string(from)
	result, err := r.swap(ctx, q, trip.ID, args)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// UpdateStatus is a compare-and-swap on the status column.
func (r *pgTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TripStatus) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status = @to, updated_at = now()
		WHERE id = @id AND status = @from
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{"id": id, "from": string(from), "to": string(to)}
	result, err := r.swap(ctx, q, id, args)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", err)
	}
	return result, nil
}

// Cancel is a compare-and-swap to cancelled that records the reason twice.
func (r *pgTripRepo) Cancel(ctx context.Context, id uuid.UUID, from domain.TripStatus, reason string) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status              = 'cancelled',
		    cancellation_reason = @reason,
		    details             = jsonb_set(details, '{cancellation_reason}', to_jsonb(@reason::text)),
		    updated_at          = now()
		WHERE id = @id AND status = @from
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{"id": id, "from": string(from), "reason": reason}
	result, err := r.swap(ctx, q, id, args)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Cancel: %w", err)
	}
	return result, nil
}

// swap runs a conditional status update. No row back means either the trip
// is gone or another writer changed its status first.
func (r *pgTripRepo) swap(ctx context.Context, q string, id uuid.UUID, args pgx.NamedArgs) (domain.Trip, error) {
	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Trip{}, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`,
		pgx.NamedArgs{"id": id}).Scan(&exists); err != nil {
		return domain.Trip{}, err
	}
	if exists {
		return domain.Trip{}, domain.ErrConflict
	}
	return domain.Trip{}, domain.ErrNotFound
}

// Delete removes a draft by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id AND status = 'draft'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanTrip maps a single database row into a domain.Trip.
// The payload fields come from the details column; the flat columns other
// than branch, department and status are copies and are not read back.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t       domain.Trip
		id      pgtype.UUID
		ownerID pgtype.UUID
		status  string
		details domain.TripDetails
	)

	err := s.Scan(&id, &ownerID, &status, &t.Branch, &t.Department, &t.CancellationReason,
		&details, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Trip{}, mapErr(err)
	}

	reason := t.CancellationReason
	t = t.WithDetails(details)
	if reason != "" {
		t.CancellationReason = reason
	}
	t.ID = uuid.UUID(id.Bytes)
	t.OwnerID = uuid.UUID(ownerID.Bytes)
	t.Status = domain.TripStatus(status)
	if t.Timeline == nil {
		t.Timeline = []domain.TimelineEntry{}
	}
	return t, nil
}
