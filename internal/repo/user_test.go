package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
	"github.com/tripdesk/backend/testutil"
)

func TestUserRepo(t *testing.T) {
	tx := testutil.NewTx(t)
	users := repo.NewUserRepo(tx)
	profiles := repo.NewProfileRepo(tx)
	ctx := context.Background()

	u, err := users.Create(ctx, "Dana@Example.org", "hash-1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)

	_, err = users.Create(ctx, "dana@example.org", "hash-2")
	assert.ErrorIs(t, err, domain.ErrConflict, "emails are unique case-insensitively")

	got, err := users.GetByEmail(ctx, "DANA@example.org")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	updated, err := users.UpdateCredentials(ctx, u.ID, "dana.levi@example.org", "hash-3")
	require.NoError(t, err)
	assert.Equal(t, "hash-3", updated.PasswordHash)

	_, err = users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Profiles
	p, err := profiles.Upsert(ctx, domain.Profile{UserID: u.ID, FullName: "Dana Levi", Department: "north"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCoordinator, p.Role)
	assert.Equal(t, domain.AccountPending, p.ApprovalStatus)

	p.FullName = "Dana Levi-Cohen"
	p.Role = domain.RoleAdmin
	p, err = profiles.Upsert(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Dana Levi-Cohen", p.FullName)
	assert.Equal(t, domain.RoleCoordinator, p.Role, "role is not writable through upsert")

	p, err = profiles.SetApproval(ctx, u.ID, domain.AccountApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountApproved, p.ApprovalStatus)

	list, total, err := profiles.ListPaged(ctx, domain.AccountApproved, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.NotEmpty(t, list)
}

func TestProfileRepo_ListReviewerIDs(t *testing.T) {
	tx := testutil.NewTx(t)
	profiles := repo.NewProfileRepo(tx)

	north := testutil.SeedUser(t, tx, "dept_staff", "north")
	south := testutil.SeedUser(t, tx, "dept_staff", "south")
	safety := testutil.SeedUser(t, tx, "safety_admin", "")
	coordinator := testutil.SeedUser(t, tx, "coordinator", "north")

	ids, err := profiles.ListReviewerIDs(context.Background(), "north")

	require.NoError(t, err)
	assert.Contains(t, ids, north)
	assert.Contains(t, ids, safety)
	assert.NotContains(t, ids, south)
	assert.NotContains(t, ids, coordinator)
}
