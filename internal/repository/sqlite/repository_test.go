package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensecart/internal/catalog"
	"expensecart/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "nested", "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }

	a, err := repo.Create(ctx, core.Expense{Description: "Gym", Category: core.OtherCategory, Amount: core.Money{Cents: 3999}})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	repo.now = func() time.Time { return base.Add(time.Minute) }
	b, err := repo.Create(ctx, core.Expense{ID: "fixed", Description: "Rent share", Category: core.Home, Amount: core.Money{Cents: 9000}})
	require.NoError(t, err)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]core.Expense{a, b}, items); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	later := base.Add(time.Hour)
	b.Description = "Rent"
	b.Amount = core.Money{Cents: 9500}
	b.CreatedAt = time.Time{}
	b.UpdatedAt = later
	updated, err := repo.Update(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "Rent", updated.Description)
	assert.Equal(t, int64(9500), updated.Amount.Cents)
	assert.True(t, updated.CreatedAt.Equal(base.Add(time.Minute)), "created_at preserved")
	assert.True(t, updated.UpdatedAt.Equal(later))

	require.NoError(t, repo.Delete(ctx, a.ID))
	items, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fixed", items[0].ID)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	err := repo.Delete(ctx, "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = repo.Update(ctx, core.Expense{ID: "nope", Description: "x", Category: core.Food})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRepository_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Create(context.Background(), core.Expense{Description: "", Category: core.Food})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	repo, err := New(path)
	require.NoError(t, err)
	defer repo.Close()
	assert.NoError(t, repo.Ping(context.Background()))
}
