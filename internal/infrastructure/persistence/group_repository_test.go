package persistence

import (
	"context"
	"testing"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormGroupRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupRepository(db)
	ctx := context.Background()
	group := createTestGroup(t, db, "Veículos")

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Veículos", found.Name)
		assert.True(t, found.Active)
	})

	t.Run("find by name ignores case", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "  veículos ")
		require.NoError(t, err)
		assert.Equal(t, group.ID, found.ID)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, payables.ErrGroupNotFound)
		_, err = repo.FindByName(ctx, "nope")
		assert.ErrorIs(t, err, payables.ErrGroupNotFound)
	})

	t.Run("update keeps the row", func(t *testing.T) {
		require.NoError(t, group.Update("Frota", "carros da loja", false))
		require.NoError(t, repo.Save(ctx, group))

		found, err := repo.FindByID(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Frota", found.Name)
		assert.Equal(t, "carros da loja", found.Description)
		assert.False(t, found.Active)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		dup, err := payables.NewGroup("Frota", "")
		require.NoError(t, err)

		err = repo.Save(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, payables.ErrGroupNameTaken)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Contains(t, domainErr.Details, "name")
	})
}

func TestGormGroupRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupRepository(db)
	ctx := context.Background()
	createTestGroup(t, db, "Utilidades")
	createTestGroup(t, db, "Veículos")
	inactive := createTestGroup(t, db, "Impostos")
	require.NoError(t, inactive.Update(inactive.Name, "", false))
	require.NoError(t, repo.Save(ctx, inactive))

	t.Run("defaults to name order", func(t *testing.T) {
		groups, total, err := repo.FindAll(ctx, payables.GroupFilter{Filter: shared.Filter{Page: 1, PageSize: 10, OrderDir: "asc"}})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, groups, 3)
		assert.Equal(t, "Impostos", groups[0].Name)
	})

	t.Run("filters by name and active", func(t *testing.T) {
		active := true
		groups, total, err := repo.FindAll(ctx, payables.GroupFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10},
			Name:   "UTIL",
			Active: &active,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Utilidades", groups[0].Name)
	})
}

func TestGormGroupRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormGroupRepository(db)
	ctx := context.Background()

	t.Run("refuses while accounts reference the group", func(t *testing.T) {
		group := createTestGroup(t, db, "Geral")
		createTestAccount(t, db, group.ID, "Aluguel", "2000", testToday, payables.RecurrenceMonthly)

		err := repo.Delete(ctx, group.ID)
		assert.ErrorIs(t, err, payables.ErrGroupHasAccounts)

		_, err = repo.FindByID(ctx, group.ID)
		assert.NoError(t, err)
	})

	t.Run("deletes an empty group", func(t *testing.T) {
		group := createTestGroup(t, db, "Vazio")
		require.NoError(t, repo.Delete(ctx, group.ID))

		_, err := repo.FindByID(ctx, group.ID)
		assert.ErrorIs(t, err, payables.ErrGroupNotFound)
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), payables.ErrGroupNotFound)
	})
}
