package persistence

import (
	"context"
	"testing"

	"github.com/contaspagar/backend/internal/domain/identity"
	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, repo *GormUserRepository, username, email string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(username, "Senha@Forte123")
	require.NoError(t, err)
	if email != "" {
		require.NoError(t, user.SetEmail(email))
	}
	require.NoError(t, repo.Save(context.Background(), user))
	return user
}

func TestGormUserRepository(t *testing.T) {
	repo := NewGormUserRepository(setupTestDB(t))
	ctx := context.Background()

	maria := createTestUser(t, repo, "maria", "maria@example.com")
	createTestUser(t, repo, "joao", "")

	t.Run("find by id and username", func(t *testing.T) {
		found, err := repo.FindByID(ctx, maria.ID)
		require.NoError(t, err)
		assert.Equal(t, "maria", found.Username)
		assert.Equal(t, identity.UserStatusActive, found.Status)

		found, err = repo.FindByUsername(ctx, " MARIA ")
		require.NoError(t, err)
		assert.Equal(t, maria.ID, found.ID)

		_, err = repo.FindByUsername(ctx, "ninguem")
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
	})

	t.Run("exists checks", func(t *testing.T) {
		ok, err := repo.ExistsByUsername(ctx, "Joao")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByEmail(ctx, "MARIA@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByEmail(ctx, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		dup, err := identity.NewUser("maria", "Outra@Senha456")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("search and status filter", func(t *testing.T) {
		users, total, err := repo.FindAll(ctx, identity.UserFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, Search: "example"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "maria", users[0].Username)

		status := identity.UserStatusDeactivated
		_, total, err = repo.FindAll(ctx, identity.UserFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10},
			Status: &status,
		})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("count and delete", func(t *testing.T) {
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, repo.Delete(ctx, maria.ID))
		assert.ErrorIs(t, repo.Delete(ctx, maria.ID), identity.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), identity.ErrUserNotFound)
	})
}
