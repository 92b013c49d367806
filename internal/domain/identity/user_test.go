package identity

import (
	"testing"
	"time"

	"github.com/contaspagar/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("financeiro", "Senha1234")

		require.NoError(t, err)
		assert.Equal(t, "financeiro", user.Username)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "Senha1234", user.PasswordHash)
		assert.NotNil(t, user.PasswordChangedAt)
	})

	t.Run("normalizes username", func(t *testing.T) {
		user, err := NewUser("  Maria.Silva ", "Senha1234")

		require.NoError(t, err)
		assert.Equal(t, "maria.silva", user.Username)
	})

	t.Run("rejects bad usernames", func(t *testing.T) {
		for _, name := range []string{"", "ab", "com espaço", "nome#1"} {
			_, err := NewUser(name, "Senha1234")
			assert.Error(t, err, name)
		}
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		for _, pw := range []string{"", "curta1", "somenteletras", "12345678"} {
			_, err := NewUser("financeiro", pw)
			assert.Error(t, err, pw)
		}
	})
}

func TestUser_Passwords(t *testing.T) {
	user, err := NewUser("financeiro", "Senha1234")
	require.NoError(t, err)

	assert.True(t, user.VerifyPassword("Senha1234"))
	assert.False(t, user.VerifyPassword("senha1234"))

	err = user.ChangePassword("errada123", "NovaSenha99")
	assert.Error(t, err)

	require.NoError(t, user.ChangePassword("Senha1234", "NovaSenha99"))
	assert.True(t, user.VerifyPassword("NovaSenha99"))
	assert.False(t, user.VerifyPassword("Senha1234"))
}

func TestUser_SetEmailAndName(t *testing.T) {
	user, err := NewUser("financeiro", "Senha1234")
	require.NoError(t, err)

	require.NoError(t, user.SetEmail(" Financeiro@Loja.com.br "))
	assert.Equal(t, "financeiro@loja.com.br", user.Email)
	assert.Error(t, user.SetEmail("sem-arroba"))
	require.NoError(t, user.SetEmail(""))
	assert.Empty(t, user.Email)

	assert.Equal(t, "financeiro", user.FullName())
	require.NoError(t, user.SetName("Maria", "Souza"))
	assert.Equal(t, "Maria Souza", user.FullName())
}

func TestUser_LoginLockout(t *testing.T) {
	user, err := NewUser("financeiro", "Senha1234")
	require.NoError(t, err)

	assert.False(t, user.RecordLoginFailure(3, time.Minute))
	assert.False(t, user.RecordLoginFailure(3, time.Minute))
	assert.True(t, user.RecordLoginFailure(3, time.Minute))
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	past := time.Now().Add(-time.Second)
	user.LockedUntil = &past
	assert.False(t, user.IsLocked())
	assert.True(t, user.CanLogin())

	user.RecordLoginSuccess("10.0.0.1")
	assert.Equal(t, UserStatusActive, user.Status)
	assert.Zero(t, user.FailedAttempts)
	assert.Equal(t, "10.0.0.1", user.LastLoginIP)
}

func TestUser_ActivateDeactivate(t *testing.T) {
	user, err := NewUser("financeiro", "Senha1234")
	require.NoError(t, err)

	err = user.Activate()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ALREADY_ACTIVE", de.Code)

	require.NoError(t, user.Deactivate())
	assert.False(t, user.CanLogin())
	assert.Error(t, user.Deactivate())

	require.NoError(t, user.Activate())
	assert.True(t, user.IsActive())
}
