package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projecttracker/pkg/util"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(newFakeUserStore(), "test-secret", zap.NewNop())

	u, err := auth.Register(ctx, "newman", "hello-jerry", intp(6))
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "hello-jerry", u.PasswordHash)

	t.Run("login issues a parseable token", func(t *testing.T) {
		token, err := auth.Login(ctx, "newman", "hello-jerry")
		require.NoError(t, err)

		userID, err := util.ParseJWT(token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, u.ID, userID)
	})

	t.Run("wrong password is invalid credentials", func(t *testing.T) {
		_, err := auth.Login(ctx, "newman", "hello-elaine")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username is invalid credentials", func(t *testing.T) {
		_, err := auth.Login(ctx, "bob-sacamano", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthUserByID(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(newFakeUserStore(), "test-secret", zap.NewNop())

	u, err := auth.Register(ctx, "kramer", "assman", nil)
	require.NoError(t, err)

	got, err := auth.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "kramer", got.Username)
	assert.Nil(t, got.EmployeeID)
}
