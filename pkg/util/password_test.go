package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hello-jerry")
	require.NoError(t, err)

	assert.NotEqual(t, "hello-jerry", hash)
	assert.True(t, CheckPassword("hello-jerry", hash))
	assert.False(t, CheckPassword("hello-elaine", hash))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)

	// Salted: hashing the same password twice never collides.
	again, err := HashPassword("hello-jerry")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}
