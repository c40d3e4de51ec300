package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := hashPassword("secret123", "pepper")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, checkPasswordHash("secret123", hash, "pepper"))
	assert.False(t, checkPasswordHash("secret124", hash, "pepper"))
	assert.False(t, checkPasswordHash("secret123", hash, "other-pepper"))
}

func TestPasswordHash_LongPassword(t *testing.T) {
	// после HMAC длина всегда 32 байта, bcrypt не обрезает пароль
	long := strings.Repeat("a", 100)
	hash, err := hashPassword(long+"1", "pepper")
	require.NoError(t, err)
	assert.False(t, checkPasswordHash(long+"2", hash, "pepper"))
}
