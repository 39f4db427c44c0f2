package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	digest, err := HashPassword("pw123")
	require.NoError(t, err)

	assert.True(t, CheckPassword("pw123", digest))
	assert.False(t, CheckPassword("pw124", digest))
	assert.False(t, CheckPassword("", digest))
}

func TestHashPassword_FreshSaltEachCall(t *testing.T) {
	first, err := HashPassword("pw123")
	require.NoError(t, err)
	second, err := HashPassword("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("pw123", first))
	assert.True(t, CheckPassword("pw123", second))
}

func TestCheckPassword_GarbageDigest(t *testing.T) {
	assert.False(t, CheckPassword("pw123", "not-a-bcrypt-digest"))
}
