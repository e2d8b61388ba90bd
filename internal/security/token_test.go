package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	token, err := GenerateAccessToken(secret, "user-1", "sess-1", "device-1", "user", "SELLER", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "device-1", claims.DeviceID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "SELLER", claims.UserType)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseAccessTokenRejects(t *testing.T) {
	const secret = "test-secret"

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateAccessToken(secret, "user-1", "sess-1", "device-1", "user", "BUYER", time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(token, "other-secret")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateAccessToken(secret, "user-1", "sess-1", "device-1", "user", "BUYER", -time.Minute)
		require.NoError(t, err)

		_, err = ParseAccessToken(token, secret)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseAccessToken("not.a.token", secret)
		assert.Error(t, err)
	})
}

func TestRefreshToken(t *testing.T) {
	token, hash, err := GenerateRefreshToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Len(t, hash, 32)

	assert.True(t, VerifyRefreshToken(token, hash))
	assert.False(t, VerifyRefreshToken("tampered", hash))

	other, _, err := GenerateRefreshToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
	assert.False(t, VerifyRefreshToken(other, hash))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("kraal-pass-1")
	require.NoError(t, err)

	ok, err := VerifyPassword("kraal-pass-1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
