package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("unit-test-secret", time.Hour)

	token, err := GenerateJWT(42, "reader@example.com")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "Bearer "))

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Email)

	bare, err := ParseJWT(strings.TrimPrefix(token, "Bearer "))
	require.NoError(t, err)
	assert.Equal(t, uint(42), bare.UserID)
}

func TestParseJWT_Rejects(t *testing.T) {
	SetJWTSecret("unit-test-secret", time.Hour)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1})
	signed, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	expiredSigned, err := expired.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "x@example.com"})
	noUserSigned, err := noUser.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "Bearer not-a-token",
		"wrong secret":  signed,
		"expired":       expiredSigned,
		"missing user":  noUserSigned,
		"empty":         "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(token)
			assert.Error(t, err)
		})
	}
}
