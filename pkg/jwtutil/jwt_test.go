package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})

	token, expires, err := j.GenerateToken("u1", "a@acme.test", true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@acme.test", claims.Email)
	assert.True(t, claims.IsSuperAdmin)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	j := NewJWTUtil(&JWTConfig{SigningKey: "secret", ExpirationHours: 1})
	other := NewJWTUtil(&JWTConfig{SigningKey: "other", ExpirationHours: 1})

	token, _, err := other.GenerateToken("u1", "a@acme.test", false)
	require.NoError(t, err)
	_, err = j.ValidateToken(token)
	assert.Error(t, err)

	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = j.GenerateToken("u1", "a@acme.test", false)
	require.NoError(t, err)
	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}
