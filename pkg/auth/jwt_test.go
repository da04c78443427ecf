package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundTrip(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	pair, err := svc.GenerateTokenPair(userID, "u@example.com", "DOCTOR")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "DOCTOR", claims.Role)
	assert.NotEmpty(t, claims.ID)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshClaims.UserID)
	// Access and refresh tokens carry distinct token IDs.
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	pair, err := svc.GenerateTokenPair(uuid.New(), "u@example.com", "PATIENT")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", -time.Minute, time.Hour)

	pair, err := svc.GenerateTokenPair(uuid.New(), "u@example.com", "PATIENT")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTamperedToken(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", time.Hour, time.Hour)
	other := NewJWTService("other-secret", "other-refresh", time.Hour, time.Hour)

	pair, err := other.GenerateTokenPair(uuid.New(), "u@example.com", "PATIENT")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
