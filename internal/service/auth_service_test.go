package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylequiz/internal/config"
	"stylequiz/internal/model"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService(testConfig())

	token, err := auth.IssueSessionToken("session-1")
	require.NoError(t, err)

	claims, err := auth.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestAuthService_Rejects(t *testing.T) {
	auth := NewAuthService(testConfig())
	other := NewAuthService(&config.Config{JWTSecret: "another-secret"})

	foreign, err := other.IssueSessionToken("session-1")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.SessionClaims{
		SessionID: "session-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &model.SessionClaims{SessionID: "session-1"})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSession := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.SessionClaims{})
	noSessionToken, err := noSession.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"expired":       expiredToken,
		"alg none":      noneToken,
		"no session id": noSessionToken,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateSessionToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
