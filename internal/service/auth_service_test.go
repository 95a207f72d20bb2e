package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oktel/attendance-report/internal/models"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "attendance", TTL: time.Hour})

	token, expiresAt, err := svc.IssueToken("u1", "alice", []string{models.RoleSystemAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin())
}

func TestAuthServiceRejectsExpired(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "secret", TTL: time.Minute})
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken("u1", "alice", nil)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsWrongSecretAndIssuer(t *testing.T) {
	issuer := NewAuthService(AuthConfig{Secret: "other", Issuer: "attendance"})
	token, _, err := issuer.IssueToken("u1", "alice", nil)
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{Secret: "secret", Issuer: "attendance"})
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := NewAuthService(AuthConfig{Secret: "secret", Issuer: "someone-else"})
	token, _, err = foreign.IssueToken("u1", "alice", nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsNoneAlgorithm(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := NewAuthService(AuthConfig{Secret: "secret"})
	_, err = svc.ValidateToken(unsigned)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRequiresSecret(t *testing.T) {
	_, _, err := NewAuthService(AuthConfig{}).IssueToken("u1", "alice", nil)
	assert.Error(t, err)
}
