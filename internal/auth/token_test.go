package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func TestTokenManager_AccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 30*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken("user-123", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RefreshTokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tm := NewTokenManager(testSecret, time.Minute, 24*time.Hour)
	tm.now = func() time.Time { return now }

	token, expiresAt, err := tm.GenerateRefreshToken("user-1", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeRefresh, claims.Type)
}

func TestTokenManager_UniqueIDs(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, time.Hour)

	a, _, err := tm.GenerateRefreshToken("user-1", models.RoleUser)
	require.NoError(t, err)
	b, _, err := tm.GenerateRefreshToken("user-1", models.RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	now := time.Now()
	tm := NewTokenManager(testSecret, time.Minute, time.Hour)
	tm.now = func() time.Time { return now }

	token, err := tm.GenerateAccessToken("user-1", models.RoleUser)
	require.NoError(t, err)

	tm.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuer := NewTokenManager(testSecret, time.Minute, time.Hour)
	verifier := NewTokenManager("another-secret-32-characters-long", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken("user-1", models.RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, time.Hour)

	claims := &models.TokenClaims{
		Type: models.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_MissingType(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, time.Hour)

	claims := &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, time.Hour)

	_, err := tm.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
