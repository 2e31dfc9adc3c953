package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/cartsync/internal/infrastructure/config"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-with-32-characters",
		Issuer:     "cartsync-test",
		Expiration: time.Hour,
	})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService()

	tok, err := svc.Issue(" u-42 ")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := svc.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.UserID)
	assert.Equal(t, "u-42", claims.Subject)
	assert.NotEmpty(t, claims.SessionID)
}

func TestIssue_MissingUser(t *testing.T) {
	_, err := newTestService().Issue("  ")
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := svc.Issue("u-1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_NotYetValid(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	tok, err := svc.Issue("u-1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(tok.AccessToken)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidate_Rejects(t *testing.T) {
	svc := newTestService()
	tok, err := svc.Issue("u-1")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-with-32-characters!", Issuer: "cartsync-test", Expiration: time.Hour})
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-with-32-characters", Issuer: "elsewhere", Expiration: time.Hour})
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Validate(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		now := time.Now()
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cartsync-test",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}})
		s, err := raw.SignedString([]byte("test-secret-key-with-32-characters"))
		require.NoError(t, err)
		_, err = svc.Validate(s)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}
