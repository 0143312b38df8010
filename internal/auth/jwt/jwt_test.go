package jwt

import (
	"testing"
	"time"

	"github.com/amoylab/familia/internal/common/config"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	return s
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(config.JWTConfig{Duration: time.Hour})
	assert.ErrorIs(t, err, ErrEmptySecretKey)

	_, err = NewService(config.JWTConfig{SecretKey: "short", Duration: time.Hour})
	assert.ErrorIs(t, err, ErrWeakSecretKey)

	_, err = NewService(config.JWTConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestGenerateAndValidate(t *testing.T) {
	s := newTestService(t)
	tok, err := s.GenerateToken("u-42", "alice")
	require.NoError(t, err)

	claims, err := s.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "u-42", claims.Subject)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-42", id)
}

func TestValidateToken_Expired(t *testing.T) {
	s := newTestService(t)
	issued := time.Now().Add(-2 * time.Hour)
	s.now = func() time.Time { return issued }
	tok, err := s.GenerateToken("u-1", "bob")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Rejects(t *testing.T) {
	s := newTestService(t)

	_, err := s.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewService(config.JWTConfig{SecretKey: "ffffffffffffffffffffffffffffffff", Duration: time.Hour})
	require.NoError(t, err)
	foreign, err := other.GenerateToken("u-1", "mallory")
	require.NoError(t, err)
	_, err = s.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := gojwt.NewWithClaims(gojwt.SigningMethodNone, &Claims{UserID: "u-1"})
	unsigned, err := none.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := noSubject.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrMissingSubject)
}
