package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func testValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{
		SecretKey: testSecret,
		Issuer:    "lms-test",
	})
	require.NoError(t, err)
	return v
}

func TestGenerateAndValidateToken(t *testing.T) {
	gen, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey:  testSecret,
		Issuer:     "lms-test",
		ExpiryTime: time.Hour,
	})
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "u@example.com", []string{"student"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := testValidator(t).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"student"}, claims.Roles)
}

func TestValidateToken_Expired(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lms-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = testValidator(t).ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSignature(t *testing.T) {
	gen, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey: "a-completely-different-secret",
		Issuer:    "lms-test",
	})
	require.NoError(t, err)
	token, err := gen.GenerateToken("user-1", "u@example.com", nil)
	require.NoError(t, err)

	_, err = testValidator(t).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	gen, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey: testSecret,
		Issuer:    "someone-else",
	})
	require.NoError(t, err)
	token, err := gen.GenerateToken("user-1", "u@example.com", nil)
	require.NoError(t, err)

	_, err = testValidator(t).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := testValidator(t).ValidateToken("not.a.token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})

	assert.Error(t, err)
}

func TestUserContext_HasRole(t *testing.T) {
	user := &UserContext{UserID: "u1", Roles: []string{"student", "instructor"}}

	assert.True(t, user.HasRole("instructor"))
	assert.False(t, user.HasRole("admin"))
}

func TestUserContextRoundTrip(t *testing.T) {
	user := &UserContext{UserID: "u1", Email: "u@example.com"}

	ctx := SetUserInContext(context.Background(), user)
	got, err := GetUserFromContext(ctx)

	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestGetUserFromContext_Missing(t *testing.T) {
	_, err := GetUserFromContext(context.Background())

	assert.ErrorIs(t, err, ErrMissingUser)
}
