package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClaims(subject string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: subject + "@example.com",
		Role:  "authenticated",
	}
}

func TestJWTVerifier_Valid(t *testing.T) {
	verifier := NewJWTVerifier("test-secret", "authenticated")
	token, err := verifier.SignToken(validClaims("user-1"))
	require.NoError(t, err)

	identity, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserId)
	assert.Equal(t, "user-1@example.com", identity.Email)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	verifier := NewJWTVerifier("test-secret", "authenticated")

	expired := validClaims("user-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims("")

	wrongAudience := validClaims("user-1")
	wrongAudience.Audience = jwt.ClaimStrings{"service_role"}

	noExpiry := validClaims("user-1")
	noExpiry.ExpiresAt = nil

	otherSecret, err := NewJWTVerifier("other-secret", "authenticated").SignToken(validClaims("user-1"))
	require.NoError(t, err)

	tokens := map[string]string{
		"garbage":      "not-a-jwt",
		"other secret": otherSecret,
	}
	for name, claims := range map[string]Claims{
		"expired":        expired,
		"no subject":     noSubject,
		"wrong audience": wrongAudience,
		"no expiry":      noExpiry,
	} {
		token, err := verifier.SignToken(claims)
		require.NoError(t, err)
		tokens[name] = token
	}

	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "expected ErrInvalidToken, got %v", err)
		})
	}
}

func TestJWTVerifier_RejectsNoneAlgorithm(t *testing.T) {
	verifier := NewJWTVerifier("test-secret", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("user-1")).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"", "", ErrMissingToken},
		{"Bearer ", "", ErrMissingToken},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer abc", "abc", nil},
	}
	for _, tt := range tests {
		token, err := BearerToken(tt.header)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "header %q", tt.header)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.token, token)
	}
}
