package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stash-premium-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != userPath || r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.Header.Get(AuthHeaderKey) {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user-1","email":"user-1@example.com","role":"authenticated"}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRemoteVerifier(t *testing.T) {
	server := newAuthServer(t)
	verifier, err := NewRemoteVerifier(server.URL+"/", "anon-key", 5*time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	identity, err := verifier.Verify(ctx, "good-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserId)

	_, err = verifier.Verify(ctx, "bad-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = verifier.Verify(ctx, "broken")
	assert.ErrorIs(t, err, ErrAuthUnavailable)
}

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier(models.AuthConfig{JWTSecret: "secret"})
	require.NoError(t, err)
	assert.IsType(t, &JWTVerifier{}, v)

	v, err = NewVerifier(models.AuthConfig{URL: "http://auth.local"})
	require.NoError(t, err)
	assert.IsType(t, &RemoteVerifier{}, v)

	_, err = NewVerifier(models.AuthConfig{})
	assert.Error(t, err)
}
