/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stash-premium-go/internal/models"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrAuthUnavailable = errors.New("auth service unavailable")
)

// Verifier exchanges a bearer token for the caller's identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// NewVerifier picks local JWT verification when a signing secret is set and
// falls back to the remote auth service otherwise.
func NewVerifier(cfg models.AuthConfig) (Verifier, error) {
	switch {
	case cfg.JWTSecret != "":
		return NewJWTVerifier(cfg.JWTSecret, cfg.JWTAudience), nil
	case cfg.URL != "":
		return NewRemoteVerifier(cfg.URL, cfg.APIKey, cfg.Timeout)
	default:
		return nil, fmt.Errorf("either AUTH_JWT_SECRET or AUTH_URL must be set")
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
