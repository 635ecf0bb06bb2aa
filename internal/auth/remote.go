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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stash-premium-go/internal/models"

	"go.uber.org/zap"
)

const userPath = "/auth/v1/user"

// RemoteVerifier asks the hosted auth service who owns a token
type RemoteVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type remoteUser struct {
	Id    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NewRemoteVerifier(baseURL, apiKey string, timeout time.Duration) (*RemoteVerifier, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := NewHttpClient(timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create auth http client: %w", err)
	}
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}, nil
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+userPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		zap.L().Error("Auth service request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close auth response body", zap.Error(err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		zap.L().Error("Auth service returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%w: status %d", ErrAuthUnavailable, resp.StatusCode)
	}

	var user remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decoding user: %v", ErrAuthUnavailable, err)
	}
	if user.Id == "" {
		return nil, fmt.Errorf("%w: user has no id", ErrInvalidToken)
	}

	return &models.Identity{UserId: user.Id, Email: user.Email, Role: user.Role}, nil
}
