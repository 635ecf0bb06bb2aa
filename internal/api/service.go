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

package api

import (
	"context"
	"fmt"
	"time"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"
)

// maxConcurrencyRetries bounds retries after an optimistic-lock conflict.
const maxConcurrencyRetries = 3

// LedgerService is the entitlement business layer in front of the store
type LedgerService struct {
	store   store.EntitlementStore
	rewards Rewards
	now     func() time.Time
}

// Option configures a LedgerService
type Option func(*LedgerService)

// WithClock overrides the time source used for premium and quota decisions.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) {
		s.now = now
	}
}

func NewLedgerService(st store.EntitlementStore, rewards models.RewardsConfig, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:   st,
		rewards: NewRewards(rewards),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rewards exposes the reward policy in effect
func (s *LedgerService) Rewards() Rewards {
	return s.rewards
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
