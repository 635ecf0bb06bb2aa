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

package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stash-premium-go/internal/metrics"
	"stash-premium-go/internal/store"

	"go.uber.org/zap"
)

const defaultInterval = 15 * time.Minute

// Config wires the sweeper to its collaborators.
type Config struct {
	Store       store.EntitlementStore
	Metrics     *metrics.Metrics
	Interval    time.Duration
	StaleAfter  time.Duration
	ExpireAfter time.Duration
	Now         func() time.Time
}

// Result summarises a single sweep.
type Result struct {
	Stale   int
	Expired int
}

// Sweeper periodically reports donation intents that never received a
// completion notification and optionally expires them.
type Sweeper struct {
	store       store.EntitlementStore
	metrics     *metrics.Metrics
	interval    time.Duration
	staleAfter  time.Duration
	expireAfter time.Duration
	now         func() time.Time
	stopChan    chan struct{}
	doneChan    chan struct{}
}

func New(cfg Config) (*Sweeper, error) {
	if cfg.Store == nil {
		return nil, errors.New("sweeper requires a store")
	}
	if cfg.StaleAfter <= 0 {
		return nil, fmt.Errorf("stale threshold must be positive, got %s", cfg.StaleAfter)
	}
	if cfg.ExpireAfter < 0 {
		return nil, fmt.Errorf("expiry threshold cannot be negative, got %s", cfg.ExpireAfter)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Sweeper{
		store:       cfg.Store,
		metrics:     cfg.Metrics,
		interval:    interval,
		staleAfter:  cfg.StaleAfter,
		expireAfter: cfg.ExpireAfter,
		now:         now,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}, nil
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start(ctx context.Context) {
	zap.L().Info("Starting intent sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("stale_after", s.staleAfter),
		zap.Duration("expire_after", s.expireAfter))

	go s.sweepLoop(ctx)
}

// Stop gracefully stops the sweeper and waits for the loop to exit.
func (s *Sweeper) Stop() {
	zap.L().Info("Stopping intent sweeper")
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Intent sweeper stopped")
}

func (s *Sweeper) sweepLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		zap.L().Error("Intent sweep failed", zap.Error(err))
	}
}

// RunOnce performs a single sweep. Intents older than the expiry threshold
// are moved to expired; the remainder of the stale set is reported.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	now := s.now()

	stale, err := s.store.ListStaleIntents(ctx, now.Add(-s.staleAfter))
	if err != nil {
		return Result{}, fmt.Errorf("failed to list stale intents: %w", err)
	}

	var result Result
	var expireBefore time.Time
	if s.expireAfter > 0 {
		expireBefore = now.Add(-s.expireAfter)
	}

	for _, intent := range stale {
		if s.expireAfter > 0 && intent.CreatedAt.Before(expireBefore) {
			expired, err := s.store.ExpireIntent(ctx, intent.DonationReference, now)
			if err != nil {
				return result, fmt.Errorf("failed to expire intent %s: %w", intent.DonationReference, err)
			}
			if expired {
				result.Expired++
				zap.L().Info("Expired donation intent",
					zap.String("reference", intent.DonationReference),
					zap.String("user_id", intent.UserId),
					zap.Time("created_at", intent.CreatedAt))
				continue
			}
		}

		result.Stale++
		zap.L().Warn("Donation intent awaiting completion",
			zap.String("reference", intent.DonationReference),
			zap.String("user_id", intent.UserId),
			zap.String("status", intent.Status),
			zap.Duration("age", now.Sub(intent.CreatedAt)))
	}

	s.metrics.SetStaleIntents(result.Stale)

	if result.Stale > 0 || result.Expired > 0 {
		zap.L().Info("Intent sweep complete",
			zap.Int("stale", result.Stale),
			zap.Int("expired", result.Expired))
	}
	return result, nil
}
