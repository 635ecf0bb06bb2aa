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
	"errors"
	"fmt"
	"strings"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"go.uber.org/zap"
)

// ActionSpend is the only action accepted by the token endpoint
const ActionSpend = "spend"

// GetBalance returns coins and premium expiry for a user. Users without a
// ledger row get zero coins and no premium.
func (s *LedgerService) GetBalance(ctx context.Context, userId string) (*models.Balance, error) {
	if userId == "" {
		return nil, validationError("user_id is required")
	}

	entry, err := s.store.GetLedgerEntry(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get balance", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balance: %w", err)
	}

	return &models.Balance{Coins: entry.Coins, PremiumUntil: entry.PremiumUntil}, nil
}

// IsPremium re-reads the ledger on every call.
func (s *LedgerService) IsPremium(ctx context.Context, userId string) (bool, error) {
	entry, err := s.store.GetLedgerEntry(ctx, userId)
	if err != nil {
		return false, fmt.Errorf("failed to check premium status: %w", err)
	}
	return entry.IsPremiumAt(s.now()), nil
}

// SpendForPremium exchanges coins for a premium tier. The ledger change is
// authoritative; the spend log entry is written afterwards and its failure is
// only logged.
func (s *LedgerService) SpendForPremium(ctx context.Context, userId, action string, amount int64) (*models.Balance, error) {
	if userId == "" {
		return nil, validationError("user_id is required")
	}
	if strings.TrimSpace(action) == "" || amount == 0 {
		return nil, validationError("action and amount are required")
	}
	if action != ActionSpend {
		return nil, validationError("unsupported action %q", action)
	}

	days, ok := s.rewards.TierDays(amount)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTier, amount)
	}

	var entry *models.LedgerEntry
	var err error
	for attempt := 1; attempt <= maxConcurrencyRetries; attempt++ {
		entry, err = s.store.SpendForPremium(ctx, store.SpendParams{
			UserId:        userId,
			Coins:         amount,
			PremiumDays:   days,
			AllowStacking: s.rewards.AllowSpendStacking(),
			Now:           s.now(),
		})
		if !errors.Is(err, store.ErrConcurrentModification) {
			break
		}
		zap.L().Warn("Premium purchase lost a concurrent update, retrying",
			zap.String("user_id", userId),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) || errors.Is(err, store.ErrAlreadyPremium) {
			zap.L().Info("Premium purchase rejected", zap.String("user_id", userId), zap.Error(err))
			return nil, err
		}
		zap.L().Error("Failed to spend coins for premium", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to purchase premium: %w", err)
	}

	_, logErr := s.store.AppendTransaction(ctx, store.AppendTransactionParams{
		UserId:          userId,
		Amount:          amount,
		TransactionType: models.TransactionTypeSpend,
		Description:     fmt.Sprintf("Premium access for %d days", days),
		Source:          models.SourcePremiumPurchase,
		Now:             s.now(),
	})
	if logErr != nil {
		zap.L().Warn("Failed to log premium purchase",
			zap.String("user_id", userId),
			zap.Int64("amount", amount),
			zap.Error(logErr))
	}

	return &models.Balance{Coins: entry.Coins, PremiumUntil: entry.PremiumUntil}, nil
}
