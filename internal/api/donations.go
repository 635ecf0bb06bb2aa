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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateDonation records a pending intent and returns the reference the
// client passes to the donation processor.
func (s *LedgerService) CreateDonation(ctx context.Context, userId string, req models.CreateDonationRequest) (*models.CreateDonationResponse, error) {
	if userId == "" {
		return nil, validationError("user_id is required")
	}
	nonprofitId := strings.TrimSpace(req.NonprofitId)
	if nonprofitId == "" {
		return nil, validationError("nonprofitId is required")
	}
	if !s.rewards.Qualifies(req.Amount) {
		return nil, validationError("amount must be at least %s", s.rewards.MinAmount().StringFixed(2))
	}

	intent, err := s.store.CreateIntent(ctx, store.CreateIntentParams{
		UserId:            userId,
		DonationReference: uuid.New().String(),
		NonprofitId:       nonprofitId,
		Amount:            req.Amount,
		Now:               s.now(),
	})
	if err != nil {
		zap.L().Error("Failed to create donation intent", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	return &models.CreateDonationResponse{Reference: intent.DonationReference, Status: intent.Status}, nil
}

// GetDonationStatus merges an intent with its donation record. References
// owned by another user are reported as not found.
func (s *LedgerService) GetDonationStatus(ctx context.Context, userId, reference string) (*models.DonationStatus, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, validationError("reference is required")
	}

	intent, err := s.store.GetIntentByReference(ctx, reference)
	if errors.Is(err, store.ErrIntentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, reference)
	}
	if err != nil {
		zap.L().Error("Failed to get donation intent", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve donation: %w", err)
	}
	if intent.UserId != userId {
		zap.L().Warn("Donation status requested by non-owner",
			zap.String("reference", reference),
			zap.String("user_id", userId))
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, reference)
	}

	status := &models.DonationStatus{
		Status:      intent.Status,
		Amount:      intent.Amount,
		CreatedAt:   intent.CreatedAt,
		CompletedAt: intent.CompletedAt,
		NonprofitId: intent.NonprofitId,
	}

	record, err := s.store.GetDonationRecord(ctx, reference)
	if err != nil {
		zap.L().Error("Failed to get donation record", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve donation: %w", err)
	}
	if record != nil {
		status.NonprofitName = record.NonprofitName
		status.PremiumDays = record.PremiumDays
		status.PremiumUntil = record.PremiumUntil
		status.TokensGranted = record.TokensGranted
	}

	return status, nil
}

// ListDonations returns the user's completed donations, newest first
func (s *LedgerService) ListDonations(ctx context.Context, userId string) ([]models.DonationHistoryItem, error) {
	if userId == "" {
		return nil, validationError("user_id is required")
	}

	records, err := s.store.ListDonationRecords(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to list donations", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve donations: %w", err)
	}

	items := make([]models.DonationHistoryItem, len(records))
	for i, record := range records {
		items[i] = models.DonationHistoryItem{
			Reference:     record.DonationReference,
			NonprofitId:   record.NonprofitId,
			NonprofitName: record.NonprofitName,
			Amount:        record.Amount,
			PremiumDays:   record.PremiumDays,
			PremiumUntil:  record.PremiumUntil,
			TokensGranted: record.TokensGranted,
			CreatedAt:     record.CreatedAt,
		}
	}
	return items, nil
}

// ProcessDonationWebhook applies a processor notification. Notifications
// that do not confirm a successful donation are acknowledged and ignored.
func (s *LedgerService) ProcessDonationWebhook(ctx context.Context, payload models.DonationWebhook) (*models.DonationResult, error) {
	if !payload.IsSuccess() {
		zap.L().Info("Ignoring donation notification",
			zap.String("event", payload.Event),
			zap.String("status", payload.Data.Status),
			zap.String("reference", payload.Data.Reference))
		return &models.DonationResult{Success: true, Ignored: true, Reference: payload.Data.Reference}, nil
	}
	return s.MarkDonationCompleted(ctx, payload.Data)
}

// MarkDonationCompleted grants rewards for a confirmed donation exactly once
// per reference. Later calls for the same reference succeed with
// AlreadyCompleted set and change nothing.
func (s *LedgerService) MarkDonationCompleted(ctx context.Context, data models.DonationWebhookData) (*models.DonationResult, error) {
	reference := strings.TrimSpace(data.Reference)
	if reference == "" {
		return nil, validationError("reference is required")
	}
	// A zero amount would complete the intent with nothing granted and turn
	// the processor's corrected retry into a replay.
	if data.Amount <= 0 {
		return nil, validationError("amount must be positive")
	}

	amount := data.AmountDollars()
	premiumDays := s.rewards.PremiumDays(amount)
	tokens := s.rewards.BonusTokens(amount)
	if !s.rewards.Qualifies(amount) {
		zap.L().Warn("Donation below minimum, completing without rewards",
			zap.String("reference", reference),
			zap.String("amount", amount.String()),
			zap.String("minimum", s.rewards.MinAmount().String()))
	}

	var completed *store.CompleteDonationResult
	var err error
	for attempt := 1; attempt <= maxConcurrencyRetries; attempt++ {
		completed, err = s.store.CompleteDonation(ctx, store.CompleteDonationParams{
			DonationReference: reference,
			NonprofitId:       data.NonprofitId,
			NonprofitName:     data.NonprofitName,
			Amount:            amount,
			TokensGranted:     tokens,
			PremiumDays:       premiumDays,
			StackPremium:      s.rewards.DonationStacking(),
			Now:               s.now(),
		})
		if !errors.Is(err, store.ErrConcurrentModification) {
			break
		}
		zap.L().Warn("Donation completion lost a concurrent ledger update, retrying",
			zap.String("reference", reference),
			zap.Int("attempt", attempt))
	}

	switch {
	case errors.Is(err, store.ErrIntentNotFound):
		zap.L().Warn("Donation notification for unknown reference", zap.String("reference", reference))
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, reference)
	case errors.Is(err, store.ErrAlreadyCompleted):
		zap.L().Info("Donation already completed, acknowledging replay", zap.String("reference", reference))
		return s.replayResult(ctx, reference)
	case err != nil:
		zap.L().Error("Failed to complete donation", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to complete donation: %w", err)
	}

	userId := completed.Intent.UserId
	if data.Metadata.UserId != "" && data.Metadata.UserId != userId {
		zap.L().Warn("Donation metadata user differs from intent owner, crediting intent owner",
			zap.String("reference", reference),
			zap.String("intent_user_id", userId),
			zap.String("metadata_user_id", data.Metadata.UserId))
	}

	if tokens > 0 {
		_, logErr := s.store.AppendTransaction(ctx, store.AppendTransactionParams{
			UserId:          userId,
			Amount:          tokens,
			TransactionType: models.TransactionTypeEarn,
			Description:     donationDescription(amount.StringFixed(2), data.NonprofitName),
			Source:          models.SourceDonation,
			ReferenceId:     reference,
			Now:             s.now(),
		})
		if logErr != nil {
			zap.L().Warn("Failed to log donation reward",
				zap.String("user_id", userId),
				zap.String("reference", reference),
				zap.Error(logErr))
		}
	}

	return &models.DonationResult{
		Success:       true,
		UserId:        userId,
		Reference:     reference,
		Amount:        amount,
		TokensGranted: tokens,
		PremiumDays:   premiumDays,
		PremiumUntil:  completed.Ledger.PremiumUntil,
		NewBalance:    completed.Ledger.Coins,
	}, nil
}

func (s *LedgerService) replayResult(ctx context.Context, reference string) (*models.DonationResult, error) {
	result := &models.DonationResult{Success: true, AlreadyCompleted: true, Reference: reference}

	record, err := s.store.GetDonationRecord(ctx, reference)
	if err != nil {
		// The replay is already a success; the record only enriches the reply.
		zap.L().Warn("Failed to load donation record for replay", zap.String("reference", reference), zap.Error(err))
		return result, nil
	}
	if record != nil {
		result.UserId = record.UserId
		result.Amount = record.Amount
		result.TokensGranted = record.TokensGranted
		result.PremiumDays = record.PremiumDays
		result.PremiumUntil = record.PremiumUntil
	}
	return result, nil
}

func donationDescription(amount, nonprofitName string) string {
	if nonprofitName == "" {
		return fmt.Sprintf("Donation reward for $%s", amount)
	}
	return fmt.Sprintf("Donation reward for $%s to %s", amount, nonprofitName)
}
