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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateIntent stores a pending donation intent. A reference that already
// exists yields store.ErrDuplicateReference.
func (s *Service) CreateIntent(ctx context.Context, params store.CreateIntentParams) (*models.DonationIntent, error) {
	now := params.Now.UTC()
	intent := &models.DonationIntent{
		Id:                uuid.New().String(),
		UserId:            params.UserId,
		DonationReference: params.DonationReference,
		Amount:            params.Amount,
		NonprofitId:       params.NonprofitId,
		Status:            models.IntentStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := s.db.ExecContext(ctx, s.q(queryInsertIntent),
		intent.Id, intent.UserId, intent.DonationReference, intent.Amount.String(),
		intent.NonprofitId, intent.Status, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateReference, params.DonationReference)
		}
		return nil, fmt.Errorf("failed to insert donation intent: %w", err)
	}

	zap.L().Info("Donation intent created",
		zap.String("user_id", intent.UserId),
		zap.String("reference", intent.DonationReference),
		zap.String("nonprofit_id", intent.NonprofitId),
		zap.String("amount", intent.Amount.String()))

	return intent, nil
}

// GetIntentByReference looks up an intent by its donation reference
func (s *Service) GetIntentByReference(ctx context.Context, reference string) (*models.DonationIntent, error) {
	intent, err := scanIntent(s.db.QueryRowContext(ctx, s.q(queryGetIntentByReference), reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrIntentNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation intent: %w", err)
	}
	return intent, nil
}

// CompleteDonation marks an intent completed, credits the ledger and writes
// the donation record in a single transaction. The status update only
// matches a non-completed intent, so of two concurrent deliveries exactly one
// applies the grant and the other gets store.ErrAlreadyCompleted.
func (s *Service) CompleteDonation(ctx context.Context, params store.CompleteDonationParams) (*store.CompleteDonationResult, error) {
	zap.L().Info("Completing donation",
		zap.String("reference", params.DonationReference),
		zap.String("amount", params.Amount.String()),
		zap.Int64("tokens", params.TokensGranted),
		zap.Int("premium_days", params.PremiumDays))

	now := params.Now.UTC()

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	intent, err := scanIntent(tx.QueryRowContext(ctx, s.q(queryGetIntentByReference), params.DonationReference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrIntentNotFound, params.DonationReference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation intent: %w", err)
	}
	if intent.IsCompleted() {
		return nil, fmt.Errorf("%w: %s", store.ErrAlreadyCompleted, params.DonationReference)
	}

	result, err := tx.ExecContext(ctx, s.q(queryMarkIntentCompleted), now, now, params.DonationReference)
	if err != nil {
		return nil, fmt.Errorf("failed to mark intent completed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrAlreadyCompleted, params.DonationReference)
	}

	entry, err := s.creditLedger(ctx, tx, intent.UserId, params.TokensGranted, params.PremiumDays, params.StackPremium, now)
	if err != nil {
		return nil, err
	}

	nonprofitId := params.NonprofitId
	if nonprofitId == "" {
		nonprofitId = intent.NonprofitId
	}
	record := models.DonationRecord{
		Id:                uuid.New().String(),
		UserId:            intent.UserId,
		DonationReference: params.DonationReference,
		NonprofitId:       nonprofitId,
		NonprofitName:     params.NonprofitName,
		Amount:            params.Amount,
		PremiumDays:       params.PremiumDays,
		TokensGranted:     params.TokensGranted,
		CreatedAt:         now,
	}
	if params.PremiumDays > 0 {
		record.PremiumUntil = entry.PremiumUntil
	}

	_, err = tx.ExecContext(ctx, s.q(queryInsertDonationRecord),
		record.Id, record.UserId, record.DonationReference, record.NonprofitId, record.NonprofitName,
		record.Amount.String(), record.PremiumDays, nullableTime(record.PremiumUntil), record.TokensGranted, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: record exists for %s", store.ErrAlreadyCompleted, params.DonationReference)
		}
		return nil, fmt.Errorf("failed to insert donation record: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	intent.Status = models.IntentStatusCompleted
	intent.CompletedAt = &now
	intent.UpdatedAt = now

	zap.L().Info("Donation completed",
		zap.String("user_id", intent.UserId),
		zap.String("reference", params.DonationReference),
		zap.Int64("new_coins", entry.Coins),
		zap.Timep("premium_until", entry.PremiumUntil))

	return &store.CompleteDonationResult{Intent: *intent, Record: record, Ledger: *entry}, nil
}

// GetDonationRecord returns the record written for a completed donation, or
// nil when the donation has not completed.
func (s *Service) GetDonationRecord(ctx context.Context, reference string) (*models.DonationRecord, error) {
	record, err := scanDonationRecord(s.db.QueryRowContext(ctx, s.q(queryGetDonationRecord), reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation record: %w", err)
	}
	return record, nil
}

// ListDonationRecords returns a user's completed donations, newest first
func (s *Service) ListDonationRecords(ctx context.Context, userId string) ([]models.DonationRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryListDonationRecords), userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list donation records: %w", err)
	}
	defer closeRows(rows)

	records := []models.DonationRecord{}
	for rows.Next() {
		record, err := scanDonationRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during donation row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating donation rows: %w", err)
	}
	return records, nil
}

// ListStaleIntents returns non-terminal intents created before the cutoff
func (s *Service) ListStaleIntents(ctx context.Context, createdBefore time.Time) ([]models.DonationIntent, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryListStaleIntents), createdBefore.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list stale intents: %w", err)
	}
	defer closeRows(rows)

	var intents []models.DonationIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation intent: %w", err)
		}
		intents = append(intents, *intent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating intent rows: %w", err)
	}
	return intents, nil
}

// ExpireIntent moves a non-terminal intent to expired. It reports false when
// the intent is missing or already terminal.
func (s *Service) ExpireIntent(ctx context.Context, reference string, now time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.q(queryExpireIntent), now.UTC(), reference)
	if err != nil {
		return false, fmt.Errorf("failed to expire intent: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func scanIntent(row rowScanner) (*models.DonationIntent, error) {
	var intent models.DonationIntent
	var amountStr string
	var completedAt sql.NullTime
	err := row.Scan(&intent.Id, &intent.UserId, &intent.DonationReference, &amountStr,
		&intent.NonprofitId, &intent.Status, &intent.CreatedAt, &intent.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	intent.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse intent amount '%s': %w", amountStr, err)
	}
	intent.CompletedAt = timePtr(completedAt)
	return &intent, nil
}

func scanDonationRecord(row rowScanner) (*models.DonationRecord, error) {
	var record models.DonationRecord
	var amountStr string
	var premiumUntil sql.NullTime
	err := row.Scan(&record.Id, &record.UserId, &record.DonationReference, &record.NonprofitId,
		&record.NonprofitName, &amountStr, &record.PremiumDays, &premiumUntil,
		&record.TokensGranted, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	record.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse donation amount '%s': %w", amountStr, err)
	}
	record.PremiumUntil = timePtr(premiumUntil)
	return &record, nil
}
