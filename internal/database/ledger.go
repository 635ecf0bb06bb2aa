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

	"go.uber.org/zap"
)

// GetLedgerEntry returns the ledger row for a user. A user without a row gets
// an empty entry with zero coins and no premium.
func (s *Service) GetLedgerEntry(ctx context.Context, userId string) (*models.LedgerEntry, error) {
	zap.L().Debug("Getting ledger entry", zap.String("user_id", userId))

	entry, err := scanLedgerEntry(s.db.QueryRowContext(ctx, s.q(queryGetLedgerEntry), userId))
	if errors.Is(err, sql.ErrNoRows) {
		return &models.LedgerEntry{UserId: userId}, nil
	}
	if err != nil {
		zap.L().Error("Failed to get ledger entry", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return entry, nil
}

// ListLedgerEntries returns every ledger row, most recently updated first
func (s *Service) ListLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryListLedgerEntries))
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer closeRows(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during ledger row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

// SpendForPremium debits coins and extends premium in one transaction.
// The update is guarded by the row version; a lost race returns
// store.ErrConcurrentModification and nothing is written.
func (s *Service) SpendForPremium(ctx context.Context, params store.SpendParams) (*models.LedgerEntry, error) {
	zap.L().Info("Processing premium purchase",
		zap.String("user_id", params.UserId),
		zap.Int64("coins", params.Coins),
		zap.Int("premium_days", params.PremiumDays))

	now := params.Now.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := scanLedgerEntry(tx.QueryRowContext(ctx, s.q(queryGetLedgerEntry), params.UserId))
	if errors.Is(err, sql.ErrNoRows) {
		// No row means zero coins; there is nothing to spend.
		return nil, fmt.Errorf("%w: balance 0, cost %d", store.ErrInsufficientFunds, params.Coins)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	if entry.Coins < params.Coins {
		return nil, fmt.Errorf("%w: balance %d, cost %d", store.ErrInsufficientFunds, entry.Coins, params.Coins)
	}
	active := entry.IsPremiumAt(now)
	if active && !params.AllowStacking {
		return nil, fmt.Errorf("%w: until %s", store.ErrAlreadyPremium, entry.PremiumUntil.Format(time.RFC3339))
	}

	base := now
	if active {
		base = entry.PremiumUntil.UTC()
	}
	until := base.Add(time.Duration(params.PremiumDays) * 24 * time.Hour)
	coins := entry.Coins - params.Coins

	result, err := tx.ExecContext(ctx, s.q(queryUpdateLedgerEntry), coins, until, now, params.UserId, entry.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Premium purchased",
		zap.String("user_id", params.UserId),
		zap.Int64("old_coins", entry.Coins),
		zap.Int64("new_coins", coins),
		zap.Time("premium_until", until))

	entry.Coins = coins
	entry.PremiumUntil = &until
	entry.Version++
	entry.UpdatedAt = now
	return entry, nil
}

// creditLedger adds coins and premium days inside an open transaction,
// creating the row when the user has none yet.
func (s *Service) creditLedger(ctx context.Context, tx *sql.Tx, userId string, coins int64, premiumDays int, stack bool, now time.Time) (*models.LedgerEntry, error) {
	entry, err := scanLedgerEntry(tx.QueryRowContext(ctx, s.q(queryGetLedgerEntry), userId))
	found := true
	if errors.Is(err, sql.ErrNoRows) {
		found = false
		entry = &models.LedgerEntry{UserId: userId, CreatedAt: now}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	if premiumDays > 0 {
		base := now
		if stack && entry.IsPremiumAt(now) {
			base = entry.PremiumUntil.UTC()
		}
		until := base.Add(time.Duration(premiumDays) * 24 * time.Hour)
		entry.PremiumUntil = &until
	}
	entry.Coins += coins
	entry.UpdatedAt = now

	if !found {
		_, err := tx.ExecContext(ctx, s.q(queryInsertLedgerEntry),
			userId, entry.Coins, nullableTime(entry.PremiumUntil), now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("ledger row created concurrently - %w", store.ErrConcurrentModification)
			}
			return nil, fmt.Errorf("failed to create ledger entry: %w", err)
		}
		entry.Version = 1
		return entry, nil
	}

	result, err := tx.ExecContext(ctx, s.q(queryUpdateLedgerEntry),
		entry.Coins, nullableTime(entry.PremiumUntil), now, userId, entry.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update ledger entry: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}
	entry.Version++
	return entry, nil
}

func scanLedgerEntry(row rowScanner) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var premiumUntil sql.NullTime
	if err := row.Scan(&entry.UserId, &entry.Coins, &premiumUntil, &entry.Version, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	entry.PremiumUntil = timePtr(premiumUntil)
	return &entry, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ledger update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
