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
	"fmt"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppendTransaction writes one entry to the token transaction log. The log is
// an audit trail; the ledger row stays the source of truth for balances.
func (s *Service) AppendTransaction(ctx context.Context, params store.AppendTransactionParams) (*models.TokenTransaction, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("transaction amount must be positive, got %d", params.Amount)
	}

	transaction := &models.TokenTransaction{
		Id:              uuid.New().String(),
		UserId:          params.UserId,
		Amount:          params.Amount,
		TransactionType: params.TransactionType,
		Description:     params.Description,
		Source:          params.Source,
		ReferenceId:     params.ReferenceId,
		CreatedAt:       params.Now.UTC(),
	}

	_, err := s.db.ExecContext(ctx, s.q(queryInsertTransaction),
		transaction.Id, transaction.UserId, transaction.Amount, transaction.TransactionType,
		transaction.Description, transaction.Source, transaction.ReferenceId, transaction.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	zap.L().Debug("Transaction logged",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_id", transaction.UserId),
		zap.String("type", transaction.TransactionType),
		zap.Int64("amount", transaction.Amount),
		zap.String("reference_id", transaction.ReferenceId))

	return transaction, nil
}

// ListTransactions returns a page of a user's log entries, newest first,
// together with the total number of entries.
func (s *Service) ListTransactions(ctx context.Context, userId string, limit, offset int) ([]models.TokenTransaction, int64, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	var total int64
	if err := s.db.QueryRowContext(ctx, s.q(queryCountTransactions), userId).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(queryGetTransactionHistory), userId, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer closeRows(rows)

	transactions := make([]models.TokenTransaction, 0, limit)
	for rows.Next() {
		var tx models.TokenTransaction
		err := rows.Scan(&tx.Id, &tx.UserId, &tx.Amount, &tx.TransactionType,
			&tx.Description, &tx.Source, &tx.ReferenceId, &tx.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, 0, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, total, nil
}

// ReconcileCoins returns the ledger balance next to the balance implied by
// the transaction log. A mismatch is logged but not treated as an error.
func (s *Service) ReconcileCoins(ctx context.Context, userId string) (int64, int64, error) {
	zap.L().Info("Reconciling coins", zap.String("user_id", userId))

	entry, err := s.GetLedgerEntry(ctx, userId)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get current balance: %w", err)
	}

	var logged sql.NullInt64
	if err := s.db.QueryRowContext(ctx, s.q(queryReconcileCoins), userId).Scan(&logged); err != nil {
		return 0, 0, fmt.Errorf("failed to calculate balance from transactions: %w", err)
	}

	if entry.Coins != logged.Int64 {
		zap.L().Warn("Coin reconciliation mismatch",
			zap.String("user_id", userId),
			zap.Int64("ledger_coins", entry.Coins),
			zap.Int64("logged_coins", logged.Int64),
			zap.Int64("difference", entry.Coins-logged.Int64))
	} else {
		zap.L().Info("Coin reconciliation successful",
			zap.String("user_id", userId),
			zap.Int64("coins", entry.Coins))
	}

	return entry.Coins, logged.Int64, nil
}
