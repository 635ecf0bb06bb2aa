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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"stash-premium-go/internal/common"
	"stash-premium-go/internal/config"
	"stash-premium-go/internal/database"
	"stash-premium-go/internal/models"

	"go.uber.org/zap"
)

type ledgerStats struct {
	totalUsers     int
	premiumUsers   int
	totalCoins     int64
	mismatchedLogs int
}

func printTransactions(transactions []models.TokenTransaction) {
	for i, tx := range transactions {
		isLast := i == len(transactions)-1
		fmt.Printf("%s %-7s %8s  %-16s %s (%s)\n",
			common.BoxPrefix(isLast),
			tx.TransactionType,
			common.FormatSignedAmount(tx.TransactionType, tx.Amount),
			tx.Source,
			tx.Description,
			tx.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printLedgerHeader(entry models.LedgerEntry, now time.Time) {
	fmt.Printf("\n┌─ User: %s\n", entry.UserId)
	fmt.Printf("│  Coins: %d (v%d, updated: %s)\n", entry.Coins, entry.Version, entry.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("│  Premium: %s\n", common.FormatPremium(entry.PremiumUntil, now))
	common.PrintBoxSeparator(78)
}

func processLedger(ctx context.Context, entry models.LedgerEntry, dbService *database.Service, historyLimit int, reconcile bool, now time.Time) (bool, error) {
	transactions, total, err := dbService.ListTransactions(ctx, entry.UserId, historyLimit, 0)
	if err != nil {
		return false, fmt.Errorf("failed to get transactions: %w", err)
	}

	printLedgerHeader(entry, now)
	if len(transactions) == 0 {
		fmt.Println("└  no transactions")
	} else {
		printTransactions(transactions)
		if total > int64(len(transactions)) {
			fmt.Printf("   ... %d older transactions\n", total-int64(len(transactions)))
		}
	}

	if !reconcile {
		return true, nil
	}

	ledgerCoins, loggedCoins, err := dbService.ReconcileCoins(ctx, entry.UserId)
	if err != nil {
		return false, fmt.Errorf("failed to reconcile: %w", err)
	}
	if ledgerCoins != loggedCoins {
		fmt.Printf("   ✗ ledger has %d coins, transaction log sums to %d\n", ledgerCoins, loggedCoins)
		return false, nil
	}
	fmt.Printf("   ✓ ledger matches transaction log (%d coins)\n", ledgerCoins)
	return true, nil
}

func generateReport(ctx context.Context, entries []models.LedgerEntry, dbService *database.Service, historyLimit int, reconcile bool, logger *zap.Logger) ledgerStats {
	stats := ledgerStats{}
	now := time.Now().UTC()

	for _, entry := range entries {
		stats.totalUsers++
		stats.totalCoins += entry.Coins
		if entry.IsPremiumAt(now) {
			stats.premiumUsers++
		}

		consistent, err := processLedger(ctx, entry, dbService, historyLimit, reconcile, now)
		if err != nil {
			logger.Error("Failed to process ledger",
				zap.String("user_id", entry.UserId),
				zap.Error(err))
			continue
		}
		if !consistent {
			stats.mismatchedLogs++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by user id (optional)")
	historyFlag := flag.Int("history", 5, "Number of recent transactions to show per user")
	reconcileFlag := flag.Bool("reconcile", false, "Compare each ledger against its transaction log")
	flag.Parse()

	logger.Info("Starting ledger query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("driver", cfg.Database.Driver))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	entries, err := common.LoadLedgers(ctx, dbService, *userFlag, logger)
	if err != nil {
		logger.Fatal("Failed to load ledgers", zap.Error(err))
	}

	common.PrintHeader("LEDGER REPORT", common.DefaultWidth)

	stats := generateReport(ctx, entries, dbService, *historyFlag, *reconcileFlag, logger)

	summary := fmt.Sprintf("SUMMARY: %d users, %d with active premium, %d coins outstanding",
		stats.totalUsers, stats.premiumUsers, stats.totalCoins)
	if *reconcileFlag {
		summary += fmt.Sprintf(", %d ledgers out of sync with their log", stats.mismatchedLogs)
	}
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Ledger query completed",
		zap.Int("users", stats.totalUsers),
		zap.Int("premium_users", stats.premiumUsers),
		zap.Int64("total_coins", stats.totalCoins))
}
