package common

import (
	"context"
	"fmt"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"go.uber.org/zap"
)

// LoadLedgers returns the ledger of a single user when userFilter is set,
// otherwise every ledger in the store.
func LoadLedgers(ctx context.Context, st store.EntitlementStore, userFilter string, logger *zap.Logger) ([]models.LedgerEntry, error) {
	if userFilter != "" {
		logger.Info("Looking up ledger", zap.String("user_id", userFilter))
		entry, err := st.GetLedgerEntry(ctx, userFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to get ledger for %s: %w", userFilter, err)
		}
		return []models.LedgerEntry{*entry}, nil
	}

	entries, err := st.ListLedgerEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers: %w", err)
	}

	logger.Info("Retrieved ledgers", zap.Int("count", len(entries)))
	return entries, nil
}
