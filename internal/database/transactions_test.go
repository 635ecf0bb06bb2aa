package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"
)

func TestAppendTransaction_RejectsNonPositive(t *testing.T) {
	service := setupTestDb(t)

	_, err := service.AppendTransaction(context.Background(), store.AppendTransactionParams{
		UserId: "user-1", Amount: 0, TransactionType: models.TransactionTypeEarn, Now: testNow,
	})
	if err == nil {
		t.Error("Expected error for zero amount")
	}
}

func TestListTransactions_Pagination(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := service.AppendTransaction(ctx, store.AppendTransactionParams{
			UserId:          "user-1",
			Amount:          int64(10 * (i + 1)),
			TransactionType: models.TransactionTypeEarn,
			Description:     fmt.Sprintf("earn %d", i),
			Source:          models.SourceDonation,
			ReferenceId:     fmt.Sprintf("ref-%d", i),
			Now:             testNow.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendTransaction failed: %v", err)
		}
	}

	page, total, err := service.ListTransactions(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(page))
	}
	if page[0].Amount != 50 || page[1].Amount != 40 {
		t.Errorf("Expected newest first (50, 40), got (%d, %d)", page[0].Amount, page[1].Amount)
	}

	last, _, err := service.ListTransactions(ctx, "user-1", 2, 4)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(last) != 1 || last[0].ReferenceId != "ref-0" {
		t.Errorf("Expected oldest entry on last page, got %+v", last)
	}

	empty, total, err := service.ListTransactions(ctx, "someone-else", 20, 0)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(empty) != 0 || total != 0 {
		t.Errorf("Expected empty history, got %d entries (total %d)", len(empty), total)
	}
}

func TestReconcileCoins(t *testing.T) {
	service := setupTestDb(t)
	ctx := context.Background()
	fundUser(t, service, "user-1", 150)

	ledger, logged, err := service.ReconcileCoins(ctx, "user-1")
	if err != nil {
		t.Fatalf("ReconcileCoins failed: %v", err)
	}
	if ledger != 150 || logged != 0 {
		t.Errorf("Expected 150 ledger and 0 logged, got %d and %d", ledger, logged)
	}

	entries := []store.AppendTransactionParams{
		{UserId: "user-1", Amount: 150, TransactionType: models.TransactionTypeEarn, Source: models.SourceDonation, Now: testNow},
		{UserId: "user-1", Amount: 100, TransactionType: models.TransactionTypeSpend, Source: models.SourcePremiumPurchase, Now: testNow},
	}
	for _, params := range entries {
		if _, err := service.AppendTransaction(ctx, params); err != nil {
			t.Fatalf("AppendTransaction failed: %v", err)
		}
	}
	if _, err := service.SpendForPremium(ctx, store.SpendParams{UserId: "user-1", Coins: 100, PremiumDays: 7, Now: testNow}); err != nil {
		t.Fatalf("SpendForPremium failed: %v", err)
	}

	ledger, logged, err = service.ReconcileCoins(ctx, "user-1")
	if err != nil {
		t.Fatalf("ReconcileCoins failed: %v", err)
	}
	if ledger != 50 || logged != 50 {
		t.Errorf("Expected 50 and 50, got %d and %d", ledger, logged)
	}
}
