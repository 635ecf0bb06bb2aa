package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stash-premium-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestCreateDonation_Validation(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateDonationRequest
	}{
		{"missing nonprofit", models.CreateDonationRequest{Amount: decimal.NewFromInt(25)}},
		{"blank nonprofit", models.CreateDonationRequest{NonprofitId: "  ", Amount: decimal.NewFromInt(25)}},
		{"below minimum", models.CreateDonationRequest{NonprofitId: "np-1", Amount: decimal.RequireFromString("9.99")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateDonation(ctx, "user-1", tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestDonationScenario_TwentyFiveDollars(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateDonation(ctx, "user-1", models.CreateDonationRequest{
		NonprofitId: "np-1",
		Amount:      decimal.NewFromInt(25),
	})
	if err != nil {
		t.Fatalf("CreateDonation failed: %v", err)
	}
	if created.Status != models.IntentStatusPending || created.Reference == "" {
		t.Fatalf("Unexpected intent response: %+v", created)
	}

	result, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 2500))
	if err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	if !result.Success || result.AlreadyCompleted {
		t.Errorf("Expected first delivery to apply, got %+v", result)
	}
	if result.TokensGranted != 750 || result.PremiumDays != 30 || result.NewBalance != 750 {
		t.Errorf("Expected 750 tokens and 30 days, got %+v", result)
	}
	wantUntil := testNow.Add(30 * 24 * time.Hour)
	if result.PremiumUntil == nil || !result.PremiumUntil.Equal(wantUntil) {
		t.Errorf("Expected premium until %v, got %v", wantUntil, result.PremiumUntil)
	}

	replay, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 2500))
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if !replay.Success || !replay.AlreadyCompleted {
		t.Errorf("Expected idempotent replay, got %+v", replay)
	}
	if replay.TokensGranted != 750 {
		t.Errorf("Expected replay to report original grant, got %d", replay.TokensGranted)
	}

	balance, _ := service.GetBalance(ctx, "user-1")
	if balance.Coins != 750 || !balance.PremiumUntil.Equal(wantUntil) {
		t.Errorf("Expected ledger unchanged by replay, got %+v", balance)
	}

	donations, err := service.ListDonations(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListDonations failed: %v", err)
	}
	if len(donations) != 1 || donations[0].TokensGranted != 750 || donations[0].PremiumDays != 30 {
		t.Errorf("Expected one donation record with the grant, got %+v", donations)
	}

	page, err := service.GetTransactionHistory(ctx, "user-1", 0, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if page.Total != 1 || page.Transactions[0].TransactionType != models.TransactionTypeEarn ||
		page.Transactions[0].ReferenceId != created.Reference {
		t.Errorf("Expected one earn record for the donation, got %+v", page)
	}
}

func TestDonation_ExtendsExistingPremium(t *testing.T) {
	service, _, clock := setupTestService(t)

	donate(t, service, "user-1", 1000)
	clock.now = testNow.Add(10 * 24 * time.Hour)
	result := donate(t, service, "user-1", 1000)

	want := testNow.Add(60 * 24 * time.Hour)
	if !result.PremiumUntil.Equal(want) {
		t.Errorf("Expected premium extended to %v, got %v", want, result.PremiumUntil)
	}
	if result.NewBalance != 600 {
		t.Errorf("Expected 600 coins, got %d", result.NewBalance)
	}
}

func TestProcessDonationWebhook_Ignored(t *testing.T) {
	service, _, _ := setupTestService(t)

	payload := webhook("ref-x", 2500)
	payload.Data.Status = "FAILED"
	result, err := service.ProcessDonationWebhook(context.Background(), payload)
	if err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	if !result.Success || !result.Ignored {
		t.Errorf("Expected ignored acknowledgement, got %+v", result)
	}

	payload = webhook("ref-x", 2500)
	payload.Event = "donation.refunded"
	result, _ = service.ProcessDonationWebhook(context.Background(), payload)
	if !result.Ignored {
		t.Errorf("Expected other events to be ignored, got %+v", result)
	}
}

func TestProcessDonationWebhook_UnknownReference(t *testing.T) {
	service, _, _ := setupTestService(t)

	_, err := service.ProcessDonationWebhook(context.Background(), webhook("missing", 2500))
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("Expected ErrReferenceNotFound, got %v", err)
	}
}

func TestProcessDonationWebhook_BelowMinimumCompletesWithoutRewards(t *testing.T) {
	service, st, _ := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateDonation(ctx, "user-1", models.CreateDonationRequest{NonprofitId: "np-1", Amount: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("CreateDonation failed: %v", err)
	}
	result, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 500))
	if err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	if result.TokensGranted != 0 || result.PremiumDays != 0 {
		t.Errorf("Expected no rewards below minimum, got %+v", result)
	}

	intent, err := st.GetIntentByReference(ctx, created.Reference)
	if err != nil {
		t.Fatalf("GetIntentByReference failed: %v", err)
	}
	if !intent.IsCompleted() {
		t.Errorf("Expected intent completed, got %s", intent.Status)
	}
	page, _ := service.GetTransactionHistory(ctx, "user-1", 20, 0)
	if page.Total != 0 {
		t.Errorf("Expected no earn record for zero tokens, got %d", page.Total)
	}
}

func TestProcessDonationWebhook_IntentOwnerIsCredited(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	created, _ := service.CreateDonation(ctx, "user-1", models.CreateDonationRequest{NonprofitId: "np-1", Amount: decimal.NewFromInt(10)})
	payload := webhook(created.Reference, 1000)
	payload.Data.Metadata.UserId = "someone-else"

	result, err := service.ProcessDonationWebhook(ctx, payload)
	if err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	if result.UserId != "user-1" {
		t.Errorf("Expected intent owner credited, got %s", result.UserId)
	}
	other, _ := service.GetBalance(ctx, "someone-else")
	if other.Coins != 0 {
		t.Errorf("Expected metadata user untouched, got %d coins", other.Coins)
	}
}

func TestProcessDonationWebhook_ConcurrentDuplicates(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateDonation(ctx, "user-1", models.CreateDonationRequest{NonprofitId: "np-1", Amount: decimal.NewFromInt(25)})
	if err != nil {
		t.Fatalf("CreateDonation failed: %v", err)
	}

	const deliveries = 6
	var wg sync.WaitGroup
	errs := make(chan error, deliveries)
	applied := make(chan bool, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 2500))
			if err != nil {
				errs <- err
				return
			}
			applied <- !result.AlreadyCompleted
		}()
	}
	wg.Wait()
	close(errs)
	close(applied)

	for err := range errs {
		t.Errorf("Unexpected delivery error: %v", err)
	}
	count := 0
	for a := range applied {
		if a {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one delivery to apply, got %d", count)
	}

	balance, _ := service.GetBalance(ctx, "user-1")
	if balance.Coins != 750 {
		t.Errorf("Expected 750 coins, got %d", balance.Coins)
	}
}

func TestGetDonationStatus(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	if _, err := service.GetDonationStatus(ctx, "user-1", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for missing reference, got %v", err)
	}
	if _, err := service.GetDonationStatus(ctx, "user-1", "missing"); !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("Expected ErrReferenceNotFound, got %v", err)
	}

	created, _ := service.CreateDonation(ctx, "user-1", models.CreateDonationRequest{NonprofitId: "np-1", Amount: decimal.NewFromInt(25)})

	pending, err := service.GetDonationStatus(ctx, "user-1", created.Reference)
	if err != nil {
		t.Fatalf("GetDonationStatus failed: %v", err)
	}
	if pending.Status != models.IntentStatusPending || pending.CompletedAt != nil || pending.TokensGranted != 0 {
		t.Errorf("Unexpected pending status: %+v", pending)
	}

	if _, err := service.GetDonationStatus(ctx, "user-2", created.Reference); !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("Expected other users to get not found, got %v", err)
	}

	if _, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 2500)); err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	done, err := service.GetDonationStatus(ctx, "user-1", created.Reference)
	if err != nil {
		t.Fatalf("GetDonationStatus failed: %v", err)
	}
	if done.Status != models.IntentStatusCompleted || done.CompletedAt == nil {
		t.Errorf("Expected completed status, got %+v", done)
	}
	if done.NonprofitName != "Clean Water Fund" || done.TokensGranted != 750 || done.PremiumDays != 30 {
		t.Errorf("Expected record details merged, got %+v", done)
	}
}

func TestProcessDonationWebhook_ZeroAmountLeavesIntentPending(t *testing.T) {
	service, st, _ := setupTestService(t)
	ctx := context.Background()

	created, err := service.CreateDonation(ctx, "user-1", models.CreateDonationRequest{NonprofitId: "np-1", Amount: decimal.NewFromInt(25)})
	if err != nil {
		t.Fatalf("CreateDonation failed: %v", err)
	}

	if _, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 0)); !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for zero amount, got %v", err)
	}
	intent, err := st.GetIntentByReference(ctx, created.Reference)
	if err != nil {
		t.Fatalf("GetIntentByReference failed: %v", err)
	}
	if intent.IsCompleted() {
		t.Fatal("Expected intent to stay open after a zero-amount notification")
	}

	result, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, 2500))
	if err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	if result.AlreadyCompleted || result.TokensGranted != 750 || result.PremiumDays != 30 {
		t.Errorf("Expected full rewards on the corrected delivery, got %+v", result)
	}
}
