package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stash-premium-go/internal/config"
	"stash-premium-go/internal/database"
	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupTestService(t *testing.T) (*LedgerService, store.EntitlementStore, *testClock) {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:       "sqlite3",
		Path:         filepath.Join(t.TempDir(), "stash.db"),
		MaxOpenConns: 10,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(db.Close)

	clock := &testClock{now: testNow}
	return NewLedgerService(db, config.DefaultRewards(), WithClock(clock.Now)), db, clock
}

// donate creates an intent and completes it through the webhook path.
func donate(t *testing.T, service *LedgerService, userId string, cents int64) *models.DonationResult {
	t.Helper()
	ctx := context.Background()
	created, err := service.CreateDonation(ctx, userId, models.CreateDonationRequest{
		NonprofitId: "np-1",
		Amount:      decimal.NewFromInt(cents).Shift(-2),
	})
	if err != nil {
		t.Fatalf("CreateDonation failed: %v", err)
	}
	result, err := service.ProcessDonationWebhook(ctx, webhook(created.Reference, cents))
	if err != nil {
		t.Fatalf("ProcessDonationWebhook failed: %v", err)
	}
	return result
}

func webhook(reference string, cents int64) models.DonationWebhook {
	return models.DonationWebhook{
		Event: models.WebhookEventDonationCompleted,
		Data: models.DonationWebhookData{
			DonationId:    "don-" + reference,
			Reference:     reference,
			Status:        models.WebhookStatusSucceeded,
			Amount:        cents,
			Currency:      "USD",
			NonprofitId:   "np-1",
			NonprofitName: "Clean Water Fund",
		},
	}
}

func TestHealthCheck(t *testing.T) {
	service, _, _ := setupTestService(t)
	if err := service.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := validationError("amount %d is bad", 3)
	if !errors.Is(err, ErrValidation) {
		t.Error("Expected validation error to match ErrValidation")
	}
	if err.Error() != "amount 3 is bad" {
		t.Errorf("Expected caller-facing message, got %q", err.Error())
	}
}
