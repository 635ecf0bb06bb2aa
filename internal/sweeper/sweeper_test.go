package sweeper

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"stash-premium-go/internal/database"
	"stash-premium-go/internal/metrics"
	"stash-premium-go/internal/models"
	"stash-premium-go/internal/store"

	"github.com/shopspring/decimal"
)

var sweepNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *database.Service {
	t.Helper()
	service, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:       "sqlite3",
		Path:         filepath.Join(t.TempDir(), "stash.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(service.Close)
	return service
}

func seedIntent(t *testing.T, st store.EntitlementStore, reference string, age time.Duration) {
	t.Helper()
	_, err := st.CreateIntent(context.Background(), store.CreateIntentParams{
		UserId:            "user-" + reference,
		DonationReference: reference,
		NonprofitId:       "np-1",
		Amount:            decimal.NewFromInt(10),
		Now:               sweepNow.Add(-age),
	})
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
}

func newTestSweeper(t *testing.T, st store.EntitlementStore, m *metrics.Metrics, expireAfter time.Duration) *Sweeper {
	t.Helper()
	s, err := New(Config{
		Store:       st,
		Metrics:     m,
		Interval:    time.Hour,
		StaleAfter:  24 * time.Hour,
		ExpireAfter: expireAfter,
		Now:         func() time.Time { return sweepNow },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{StaleAfter: time.Hour}); err == nil {
		t.Error("Expected error without a store")
	}

	st := setupStore(t)
	if _, err := New(Config{Store: st}); err == nil {
		t.Error("Expected error for zero stale threshold")
	}
	if _, err := New(Config{Store: st, StaleAfter: time.Hour, ExpireAfter: -time.Hour}); err == nil {
		t.Error("Expected error for negative expiry")
	}
}

func TestRunOnce_ReportsStaleWithoutExpiring(t *testing.T) {
	st := setupStore(t)
	m := metrics.New(nil)
	seedIntent(t, st, "fresh", time.Hour)
	seedIntent(t, st, "old", 48*time.Hour)
	seedIntent(t, st, "ancient", 30*24*time.Hour)

	result, err := newTestSweeper(t, st, m, 0).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if result.Stale != 2 || result.Expired != 0 {
		t.Errorf("Expected 2 stale and 0 expired, got %+v", result)
	}

	intent, err := st.GetIntentByReference(context.Background(), "ancient")
	if err != nil {
		t.Fatalf("GetIntentByReference failed: %v", err)
	}
	if intent.Status != models.IntentStatusPending {
		t.Errorf("Expected intent to stay pending, got %s", intent.Status)
	}
}

func TestRunOnce_ExpiresOldIntents(t *testing.T) {
	st := setupStore(t)
	m := metrics.New(nil)
	seedIntent(t, st, "fresh", time.Hour)
	seedIntent(t, st, "old", 48*time.Hour)
	seedIntent(t, st, "ancient", 10*24*time.Hour)

	s := newTestSweeper(t, st, m, 7*24*time.Hour)
	result, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if result.Stale != 1 || result.Expired != 1 {
		t.Errorf("Expected 1 stale and 1 expired, got %+v", result)
	}

	intent, err := st.GetIntentByReference(context.Background(), "ancient")
	if err != nil {
		t.Fatalf("GetIntentByReference failed: %v", err)
	}
	if intent.Status != models.IntentStatusExpired {
		t.Errorf("Expected expired status, got %s", intent.Status)
	}

	// Expired intents drop out of the next sweep.
	result, err = s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Second RunOnce failed: %v", err)
	}
	if result.Stale != 1 || result.Expired != 0 {
		t.Errorf("Expected 1 stale and 0 expired on second sweep, got %+v", result)
	}
}

func TestRunOnce_SetsGauge(t *testing.T) {
	st := setupStore(t)
	m := metrics.New(nil)
	seedIntent(t, st, "old-1", 48*time.Hour)
	seedIntent(t, st, "old-2", 72*time.Hour)

	if _, err := newTestSweeper(t, st, m, 0).RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var got float64 = -1
	for _, family := range families {
		if family.GetName() == "stash_stale_intents" {
			got = family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	if got != 2 {
		t.Errorf("Expected stale gauge 2, got %v", got)
	}
}

func TestRunOnce_IgnoresCompletedIntents(t *testing.T) {
	st := setupStore(t)
	seedIntent(t, st, "done", 48*time.Hour)
	_, err := st.CompleteDonation(context.Background(), store.CompleteDonationParams{
		DonationReference: "done",
		Amount:            decimal.NewFromInt(10),
		TokensGranted:     300,
		PremiumDays:       30,
		Now:               sweepNow,
	})
	if err != nil {
		t.Fatalf("CompleteDonation failed: %v", err)
	}

	result, err := newTestSweeper(t, st, nil, time.Hour).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if result.Stale != 0 || result.Expired != 0 {
		t.Errorf("Expected completed intent to be skipped, got %+v", result)
	}
}

func TestStartStop(t *testing.T) {
	st := setupStore(t)
	s := newTestSweeper(t, st, nil, 0)
	s.Start(context.Background())
	s.Stop()
}
