package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"stash-premium-go/internal/models"
)

func view(t *testing.T, service *LedgerService, experienceId string) *models.ViewResult {
	t.Helper()
	result, err := service.RecordView(context.Background(), "user-1", models.RecordViewRequest{ExperienceId: experienceId})
	if err != nil {
		t.Fatalf("RecordView(%s) failed: %v", experienceId, err)
	}
	return result
}

func TestRecordView_DailyLimit(t *testing.T) {
	service, _, _ := setupTestService(t)

	first := view(t, service, "A")
	if !first.CanView || first.IsLimitReached || first.RemainingViews != 1 {
		t.Errorf("Unexpected first view: %+v", first)
	}
	second := view(t, service, "B")
	if !second.CanView || second.RemainingViews != 0 {
		t.Errorf("Unexpected second view: %+v", second)
	}
	third := view(t, service, "C")
	if third.CanView || !third.IsLimitReached || third.RemainingViews != 0 {
		t.Errorf("Expected third distinct item to be rejected, got %+v", third)
	}
	again := view(t, service, "A")
	if !again.CanView {
		t.Errorf("Expected re-view to be allowed, got %+v", again)
	}
	if again.RemainingViews != second.RemainingViews {
		t.Errorf("Expected re-view to leave remainingViews at %v, got %v", second.RemainingViews, again.RemainingViews)
	}
	if again.IsPremium {
		t.Error("Expected free user")
	}
}

func TestRecordView_ReviewBeforeLimitKeepsRemaining(t *testing.T) {
	service, _, _ := setupTestService(t)

	first := view(t, service, "A")
	again := view(t, service, "A")
	if !again.CanView || again.RemainingViews != first.RemainingViews {
		t.Errorf("Expected re-view to keep remainingViews %v, got %+v", first.RemainingViews, again)
	}
}

func TestRecordView_NextDay(t *testing.T) {
	service, _, clock := setupTestService(t)

	view(t, service, "A")
	view(t, service, "B")
	clock.now = testNow.Add(24 * time.Hour)

	result := view(t, service, "C")
	if !result.CanView || result.RemainingViews != 1 {
		t.Errorf("Expected quota reset on a new UTC day, got %+v", result)
	}
}

func TestRecordView_Premium(t *testing.T) {
	service, st, _ := setupTestService(t)
	fundCoins(t, st, "user-1", 100)
	if _, err := service.SpendForPremium(context.Background(), "user-1", ActionSpend, 100); err != nil {
		t.Fatalf("SpendForPremium failed: %v", err)
	}

	for _, id := range []string{"A", "B", "C", "D"} {
		result := view(t, service, id)
		if !result.CanView || result.IsLimitReached || !result.IsPremium {
			t.Errorf("Expected premium view of %s, got %+v", id, result)
		}
		if result.RemainingViews != models.RemainingUnlimited {
			t.Errorf("Expected unlimited remaining views, got %v", result.RemainingViews)
		}
	}

	count, err := st.CountViews(context.Background(), "user-1", testNow.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("CountViews failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected premium views recorded, got %d", count)
	}
}

func TestRecordView_Validation(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.RecordViewRequest
	}{
		{"missing experience", models.RecordViewRequest{}},
		{"unknown type", models.RecordViewRequest{ExperienceId: "A", ExperienceType: "video"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.RecordView(ctx, "user-1", tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	if _, err := service.RecordView(ctx, "user-1", models.RecordViewRequest{ExperienceId: "P", ExperienceType: models.ExperienceTypeGeneralPost}); err != nil {
		t.Errorf("Expected general_post to be accepted, got %v", err)
	}
}

func TestGetViewStatus(t *testing.T) {
	service, _, _ := setupTestService(t)
	ctx := context.Background()

	status, err := service.GetViewStatus(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetViewStatus failed: %v", err)
	}
	if status.ViewedToday != 0 || status.RemainingViews != 2 || status.IsLimitReached || status.DailyLimit != 2 {
		t.Errorf("Unexpected initial status: %+v", status)
	}

	view(t, service, "A")
	view(t, service, "B")

	status, err = service.GetViewStatus(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetViewStatus failed: %v", err)
	}
	if status.ViewedToday != 2 || status.RemainingViews != 0 || !status.IsLimitReached {
		t.Errorf("Unexpected status after two views: %+v", status)
	}
}
