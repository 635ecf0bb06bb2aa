package common

import (
	"testing"
	"time"
)

func TestFormatPremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(7*24*time.Hour + 3*time.Hour)
	soon := now.Add(5 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		until *time.Time
		want  string
	}{
		{"none", nil, "none"},
		{"expired", &past, "expired 2025-06-01T11:00:00Z"},
		{"active", &future, "active until 2025-06-08T15:00:00Z (7d 3h left)"},
		{"hours only", &soon, "active until 2025-06-01T17:00:00Z (5h left)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPremium(tt.until, now); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatSignedAmount(t *testing.T) {
	if got := FormatSignedAmount("spend", 100); got != "-100" {
		t.Errorf("Expected -100, got %s", got)
	}
	if got := FormatSignedAmount("earn", 750); got != "+750" {
		t.Errorf("Expected +750, got %s", got)
	}
}
