package utils

import (
	"testing"
	"time"
)

func TestRentalHours(t *testing.T) {
	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		to   time.Time
		want float64
	}{
		{"four hours", base.Add(4 * time.Hour), 4},
		{"half hour billed as one", base.Add(30 * time.Minute), 1},
		{"ninety minutes", base.Add(90 * time.Minute), 1.5},
		{"full day", base.Add(24 * time.Hour), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentalHours(base, tt.to); got != tt.want {
				t.Errorf("RentalHours = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateRentalCharge(t *testing.T) {
	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	t.Run("standard tier", func(t *testing.T) {
		result := CalculateRentalCharge(500, base, base.Add(4*time.Hour))
		if result.TotalAmount != 2000 {
			t.Errorf("TotalAmount = %v, want 2000", result.TotalAmount)
		}
		if result.TierName != "standard" {
			t.Errorf("TierName = %q, want standard", result.TierName)
		}
		if result.Breakdown.TierDiscount != 0 {
			t.Errorf("TierDiscount = %v, want 0", result.Breakdown.TierDiscount)
		}
	})

	t.Run("daily tier discount", func(t *testing.T) {
		result := CalculateRentalCharge(500, base, base.Add(24*time.Hour))
		// 24h * 500 = 12000, minus 10%
		if result.TotalAmount != 10800 {
			t.Errorf("TotalAmount = %v, want 10800", result.TotalAmount)
		}
		if result.TierName != "daily" {
			t.Errorf("TierName = %q, want daily", result.TierName)
		}
	})

	t.Run("weekly tier discount", func(t *testing.T) {
		result := CalculateRentalCharge(500, base, base.Add(7*24*time.Hour))
		// 168h * 500 = 84000, minus 20%
		if result.TotalAmount != 67200 {
			t.Errorf("TotalAmount = %v, want 67200", result.TotalAmount)
		}
		if result.TierName != "weekly" {
			t.Errorf("TierName = %q, want weekly", result.TierName)
		}
	})

	t.Run("sub hour billed at minimum", func(t *testing.T) {
		result := CalculateRentalCharge(500, base, base.Add(20*time.Minute))
		if result.TotalAmount != 500 {
			t.Errorf("TotalAmount = %v, want 500", result.TotalAmount)
		}
		if result.Hours != 1 {
			t.Errorf("Hours = %v, want 1", result.Hours)
		}
	})
}
