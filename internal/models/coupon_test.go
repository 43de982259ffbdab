package models

import (
	"testing"
	"time"
)

func testCoupon() *Coupon {
	return &Coupon{
		Code:            "SAVE10",
		DiscountType:    DiscountTypePercentage,
		DiscountValue:   10,
		MinRentalAmount: 1000,
		MaxDiscount:     500,
		ValidFrom:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:      time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
		UsageLimit:      100,
		UserLimit:       1,
		VehicleTypes:    "all",
		IsActive:        true,
	}
}

func TestNormalizeCouponCode(t *testing.T) {
	if got := NormalizeCouponCode("  save10 "); got != "SAVE10" {
		t.Errorf("NormalizeCouponCode = %q, want SAVE10", got)
	}
}

func TestIsCurrentlyValid(t *testing.T) {
	inWindow := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("valid inside window", func(t *testing.T) {
		c := testCoupon()
		if !c.IsCurrentlyValid(inWindow) {
			t.Error("expected valid")
		}
	})

	t.Run("inactive", func(t *testing.T) {
		c := testCoupon()
		c.IsActive = false
		if c.IsCurrentlyValid(inWindow) {
			t.Error("inactive coupon should be invalid")
		}
	})

	t.Run("before window", func(t *testing.T) {
		c := testCoupon()
		if c.IsCurrentlyValid(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)) {
			t.Error("coupon should not be valid before its window")
		}
	})

	t.Run("after window", func(t *testing.T) {
		c := testCoupon()
		if c.IsCurrentlyValid(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
			t.Error("coupon should not be valid after its window")
		}
	})

	t.Run("usage limit exhausted", func(t *testing.T) {
		c := testCoupon()
		c.UsedCount = 100
		if c.IsCurrentlyValid(inWindow) {
			t.Error("exhausted coupon should be invalid")
		}
	})

	t.Run("zero usage limit means unlimited", func(t *testing.T) {
		c := testCoupon()
		c.UsageLimit = 0
		c.UsedCount = 1000000
		if !c.IsCurrentlyValid(inWindow) {
			t.Error("coupon with no usage limit should stay valid")
		}
	})
}

func TestComputeDiscount(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		c := testCoupon()
		if got := c.ComputeDiscount(2000); got != 200 {
			t.Errorf("discount = %v, want 200", got)
		}
	})

	t.Run("percentage capped at max discount", func(t *testing.T) {
		c := testCoupon()
		// 10% of 10000 is 1000, capped at 500
		if got := c.ComputeDiscount(10000); got != 500 {
			t.Errorf("discount = %v, want 500", got)
		}
	})

	t.Run("uncapped percentage", func(t *testing.T) {
		c := testCoupon()
		c.MaxDiscount = 0
		if got := c.ComputeDiscount(10000); got != 1000 {
			t.Errorf("discount = %v, want 1000", got)
		}
	})

	t.Run("below minimum earns nothing", func(t *testing.T) {
		c := testCoupon()
		if got := c.ComputeDiscount(999); got != 0 {
			t.Errorf("discount = %v, want 0", got)
		}
	})

	t.Run("fixed amount", func(t *testing.T) {
		c := testCoupon()
		c.DiscountType = DiscountTypeFixed
		c.DiscountValue = 300
		if got := c.ComputeDiscount(2000); got != 300 {
			t.Errorf("discount = %v, want 300", got)
		}
	})

	t.Run("fixed amount clamped to rental amount", func(t *testing.T) {
		c := testCoupon()
		c.DiscountType = DiscountTypeFixed
		c.DiscountValue = 300
		c.MinRentalAmount = 0
		if got := c.ComputeDiscount(200); got != 200 {
			t.Errorf("discount = %v, want 200", got)
		}
	})
}

func TestAppliesTo(t *testing.T) {
	c := testCoupon()

	if !c.AppliesTo(VehicleTypeSUV) {
		t.Error("wildcard coupon should apply to any vehicle type")
	}

	c.VehicleTypes = "sedan, suv"
	if !c.AppliesTo(VehicleTypeSedan) {
		t.Error("expected coupon to apply to sedan")
	}
	if !c.AppliesTo(VehicleTypeSUV) {
		t.Error("expected coupon to apply to suv despite leading space")
	}
	if c.AppliesTo(VehicleTypeLuxury) {
		t.Error("coupon should not apply to luxury")
	}
}

func TestCanUserRedeem(t *testing.T) {
	c := testCoupon()

	if !c.CanUserRedeem(42) {
		t.Error("user with no redemptions should be allowed")
	}

	c.Redemptions = []CouponRedemption{{CouponID: 1, UserID: 42}}
	if c.CanUserRedeem(42) {
		t.Error("user at the per-user limit should be blocked")
	}
	if !c.CanUserRedeem(43) {
		t.Error("other users should not be affected")
	}

	c.UserLimit = 3
	if !c.CanUserRedeem(42) {
		t.Error("raising the limit should allow redemption again")
	}

	// Zero or negative limits fall back to one use per user
	c.UserLimit = 0
	if c.CanUserRedeem(42) {
		t.Error("zero user limit should behave as one use per user")
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("successful quote", func(t *testing.T) {
		c := testCoupon()
		quote, reason := c.Evaluate(42, 2000, VehicleTypeSedan, now)
		if reason != "" {
			t.Fatalf("unexpected reason %q", reason)
		}
		if quote.DiscountAmount != 200 {
			t.Errorf("DiscountAmount = %v, want 200", quote.DiscountAmount)
		}
		if quote.FinalAmount != 1800 {
			t.Errorf("FinalAmount = %v, want 1800", quote.FinalAmount)
		}
		if quote.Code != "SAVE10" {
			t.Errorf("Code = %q, want SAVE10", quote.Code)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		c := testCoupon()
		c.IsActive = false
		_, reason := c.Evaluate(42, 2000, VehicleTypeSedan, now)
		if reason != "This coupon is no longer active" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("not started", func(t *testing.T) {
		c := testCoupon()
		c.ValidFrom = now.Add(24 * time.Hour)
		_, reason := c.Evaluate(42, 2000, VehicleTypeSedan, now)
		if reason != "This coupon is not valid yet" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("expired", func(t *testing.T) {
		c := testCoupon()
		c.ValidUntil = now.Add(-24 * time.Hour)
		_, reason := c.Evaluate(42, 2000, VehicleTypeSedan, now)
		if reason != "This coupon has expired" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("usage limit reached", func(t *testing.T) {
		c := testCoupon()
		c.UsedCount = c.UsageLimit
		_, reason := c.Evaluate(42, 2000, VehicleTypeSedan, now)
		if reason != "This coupon has reached its usage limit" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("below minimum rental amount", func(t *testing.T) {
		c := testCoupon()
		_, reason := c.Evaluate(42, 500, VehicleTypeSedan, now)
		want := "A minimum rental amount of KES 1000.00 is required to use this coupon"
		if reason != want {
			t.Errorf("reason = %q, want %q", reason, want)
		}
	})

	t.Run("wrong vehicle type", func(t *testing.T) {
		c := testCoupon()
		c.VehicleTypes = "sedan"
		_, reason := c.Evaluate(42, 2000, VehicleTypeSUV, now)
		if reason != "This coupon does not apply to the selected vehicle type" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("per user limit reached", func(t *testing.T) {
		c := testCoupon()
		c.Redemptions = []CouponRedemption{{UserID: 42}}
		_, reason := c.Evaluate(42, 2000, VehicleTypeSedan, now)
		if reason != "You have already used this coupon the maximum number of times" {
			t.Errorf("reason = %q", reason)
		}
	})

	t.Run("expired wins over amount check", func(t *testing.T) {
		// Checks run in a fixed order; the window failure is reported
		// even when the amount would also fail
		c := testCoupon()
		c.ValidUntil = now.Add(-24 * time.Hour)
		_, reason := c.Evaluate(42, 1, VehicleTypeSedan, now)
		if reason != "This coupon has expired" {
			t.Errorf("reason = %q", reason)
		}
	})
}
