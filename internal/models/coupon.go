package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// VehicleTypeAll is the wildcard entry for coupons that apply to every
// vehicle type.
const VehicleTypeAll = "all"

type Coupon struct {
	gorm.Model
	Code            string       `json:"code" gorm:"unique;not null"`
	Description     string       `json:"description"`
	DiscountType    DiscountType `json:"discountType" gorm:"not null"`
	DiscountValue   float64      `json:"discountValue" gorm:"not null"`
	MinRentalAmount float64      `json:"minRentalAmount" gorm:"default:0"`
	MaxDiscount     float64      `json:"maxDiscount" gorm:"default:0"` // percentage coupons only, 0 means uncapped
	ValidFrom       time.Time    `json:"validFrom" gorm:"not null"`
	ValidUntil      time.Time    `json:"validUntil" gorm:"not null"`
	UsageLimit      int          `json:"usageLimit" gorm:"default:0"` // 0 means unlimited
	UserLimit       int          `json:"userLimit" gorm:"default:1"`
	UsedCount       int          `json:"usedCount" gorm:"default:0"`
	VehicleTypes    string       `json:"vehicleTypes" gorm:"default:'all'"` // comma separated, 'all' is a wildcard
	IsActive        bool         `json:"isActive" gorm:"default:true"`
	Redemptions     []CouponRedemption `json:"redemptions,omitempty"`
}

// CouponRedemption is one entry in a coupon's append-only redemption list.
type CouponRedemption struct {
	gorm.Model
	CouponID  uint      `json:"couponId" gorm:"index;not null"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	BookingID uint      `json:"bookingId"`
	UsedAt    time.Time `json:"usedAt" gorm:"not null"`
}

// CouponQuote is the successful result of evaluating a coupon against a
// candidate rental.
type CouponQuote struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
	FinalAmount    float64 `json:"finalAmount"`
}

// NormalizeCouponCode trims and uppercases a user supplied coupon code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrentlyValid reports whether the coupon can be redeemed at the given
// time: it must be active, inside its validity window, and under its global
// usage limit.
func (c *Coupon) IsCurrentlyValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// ComputeDiscount returns the discount for the given rental amount.
// Amounts below the coupon's minimum earn no discount. Percentage
// discounts are capped at MaxDiscount when one is set, and the final
// discount never exceeds the rental amount itself.
func (c *Coupon) ComputeDiscount(rentalAmount float64) float64 {
	if rentalAmount < c.MinRentalAmount {
		return 0
	}

	var discount float64
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = rentalAmount * c.DiscountValue / 100
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = c.DiscountValue
	}

	if discount > rentalAmount {
		discount = rentalAmount
	}
	return discount
}

// AppliesTo reports whether the coupon covers the given vehicle type.
func (c *Coupon) AppliesTo(vehicleType VehicleType) bool {
	for _, t := range strings.Split(c.VehicleTypes, ",") {
		t = strings.TrimSpace(t)
		if t == VehicleTypeAll || t == string(vehicleType) {
			return true
		}
	}
	return false
}

// CanUserRedeem reports whether the user is still under the coupon's
// per-user limit. It counts the loaded redemption records, so the caller
// must preload Redemptions first.
func (c *Coupon) CanUserRedeem(userID uint) bool {
	used := 0
	for _, r := range c.Redemptions {
		if r.UserID == userID {
			used++
		}
	}
	limit := c.UserLimit
	if limit <= 0 {
		limit = 1
	}
	return used < limit
}

// Evaluate runs the full validation pipeline against a candidate rental and
// returns either a quote or the first failure reason. The reasons are shown
// to the end user verbatim, so each check carries its own message. Checks
// run in a fixed order and stop at the first failure.
func (c *Coupon) Evaluate(userID uint, rentalAmount float64, vehicleType VehicleType, now time.Time) (*CouponQuote, string) {
	if !c.IsActive {
		return nil, "This coupon is no longer active"
	}
	if now.Before(c.ValidFrom) {
		return nil, "This coupon is not valid yet"
	}
	if now.After(c.ValidUntil) {
		return nil, "This coupon has expired"
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return nil, "This coupon has reached its usage limit"
	}
	if rentalAmount < c.MinRentalAmount {
		return nil, fmt.Sprintf("A minimum rental amount of KES %.2f is required to use this coupon", c.MinRentalAmount)
	}
	if !c.AppliesTo(vehicleType) {
		return nil, "This coupon does not apply to the selected vehicle type"
	}
	if !c.CanUserRedeem(userID) {
		return nil, "You have already used this coupon the maximum number of times"
	}

	discount := c.ComputeDiscount(rentalAmount)
	return &CouponQuote{
		Code:           c.Code,
		DiscountAmount: discount,
		FinalAmount:    rentalAmount - discount,
	}, ""
}
