package utils

import (
	"math"
	"time"
)

// RentalChargeResult contains the calculated rental charge and breakdown
type RentalChargeResult struct {
	TotalAmount   float64         `json:"totalAmount"`
	Hours         float64         `json:"hours"`
	RatePerHour   float64         `json:"ratePerHour"`
	TierDiscount  float64         `json:"tierDiscount"`
	TierName      string          `json:"tierName"`
	MinimumCharge float64         `json:"minimumCharge"`
	Breakdown     RentalBreakdown `json:"breakdown"`
}

// RentalBreakdown provides a detailed charge breakdown
type RentalBreakdown struct {
	BaseCharge   float64 `json:"baseCharge"`
	TierDiscount float64 `json:"tierDiscount"`
	Total        float64 `json:"total"`
}

const (
	// Long-rental tier thresholds in hours
	DailyTierHours  = 24.0
	WeeklyTierHours = 168.0

	// Discount rates for long rentals
	DailyTierDiscountRate  = 0.10
	WeeklyTierDiscountRate = 0.20

	// Rentals shorter than one hour are billed as one hour
	MinimumBillableHours = 1.0
)

// RentalHours returns the billable hours between two timestamps.
// Sub-hour rentals are rounded up to the minimum billable duration.
func RentalHours(from, to time.Time) float64 {
	hours := to.Sub(from).Hours()
	if hours < MinimumBillableHours {
		hours = MinimumBillableHours
	}
	return math.Round(hours*100) / 100
}

// CalculateRentalCharge calculates the total charge for renting a vehicle
// between two timestamps at the given hourly rate. Rentals of a day or
// longer earn a tier discount.
func CalculateRentalCharge(ratePerHour float64, from, to time.Time) RentalChargeResult {
	hours := RentalHours(from, to)
	baseCharge := hours * ratePerHour

	var discountRate float64
	tierName := "standard"
	if hours >= WeeklyTierHours {
		discountRate = WeeklyTierDiscountRate
		tierName = "weekly"
	} else if hours >= DailyTierHours {
		discountRate = DailyTierDiscountRate
		tierName = "daily"
	}

	tierDiscount := baseCharge * discountRate
	total := baseCharge - tierDiscount

	// Round to 2 decimal places
	baseCharge = math.Round(baseCharge*100) / 100
	tierDiscount = math.Round(tierDiscount*100) / 100
	total = math.Round(total*100) / 100

	return RentalChargeResult{
		TotalAmount:   total,
		Hours:         hours,
		RatePerHour:   ratePerHour,
		TierDiscount:  discountRate,
		TierName:      tierName,
		MinimumCharge: math.Round(MinimumBillableHours*ratePerHour*100) / 100,
		Breakdown: RentalBreakdown{
			BaseCharge:   baseCharge,
			TierDiscount: tierDiscount,
			Total:        total,
		},
	}
}
