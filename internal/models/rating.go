package models

import (
	"gorm.io/gorm"
)

// Rating is a customer's score for a completed booking. At most one rating
// exists per booking (enforced by a unique index in migrations). The
// vehicle's AverageRating and RatingCount are derived from approved ratings
// and recomputed after every rating mutation.
type Rating struct {
	gorm.Model
	BookingID  uint    `json:"bookingId" gorm:"uniqueIndex;not null"`
	Booking    Booking `json:"-"`
	VehicleID  uint    `json:"vehicleId" gorm:"index;not null"`
	UserID     uint    `json:"userId" gorm:"index;not null"`
	User       User    `json:"-"`
	Score      int     `json:"score" gorm:"not null"`
	Review     string  `json:"review"`
	IsApproved bool    `json:"isApproved" gorm:"default:true"`
}

// IsValidScore reports whether a rating score is inside the allowed range.
func IsValidScore(score int) bool {
	return score >= 1 && score <= 5
}
