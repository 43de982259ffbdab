package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type Booking struct {
	gorm.Model
	VehicleID      uint          `json:"vehicleId" gorm:"index;not null"`
	Vehicle        Vehicle       `json:"vehicle"`
	UserID         uint          `json:"userId" gorm:"index;not null"`
	User           User          `json:"user"`
	StartTime      time.Time     `json:"startTime" gorm:"not null"`
	EndTime        time.Time     `json:"endTime" gorm:"not null"`
	TotalHours     float64       `json:"totalHours" gorm:"not null"`
	TotalAmount    float64       `json:"totalAmount" gorm:"not null"`
	DiscountAmount float64       `json:"discountAmount" gorm:"default:0"`
	CouponCode     string        `json:"couponCode"`
	Status         BookingStatus `json:"status" gorm:"not null;default:'pending'"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" gorm:"not null;default:'unpaid'"`
	TransactionRef string        `json:"transactionRef"` // unique when non-empty, see migrations
}

// IsActive reports whether the booking still occupies its time slot.
// Cancelled bookings do not count toward slot conflicts.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// CanTransitionTo validates the booking status machine:
// pending -> confirmed -> completed, with cancellation allowed from
// pending or confirmed. Completed and cancelled are terminal.
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	switch b.Status {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	default:
		return false
	}
}

// ActiveBookingStatuses lists the statuses whose intervals block new bookings.
func ActiveBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusPending, BookingStatusConfirmed}
}
