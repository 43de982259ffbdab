package models

import "testing"

func TestBookingIsActive(t *testing.T) {
	tests := []struct {
		status BookingStatus
		want   bool
	}{
		{BookingStatusPending, true},
		{BookingStatusConfirmed, true},
		{BookingStatusCompleted, false},
		{BookingStatusCancelled, false},
	}

	for _, tt := range tests {
		b := &Booking{Status: tt.status}
		if got := b.IsActive(); got != tt.want {
			t.Errorf("IsActive(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		b := &Booking{Status: tt.from}
		if got := b.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestActiveBookingStatuses(t *testing.T) {
	statuses := ActiveBookingStatuses()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 active statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		b := &Booking{Status: s}
		if !b.IsActive() {
			t.Errorf("status %s listed as active but IsActive is false", s)
		}
	}
}
