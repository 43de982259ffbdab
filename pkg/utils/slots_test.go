package utils

import (
	"testing"
	"time"
)

func slotAt(t *testing.T, from, to string) TimeSlot {
	t.Helper()
	f, err := time.Parse(time.RFC3339, from)
	if err != nil {
		t.Fatalf("bad from %q: %v", from, err)
	}
	u, err := time.Parse(time.RFC3339, to)
	if err != nil {
		t.Fatalf("bad to %q: %v", to, err)
	}
	return TimeSlot{From: f, To: u}
}

func TestIsValidSlot(t *testing.T) {
	valid := slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z")
	if !IsValidSlot(valid) {
		t.Error("expected valid slot")
	}

	inverted := slotAt(t, "2026-10-01T14:00:00Z", "2026-10-01T10:00:00Z")
	if IsValidSlot(inverted) {
		t.Error("inverted slot should be invalid")
	}

	point := slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T10:00:00Z")
	if IsValidSlot(point) {
		t.Error("zero-length slot should be invalid")
	}
}

func TestSlotsOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    TimeSlot
		b    TimeSlot
		want bool
	}{
		{
			name: "partial overlap at end",
			a:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			b:    slotAt(t, "2026-10-01T12:00:00Z", "2026-10-01T16:00:00Z"),
			want: true,
		},
		{
			name: "partial overlap at start",
			a:    slotAt(t, "2026-10-01T12:00:00Z", "2026-10-01T16:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: true,
		},
		{
			name: "candidate inside existing",
			a:    slotAt(t, "2026-10-01T11:00:00Z", "2026-10-01T12:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: true,
		},
		{
			name: "existing inside candidate",
			a:    slotAt(t, "2026-10-01T09:00:00Z", "2026-10-01T15:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: true,
		},
		{
			name: "identical intervals",
			a:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: true,
		},
		{
			name: "back to back, candidate after",
			a:    slotAt(t, "2026-10-01T14:00:00Z", "2026-10-01T18:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: false,
		},
		{
			name: "back to back, candidate before",
			a:    slotAt(t, "2026-10-01T06:00:00Z", "2026-10-01T10:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: false,
		},
		{
			name: "fully disjoint",
			a:    slotAt(t, "2026-10-02T10:00:00Z", "2026-10-02T14:00:00Z"),
			b:    slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SlotsOverlap(tt.a, tt.b); got != tt.want {
				t.Errorf("SlotsOverlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric
			if got := SlotsOverlap(tt.b, tt.a); got != tt.want {
				t.Errorf("SlotsOverlap(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestHasOverlap(t *testing.T) {
	existing := []TimeSlot{
		slotAt(t, "2026-10-01T08:00:00Z", "2026-10-01T10:00:00Z"),
		slotAt(t, "2026-10-01T14:00:00Z", "2026-10-01T18:00:00Z"),
	}

	// A slot fitting exactly between two reservations is allowed
	between := slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:00:00Z")
	if HasOverlap(between, existing) {
		t.Error("slot touching both neighbours should not conflict")
	}

	// One minute into the second reservation conflicts
	late := slotAt(t, "2026-10-01T10:00:00Z", "2026-10-01T14:01:00Z")
	if !HasOverlap(late, existing) {
		t.Error("slot running into a reservation should conflict")
	}

	if HasOverlap(between, nil) {
		t.Error("no reservations should never conflict")
	}
}
