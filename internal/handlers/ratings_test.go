package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garihub/gari-backend/internal/models"
	"gorm.io/gorm"
)

func seedCompletedBooking(t *testing.T, db *gorm.DB, vehicleID uint) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		VehicleID:      vehicleID,
		UserID:         1,
		StartTime:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		TotalHours:     8,
		TotalAmount:    4000,
		Status:         models.BookingStatusCompleted,
		PaymentStatus:  models.PaymentStatusPaid,
		TransactionRef: "MPESA-QA000030",
	}
	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
	return booking
}

func postRating(t *testing.T, r http.Handler, bookingID uint, score int) *httptest.ResponseRecorder {
	t.Helper()
	jsonData, err := json.Marshal(map[string]interface{}{
		"score":  score,
		"review": "Clean car, smooth pickup",
	})
	if err != nil {
		t.Fatalf("failed to marshal rating request: %v", err)
	}
	url := fmt.Sprintf("/bookings/%d/rate", bookingID)
	req := httptest.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateBookingDuplicate(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	seedCustomer(t, db)
	vehicle := seedVehicle(t, db)
	booking := seedCompletedBooking(t, db, vehicle.ID)

	first := postRating(t, r, booking.ID, 5)
	if first.Code != 201 {
		t.Fatalf("first rating status = %d, body %s", first.Code, first.Body.String())
	}

	second := postRating(t, r, booking.ID, 4)
	if second.Code != 409 {
		t.Errorf("repeat rating status = %d, want 409, body %s", second.Code, second.Body.String())
	}

	var ratings int64
	db.Model(&models.Rating{}).Count(&ratings)
	if ratings != 1 {
		t.Errorf("ratings in database = %d, want exactly 1", ratings)
	}
}

func TestRateBookingDuplicateKeyConflict(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	seedCustomer(t, db)
	vehicle := seedVehicle(t, db)
	booking := seedCompletedBooking(t, db, vehicle.ID)

	if resp := postRating(t, r, booking.ID, 5); resp.Code != 201 {
		t.Fatalf("first rating status = %d, body %s", resp.Code, resp.Body.String())
	}

	// A soft-deleted rating is invisible to the pre-insert lookup but
	// still occupies the unique booking_id index, so the insert below
	// fails the same way a concurrent submission does
	if err := db.Where("booking_id = ?", booking.ID).Delete(&models.Rating{}).Error; err != nil {
		t.Fatalf("failed to soft delete rating: %v", err)
	}

	resp := postRating(t, r, booking.ID, 3)
	if resp.Code != 409 {
		t.Errorf("conflicting rating status = %d, want 409, body %s", resp.Code, resp.Body.String())
	}
}
