package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.BookedSlot{},
		&models.Booking{},
		&models.Coupon{},
		&models.CouponRedemption{},
		&models.Rating{},
		&models.NotificationPreference{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// newTestRouter wires the booking routes behind a stub auth middleware that
// authenticates every request as customer 1.
func newTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	hub := services.NewHub()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", uint(1))
		c.Set("userType", string(models.UserTypeCustomer))
	})
	r.POST("/bookings", CreateBooking(db, hub))
	r.POST("/bookings/:id/rate", RateBooking(db))
	r.GET("/admin/bookings", GetAllBookings(db))
	return r
}

func seedCustomer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username:     "wanjiku",
		Email:        "wanjiku@example.com",
		PasswordHash: "x",
		UserType:     models.UserTypeCustomer,
		IsVerified:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedVehicle(t *testing.T, db *gorm.DB) *models.Vehicle {
	t.Helper()
	vehicle := &models.Vehicle{
		Name:              "Toyota Axio",
		Make:              "Toyota",
		ModelName:         "Axio",
		VehicleType:       models.VehicleTypeSedan,
		RegistrationPlate: "KDA 123A",
		Seats:             5,
		RentPerHour:       500,
		Location:          "Nairobi",
		IsActive:          true,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("failed to seed vehicle: %v", err)
	}
	return vehicle
}

func postBooking(t *testing.T, r *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	jsonData, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal booking request: %v", err)
	}
	req := httptest.NewRequest("POST", "/bookings", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateBookingOverlapConflict(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	seedCustomer(t, db)
	vehicle := seedVehicle(t, db)

	first := postBooking(t, r, map[string]interface{}{
		"vehicleId":      vehicle.ID,
		"startTime":      "2027-05-01T10:00:00Z",
		"endTime":        "2027-05-01T18:00:00Z",
		"transactionRef": "MPESA-QA000001",
	})
	if first.Code != 201 {
		t.Fatalf("first booking status = %d, body %s", first.Code, first.Body.String())
	}

	// Overlapping interval on the same vehicle must lose
	second := postBooking(t, r, map[string]interface{}{
		"vehicleId":      vehicle.ID,
		"startTime":      "2027-05-01T12:00:00Z",
		"endTime":        "2027-05-01T20:00:00Z",
		"transactionRef": "MPESA-QA000002",
	})
	if second.Code != 409 {
		t.Fatalf("overlapping booking status = %d, want 409, body %s", second.Code, second.Body.String())
	}

	var bookings int64
	db.Model(&models.Booking{}).Count(&bookings)
	if bookings != 1 {
		t.Errorf("bookings in database = %d, want exactly 1", bookings)
	}
	var slots int64
	db.Model(&models.BookedSlot{}).Count(&slots)
	if slots != 1 {
		t.Errorf("booked slots in database = %d, want exactly 1", slots)
	}

	// Touching endpoints do not conflict: a rental starting exactly when
	// the first one ends goes through
	third := postBooking(t, r, map[string]interface{}{
		"vehicleId":      vehicle.ID,
		"startTime":      "2027-05-01T18:00:00Z",
		"endTime":        "2027-05-01T22:00:00Z",
		"transactionRef": "MPESA-QA000003",
	})
	if third.Code != 201 {
		t.Fatalf("back-to-back booking status = %d, want 201, body %s", third.Code, third.Body.String())
	}
}

func TestCreateBookingRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	seedCustomer(t, db)
	vehicle := seedVehicle(t, db)

	coupon := &models.Coupon{
		Code:          "SAVE10",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		ValidFrom:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		UserLimit:     1,
		VehicleTypes:  "all",
		IsActive:      true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}

	// Break the final step of the transaction: with the slot table gone,
	// the reserved-interval append fails after the booking insert and the
	// coupon redemption already happened
	if err := db.Migrator().DropTable(&models.BookedSlot{}); err != nil {
		t.Fatalf("failed to drop slot table: %v", err)
	}

	resp := postBooking(t, r, map[string]interface{}{
		"vehicleId":      vehicle.ID,
		"startTime":      "2027-05-01T10:00:00Z",
		"endTime":        "2027-05-01T18:00:00Z",
		"couponCode":     "SAVE10",
		"transactionRef": "MPESA-QA000010",
	})
	if resp.Code != 500 {
		t.Fatalf("booking status = %d, want 500, body %s", resp.Code, resp.Body.String())
	}

	// Full rollback: no booking, no redemption, no consumed coupon use
	var bookings int64
	db.Model(&models.Booking{}).Count(&bookings)
	if bookings != 0 {
		t.Errorf("bookings in database = %d, want 0 after rollback", bookings)
	}
	var redemptions int64
	db.Model(&models.CouponRedemption{}).Count(&redemptions)
	if redemptions != 0 {
		t.Errorf("redemptions in database = %d, want 0 after rollback", redemptions)
	}
	var reloaded models.Coupon
	if err := db.Where("code = ?", "SAVE10").First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload coupon: %v", err)
	}
	if reloaded.UsedCount != 0 {
		t.Errorf("coupon used count = %d, want 0 after rollback", reloaded.UsedCount)
	}
}

func TestCreateBookingIdempotentRetry(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	seedCustomer(t, db)
	vehicle := seedVehicle(t, db)

	body := map[string]interface{}{
		"vehicleId":      vehicle.ID,
		"startTime":      "2027-05-01T10:00:00Z",
		"endTime":        "2027-05-01T18:00:00Z",
		"transactionRef": "MPESA-QA000020",
	}

	first := postBooking(t, r, body)
	if first.Code != 201 {
		t.Fatalf("first booking status = %d, body %s", first.Code, first.Body.String())
	}
	var created models.Booking
	if err := json.Unmarshal(first.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode booking: %v", err)
	}

	// A retried payment callback with the same reference returns the
	// booking it already created instead of reserving the slot twice
	retry := postBooking(t, r, body)
	if retry.Code != 200 {
		t.Fatalf("retry status = %d, want 200, body %s", retry.Code, retry.Body.String())
	}
	var returned models.Booking
	if err := json.Unmarshal(retry.Body.Bytes(), &returned); err != nil {
		t.Fatalf("failed to decode retried booking: %v", err)
	}
	if returned.ID != created.ID {
		t.Errorf("retry returned booking %d, want %d", returned.ID, created.ID)
	}

	var bookings int64
	db.Model(&models.Booking{}).Count(&bookings)
	if bookings != 1 {
		t.Errorf("bookings in database = %d, want exactly 1", bookings)
	}
}

func TestGetAllBookingsPagination(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)
	seedCustomer(t, db)
	vehicle := seedVehicle(t, db)

	base := time.Date(2027, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		booking := models.Booking{
			VehicleID:      vehicle.ID,
			UserID:         1,
			StartTime:      base.AddDate(0, 0, i),
			EndTime:        base.AddDate(0, 0, i).Add(4 * time.Hour),
			TotalHours:     4,
			TotalAmount:    2000,
			Status:         models.BookingStatusConfirmed,
			PaymentStatus:  models.PaymentStatusPaid,
			TransactionRef: fmt.Sprintf("MPESA-QA%06d", 100+i),
		}
		if err := db.Create(&booking).Error; err != nil {
			t.Fatalf("failed to seed booking %d: %v", i, err)
		}
	}

	req := httptest.NewRequest("GET", "/admin/bookings?page=2&limit=10", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != 200 {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Bookings   []models.Booking `json:"bookings"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int64 `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// The total reflects every booking regardless of the requested page
	if payload.Pagination.Total != 15 {
		t.Errorf("total = %d, want 15", payload.Pagination.Total)
	}
	if payload.Pagination.TotalPages != 2 {
		t.Errorf("totalPages = %d, want 2", payload.Pagination.TotalPages)
	}
	if len(payload.Bookings) != 5 {
		t.Errorf("page 2 returned %d bookings, want 5", len(payload.Bookings))
	}
}
