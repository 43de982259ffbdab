package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/garihub/gari-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateBooking reserves a vehicle for a time slot. The whole flow runs in
// one transaction with a row lock on the vehicle, so two concurrent requests
// for overlapping slots cannot both pass the conflict check: vehicle lookup,
// overlap check, optional coupon redemption, booking insert and slot append
// all commit together or not at all.
//
// Payment is authorized upstream; this endpoint only receives the resulting
// transaction reference. The reference doubles as an idempotency key: a
// retried payment callback returns the booking it already created.
func CreateBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			VehicleID      uint    `json:"vehicleId" binding:"required"`
			StartTime      string  `json:"startTime" binding:"required"`
			EndTime        string  `json:"endTime" binding:"required"`
			CouponCode     string  `json:"couponCode"`
			ExpectedAmount float64 `json:"expectedAmount"`
			TransactionRef string  `json:"transactionRef" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		startTime, err := time.Parse(time.RFC3339, input.StartTime)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid start time, use RFC3339 format"})
			return
		}
		endTime, err := time.Parse(time.RFC3339, input.EndTime)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid end time, use RFC3339 format"})
			return
		}

		slot := utils.TimeSlot{From: startTime, To: endTime}
		if !utils.IsValidSlot(slot) {
			c.JSON(400, gin.H{"error": "End time must be after start time"})
			return
		}
		if startTime.Before(time.Now()) {
			c.JSON(400, gin.H{"error": "Start time must be in the future"})
			return
		}

		// Idempotency: a payment reference creates at most one booking
		var existing models.Booking
		if err := db.Where("transaction_ref = ?", input.TransactionRef).First(&existing).Error; err == nil {
			c.JSON(200, existing)
			return
		}

		tx := db.Begin()
		if tx.Error != nil {
			c.JSON(500, gin.H{"error": "Service temporarily unavailable, please retry"})
			return
		}
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		// Lock the vehicle row for the duration of the transaction so
		// concurrent bookings for the same vehicle serialize here
		var vehicle models.Vehicle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&vehicle, input.VehicleID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(404, gin.H{"error": "Vehicle not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Service temporarily unavailable, please retry"})
			return
		}

		if !vehicle.IsActive {
			tx.Rollback()
			c.JSON(409, gin.H{"error": "Vehicle is not available for rental"})
			return
		}

		// Collect reserved intervals from active bookings only; cancelled
		// bookings do not block the slot
		var activeBookings []models.Booking
		if err := tx.Where("vehicle_id = ? AND status IN ?", vehicle.ID, models.ActiveBookingStatuses()).
			Find(&activeBookings).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to check vehicle availability"})
			return
		}

		reserved := make([]utils.TimeSlot, 0, len(activeBookings))
		for _, b := range activeBookings {
			reserved = append(reserved, utils.TimeSlot{From: b.StartTime, To: b.EndTime})
		}

		if utils.HasOverlap(slot, reserved) {
			tx.Rollback()
			c.JSON(409, gin.H{"error": "Vehicle is already booked for the selected time slot"})
			return
		}

		// Price the rental server-side
		charge := utils.CalculateRentalCharge(vehicle.RentPerHour, startTime, endTime)

		// Optional coupon: validated and redeemed inside the same
		// transaction so the booking and the redemption commit together
		var discount float64
		var couponID uint
		couponCode := models.NormalizeCouponCode(input.CouponCode)
		if couponCode != "" {
			quote, id, reason, err := redeemCoupon(tx, couponCode, userId, charge.TotalAmount, vehicle.VehicleType)
			if err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to apply coupon"})
				return
			}
			if reason != "" {
				tx.Rollback()
				if reason == "Coupon not found" {
					c.JSON(404, gin.H{"error": reason})
					return
				}
				c.JSON(400, gin.H{"error": reason})
				return
			}
			discount = quote.DiscountAmount
			couponID = id
		}

		totalAmount := charge.TotalAmount - discount
		if input.ExpectedAmount > 0 && input.ExpectedAmount != totalAmount {
			tx.Rollback()
			c.JSON(400, gin.H{"error": "Amount mismatch, please refresh the price and retry"})
			return
		}

		booking := models.Booking{
			VehicleID:      vehicle.ID,
			UserID:         userId,
			StartTime:      startTime,
			EndTime:        endTime,
			TotalHours:     charge.Hours,
			TotalAmount:    totalAmount,
			DiscountAmount: discount,
			CouponCode:     couponCode,
			Status:         models.BookingStatusConfirmed,
			PaymentStatus:  models.PaymentStatusPaid,
			TransactionRef: input.TransactionRef,
		}

		if err := tx.Create(&booking).Error; err != nil {
			tx.Rollback()
			// A concurrent retry with the same reference may have won the
			// race past the lookup above; return its booking
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if err := db.Where("transaction_ref = ?", input.TransactionRef).First(&existing).Error; err == nil {
					c.JSON(200, existing)
					return
				}
			}
			c.JSON(500, gin.H{"error": "Failed to create booking"})
			return
		}

		// Record the coupon redemption against the booking it paid for
		if couponID != 0 {
			redemption := models.CouponRedemption{
				CouponID:  couponID,
				UserID:    userId,
				BookingID: booking.ID,
				UsedAt:    time.Now(),
			}
			if err := tx.Create(&redemption).Error; err != nil {
				tx.Rollback()
				c.JSON(500, gin.H{"error": "Failed to record coupon redemption"})
				return
			}
		}

		// Append the reserved interval to the vehicle's slot list
		bookedSlot := models.BookedSlot{
			VehicleID: vehicle.ID,
			BookingID: booking.ID,
			StartTime: startTime,
			EndTime:   endTime,
		}
		if err := tx.Create(&bookedSlot).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to reserve time slot"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Service temporarily unavailable, please retry"})
			return
		}

		// Post-commit side effects are fire-and-forget
		ctx := context.Background()
		services.InvalidateVehicleSlots(ctx, vehicle.ID)
		if couponCode != "" {
			services.InvalidateCoupon(ctx, couponCode)
		}
		services.PublishBookingUpdate(ctx, booking.ID, string(booking.Status), map[string]interface{}{
			"vehicleId": vehicle.ID,
			"userId":    userId,
		})

		hub.SendBookingConfirmed(userId, services.BookingConfirmed{
			BookingID:   booking.ID,
			VehicleID:   vehicle.ID,
			VehicleName: vehicle.Name,
			StartTime:   startTime,
			EndTime:     endTime,
			TotalAmount: totalAmount,
		})

		go notifyBookingConfirmed(db, booking, vehicle)

		c.JSON(201, booking)
	}
}

// redeemCoupon validates a coupon inside the booking transaction and, when
// eligible, consumes one use. The coupon row is locked first and the usage
// counter is incremented with a SQL-level atomic update, so concurrent
// redemptions cannot exceed the global or per-user limits.
func redeemCoupon(tx *gorm.DB, code string, userID uint, rentalAmount float64, vehicleType models.VehicleType) (*models.CouponQuote, uint, string, error) {
	var coupon models.Coupon
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, "Coupon not found", nil
		}
		return nil, 0, "", err
	}

	if err := tx.Where("coupon_id = ?", coupon.ID).
		Find(&coupon.Redemptions).Error; err != nil {
		return nil, 0, "", err
	}

	quote, reason := coupon.Evaluate(userID, rentalAmount, vehicleType, time.Now())
	if reason != "" {
		return nil, 0, reason, nil
	}

	if err := tx.Model(&coupon).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1)).Error; err != nil {
		return nil, 0, "", err
	}

	return quote, coupon.ID, "", nil
}

// GetBooking retrieves detailed booking information
func GetBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")
		userId := c.GetUint("userId")
		userType := c.GetString("userType")

		var booking models.Booking
		if err := db.Preload("Vehicle").
			Preload("User").
			First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.UserID != userId && userType != string(models.UserTypeAdmin) {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		c.JSON(200, gin.H{
			"id":             booking.ID,
			"status":         booking.Status,
			"paymentStatus":  booking.PaymentStatus,
			"startTime":      booking.StartTime,
			"endTime":        booking.EndTime,
			"totalHours":     booking.TotalHours,
			"totalAmount":    booking.TotalAmount,
			"discountAmount": booking.DiscountAmount,
			"couponCode":     booking.CouponCode,
			"customerName":   booking.User.Username,
			"vehicle": gin.H{
				"id":                booking.Vehicle.ID,
				"name":              booking.Vehicle.Name,
				"registrationPlate": booking.Vehicle.RegistrationPlate,
				"vehicleType":       booking.Vehicle.VehicleType,
				"imageUrl":          booking.Vehicle.ImageURL,
			},
		})
	}
}

// GetClientBookings retrieves all bookings for the requesting customer
func GetClientBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bookings []models.Booking
		if err := db.Where("user_id = ?", userId).
			Preload("Vehicle").
			Order("created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, bookings)
	}
}

// GetAllBookings retrieves all bookings with pagination (admin only)
func GetAllBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "10")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 10
		}

		offset := (page - 1) * limit
		status := c.Query("status")

		// Count on a fresh chain; the paged query below carries LIMIT/OFFSET
		countQuery := db.Model(&models.Booking{})
		if status != "" {
			countQuery = countQuery.Where("status = ?", status)
		}
		var total int64
		if err := countQuery.Count(&total).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		query := db.Model(&models.Booking{})
		if status != "" {
			query = query.Where("status = ?", status)
		}

		var bookings []models.Booking
		if err := query.Preload("Vehicle").Preload("User").
			Order("created_at DESC").
			Offset(offset).
			Limit(limit).
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, gin.H{
			"bookings": bookings,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		})
	}
}

// CancelBooking cancels a booking and releases its time slot. Customers can
// cancel their own bookings before the rental starts; admins can cancel any
// active booking.
func CancelBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")
		userId := c.GetUint("userId")
		userType := c.GetString("userType")

		var booking models.Booking
		if err := db.Preload("Vehicle").First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		isAdmin := userType == string(models.UserTypeAdmin)
		if booking.UserID != userId && !isAdmin {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		if !booking.CanTransitionTo(models.BookingStatusCancelled) {
			c.JSON(400, gin.H{"error": "Booking can no longer be cancelled"})
			return
		}

		if !isAdmin && time.Now().After(booking.StartTime) {
			c.JSON(400, gin.H{"error": "Bookings cannot be cancelled after the rental has started"})
			return
		}

		tx := db.Begin()
		if tx.Error != nil {
			c.JSON(500, gin.H{"error": "Service temporarily unavailable, please retry"})
			return
		}
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		booking.Status = models.BookingStatusCancelled
		if err := tx.Save(&booking).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to cancel booking"})
			return
		}

		// Release the reserved interval
		if err := tx.Where("booking_id = ?", booking.ID).
			Delete(&models.BookedSlot{}).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Failed to release time slot"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Service temporarily unavailable, please retry"})
			return
		}

		ctx := context.Background()
		services.InvalidateVehicleSlots(ctx, booking.VehicleID)
		services.PublishBookingUpdate(ctx, booking.ID, string(booking.Status), map[string]interface{}{
			"vehicleId": booking.VehicleID,
			"userId":    booking.UserID,
		})

		cancelledBy := "customer"
		if isAdmin {
			cancelledBy = "admin"
		}
		hub.SendBookingCancelled(booking.UserID, services.BookingCancelled{
			BookingID:   booking.ID,
			VehicleID:   booking.VehicleID,
			VehicleName: booking.Vehicle.Name,
			CancelledBy: cancelledBy,
		})

		go notifyBookingCancelled(db, booking)

		c.JSON(200, gin.H{
			"message": "Booking cancelled successfully",
			"booking": booking,
		})
	}
}

// CompleteBooking marks a rental as completed (admin only), unlocking rating
func CompleteBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")

		var booking models.Booking
		if err := db.Preload("Vehicle").First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if !booking.CanTransitionTo(models.BookingStatusCompleted) {
			c.JSON(400, gin.H{"error": "Only confirmed bookings can be completed"})
			return
		}

		booking.Status = models.BookingStatusCompleted
		if err := db.Save(&booking).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to complete booking"})
			return
		}

		ctx := context.Background()
		services.PublishBookingUpdate(ctx, booking.ID, string(booking.Status), map[string]interface{}{
			"vehicleId": booking.VehicleID,
			"userId":    booking.UserID,
		})

		hub.SendRentalCompleted(booking.UserID, services.RentalCompleted{
			BookingID:   booking.ID,
			VehicleID:   booking.VehicleID,
			VehicleName: booking.Vehicle.Name,
			TotalAmount: booking.TotalAmount,
		})

		go notifyRentalCompleted(db, booking)

		c.JSON(200, gin.H{
			"message": "Booking completed successfully",
			"booking": booking,
		})
	}
}

// notifyBookingConfirmed delivers confirmation through every channel the
// customer has enabled. Failures are logged, never surfaced to the booking.
func notifyBookingConfirmed(db *gorm.DB, booking models.Booking, vehicle models.Vehicle) {
	var user models.User
	if err := db.First(&user, booking.UserID).Error; err != nil {
		log.Printf("Failed to load user %d for booking notification: %v", booking.UserID, err)
		return
	}

	var prefs models.NotificationPreference
	if err := db.Where("user_id = ?", user.ID).First(&prefs).Error; err != nil {
		prefs = *models.DefaultPreferences(user.ID)
	}

	if !prefs.BookingAlerts {
		return
	}

	if prefs.EmailEnabled {
		if err := utils.SendBookingConfirmedEmail(user.Email, vehicle.Name, vehicle.RegistrationPlate,
			booking.StartTime, booking.EndTime, booking.TotalAmount); err != nil {
			log.Printf("Failed to send booking confirmation email: %v", err)
		}
	}

	if prefs.SMSEnabled && user.PhoneNumber != "" {
		if err := utils.SendBookingConfirmedSMS(user.PhoneNumber, vehicle.Name,
			vehicle.RegistrationPlate, booking.StartTime); err != nil {
			log.Printf("Failed to send booking confirmation SMS: %v", err)
		}
	}

	if prefs.PushEnabled && user.FCMToken != "" {
		ctx := context.Background()
		if err := services.SendBookingConfirmedNotification(ctx, user.FCMToken, booking.ID,
			vehicle.Name, vehicle.RegistrationPlate, booking.TotalAmount); err != nil {
			log.Printf("Failed to send booking confirmation push: %v", err)
		}
	}
}

func notifyBookingCancelled(db *gorm.DB, booking models.Booking) {
	var user models.User
	if err := db.First(&user, booking.UserID).Error; err != nil {
		log.Printf("Failed to load user %d for cancellation notification: %v", booking.UserID, err)
		return
	}

	var prefs models.NotificationPreference
	if err := db.Where("user_id = ?", user.ID).First(&prefs).Error; err != nil {
		prefs = *models.DefaultPreferences(user.ID)
	}

	if !prefs.RentalStatusAlerts {
		return
	}

	if prefs.EmailEnabled {
		if err := utils.SendBookingCancelledEmail(user.Email, booking.Vehicle.Name, booking.StartTime); err != nil {
			log.Printf("Failed to send cancellation email: %v", err)
		}
	}

	if prefs.SMSEnabled && user.PhoneNumber != "" {
		if err := utils.SendBookingCancelledSMS(user.PhoneNumber, booking.Vehicle.Name); err != nil {
			log.Printf("Failed to send cancellation SMS: %v", err)
		}
	}

	if prefs.PushEnabled && user.FCMToken != "" {
		ctx := context.Background()
		if err := services.SendBookingCancelledNotification(ctx, user.FCMToken, booking.ID, booking.Vehicle.Name); err != nil {
			log.Printf("Failed to send cancellation push: %v", err)
		}
	}
}

func notifyRentalCompleted(db *gorm.DB, booking models.Booking) {
	var user models.User
	if err := db.First(&user, booking.UserID).Error; err != nil {
		log.Printf("Failed to load user %d for completion notification: %v", booking.UserID, err)
		return
	}

	var prefs models.NotificationPreference
	if err := db.Where("user_id = ?", user.ID).First(&prefs).Error; err != nil {
		prefs = *models.DefaultPreferences(user.ID)
	}

	if !prefs.RentalStatusAlerts {
		return
	}

	if prefs.EmailEnabled {
		if err := utils.SendRentalCompletedEmail(user.Email, booking.Vehicle.Name); err != nil {
			log.Printf("Failed to send completion email: %v", err)
		}
	}

	if prefs.SMSEnabled && user.PhoneNumber != "" {
		if err := utils.SendRentalCompletedSMS(user.PhoneNumber, booking.Vehicle.Name); err != nil {
			log.Printf("Failed to send completion SMS: %v", err)
		}
	}

	if prefs.PushEnabled && user.FCMToken != "" {
		ctx := context.Background()
		if err := services.SendRentalCompletedNotification(ctx, user.FCMToken, booking.ID, booking.Vehicle.Name); err != nil {
			log.Printf("Failed to send completion push: %v", err)
		}
	}
}
