package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/garihub/gari-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateCoupon creates a new discount coupon (admin only)
func CreateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Code            string  `json:"code" binding:"required"`
			Description     string  `json:"description"`
			DiscountType    string  `json:"discountType" binding:"required,oneof=percentage fixed"`
			DiscountValue   float64 `json:"discountValue" binding:"required,gt=0"`
			MinRentalAmount float64 `json:"minRentalAmount"`
			MaxDiscount     float64 `json:"maxDiscount"`
			ValidFrom       string  `json:"validFrom" binding:"required"`
			ValidUntil      string  `json:"validUntil" binding:"required"`
			UsageLimit      int     `json:"usageLimit"`
			UserLimit       int     `json:"userLimit"`
			VehicleTypes    string  `json:"vehicleTypes"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		validFrom, err := time.Parse(time.RFC3339, input.ValidFrom)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid validFrom, use RFC3339 format"})
			return
		}
		validUntil, err := time.Parse(time.RFC3339, input.ValidUntil)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid validUntil, use RFC3339 format"})
			return
		}
		if !validUntil.After(validFrom) {
			c.JSON(400, gin.H{"error": "validUntil must be after validFrom"})
			return
		}

		if input.DiscountType == string(models.DiscountTypePercentage) && input.DiscountValue > 100 {
			c.JSON(400, gin.H{"error": "Percentage discount cannot exceed 100"})
			return
		}

		userLimit := input.UserLimit
		if userLimit <= 0 {
			userLimit = 1
		}
		vehicleTypes := input.VehicleTypes
		if vehicleTypes == "" {
			vehicleTypes = models.VehicleTypeAll
		}

		coupon := models.Coupon{
			Code:            models.NormalizeCouponCode(input.Code),
			Description:     input.Description,
			DiscountType:    models.DiscountType(input.DiscountType),
			DiscountValue:   input.DiscountValue,
			MinRentalAmount: input.MinRentalAmount,
			MaxDiscount:     input.MaxDiscount,
			ValidFrom:       validFrom,
			ValidUntil:      validUntil,
			UsageLimit:      input.UsageLimit,
			UserLimit:       userLimit,
			VehicleTypes:    vehicleTypes,
			IsActive:        true,
		}

		if err := db.Create(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "A coupon with this code already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create coupon"})
			return
		}

		c.JSON(201, coupon)
	}
}

// UpdateCoupon modifies an existing coupon (admin only)
func UpdateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		couponId := c.Param("id")

		var coupon models.Coupon
		if err := db.First(&coupon, couponId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Coupon not found"})
			return
		}

		var input struct {
			Description     *string  `json:"description"`
			DiscountValue   *float64 `json:"discountValue"`
			MinRentalAmount *float64 `json:"minRentalAmount"`
			MaxDiscount     *float64 `json:"maxDiscount"`
			ValidFrom       *string  `json:"validFrom"`
			ValidUntil      *string  `json:"validUntil"`
			UsageLimit      *int     `json:"usageLimit"`
			UserLimit       *int     `json:"userLimit"`
			VehicleTypes    *string  `json:"vehicleTypes"`
			IsActive        *bool    `json:"isActive"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Description != nil {
			coupon.Description = *input.Description
		}
		if input.DiscountValue != nil {
			if *input.DiscountValue <= 0 {
				c.JSON(400, gin.H{"error": "Discount value must be positive"})
				return
			}
			coupon.DiscountValue = *input.DiscountValue
		}
		if input.MinRentalAmount != nil {
			coupon.MinRentalAmount = *input.MinRentalAmount
		}
		if input.MaxDiscount != nil {
			coupon.MaxDiscount = *input.MaxDiscount
		}
		if input.ValidFrom != nil {
			t, err := time.Parse(time.RFC3339, *input.ValidFrom)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid validFrom, use RFC3339 format"})
				return
			}
			coupon.ValidFrom = t
		}
		if input.ValidUntil != nil {
			t, err := time.Parse(time.RFC3339, *input.ValidUntil)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid validUntil, use RFC3339 format"})
				return
			}
			coupon.ValidUntil = t
		}
		if !coupon.ValidUntil.After(coupon.ValidFrom) {
			c.JSON(400, gin.H{"error": "validUntil must be after validFrom"})
			return
		}
		if input.UsageLimit != nil {
			coupon.UsageLimit = *input.UsageLimit
		}
		if input.UserLimit != nil {
			coupon.UserLimit = *input.UserLimit
		}
		if input.VehicleTypes != nil {
			coupon.VehicleTypes = *input.VehicleTypes
		}
		if input.IsActive != nil {
			coupon.IsActive = *input.IsActive
		}

		if err := db.Save(&coupon).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update coupon"})
			return
		}

		services.InvalidateCoupon(context.Background(), coupon.Code)

		c.JSON(200, coupon)
	}
}

// DeleteCoupon deactivates a coupon (admin only). Coupons referenced by past
// redemptions are never hard-deleted, so the discount history stays intact.
func DeleteCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		couponId := c.Param("id")

		var coupon models.Coupon
		if err := db.First(&coupon, couponId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Coupon not found"})
			return
		}

		if err := db.Model(&coupon).Update("is_active", false).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to deactivate coupon"})
			return
		}

		services.InvalidateCoupon(context.Background(), coupon.Code)

		c.JSON(200, gin.H{"message": "Coupon deactivated successfully"})
	}
}

// GetCoupons lists all coupons with their usage counts (admin only)
func GetCoupons(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Coupon{})
		if c.Query("active") == "true" {
			query = query.Where("is_active = ?", true)
		}

		var coupons []models.Coupon
		if err := query.Order("created_at DESC").Find(&coupons).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch coupons"})
			return
		}

		c.JSON(200, coupons)
	}
}

// ValidateCoupon quotes the discount a coupon would give for a candidate
// rental without consuming a use. The quote is advisory: the coupon is
// re-checked under lock when the booking is actually created.
func ValidateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Code      string `json:"code" binding:"required"`
			VehicleID uint   `json:"vehicleId" binding:"required"`
			StartTime string `json:"startTime" binding:"required"`
			EndTime   string `json:"endTime" binding:"required"`
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
		if !utils.IsValidSlot(utils.TimeSlot{From: startTime, To: endTime}) {
			c.JSON(400, gin.H{"error": "End time must be after start time"})
			return
		}

		var vehicle models.Vehicle
		if err := db.First(&vehicle, input.VehicleID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Vehicle not found"})
			return
		}

		charge := utils.CalculateRentalCharge(vehicle.RentPerHour, startTime, endTime)

		code := models.NormalizeCouponCode(input.Code)
		ctx := context.Background()

		coupon, err := services.GetCachedCoupon(ctx, code)
		if err != nil {
			if err != redis.Nil {
				// Cache trouble falls through to the database
				coupon = nil
			}
			var dbCoupon models.Coupon
			if err := db.Where("code = ?", code).First(&dbCoupon).Error; err != nil {
				c.JSON(404, gin.H{"error": "Coupon not found"})
				return
			}
			coupon = &dbCoupon
			services.CacheCoupon(ctx, coupon)
		}

		// Per-user counts are never cached; load them fresh
		if err := db.Where("coupon_id = ?", coupon.ID).
			Find(&coupon.Redemptions).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to validate coupon"})
			return
		}

		quote, reason := coupon.Evaluate(userId, charge.TotalAmount, vehicle.VehicleType, time.Now())
		if reason != "" {
			c.JSON(400, gin.H{"error": reason})
			return
		}

		c.JSON(200, gin.H{
			"valid":          true,
			"code":           quote.Code,
			"rentalAmount":   charge.TotalAmount,
			"discountAmount": quote.DiscountAmount,
			"finalAmount":    quote.FinalAmount,
			"description":    coupon.Description,
		})
	}
}
