package handlers

import (
	"errors"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RateBooking records a customer's rating for a completed rental. One rating
// per booking; the vehicle's aggregate is recomputed from approved ratings.
func RateBooking(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingId := c.Param("id")
		userId := c.GetUint("userId")

		var input struct {
			Score  int    `json:"score" binding:"required"`
			Review string `json:"review"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !models.IsValidScore(input.Score) {
			c.JSON(400, gin.H{"error": "Score must be between 1 and 5"})
			return
		}

		var booking models.Booking
		if err := db.First(&booking, bookingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Booking not found"})
			return
		}

		if booking.UserID != userId {
			c.JSON(403, gin.H{"error": "You can only rate your own bookings"})
			return
		}

		if booking.Status != models.BookingStatusCompleted {
			c.JSON(400, gin.H{"error": "Only completed rentals can be rated"})
			return
		}

		var existing models.Rating
		if err := db.Where("booking_id = ?", booking.ID).First(&existing).Error; err == nil {
			c.JSON(409, gin.H{"error": "This booking has already been rated"})
			return
		}

		rating := models.Rating{
			BookingID:  booking.ID,
			VehicleID:  booking.VehicleID,
			UserID:     userId,
			Score:      input.Score,
			Review:     input.Review,
			IsApproved: true,
		}

		if err := db.Create(&rating).Error; err != nil {
			// A concurrent submission can slip past the lookup above and
			// land on the unique booking_id index instead
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "This booking has already been rated"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to save rating"})
			return
		}

		if err := refreshVehicleRating(db, booking.VehicleID); err != nil {
			c.JSON(500, gin.H{"error": "Failed to update vehicle rating"})
			return
		}

		c.JSON(201, rating)
	}
}

// GetVehicleRatings lists approved ratings for a vehicle
func GetVehicleRatings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleId := c.Param("id")

		var ratings []models.Rating
		if err := db.Where("vehicle_id = ? AND is_approved = ?", vehicleId, true).
			Preload("User").
			Order("created_at DESC").
			Find(&ratings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch ratings"})
			return
		}

		response := make([]gin.H, 0, len(ratings))
		for _, r := range ratings {
			response = append(response, gin.H{
				"id":        r.ID,
				"score":     r.Score,
				"review":    r.Review,
				"customer":  r.User.Username,
				"createdAt": r.CreatedAt,
			})
		}

		c.JSON(200, response)
	}
}

// GetAllRatings lists all ratings including unapproved ones (admin only)
func GetAllRatings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Rating{})
		if c.Query("pending") == "true" {
			query = query.Where("is_approved = ?", false)
		}

		var ratings []models.Rating
		if err := query.Preload("User").
			Order("created_at DESC").
			Find(&ratings).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch ratings"})
			return
		}

		c.JSON(200, ratings)
	}
}

// ModerateRating approves or hides a rating (admin only)
func ModerateRating(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ratingId := c.Param("id")

		var input struct {
			IsApproved *bool `json:"isApproved" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var rating models.Rating
		if err := db.First(&rating, ratingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Rating not found"})
			return
		}

		rating.IsApproved = *input.IsApproved
		if err := db.Save(&rating).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update rating"})
			return
		}

		if err := refreshVehicleRating(db, rating.VehicleID); err != nil {
			c.JSON(500, gin.H{"error": "Failed to update vehicle rating"})
			return
		}

		c.JSON(200, rating)
	}
}

// DeleteRating removes a rating entirely (admin only)
func DeleteRating(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ratingId := c.Param("id")

		var rating models.Rating
		if err := db.First(&rating, ratingId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Rating not found"})
			return
		}

		if err := db.Delete(&rating).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete rating"})
			return
		}

		if err := refreshVehicleRating(db, rating.VehicleID); err != nil {
			c.JSON(500, gin.H{"error": "Failed to update vehicle rating"})
			return
		}

		c.JSON(200, gin.H{"message": "Rating deleted successfully"})
	}
}

// refreshVehicleRating recomputes the vehicle's stored aggregate from its
// approved ratings. The stored columns are a read model; the query result is
// the source of truth.
func refreshVehicleRating(db *gorm.DB, vehicleID uint) error {
	var agg struct {
		Average float64
		Count   int64
	}

	err := db.Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("vehicle_id = ? AND is_approved = ?", vehicleID, true).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return db.Model(&models.Vehicle{}).
		Where("id = ?", vehicleID).
		Updates(map[string]interface{}{
			"average_rating": agg.Average,
			"rating_count":   agg.Count,
		}).Error
}
