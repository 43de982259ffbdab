package handlers

import (
	"context"
	"log"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotificationPreferences retrieves user's notification preferences
func GetNotificationPreferences(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var preferences models.NotificationPreference
		if err := db.Where("user_id = ?", userID).First(&preferences).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				// Create default preferences if not found
				defaultPrefs := models.DefaultPreferences(userID)
				if err := db.Create(defaultPrefs).Error; err != nil {
					c.JSON(500, gin.H{"error": "Failed to create default preferences"})
					return
				}
				c.JSON(200, defaultPrefs)
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch preferences"})
			return
		}

		c.JSON(200, preferences)
	}
}

// UpdateNotificationPreferences updates user's notification preferences
func UpdateNotificationPreferences(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			PushEnabled         *bool `json:"pushEnabled"`
			BookingAlerts       *bool `json:"bookingAlerts"`
			RentalStatusAlerts  *bool `json:"rentalStatusAlerts"`
			PromotionalMessages *bool `json:"promotionalMessages"`
			EmailEnabled        *bool `json:"emailEnabled"`
			SMSEnabled          *bool `json:"smsEnabled"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Get existing preferences or create default
		var preferences models.NotificationPreference
		err := db.Where("user_id = ?", userID).First(&preferences).Error
		if err == gorm.ErrRecordNotFound {
			preferences = *models.DefaultPreferences(userID)
			if err := db.Create(&preferences).Error; err != nil {
				c.JSON(500, gin.H{"error": "Failed to create preferences"})
				return
			}
		} else if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch preferences"})
			return
		}

		// Track changes for topic subscription
		oldPromotional := preferences.PromotionalMessages && preferences.PushEnabled

		// Update only provided fields
		if input.PushEnabled != nil {
			preferences.PushEnabled = *input.PushEnabled
		}
		if input.BookingAlerts != nil {
			preferences.BookingAlerts = *input.BookingAlerts
		}
		if input.RentalStatusAlerts != nil {
			preferences.RentalStatusAlerts = *input.RentalStatusAlerts
		}
		if input.PromotionalMessages != nil {
			preferences.PromotionalMessages = *input.PromotionalMessages
		}
		if input.EmailEnabled != nil {
			preferences.EmailEnabled = *input.EmailEnabled
		}
		if input.SMSEnabled != nil {
			preferences.SMSEnabled = *input.SMSEnabled
		}

		if err := db.Save(&preferences).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update preferences"})
			return
		}

		// Keep the promotional topic membership in sync with the preference
		newPromotional := preferences.PromotionalMessages && preferences.PushEnabled
		if oldPromotional != newPromotional {
			var user models.User
			if err := db.First(&user, userID).Error; err == nil && user.FCMToken != "" {
				ctx := context.Background()
				tokens := []string{user.FCMToken}

				if newPromotional {
					if err := services.SubscribeToTopic(ctx, tokens, "customers"); err != nil {
						log.Printf("Failed to subscribe user %d to promotional topic: %v", userID, err)
					}
				} else {
					if err := services.UnsubscribeFromTopic(ctx, tokens, "customers"); err != nil {
						log.Printf("Failed to unsubscribe user %d from promotional topic: %v", userID, err)
					}
				}
			}
		}

		c.JSON(200, gin.H{
			"message":     "Preferences updated successfully",
			"preferences": preferences,
		})
	}
}
