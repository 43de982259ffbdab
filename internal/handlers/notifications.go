package handlers

import (
	"context"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterFCMToken registers or updates a user's FCM token
func RegisterFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input struct {
			FCMToken string `json:"fcmToken" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", input.FCMToken).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to register FCM token"})
			return
		}

		// Customers get promotional broadcasts through the shared topic
		ctx := context.Background()
		if err := services.SubscribeToTopic(ctx, []string{input.FCMToken}, "customers"); err != nil {
			c.JSON(200, gin.H{
				"message": "FCM token registered successfully, but topic subscription failed",
				"warning": err.Error(),
			})
			return
		}

		c.JSON(200, gin.H{
			"message": "FCM token registered successfully",
		})
	}
}

// RemoveFCMToken removes a user's FCM token
func RemoveFCMToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to get user information"})
			return
		}

		if user.FCMToken != "" {
			// Stale tokens fail unsubscription; clearing the row is enough
			ctx := context.Background()
			_ = services.UnsubscribeFromTopic(ctx, []string{user.FCMToken}, "customers")
		}

		if err := db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", "").Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to remove FCM token"})
			return
		}

		c.JSON(200, gin.H{
			"message": "FCM token removed successfully",
		})
	}
}

// SendBroadcastNotificationHandler sends a promotional broadcast to customers
// who opted in (admin only). Delivery goes out over FCM and the websocket hub.
func SendBroadcastNotificationHandler(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title      string                 `json:"title" binding:"required"`
			Body       string                 `json:"body" binding:"required"`
			CouponCode string                 `json:"couponCode"`
			ImageURL   string                 `json:"imageUrl"`
			Data       map[string]interface{} `json:"data"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Only customers who left promotional messages enabled
		var users []models.User
		err := db.Joins("LEFT JOIN notification_preferences np ON np.user_id = users.id").
			Where("users.user_type = ? AND users.fcm_token != ?", models.UserTypeCustomer, "").
			Where("np.id IS NULL OR (np.push_enabled = ? AND np.promotional_messages = ?)", true, true).
			Find(&users).Error
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch user tokens"})
			return
		}

		hub.SendPromoAnnouncement(services.PromoAnnouncement{
			Title:      input.Title,
			Body:       input.Body,
			CouponCode: input.CouponCode,
		})

		if len(users) == 0 {
			c.JSON(200, gin.H{
				"message":     "Broadcast sent over websocket, no FCM tokens to notify",
				"totalTokens": 0,
			})
			return
		}

		tokens := make([]string, 0, len(users))
		for _, u := range users {
			tokens = append(tokens, u.FCMToken)
		}

		data := input.Data
		if input.CouponCode != "" {
			if data == nil {
				data = map[string]interface{}{}
			}
			data["couponCode"] = models.NormalizeCouponCode(input.CouponCode)
		}

		ctx := context.Background()
		response, err := services.SendBroadcastNotification(ctx, tokens, input.Title, input.Body, input.ImageURL, data)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to send broadcast notification", "details": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message":      "Broadcast notification sent successfully",
			"successCount": response.SuccessCount,
			"failureCount": response.FailureCount,
			"totalTokens":  len(tokens),
		})
	}
}

// TestNotification sends a test notification to the current user
func TestNotification(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to get user information"})
			return
		}

		if user.FCMToken == "" {
			c.JSON(400, gin.H{"error": "No FCM token registered for this user"})
			return
		}

		ctx := context.Background()
		payload := services.NotificationPayload{
			Title: "Test Notification",
			Body:  "This is a test notification from Gari",
			Data: map[string]interface{}{
				"type":   "test",
				"userId": userID,
			},
		}

		if err := services.SendNotificationToToken(ctx, user.FCMToken, payload); err != nil {
			c.JSON(500, gin.H{"error": "Failed to send test notification", "details": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": "Test notification sent successfully",
		})
	}
}
