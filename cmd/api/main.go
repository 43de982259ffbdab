package main

import (
	"log"
	"os"
	"time"

	"github.com/garihub/gari-backend/internal/database"
	"github.com/garihub/gari-backend/internal/handlers"
	"github.com/garihub/gari-backend/internal/middleware"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Firebase is optional; push notifications are skipped when unconfigured
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	hub := services.NewHub()
	go hub.Run()

	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve vehicle images uploaded to local storage
	r.Static("/uploads", "/app/uploads")

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
			auth.POST("/verify-email", handlers.VerifyEmail(db))
			auth.POST("/forgot-password", handlers.RequestPasswordReset(db))
			auth.POST("/verify-otp", handlers.VerifyOTP(db))
			auth.POST("/reset-password", handlers.ResetPassword(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			vehicles := protected.Group("/vehicles")
			{
				vehicles.GET("", handlers.GetVehicles(db))
				vehicles.GET("/:id", handlers.GetVehicle(db))
				vehicles.GET("/:id/availability", handlers.GetVehicleAvailability(db))
				vehicles.GET("/:id/ratings", handlers.GetVehicleRatings(db))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.POST("", handlers.CreateBooking(db, hub))
				bookings.GET("/client", handlers.GetClientBookings(db))
				bookings.GET("/:id", handlers.GetBooking(db))
				bookings.POST("/:id/cancel", handlers.CancelBooking(db, hub))
				bookings.POST("/:id/rate", handlers.RateBooking(db))
			}

			coupons := protected.Group("/coupons")
			{
				coupons.POST("/validate", handlers.ValidateCoupon(db))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterFCMToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveFCMToken(db))
				notifications.POST("/test", handlers.TestNotification(db))
				notifications.GET("/preferences", handlers.GetNotificationPreferences(db))
				notifications.PUT("/preferences", handlers.UpdateNotificationPreferences(db))
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.POST("/vehicles", handlers.CreateVehicle(db))
				admin.PUT("/vehicles/:id", handlers.UpdateVehicle(db))
				admin.DELETE("/vehicles/:id", handlers.DeleteVehicle(db))

				admin.GET("/bookings", handlers.GetAllBookings(db))
				admin.POST("/bookings/:id/cancel", handlers.CancelBooking(db, hub))
				admin.POST("/bookings/:id/complete", handlers.CompleteBooking(db, hub))

				admin.POST("/coupons", handlers.CreateCoupon(db))
				admin.GET("/coupons", handlers.GetCoupons(db))
				admin.PUT("/coupons/:id", handlers.UpdateCoupon(db))
				admin.DELETE("/coupons/:id", handlers.DeleteCoupon(db))

				admin.GET("/ratings", handlers.GetAllRatings(db))
				admin.PATCH("/ratings/:id", handlers.ModerateRating(db))
				admin.DELETE("/ratings/:id", handlers.DeleteRating(db))

				admin.POST("/notifications/broadcast", handlers.SendBroadcastNotificationHandler(db, hub))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
