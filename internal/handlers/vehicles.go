package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/garihub/gari-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateVehicle adds a vehicle to the rental fleet (admin only)
func CreateVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name              string  `form:"name" binding:"required"`
			Make              string  `form:"make" binding:"required"`
			Model             string  `form:"model" binding:"required"`
			VehicleType       string  `form:"vehicleType" binding:"required,oneof=sedan suv van pickup luxury"`
			RegistrationPlate string  `form:"registrationPlate" binding:"required"`
			Seats             int     `form:"seats" binding:"required,min=1"`
			FuelType          string  `form:"fuelType"`
			Transmission      string  `form:"transmission"`
			RentPerHour       float64 `form:"rentPerHour" binding:"required,gt=0"`
			Location          string  `form:"location"`
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle := models.Vehicle{
			Name:              input.Name,
			Make:              input.Make,
			ModelName:         input.Model,
			VehicleType:       models.VehicleType(input.VehicleType),
			RegistrationPlate: input.RegistrationPlate,
			Seats:             input.Seats,
			FuelType:          input.FuelType,
			Transmission:      input.Transmission,
			RentPerHour:       input.RentPerHour,
			Location:          input.Location,
			IsActive:          true,
		}

		// Optional vehicle photo
		if file, err := c.FormFile("image"); err == nil {
			imagePath, err := services.UploadImage(file, services.VehicleImageFolder)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload vehicle image"})
				return
			}
			vehicle.ImageURL = services.GetImageURL(imagePath)
		}

		if err := db.Create(&vehicle).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create vehicle"})
			return
		}

		c.JSON(201, vehicle)
	}
}

// UpdateVehicle updates vehicle details (admin only)
func UpdateVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleId := c.Param("id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, vehicleId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Vehicle not found"})
			return
		}

		var input struct {
			Name         *string  `form:"name"`
			VehicleType  *string  `form:"vehicleType"`
			Seats        *int     `form:"seats"`
			FuelType     *string  `form:"fuelType"`
			Transmission *string  `form:"transmission"`
			RentPerHour  *float64 `form:"rentPerHour"`
			Location     *string  `form:"location"`
			IsActive     *bool    `form:"isActive"`
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Name != nil {
			vehicle.Name = *input.Name
		}
		if input.VehicleType != nil {
			vehicle.VehicleType = models.VehicleType(*input.VehicleType)
		}
		if input.Seats != nil {
			vehicle.Seats = *input.Seats
		}
		if input.FuelType != nil {
			vehicle.FuelType = *input.FuelType
		}
		if input.Transmission != nil {
			vehicle.Transmission = *input.Transmission
		}
		if input.RentPerHour != nil {
			if *input.RentPerHour <= 0 {
				c.JSON(400, gin.H{"error": "Rent per hour must be positive"})
				return
			}
			vehicle.RentPerHour = *input.RentPerHour
		}
		if input.Location != nil {
			vehicle.Location = *input.Location
		}
		if input.IsActive != nil {
			vehicle.IsActive = *input.IsActive
		}

		// Replace vehicle photo if a new one is provided
		if file, err := c.FormFile("image"); err == nil {
			if vehicle.ImageURL != "" {
				services.DeleteImage(vehicle.ImageURL)
			}
			imagePath, err := services.UploadImage(file, services.VehicleImageFolder)
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload vehicle image"})
				return
			}
			vehicle.ImageURL = services.GetImageURL(imagePath)
		}

		if err := db.Save(&vehicle).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update vehicle"})
			return
		}

		c.JSON(200, vehicle)
	}
}

// DeleteVehicle removes a vehicle from the fleet (admin only).
// Vehicles with active bookings cannot be deleted.
func DeleteVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleId := c.Param("id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, vehicleId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Vehicle not found"})
			return
		}

		var activeCount int64
		if err := db.Model(&models.Booking{}).
			Where("vehicle_id = ? AND status IN ?", vehicle.ID, models.ActiveBookingStatuses()).
			Count(&activeCount).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to check active bookings"})
			return
		}

		if activeCount > 0 {
			c.JSON(409, gin.H{"error": "Vehicle has active bookings and cannot be deleted"})
			return
		}

		if err := db.Delete(&vehicle).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete vehicle"})
			return
		}

		if vehicle.ImageURL != "" {
			services.DeleteImage(vehicle.ImageURL)
		}

		c.JSON(200, gin.H{"message": "Vehicle deleted successfully"})
	}
}

// GetVehicles lists active vehicles with optional filters
func GetVehicles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.Vehicle{}).Where("is_active = ?", true)

		if vehicleType := c.Query("type"); vehicleType != "" {
			query = query.Where("vehicle_type = ?", vehicleType)
		}
		if location := c.Query("location"); location != "" {
			query = query.Where("location ILIKE ?", "%"+location+"%")
		}
		if seatsStr := c.Query("seats"); seatsStr != "" {
			if seats, err := strconv.Atoi(seatsStr); err == nil {
				query = query.Where("seats >= ?", seats)
			}
		}

		// Optional availability window: only vehicles with no conflicting
		// active booking in [from, to)
		fromStr := c.Query("from")
		toStr := c.Query("to")
		if fromStr != "" && toStr != "" {
			from, err1 := time.Parse(time.RFC3339, fromStr)
			to, err2 := time.Parse(time.RFC3339, toStr)
			if err1 != nil || err2 != nil {
				c.JSON(400, gin.H{"error": "Invalid availability window, use RFC3339 timestamps"})
				return
			}
			if !from.Before(to) {
				c.JSON(400, gin.H{"error": "Availability window end must be after start"})
				return
			}

			query = query.Where(
				"id NOT IN (?)",
				db.Model(&models.Booking{}).
					Select("vehicle_id").
					Where("status IN ? AND start_time < ? AND end_time > ?",
						models.ActiveBookingStatuses(), to, from),
			)
		}

		var vehicles []models.Vehicle
		if err := query.Order("created_at DESC").Find(&vehicles).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch vehicles"})
			return
		}

		c.JSON(200, vehicles)
	}
}

// GetVehicle retrieves a single vehicle with its booked slots
func GetVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleId := c.Param("id")

		var vehicle models.Vehicle
		if err := db.Preload("BookedSlots").First(&vehicle, vehicleId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Vehicle not found"})
			return
		}

		c.JSON(200, vehicle)
	}
}

// GetVehicleAvailability lists a vehicle's reserved intervals. Results are
// cached briefly in Redis; the cache is invalidated on every booking write.
func GetVehicleAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleIdStr := c.Param("id")

		vehicleId, err := strconv.ParseUint(vehicleIdStr, 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid vehicle ID"})
			return
		}

		ctx := context.Background()
		if slots, err := services.GetCachedVehicleSlots(ctx, uint(vehicleId)); err == nil {
			c.JSON(200, gin.H{"vehicleId": vehicleId, "bookedSlots": slots, "cached": true})
			return
		}

		var vehicle models.Vehicle
		if err := db.First(&vehicle, vehicleId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Vehicle not found"})
			return
		}

		var slots []models.BookedSlot
		if err := db.Where("vehicle_id = ?", vehicle.ID).
			Order("start_time ASC").
			Find(&slots).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch booked slots"})
			return
		}

		services.CacheVehicleSlots(ctx, vehicle.ID, slots)

		c.JSON(200, gin.H{"vehicleId": vehicle.ID, "bookedSlots": slots})
	}
}
