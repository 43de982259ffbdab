package models

import (
	"time"

	"gorm.io/gorm"
)

type VehicleType string

const (
	VehicleTypeSedan  VehicleType = "sedan"
	VehicleTypeSUV    VehicleType = "suv"
	VehicleTypeVan    VehicleType = "van"
	VehicleTypePickup VehicleType = "pickup"
	VehicleTypeLuxury VehicleType = "luxury"
)

type Vehicle struct {
	gorm.Model
	Name              string       `json:"name" gorm:"not null"`
	Make              string       `json:"make" gorm:"not null"`
	ModelName         string       `json:"model" gorm:"column:model_name;not null"`
	VehicleType       VehicleType  `json:"vehicleType" gorm:"not null"`
	RegistrationPlate string       `json:"registrationPlate" gorm:"unique;not null"`
	Seats             int          `json:"seats" gorm:"not null"`
	FuelType          string       `json:"fuelType"`
	Transmission      string       `json:"transmission"`
	RentPerHour       float64      `json:"rentPerHour" gorm:"not null"`
	ImageURL          string       `json:"imageUrl"`
	Location          string       `json:"location"`
	IsActive          bool         `json:"isActive" gorm:"default:true"`
	AverageRating     float64      `json:"averageRating" gorm:"default:0"`
	RatingCount       int          `json:"ratingCount" gorm:"default:0"`
	BookedSlots       []BookedSlot `json:"bookedSlots"`
}

// BookedSlot is one reserved interval on a vehicle's calendar. Rows are
// created inside the booking transaction and removed when the booking is
// cancelled, so the slots of a vehicle never overlap.
type BookedSlot struct {
	gorm.Model
	VehicleID uint      `json:"vehicleId" gorm:"index;not null"`
	BookingID uint      `json:"bookingId" gorm:"index;not null"`
	StartTime time.Time `json:"startTime" gorm:"not null"`
	EndTime   time.Time `json:"endTime" gorm:"not null"`
}
