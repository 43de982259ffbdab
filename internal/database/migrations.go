package database

import (
	"github.com/garihub/gari-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.BookedSlot{},
		&models.Booking{},
		&models.Coupon{},
		&models.CouponRedemption{},
		&models.Rating{},
		&models.OTP{},
		&models.NotificationPreference{},
	)
	if err != nil {
		return err
	}

	// Update users table
	if db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`)
		if err := db.Exec(`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('customer', 'admin'))`).Error; err != nil {
			return err
		}
	}

	// Booking status and payment status constraints
	if db.Migrator().HasTable(&models.Booking{}) {
		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`)
		if err := db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled'))`).Error; err != nil {
			return err
		}

		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_interval_check`)
		if err := db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_interval_check CHECK (end_time > start_time)`).Error; err != nil {
			return err
		}

		// Idempotency key for payment callbacks: a transaction reference may
		// only ever create one booking. Empty refs are exempt.
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_transaction_ref ON bookings (transaction_ref) WHERE transaction_ref <> ''`).Error; err != nil {
			return err
		}
	}

	// Coupon invariants
	if db.Migrator().HasTable(&models.Coupon{}) {
		db.Exec(`ALTER TABLE coupons DROP CONSTRAINT IF EXISTS coupons_window_check`)
		if err := db.Exec(`ALTER TABLE coupons ADD CONSTRAINT coupons_window_check CHECK (valid_until > valid_from)`).Error; err != nil {
			return err
		}

		db.Exec(`ALTER TABLE coupons DROP CONSTRAINT IF EXISTS coupons_discount_type_check`)
		if err := db.Exec(`ALTER TABLE coupons ADD CONSTRAINT coupons_discount_type_check CHECK (discount_type IN ('percentage', 'fixed'))`).Error; err != nil {
			return err
		}
	}

	// Rating score range
	if db.Migrator().HasTable(&models.Rating{}) {
		db.Exec(`ALTER TABLE ratings DROP CONSTRAINT IF EXISTS ratings_score_check`)
		if err := db.Exec(`ALTER TABLE ratings ADD CONSTRAINT ratings_score_check CHECK (score >= 1 AND score <= 5)`).Error; err != nil {
			return err
		}
	}

	return nil
}
