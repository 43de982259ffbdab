package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/garihub/gari-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

const (
	couponCacheTTL       = 10 * time.Minute
	vehicleSlotsCacheTTL = 2 * time.Minute
)

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheCoupon stores a coupon read model under its code. Cached entries are
// only used for the preview endpoint; redemption always reads the row under
// lock inside the booking transaction.
func CacheCoupon(ctx context.Context, coupon *models.Coupon) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(coupon)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("coupon:code:%s", coupon.Code)
	return RedisClient.Set(ctx, key, data, couponCacheTTL).Err()
}

// GetCachedCoupon retrieves a cached coupon by its normalized code.
// Returns redis.Nil if the code is not cached.
func GetCachedCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	if RedisClient == nil {
		return nil, redis.Nil
	}

	key := fmt.Sprintf("coupon:code:%s", code)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var coupon models.Coupon
	if err := json.Unmarshal([]byte(data), &coupon); err != nil {
		return nil, err
	}

	return &coupon, nil
}

// InvalidateCoupon drops a cached coupon after an admin write or a redemption.
func InvalidateCoupon(ctx context.Context, code string) error {
	if RedisClient == nil {
		return nil
	}

	key := fmt.Sprintf("coupon:code:%s", code)
	return RedisClient.Del(ctx, key).Err()
}

// CacheVehicleSlots stores a vehicle's reserved intervals for the
// availability endpoint.
func CacheVehicleSlots(ctx context.Context, vehicleID uint, slots []models.BookedSlot) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("vehicle:slots:%d", vehicleID)
	return RedisClient.Set(ctx, key, data, vehicleSlotsCacheTTL).Err()
}

// GetCachedVehicleSlots retrieves cached reserved intervals for a vehicle.
func GetCachedVehicleSlots(ctx context.Context, vehicleID uint) ([]models.BookedSlot, error) {
	if RedisClient == nil {
		return nil, redis.Nil
	}

	key := fmt.Sprintf("vehicle:slots:%d", vehicleID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var slots []models.BookedSlot
	if err := json.Unmarshal([]byte(data), &slots); err != nil {
		return nil, err
	}

	return slots, nil
}

// InvalidateVehicleSlots drops the cached intervals after a booking write.
func InvalidateVehicleSlots(ctx context.Context, vehicleID uint) error {
	if RedisClient == nil {
		return nil
	}

	key := fmt.Sprintf("vehicle:slots:%d", vehicleID)
	return RedisClient.Del(ctx, key).Err()
}

// PublishBookingUpdate publishes a booking lifecycle event to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}

	updateData := map[string]interface{}{
		"bookingId": bookingID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", jsonData).Err()
}
