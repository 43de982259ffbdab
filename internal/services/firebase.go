package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Image     string                 `json:"image,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"` // Android notification channel
	Sound     string                 `json:"sound,omitempty"`     // Custom sound file name
	Priority  string                 `json:"priority,omitempty"`  // high, normal, low
}

// getAndroidConfig returns Android-specific notification configuration
func getAndroidConfig(payload NotificationPayload) *messaging.AndroidConfig {
	channelID := payload.ChannelID
	if channelID == "" {
		channelID = "gari_default"
	}

	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}

	priority := messaging.PriorityHigh
	if payload.Priority == "normal" {
		priority = messaging.PriorityDefault
	}

	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:                 sound,
			ChannelID:             channelID,
			Priority:              priority,
			DefaultSound:          sound == "default",
			Icon:                  "ic_stat_logo",
			Color:                 "#1E88E5", // Gari brand color
			DefaultVibrateTimings: true,
		},
	}
}

// getAPNSConfig returns iOS-specific notification configuration
func getAPNSConfig(payload NotificationPayload) *messaging.APNSConfig {
	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}

	badge := 1

	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:            sound,
				Badge:            &badge,
				MutableContent:   true,
				ContentAvailable: true,
			},
		},
	}
}

// toDataStrings converts a payload data map to the string map required by FCM
func toDataStrings(data map[string]interface{}) map[string]string {
	dataStrings := make(map[string]string)
	for key, value := range data {
		// Marshal complex types to JSON strings
		switch v := value.(type) {
		case string:
			dataStrings[key] = v
		case int, int64, float64, bool:
			dataStrings[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				log.Printf("Error marshaling data for key %s: %v", key, err)
				continue
			}
			dataStrings[key] = string(jsonData)
		}
	}
	return dataStrings
}

// SendNotificationToToken sends a notification to a specific FCM token
func SendNotificationToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notification.")
		return nil
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:  toDataStrings(payload.Data),
		Token: token,
	}

	// Add image if provided
	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	// Set platform-specific options
	message.Android = getAndroidConfig(payload)
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}

	log.Printf("Successfully sent notification to token: %s, response: %s", token, response)
	return nil
}

// SendNotificationToMultipleTokens sends a notification to multiple FCM tokens
func SendNotificationToMultipleTokens(ctx context.Context, tokens []string, payload NotificationPayload) (*messaging.BatchResponse, error) {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notifications.")
		return nil, nil
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens provided")
	}

	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:   toDataStrings(payload.Data),
		Tokens: tokens,
	}

	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	message.Android = getAndroidConfig(payload)
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %v", err)
	}

	log.Printf("Successfully sent %d messages, %d failures", response.SuccessCount, response.FailureCount)

	// Log any failures
	if response.FailureCount > 0 {
		for idx, resp := range response.Responses {
			if !resp.Success {
				log.Printf("Failed to send to token %s: %v", tokens[idx], resp.Error)
			}
		}
	}

	return response, nil
}

// SendBookingConfirmedNotification notifies a customer that their booking was created
func SendBookingConfirmedNotification(ctx context.Context, customerToken string, bookingID uint, vehicleName, plate string, totalAmount float64) error {
	payload := NotificationPayload{
		Title:     "Booking Confirmed",
		Body:      fmt.Sprintf("%s (Plate: %s) is booked. Total: KES %.2f", vehicleName, plate, totalAmount),
		ChannelID: "gari_bookings",
		Data: map[string]interface{}{
			"type":      "booking_confirmed",
			"bookingId": bookingID,
		},
	}
	return SendNotificationToToken(ctx, customerToken, payload)
}

// SendBookingCancelledNotification notifies a customer that a booking was cancelled
func SendBookingCancelledNotification(ctx context.Context, customerToken string, bookingID uint, vehicleName string) error {
	payload := NotificationPayload{
		Title:     "Booking Cancelled",
		Body:      fmt.Sprintf("Your booking for %s has been cancelled and the slot released.", vehicleName),
		ChannelID: "gari_bookings",
		Data: map[string]interface{}{
			"type":      "booking_cancelled",
			"bookingId": bookingID,
		},
	}
	return SendNotificationToToken(ctx, customerToken, payload)
}

// SendRentalCompletedNotification notifies a customer that their rental finished
func SendRentalCompletedNotification(ctx context.Context, customerToken string, bookingID uint, vehicleName string) error {
	payload := NotificationPayload{
		Title:     "Rental Completed",
		Body:      fmt.Sprintf("Thanks for renting %s! Tap to rate your rental.", vehicleName),
		ChannelID: "gari_bookings",
		Data: map[string]interface{}{
			"type":      "rental_completed",
			"bookingId": bookingID,
		},
	}
	return SendNotificationToToken(ctx, customerToken, payload)
}

// SendBroadcastNotification sends a promotional notification to multiple tokens
func SendBroadcastNotification(ctx context.Context, tokens []string, title, body, imageURL string, data map[string]interface{}) (*messaging.BatchResponse, error) {
	payload := NotificationPayload{
		Title:     title,
		Body:      body,
		Image:     imageURL,
		ChannelID: "gari_promos",
		Priority:  "normal",
		Data:      data,
	}
	return SendNotificationToMultipleTokens(ctx, tokens, payload)
}

// SubscribeToTopic subscribes tokens to an FCM topic
func SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic subscription.")
		return nil
	}

	response, err := MessagingClient.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("error subscribing to topic: %v", err)
	}

	log.Printf("Successfully subscribed %d tokens to topic %s", response.SuccessCount, topic)
	return nil
}

// UnsubscribeFromTopic unsubscribes tokens from an FCM topic
func UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic unsubscription.")
		return nil
	}

	response, err := MessagingClient.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("error unsubscribing from topic: %v", err)
	}

	log.Printf("Successfully unsubscribed %d tokens from topic %s", response.SuccessCount, topic)
	return nil
}
