package utils

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var (
	username = os.Getenv("AT_USERNAME")
	apiKey   = os.Getenv("AT_API_KEY")
)

func sendSMS(message string, recipients []string) error {
	if username == "" {
		return fmt.Errorf("africa's talking username not set")
	}

	if apiKey == "" {
		return fmt.Errorf("africa's talking API key not set")
	}

	baseURL := "https://api.africastalking.com/version1/messaging"
	log.Printf("Sending SMS to recipients: %v", recipients)

	// Prepare the form data
	data := url.Values{}
	data.Set("username", username)
	data.Set("to", strings.Join(recipients, ","))
	data.Set("message", message)

	// Create the request
	req, err := http.NewRequest("POST", baseURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apiKey", apiKey)
	req.Header.Set("Accept", "application/json")

	// Send the request
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send SMS: status code %d", resp.StatusCode)
	}

	log.Printf("Successfully sent SMS to recipients")
	return nil
}

func SendPasswordResetSMS(phone, otp string) error {
	msg := fmt.Sprintf("Your Gari password reset code is %s. It expires in 15 minutes.", otp)
	return sendSMS(msg, []string{phone})
}

func SendBookingConfirmedSMS(customerPhone, vehicleName, plate string, startTime time.Time) error {
	msg := fmt.Sprintf("Your Gari booking is confirmed: %s (Plate: %s), pickup %s.",
		vehicleName, plate, startTime.Format("02 Jan 15:04"))

	return sendSMS(msg, []string{customerPhone})
}

func SendBookingCancelledSMS(customerPhone, vehicleName string) error {
	msg := fmt.Sprintf("Your Gari booking for %s has been cancelled. The time slot has been released.", vehicleName)
	return sendSMS(msg, []string{customerPhone})
}

func SendRentalCompletedSMS(customerPhone, vehicleName string) error {
	msg := fmt.Sprintf("Thank you for renting %s with Gari! Log in to rate your rental.", vehicleName)
	return sendSMS(msg, []string{customerPhone})
}
