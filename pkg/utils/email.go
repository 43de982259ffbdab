package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"
)

var (
	emailFrom     = os.Getenv("EMAIL_FROM")
	emailPassword = os.Getenv("EMAIL_PASSWORD")
	smtpHost      = os.Getenv("SMTP_HOST")
	smtpPort      = os.Getenv("SMTP_PORT")
	companyName   = "Gari Rentals Limited"
	baseURL       = os.Getenv("BASE_URL")
)

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #1E88E5; margin: 0;">Gari</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>© 2026 Gari Rentals Limited. All rights reserved.</p>
		</div>
	</div>
</body>
</html>
`

func sendEmail(to []string, subject, body string) error {
	if emailFrom == "" || emailPassword == "" || smtpHost == "" || smtpPort == "" {
		return fmt.Errorf("email configuration not set")
	}

	// Headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", companyName, emailFrom)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"
	headers["X-Mailer"] = "Gari-Mailer"
	headers["List-Unsubscribe"] = fmt.Sprintf("<%s>", emailFrom)

	// Build message
	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	// Authentication
	auth := smtp.PlainAuth("", emailFrom, emailPassword, smtpHost)

	// Send email
	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, emailFrom, to, []byte(message))
	if err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Successfully sent email to recipients: %v", to)
	return nil
}

func SendEmailVerificationOTP(email, otp string) error {
	subject := "Verify Your Email - Gari"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Verify Your Email</h1>
					<p>Hello,</p>
					<p>Welcome to Gari! Use the code below to verify your email address:</p>
					<div style="text-align: center; margin: 30px 0;">
						<span style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #1E88E5;">%s</span>
					</div>
					<p>This code expires in 15 minutes.</p>
					<p>Best regards,<br>The Gari Team</p>
				</div>`+emailFooter,
		otp)

	return sendEmail([]string{email}, subject, body)
}

func SendPasswordResetEmail(email, otp string) error {
	subject := "Password Reset Code - Gari"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Password Reset</h1>
					<p>Hello,</p>
					<p>We received a request to reset your password. Use the code below to continue:</p>
					<div style="text-align: center; margin: 30px 0;">
						<span style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #1E88E5;">%s</span>
					</div>
					<p>This code expires in 15 minutes. If you did not request a reset, you can ignore this email.</p>
					<p>Best regards,<br>The Gari Team</p>
				</div>`+emailFooter,
		otp)

	return sendEmail([]string{email}, subject, body)
}

func SendBookingConfirmedEmail(customerEmail, vehicleName, plate string, startTime, endTime time.Time, totalAmount float64) error {
	subject := "Booking Confirmed - Gari"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Confirmed</h1>
					<p>Hello,</p>
					<p>Your rental of <strong>%s</strong> (Plate: <strong>%s</strong>) is confirmed.</p>
					<p>Pickup: <strong>%s</strong><br>Return: <strong>%s</strong><br>Total paid: <strong>KES %.2f</strong></p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/bookings" style="background-color: #1E88E5; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">View Your Booking</a>
					</div>
					<p>Best regards,<br>The Gari Team</p>
				</div>`+emailFooter,
		vehicleName, plate,
		startTime.Format("Mon, 02 Jan 2006 15:04"),
		endTime.Format("Mon, 02 Jan 2006 15:04"),
		totalAmount, baseURL)

	return sendEmail([]string{customerEmail}, subject, body)
}

func SendBookingCancelledEmail(customerEmail, vehicleName string, startTime time.Time) error {
	subject := "Booking Cancelled - Gari"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Cancelled</h1>
					<p>Hello,</p>
					<p>Your rental of <strong>%s</strong> scheduled for <strong>%s</strong> has been cancelled.</p>
					<p>The time slot has been released. You can book another vehicle any time.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/vehicles" style="background-color: #1E88E5; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Browse Vehicles</a>
					</div>
					<p>Best regards,<br>The Gari Team</p>
				</div>`+emailFooter,
		vehicleName, startTime.Format("Mon, 02 Jan 2006 15:04"), baseURL)

	return sendEmail([]string{customerEmail}, subject, body)
}

func SendRentalCompletedEmail(customerEmail, vehicleName string) error {
	subject := "Rental Completed - Gari"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Rental Completed</h1>
					<p>Hello,</p>
					<p>Thank you for renting <strong>%s</strong> with Gari!</p>
					<p>We would love to hear about your experience. Rate your rental to help other customers.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/bookings" style="background-color: #1E88E5; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Rate Your Rental</a>
					</div>
					<p>Best regards,<br>The Gari Team</p>
				</div>`+emailFooter,
		vehicleName, baseURL)

	return sendEmail([]string{customerEmail}, subject, body)
}
