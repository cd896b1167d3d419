package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	appName   string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appName:   appName,
		isDev:     isDev,
	}
}

// SendOTPEmail delivers a one-time login code. In development the code is
// logged instead of sent.
func (s *EmailService) SendOTPEmail(email, code string) error {
	subject := fmt.Sprintf("%s login code: %s", s.appName, code)
	body := fmt.Sprintf(
		"Your %s verification code is:\n\n%s\n\nThe code expires in 10 minutes. If you did not request it, you can ignore this email.",
		s.appName, code,
	)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "otp", "to", email, "code", code)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", "otp", "to", email)
	}
	return err
}
