// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"

	"github.com/alumnet/alumnet-go/pkg/config"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendMilestoneEmail(toEmail, userName, threadID, milestoneType string) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.EmailFrom,
		fromName:  config.EmailFromName,
	}, nil
}

// SendMilestoneEmail congratulates a thread author on crossing a milestone.
func (c *ResendClient) SendMilestoneEmail(toEmail, userName, threadID, milestoneType string) error {
	subject := "Your post is taking off on AlumNet"

	htmlContent := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 560px; margin: 0 auto;">
	<h2>Congratulations, %s!</h2>
	<p>Your post just crossed the <strong>%s</strong> milestone. Alumni are talking about it right now.</p>
	<p><a href="https://alumnet.dev/threads/%s">See your post</a></p>
	<p style="color: #888; font-size: 12px;">You are receiving this because milestone alerts are enabled on your account.</p>
</div>`, userName, milestoneType, threadID)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send milestone email via Resend: %w", err)
	}

	return nil
}
