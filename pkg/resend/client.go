package resend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	resend "github.com/resend/resend-go/v2"

	"github.com/angelmondragon/dmpilot-backend/pkg/config"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("resend api key is required")

// Client sends transactional notification emails through Resend.
type Client struct {
	api  *resend.Client
	from string
}

// NewClient builds a Resend client from config.
func NewClient(ctx context.Context, cfg config.ResendConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		from = "notifications@dmpilot.app"
	}

	if logg != nil {
		logg.Info(ctx, "resend client initialized")
	}

	return &Client{
		api:  resend.NewClient(apiKey),
		from: from,
	}, nil
}

// SendQuotaWarning emails an account that its AI reply quota crossed the
// given percentage threshold.
func (c *Client) SendQuotaWarning(ctx context.Context, email string, percentage, current, limit int) error {
	if c == nil || c.api == nil {
		return errors.New("resend client not initialized")
	}
	if strings.TrimSpace(email) == "" {
		return errors.New("recipient email is required")
	}

	subject := fmt.Sprintf("You've used %d%% of your AI reply quota", percentage)
	text := fmt.Sprintf(
		"Heads up: your account has used %d of %d AI replies this period (%d%%).\n\n"+
			"Auto-replies pause once the quota is exhausted. Upgrade your plan to raise the limit.\n",
		current, limit, percentage,
	)

	_, err := c.api.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{email},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("send quota warning: %w", err)
	}
	return nil
}

// SendTrialEnding emails an account whose trial expires in daysRemaining days.
func (c *Client) SendTrialEnding(ctx context.Context, email string, daysRemaining int) error {
	if c == nil || c.api == nil {
		return errors.New("resend client not initialized")
	}
	if strings.TrimSpace(email) == "" {
		return errors.New("recipient email is required")
	}

	subject := "Your trial ends soon"
	if daysRemaining == 1 {
		subject = "Your trial ends tomorrow"
	}
	text := fmt.Sprintf(
		"Your free trial ends in %d day(s). Add a payment method to keep AI auto-replies running without interruption.\n",
		daysRemaining,
	)

	_, err := c.api.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{email},
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("send trial ending notice: %w", err)
	}
	return nil
}
