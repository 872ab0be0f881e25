package providers

import (
	"context"
	"fmt"
	"strings"

	"market-alert-service/internal/config"
	"market-alert-service/internal/models"
	"market-alert-service/pkg/email"
)

// SendEmail delivers the payload to a mailto:<address> endpoint over SMTP.
func SendEmail(ctx context.Context, sub models.Subscription, payload models.Payload, cfg config.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := strings.TrimPrefix(sub.Endpoint, "mailto:")
	if to == "" {
		return fmt.Errorf("email not set in subscription for alert %s", payload.AlertID)
	}
	if cfg.Email.SMTPServer == "" || cfg.Email.SMTPPort == 0 || cfg.Email.Username == "" || cfg.Email.Password == "" {
		return fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}
	if err := email.Send(cfg.Email.SMTPServer, cfg.Email.SMTPPort, cfg.Email.Username, cfg.Email.Password, to, payload.Title, payload.Body); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
