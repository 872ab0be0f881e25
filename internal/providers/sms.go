package providers

import (
	"context"
	"fmt"
	"strings"

	"market-alert-service/internal/config"
	"market-alert-service/internal/models"
	"market-alert-service/pkg/sms"
)

// SendSMS delivers the payload to an sms:<number> endpoint through Twilio.
func SendSMS(ctx context.Context, sub models.Subscription, payload models.Payload, cfg config.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := strings.TrimPrefix(sub.Endpoint, "sms:")
	if to == "" {
		return fmt.Errorf("phone number not set in subscription for alert %s", payload.AlertID)
	}
	if cfg.SMS.AccountSID == "" || cfg.SMS.AuthToken == "" || cfg.SMS.FromNumber == "" {
		return fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, or FromNumber is empty")
	}
	return sms.Send(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, to, fmt.Sprintf("%s\n%s", payload.Title, payload.Body))
}
