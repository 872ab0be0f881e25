package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"market-alert-service/internal/config"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
	"market-alert-service/internal/providers"
)

// SendFunc delivers one payload to one subscription.
type SendFunc func(ctx context.Context, alert models.Alert, payload models.Payload) error

// Service routes payloads to a provider chosen by the subscription endpoint scheme.
type Service struct {
	logger        *logging.Logger
	providerFuncs map[string]SendFunc
}

// New constructs a notification Service with the providers the config enables.
func New(logger *logging.Logger, cfg config.Config) *Service {
	svc := &Service{logger: logger, providerFuncs: map[string]SendFunc{}}
	webPush := func(ctx context.Context, alert models.Alert, payload models.Payload) error {
		return providers.SendWebPush(ctx, alert.Subscription, payload, cfg)
	}
	svc.providerFuncs["https"] = webPush
	svc.providerFuncs["http"] = webPush
	if cfg.Telegram.BotToken != "" {
		svc.providerFuncs["telegram"] = func(ctx context.Context, alert models.Alert, payload models.Payload) error {
			return providers.SendTelegram(ctx, alert.Subscription, payload, cfg)
		}
	}
	if cfg.Email.SMTPServer != "" {
		svc.providerFuncs["mailto"] = func(ctx context.Context, alert models.Alert, payload models.Payload) error {
			return providers.SendEmail(ctx, alert.Subscription, payload, cfg)
		}
	}
	if cfg.SMS.AccountSID != "" {
		svc.providerFuncs["sms"] = func(ctx context.Context, alert models.Alert, payload models.Payload) error {
			return providers.SendSMS(ctx, alert.Subscription, payload, cfg)
		}
	}
	return svc
}

// NewWithProviders is used by tests and by callers with custom transports.
func NewWithProviders(logger *logging.Logger, funcs map[string]SendFunc) *Service {
	return &Service{logger: logger, providerFuncs: funcs}
}

// Send dispatches the payload. It does not retry.
func (s *Service) Send(ctx context.Context, alert models.Alert, payload models.Payload) error {
	scheme, err := endpointScheme(alert.Subscription.Endpoint)
	if err != nil {
		return fmt.Errorf("alert %s: %w", alert.AlertID, err)
	}
	provider, ok := s.providerFuncs[scheme]
	if !ok {
		return fmt.Errorf("alert %s: no provider for %q endpoints", alert.AlertID, scheme)
	}
	if err := provider(ctx, alert, payload); err != nil {
		return fmt.Errorf("dispatch via %s failed: %w", scheme, err)
	}
	s.logger.WithFields(map[string]interface{}{"alert_id": alert.AlertID, "user_id": alert.UserID}).
		Infof("Notification dispatched via %s", scheme)
	return nil
}

func endpointScheme(endpoint string) (string, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(endpoint), ":")
	if !ok || scheme == "" || rest == "" {
		return "", errors.New("subscription endpoint is missing or has no scheme")
	}
	return strings.ToLower(scheme), nil
}
