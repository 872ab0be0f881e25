package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"market-alert-service/internal/config"
	"market-alert-service/internal/models"
)

const webPushTTL = 300

// SendWebPush delivers the payload to a browser Push API subscription using VAPID.
func SendWebPush(ctx context.Context, sub models.Subscription, payload models.Payload, cfg config.Config) error {
	if cfg.WebPush.PublicKey == "" || cfg.WebPush.PrivateKey == "" {
		return fmt.Errorf("missing Web Push configuration: VAPID public or private key is empty")
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return fmt.Errorf("subscription for alert %s has no encryption keys", payload.AlertID)
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload for alert %s: %w", payload.AlertID, err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      cfg.WebPush.Subscriber,
		VAPIDPublicKey:  cfg.WebPush.PublicKey,
		VAPIDPrivateKey: cfg.WebPush.PrivateKey,
		TTL:             webPushTTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("failed to send web push for alert %s: %w", payload.AlertID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("push service rate limit for alert %s: status %d", payload.AlertID, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("push subscription for alert %s expired: status %d", payload.AlertID, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("push service returned status %d for alert %s", resp.StatusCode, payload.AlertID)
	}
	return nil
}
