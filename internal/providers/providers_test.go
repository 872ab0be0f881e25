package providers

import (
	"context"
	"strings"
	"testing"

	"market-alert-service/internal/config"
	"market-alert-service/internal/models"
)

func TestTelegramChatID(t *testing.T) {
	tests := []struct {
		endpoint string
		want     int64
		wantErr  bool
	}{
		{"telegram:12345", 12345, false},
		{"telegram://-100987", -100987, false},
		{"telegram:abc", 0, true},
		{"telegram:", 0, true},
		{"telegram", 0, true},
	}
	for _, tt := range tests {
		got, err := telegramChatID(tt.endpoint)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("telegramChatID(%q) = %d, %v", tt.endpoint, got, err)
		}
	}
}

func TestSendWebPushRequiresConfig(t *testing.T) {
	sub := models.Subscription{Endpoint: "https://push.example/abc", Keys: models.Keys{P256dh: "k", Auth: "a"}}
	err := SendWebPush(context.Background(), sub, models.Payload{AlertID: "a1"}, config.Config{})
	if err == nil || !strings.Contains(err.Error(), "VAPID") {
		t.Fatalf("err = %v", err)
	}

	var cfg config.Config
	cfg.WebPush.PublicKey, cfg.WebPush.PrivateKey = "pub", "priv"
	err = SendWebPush(context.Background(), models.Subscription{Endpoint: sub.Endpoint}, models.Payload{AlertID: "a1"}, cfg)
	if err == nil || !strings.Contains(err.Error(), "encryption keys") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendEmailRequiresConfig(t *testing.T) {
	err := SendEmail(context.Background(), models.Subscription{Endpoint: "mailto:a@example.com"}, models.Payload{}, config.Config{})
	if err == nil || !strings.Contains(err.Error(), "missing Email configuration") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendSMSRequiresConfig(t *testing.T) {
	err := SendSMS(context.Background(), models.Subscription{Endpoint: "sms:+15551234567"}, models.Payload{}, config.Config{})
	if err == nil || !strings.Contains(err.Error(), "missing SMS configuration") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendTelegramRequiresToken(t *testing.T) {
	err := SendTelegram(context.Background(), models.Subscription{Endpoint: "telegram:1"}, models.Payload{}, config.Config{})
	if err == nil || !strings.Contains(err.Error(), "bot token") {
		t.Fatalf("err = %v", err)
	}
}
