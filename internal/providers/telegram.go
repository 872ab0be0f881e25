package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"

	"market-alert-service/internal/config"
	"market-alert-service/internal/models"
)

var (
	// telegramLimiter is the global rate limiter for Telegram messages
	telegramLimiter     *rate.Limiter
	telegramLimiterOnce sync.Once
)

func limiter(ratePerSecond int) *rate.Limiter {
	telegramLimiterOnce.Do(func() {
		if ratePerSecond <= 0 {
			ratePerSecond = 1
		}
		telegramLimiter = rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond)
	})
	return telegramLimiter
}

// telegramChatID parses endpoints of the form telegram:<chat_id>.
func telegramChatID(endpoint string) (int64, error) {
	_, raw, ok := strings.Cut(endpoint, ":")
	if !ok {
		return 0, fmt.Errorf("invalid Telegram endpoint %q", endpoint)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "//"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid Telegram chat id in %q", endpoint)
	}
	return id, nil
}

// SendTelegram sends the payload via the go-telegram/bot library.
func SendTelegram(ctx context.Context, sub models.Subscription, payload models.Payload, cfg config.Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("missing bot token in Telegram configuration")
	}
	chatID, err := telegramChatID(sub.Endpoint)
	if err != nil {
		return err
	}

	// Check rate limit
	if err := limiter(cfg.Telegram.RatePerSecond).Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	b, err := bot.New(cfg.Telegram.BotToken, bot.WithSkipGetMe())
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("%s\n%s", payload.Title, payload.Body),
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", chatID, err)
	}
	return nil
}
