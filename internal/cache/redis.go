package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
)

// ExchangeSource is the authoritative exchange lookup the cache sits in front of.
type ExchangeSource interface {
	GetByID(ctx context.Context, exchangeID string) (*models.Exchange, error)
}

// ExchangeCache is a read-through cache of exchange records.
// Redis failures are logged and the source is consulted directly.
// Missing exchanges are never cached.
type ExchangeCache struct {
	client *redis.Client
	source ExchangeSource
	ttl    time.Duration
	logger *logging.Logger
}

func NewExchangeCache(client *redis.Client, source ExchangeSource, ttl time.Duration, logger *logging.Logger) *ExchangeCache {
	return &ExchangeCache{client: client, source: source, ttl: ttl, logger: logger}
}

func exchangeKey(id string) string {
	return fmt.Sprintf("exchange:%s", id)
}

func (c *ExchangeCache) GetByID(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	key := exchangeKey(exchangeID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ex models.Exchange
		if err := json.Unmarshal(data, &ex); err == nil {
			return &ex, nil
		}
		c.logger.WithField("exchange_id", exchangeID).Warnf("Discarding undecodable cached exchange")
		if err := c.invalidate(ctx, exchangeID); err != nil {
			c.logger.WithError(err).Warnf("Exchange cache delete failed")
		}
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WithField("exchange_id", exchangeID).WithError(err).Warnf("Exchange cache read failed")
	}

	ex, err := c.source.GetByID(ctx, exchangeID)
	if err != nil || ex == nil {
		return ex, err
	}

	if encoded, err := json.Marshal(ex); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.WithField("exchange_id", exchangeID).WithError(err).Warnf("Exchange cache write failed")
		}
	}
	return ex, nil
}

// invalidate drops a cached exchange so the next lookup reloads it.
func (c *ExchangeCache) invalidate(ctx context.Context, exchangeID string) error {
	if err := c.client.Del(ctx, exchangeKey(exchangeID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate exchange %s: %w", exchangeID, err)
	}
	return nil
}
