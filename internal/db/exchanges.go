package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"market-alert-service/internal/models"
)

const getExchangeByID = `
	SELECT exchange_id, name, key, timezone, start_time, end_time
	FROM exchanges
	WHERE exchange_id = $1`

// GetByID returns nil, nil when the exchange does not exist.
func (d *DB) GetByID(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	var ex models.Exchange
	err := d.Pool.QueryRow(ctx, getExchangeByID, exchangeID).Scan(
		&ex.ExchangeID,
		&ex.Name,
		&ex.Key,
		&ex.Timezone,
		&ex.Start,
		&ex.End,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exchange %s: %w", exchangeID, err)
	}
	return &ex, nil
}
