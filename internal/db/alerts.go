package db

import (
	"context"
	"encoding/json"
	"fmt"

	"market-alert-service/internal/models"
)

const listAlertsByFrequency = `
	SELECT
		alert_id, user_id, ticker_id, exchange_id, mode, frequency, enabled,
		condition_list, COALESCE(logical_operator, ''), subscription, created_at, updated_at
	FROM alerts
	WHERE frequency = $1
	ORDER BY created_at, alert_id`

// ListByFrequency returns every alert in the frequency partition, enabled or not.
// A row whose JSON columns do not decode is still returned, with DecodeErr set.
func (d *DB) ListByFrequency(ctx context.Context, frequency models.Frequency) ([]models.Alert, error) {
	rows, err := d.Pool.Query(ctx, listAlertsByFrequency, string(frequency))
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for %s: %w", frequency, err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		var r alertRow
		if err := rows.Scan(
			&r.alert.AlertID,
			&r.alert.UserID,
			&r.alert.TickerID,
			&r.alert.ExchangeID,
			&r.mode,
			&r.frequency,
			&r.alert.Enabled,
			&r.conditions,
			&r.logical,
			&r.subscription,
			&r.alert.CreatedAt,
			&r.alert.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, r.toAlert())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	return list, nil
}

// alertRow holds one scanned row before its enum and JSONB columns are decoded.
type alertRow struct {
	alert        models.Alert
	mode         string
	frequency    string
	logical      string
	conditions   []byte
	subscription []byte
}

func (r alertRow) toAlert() models.Alert {
	a := r.alert
	a.Mode = models.Mode(r.mode)
	a.Frequency = models.Frequency(r.frequency)
	a.LogicalOperator = models.LogicalOperator(r.logical)
	if err := decodeAlertJSON(&a, r.conditions, r.subscription); err != nil {
		a.Conditions = nil
		a.Subscription = models.Subscription{}
		a.DecodeErr = err
	}
	return a
}

func decodeAlertJSON(a *models.Alert, conditionsRaw, subRaw []byte) error {
	if len(conditionsRaw) > 0 {
		if err := json.Unmarshal(conditionsRaw, &a.Conditions); err != nil {
			return fmt.Errorf("failed to decode conditions of alert %s: %w", a.AlertID, err)
		}
	}
	if len(subRaw) > 0 {
		if err := json.Unmarshal(subRaw, &a.Subscription); err != nil {
			return fmt.Errorf("failed to decode subscription of alert %s: %w", a.AlertID, err)
		}
	}
	return nil
}
