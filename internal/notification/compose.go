package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"market-alert-service/internal/evaluator"
	"market-alert-service/internal/models"
)

var operatorSymbols = map[string]string{
	models.OpGTE: ">=",
	models.OpLTE: "<=",
}

// Compose builds the push payload for an alert whose conditions held at price.
func Compose(alert models.Alert, price decimal.Decimal, now time.Time) models.Payload {
	payload := models.Payload{
		AlertID:  alert.AlertID,
		UserID:   alert.UserID,
		TickerID: alert.TickerID,
		Mode:     alert.Mode,
		Title:    fmt.Sprintf("%s signal: %s", modeLabel(alert.Mode), alert.TickerID),
		Price:    price,
		SentAt:   now,
	}

	if lower, upper, ok := evaluator.Range(alert); ok {
		payload.Lower, payload.Upper = &lower, &upper
		side := "inside"
		if alert.Combinator() == models.OperatorOr {
			side = "outside"
		}
		payload.Body = fmt.Sprintf("%s is at %s, %s your range %s - %s.",
			alert.TickerID, price.String(), side, lower.String(), upper.String())
		return payload
	}

	if len(alert.Conditions) == 1 {
		c := alert.Conditions[0]
		direction := "at or above"
		if c.Operator == models.OpLTE {
			direction = "at or below"
		}
		payload.Body = fmt.Sprintf("%s is at %s, %s your target %s.",
			alert.TickerID, price.String(), direction, c.Value.String())
		return payload
	}

	parts := make([]string, 0, len(alert.Conditions))
	for _, c := range alert.Conditions {
		parts = append(parts, fmt.Sprintf("%s %s %s", c.Field, operatorSymbols[c.Operator], c.Value.String()))
	}
	payload.Body = fmt.Sprintf("%s is at %s. Conditions met: %s.",
		alert.TickerID, price.String(), strings.Join(parts, " "+strings.ToLower(string(alert.Combinator()))+" "))
	return payload
}

func modeLabel(m models.Mode) string {
	switch m {
	case models.ModeBuy:
		return "Buy"
	case models.ModeSell:
		return "Sell"
	default:
		return "Price"
	}
}
