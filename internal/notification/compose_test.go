package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"market-alert-service/internal/models"
)

func c(op string, v int64) models.Condition {
	return models.Condition{Field: "price", Operator: op, Value: decimal.NewFromInt(v)}
}

func TestCompose(t *testing.T) {
	now := time.Date(2024, 7, 15, 17, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		alert     models.Alert
		price     decimal.Decimal
		wantTitle string
		wantBody  string
		wantRange bool
	}{
		{
			name:      "sell threshold",
			alert:     models.Alert{TickerID: "NASDAQ:AAPL", Mode: models.ModeSell, Conditions: []models.Condition{c(models.OpGTE, 200)}},
			price:     decimal.NewFromInt(205),
			wantTitle: "Sell signal: NASDAQ:AAPL",
			wantBody:  "NASDAQ:AAPL is at 205, at or above your target 200.",
		},
		{
			name:      "buy dip",
			alert:     models.Alert{TickerID: "NASDAQ:AAPL", Mode: models.ModeBuy, Conditions: []models.Condition{c(models.OpLTE, 150)}},
			price:     decimal.RequireFromString("149.5"),
			wantTitle: "Buy signal: NASDAQ:AAPL",
			wantBody:  "NASDAQ:AAPL is at 149.5, at or below your target 150.",
		},
		{
			name:      "inside band",
			alert:     models.Alert{TickerID: "NYSE:IBM", Mode: models.ModeBuy, Conditions: []models.Condition{c(models.OpGTE, 100), c(models.OpLTE, 110)}},
			price:     decimal.NewFromInt(105),
			wantTitle: "Buy signal: NYSE:IBM",
			wantBody:  "NYSE:IBM is at 105, inside your range 100 - 110.",
			wantRange: true,
		},
		{
			name: "outside band",
			alert: models.Alert{TickerID: "NYSE:IBM", Mode: models.ModeSell, LogicalOperator: models.OperatorOr,
				Conditions: []models.Condition{c(models.OpLTE, 90), c(models.OpGTE, 120)}},
			price:     decimal.NewFromInt(85),
			wantTitle: "Sell signal: NYSE:IBM",
			wantBody:  "NYSE:IBM is at 85, outside your range 90 - 120.",
			wantRange: true,
		},
		{
			name: "or with overlapping bounds",
			alert: models.Alert{TickerID: "NYSE:IBM", Mode: models.ModeBuy, LogicalOperator: models.OperatorOr,
				Conditions: []models.Condition{c(models.OpGTE, 100), c(models.OpLTE, 110)}},
			price:     decimal.NewFromInt(105),
			wantTitle: "Buy signal: NYSE:IBM",
			wantBody:  "NYSE:IBM is at 105. Conditions met: price >= 100 or price <= 110.",
		},
		{
			name: "many conditions",
			alert: models.Alert{TickerID: "NYSE:IBM", Mode: models.ModeBuy,
				Conditions: []models.Condition{c(models.OpGTE, 1), c(models.OpGTE, 2), c(models.OpLTE, 9)}},
			price:     decimal.NewFromInt(5),
			wantTitle: "Buy signal: NYSE:IBM",
			wantBody:  "NYSE:IBM is at 5. Conditions met: price >= 1 and price >= 2 and price <= 9.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compose(tt.alert, tt.price, now)
			if p.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", p.Title, tt.wantTitle)
			}
			if p.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", p.Body, tt.wantBody)
			}
			if (p.Lower != nil) != tt.wantRange || (p.Upper != nil) != tt.wantRange {
				t.Errorf("range bounds present = %v/%v, want %v", p.Lower != nil, p.Upper != nil, tt.wantRange)
			}
			if !p.Price.Equal(tt.price) || !p.SentAt.Equal(now) {
				t.Errorf("Price/SentAt = %s/%s", p.Price, p.SentAt)
			}
		})
	}
}
