package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payload is a composed notification ready for a push transport.
type Payload struct {
	AlertID  string           `json:"alert_id"`
	UserID   string           `json:"user_id"`
	TickerID string           `json:"ticker_id"`
	Mode     Mode             `json:"mode"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Price    decimal.Decimal  `json:"price"`
	Lower    *decimal.Decimal `json:"lower,omitempty"`
	Upper    *decimal.Decimal `json:"upper,omitempty"`
	SentAt   time.Time        `json:"sent_at"`
}
