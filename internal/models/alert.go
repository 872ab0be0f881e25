package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the polling-cadence partition an alert belongs to.
type Frequency string

const (
	MinuteLevel Frequency = "MINUTE_LEVEL"
	HourlyLevel Frequency = "HOURLY_LEVEL"
	DailyLevel  Frequency = "DAILY_LEVEL"
)

type Mode string

const (
	ModeBuy  Mode = "BUY"
	ModeSell Mode = "SELL"
)

type LogicalOperator string

const (
	OperatorAnd LogicalOperator = "AND"
	OperatorOr  LogicalOperator = "OR"
)

const (
	OpGTE = "gte"
	OpLTE = "lte"
)

// Condition is one comparison (field, operator, threshold) within an alert.
type Condition struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"`
	Value    decimal.Decimal `json:"value"`
}

// Keys are the client keys of a Web Push subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is the push destination of an alert. Only providers look inside it.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

type Alert struct {
	AlertID         string          `json:"alert_id"`
	UserID          string          `json:"user_id"`
	TickerID        string          `json:"ticker_id"`
	ExchangeID      string          `json:"exchange_id"`
	Mode            Mode            `json:"mode"`
	Frequency       Frequency       `json:"frequency"`
	Enabled         bool            `json:"enabled"`
	Conditions      []Condition     `json:"condition_list"`
	LogicalOperator LogicalOperator `json:"logical_operator,omitempty"`
	Subscription    Subscription    `json:"subscription"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// DecodeErr is set when the stored row could not be decoded. Such an alert is
	// listed so it fails on its own instead of failing the whole partition.
	DecodeErr error `json:"-"`
}

// Combinator resolves an absent operator to AND.
func (a Alert) Combinator() LogicalOperator {
	if a.LogicalOperator == "" {
		return OperatorAnd
	}
	return a.LogicalOperator
}

// Validate checks the invariants the evaluator relies on.
func (a Alert) Validate() error {
	if len(a.Conditions) == 0 {
		return fmt.Errorf("alert %s has no conditions", a.AlertID)
	}
	for i, c := range a.Conditions {
		if c.Operator != OpGTE && c.Operator != OpLTE {
			return fmt.Errorf("alert %s condition %d: unsupported operator %q", a.AlertID, i, c.Operator)
		}
	}
	switch a.LogicalOperator {
	case "", OperatorAnd, OperatorOr:
	default:
		return fmt.Errorf("alert %s: unsupported logical operator %q", a.AlertID, a.LogicalOperator)
	}
	return nil
}
