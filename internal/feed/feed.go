// Package feed fetches quotes from an upstream provider through short-lived sessions.
//
// Every call dials its own Session, opens one Chart on it, waits for the first
// usable update or the deadline, and releases the chart and the session before
// returning. Sessions are never shared between calls.
package feed

import (
	"context"

	"github.com/shopspring/decimal"
)

// Bar is one provider period. Time is in provider units (epoch seconds).
// Any value may be missing on the wire.
type Bar struct {
	Time   int64
	Open   decimal.NullDecimal
	High   decimal.NullDecimal
	Low    decimal.NullDecimal
	Close  decimal.NullDecimal
	Volume decimal.NullDecimal
}

// Complete reports whether every OHLCV value is present.
func (b Bar) Complete() bool {
	return b.Open.Valid && b.High.Valid && b.Low.Valid && b.Close.Valid && b.Volume.Valid
}

type ChartRequest struct {
	Symbol    string
	Timeframe string
	Range     int
	Session   string
}

// Chart is a subscription to one symbol's series.
type Chart interface {
	// Updates delivers the full series, ascending by time, after every change.
	Updates() <-chan []Bar
	// Errors delivers upstream error signals for this chart.
	Errors() <-chan error
	Close() error
}

type Session interface {
	OpenChart(ctx context.Context, req ChartRequest) (Chart, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
