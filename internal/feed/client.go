package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"market-alert-service/internal/apperr"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultChartCount = 100
	MaxChartCount     = 500

	SessionExtended = "extended"
	SessionRegular  = "regular"

	priceTimeframe = "1"
)

var supportedTimeframes = map[string]bool{
	"1": true, "3": true, "5": true, "15": true, "30": true, "45": true,
	"60": true, "120": true, "180": true, "240": true,
	"1D": true, "1W": true, "1M": true,
}

type Options struct {
	Timeout time.Duration
	Session string
}

type ChartOptions struct {
	Count   int
	Timeout time.Duration
	Session string
}

type Client struct {
	dialer  Dialer
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewClient builds a Client. A nil limiter disables upstream throttling.
func NewClient(dialer Dialer, limiter *rate.Limiter, logger *logging.Logger) *Client {
	return &Client{dialer: dialer, limiter: limiter, logger: logger}
}

// GetCurrentPrice returns the close of the latest one-minute bar for tickerID.
func (c *Client) GetCurrentPrice(ctx context.Context, tickerID string, opts Options) (decimal.Decimal, error) {
	const op = "feed.GetCurrentPrice"
	if err := validateTicker(tickerID); err != nil {
		return decimal.Zero, apperr.Validation(op, err)
	}
	session, err := resolveSession(opts.Session)
	if err != nil {
		return decimal.Zero, apperr.Validation(op, err)
	}

	var price decimal.Decimal
	req := ChartRequest{Symbol: tickerID, Timeframe: priceTimeframe, Range: 1, Session: session}
	err = c.stream(ctx, op, req, timeoutOrDefault(opts.Timeout), func(bars []Bar) bool {
		if len(bars) == 0 {
			return false
		}
		last := bars[len(bars)-1]
		if !last.Close.Valid {
			return false
		}
		price = last.Close.Decimal
		return true
	})
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// GetChartData returns up to opts.Count most recent complete candles, oldest first.
func (c *Client) GetChartData(ctx context.Context, tickerID, timeframe string, opts ChartOptions) ([]models.Candle, error) {
	const op = "feed.GetChartData"
	if err := validateTicker(tickerID); err != nil {
		return nil, apperr.Validation(op, err)
	}
	if !supportedTimeframes[timeframe] {
		return nil, apperr.Validation(op, fmt.Errorf("%w: %q", apperr.ErrInvalidTimeframe, timeframe))
	}
	session, err := resolveSession(opts.Session)
	if err != nil {
		return nil, apperr.Validation(op, err)
	}
	count := opts.Count
	if count <= 0 {
		count = DefaultChartCount
	}
	if count > MaxChartCount {
		count = MaxChartCount
	}

	var candles []models.Candle
	req := ChartRequest{Symbol: tickerID, Timeframe: timeframe, Range: count, Session: session}
	err = c.stream(ctx, op, req, timeoutOrDefault(opts.Timeout), func(bars []Bar) bool {
		complete := make([]Bar, 0, len(bars))
		for _, b := range bars {
			if b.Complete() {
				complete = append(complete, b)
			}
		}
		if len(complete) == 0 {
			return false
		}
		sort.Slice(complete, func(i, j int) bool { return complete[i].Time < complete[j].Time })
		if len(complete) > count {
			complete = complete[len(complete)-count:]
		}
		candles = make([]models.Candle, len(complete))
		for i, b := range complete {
			candles[i] = models.Candle{
				Time:   b.Time * 1000,
				Open:   b.Open.Decimal,
				High:   b.High.Decimal,
				Low:    b.Low.Decimal,
				Close:  b.Close.Decimal,
				Volume: b.Volume.Decimal,
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return candles, nil
}

// stream opens a session and chart, feeds updates to accept until it returns true,
// and releases both on every path. The deadline starts before the session is dialed.
func (c *Client) stream(ctx context.Context, op string, req ChartRequest, timeout time.Duration, accept func([]Bar) bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.deadlineErr(ctx, op, req.Symbol, timeout, err)
		}
	}

	session, err := c.dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return c.deadlineErr(ctx, op, req.Symbol, timeout, err)
		}
		return classify(op, err)
	}
	defer c.release(req.Symbol, "session", session.Close)

	chart, err := session.OpenChart(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return c.deadlineErr(ctx, op, req.Symbol, timeout, err)
		}
		return classify(op, err)
	}
	defer c.release(req.Symbol, "chart", chart.Close)

	for {
		select {
		case <-ctx.Done():
			return c.deadlineErr(ctx, op, req.Symbol, timeout, ctx.Err())
		case err, ok := <-chart.Errors():
			if !ok {
				return apperr.Connection(op, fmt.Errorf("%s: feed closed the chart", req.Symbol))
			}
			return classify(op, err)
		case bars, ok := <-chart.Updates():
			if !ok {
				return apperr.Connection(op, fmt.Errorf("%s: feed closed before a usable update", req.Symbol))
			}
			if accept(bars) {
				return nil
			}
		}
	}
}

// release runs one teardown step. Failures are logged and never returned.
func (c *Client) release(symbol, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		c.logger.WithFields(map[string]interface{}{"ticker": symbol, "resource": what}).
			WithError(err).Warnf("Feed %s release failed", what)
	}
}

func (c *Client) deadlineErr(ctx context.Context, op, symbol string, timeout time.Duration, cause error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s %s: %w", op, symbol, context.Canceled)
	}
	return apperr.Timeout(op, fmt.Errorf("no usable update for %s within %s: %w", symbol, timeout, cause))
}

// classify maps an upstream error signal onto the error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return apperr.Connection(op, errors.New("unknown upstream error"))
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate") || strings.Contains(msg, "limit") {
		return apperr.RateLimit(op, err)
	}
	return apperr.Connection(op, err)
}

func validateTicker(tickerID string) error {
	prefix, symbol, ok := strings.Cut(tickerID, ":")
	if !ok || prefix == "" || symbol == "" {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidTicker, tickerID)
	}
	return nil
}

func resolveSession(s string) (string, error) {
	switch s {
	case "":
		return SessionExtended, nil
	case SessionExtended, SessionRegular:
		return s, nil
	default:
		return "", fmt.Errorf("unsupported trading session %q", s)
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
