package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"market-alert-service/internal/apperr"
	"market-alert-service/internal/evaluator"
	"market-alert-service/internal/feed"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
	"market-alert-service/internal/notification"
	"market-alert-service/internal/stats"
	"market-alert-service/internal/tradinghours"
)

type AlertStore interface {
	ListByFrequency(ctx context.Context, frequency models.Frequency) ([]models.Alert, error)
}

// ExchangeStore returns nil, nil for an unknown exchange.
type ExchangeStore interface {
	GetByID(ctx context.Context, exchangeID string) (*models.Exchange, error)
}

type PriceFetcher interface {
	GetCurrentPrice(ctx context.Context, tickerID string, opts feed.Options) (decimal.Decimal, error)
}

type Dispatcher interface {
	Send(ctx context.Context, alert models.Alert, payload models.Payload) error
}

const DefaultWorkers = 5

type Config struct {
	Workers int
	Feed    feed.Options
}

// Result is the outcome of one run. Statistics is nil when the alert listing failed.
type Result struct {
	Success    bool             `json:"success"`
	RunID      string           `json:"runId"`
	Frequency  models.Frequency `json:"frequency"`
	Statistics *stats.Snapshot  `json:"statistics,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Orchestrator runs one evaluation pass over every alert of a frequency.
type Orchestrator struct {
	alerts     AlertStore
	exchanges  ExchangeStore
	prices     PriceFetcher
	dispatcher Dispatcher
	logger     *logging.Logger
	cfg        Config
	now        func() time.Time
}

func New(alerts AlertStore, exchanges ExchangeStore, prices PriceFetcher, dispatcher Dispatcher, logger *logging.Logger, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Orchestrator{
		alerts:     alerts,
		exchanges:  exchanges,
		prices:     prices,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the wall clock used for trading hours and payload timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

func (o *Orchestrator) Run(ctx context.Context, frequency models.Frequency) Result {
	runID := uuid.NewString()
	logger := o.logger.WithFields(map[string]interface{}{"run_id": runID, "frequency": string(frequency)})
	started := time.Now()

	list, err := o.alerts.ListByFrequency(ctx, frequency)
	if err != nil {
		err = apperr.Infrastructure("batch.Run", err)
		logger.WithError(err).Errorf("Failed to list alerts")
		return Result{Success: false, RunID: runID, Frequency: frequency, Error: err.Error()}
	}

	acc := stats.New()
	acc.SetTotal(len(list))
	logger.Infof("Processing %d alerts with %d workers", len(list), o.cfg.Workers)

	jobs := make(chan models.Alert)
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go o.worker(ctx, &wg, logger, acc, jobs)
	}
	for _, a := range list {
		jobs <- a
	}
	close(jobs)
	wg.Wait()

	snap := acc.Snapshot()
	logger.WithFields(map[string]interface{}{
		"processed":          snap.ProcessedAlerts,
		"skipped_disabled":   snap.SkippedDisabled,
		"skipped_off_hours":  snap.SkippedOffHours,
		"conditions_met":     snap.ConditionsMet,
		"notifications_sent": snap.NotificationsSent,
		"errors":             snap.Errors,
		"elapsed_ms":         time.Since(started).Milliseconds(),
	}).Infof("Run completed")
	return Result{Success: true, RunID: runID, Frequency: frequency, Statistics: &snap}
}

func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, logger *logging.Logger, acc *stats.Accumulator, jobs <-chan models.Alert) {
	defer wg.Done()
	for alert := range jobs {
		o.handleAlert(ctx, logger, acc, alert)
	}
}

// handleAlert confines every failure, panics included, to the alert being processed.
func (o *Orchestrator) handleAlert(ctx context.Context, runLogger *logging.Logger, acc *stats.Accumulator, alert models.Alert) {
	logger := runLogger.WithFields(map[string]interface{}{
		"alert_id": alert.AlertID,
		"user_id":  alert.UserID,
		"ticker":   alert.TickerID,
	})
	defer func() {
		if r := recover(); r != nil {
			acc.Error()
			logger.WithField("stack", string(debug.Stack())).Errorf("Alert processing panicked: %v", r)
		}
	}()

	acc.Processed()
	if !alert.Enabled {
		acc.SkippedDisabled()
		logger.Debugf("Alert disabled, skipping")
		return
	}

	if err := o.processAlert(ctx, logger, acc, alert); err != nil {
		acc.Error()
		logger.WithError(err).WithField("kind", string(apperr.KindOf(err))).Errorf("Alert processing failed")
	}
}

func (o *Orchestrator) processAlert(ctx context.Context, logger *logging.Logger, acc *stats.Accumulator, alert models.Alert) error {
	if alert.DecodeErr != nil {
		return apperr.Validation("alerts.decode", alert.DecodeErr)
	}

	exchange, err := o.exchanges.GetByID(ctx, alert.ExchangeID)
	if err != nil {
		return apperr.Infrastructure("exchanges.GetByID", err)
	}
	if exchange == nil {
		return apperr.NotFound("exchanges.GetByID", fmt.Errorf("exchange %q not found", alert.ExchangeID))
	}

	now := o.now()
	open, err := tradinghours.IsTradingHours(*exchange, now)
	if err != nil {
		return apperr.Validation("tradinghours.IsTradingHours", err)
	}
	if !open {
		acc.SkippedOffHours()
		logger.Debugf("Exchange %s closed, skipping", exchange.ExchangeID)
		return nil
	}

	if err := alert.Validate(); err != nil {
		return apperr.Validation("alert.Validate", err)
	}

	price, err := o.prices.GetCurrentPrice(ctx, alert.TickerID, o.cfg.Feed)
	if err != nil {
		return err
	}

	if !evaluator.EvaluateAlert(alert, price) {
		logger.Debugf("Conditions not met at %s", price)
		return nil
	}
	acc.ConditionMet()

	payload := notification.Compose(alert, price, now)
	if err := o.dispatcher.Send(ctx, alert, payload); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	acc.NotificationSent()
	logger.Infof("Notification sent at price %s", price)
	return nil
}
