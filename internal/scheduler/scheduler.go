package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-co-op/gocron"

	"market-alert-service/internal/batch"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
)

type Trigger interface {
	HandleTrigger(ctx context.Context, event batch.TriggerEvent) batch.Response
}

// Scheduler fires one run per frequency on its cron expression.
// A run still in progress when its next tick arrives causes that tick to be skipped.
type Scheduler struct {
	cron    *gocron.Scheduler
	trigger Trigger
	logger  *logging.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(trigger Trigger, logger *logging.Logger) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{cron: cron, trigger: trigger, logger: logger, ctx: ctx, cancel: cancel}
}

// Register adds a job per entry of schedules, keyed by frequency.
func (s *Scheduler) Register(schedules map[string]string) error {
	frequencies := make([]string, 0, len(schedules))
	for f := range schedules {
		frequencies = append(frequencies, f)
	}
	sort.Strings(frequencies)

	for _, f := range frequencies {
		expr := schedules[f]
		if expr == "" {
			continue
		}
		frequency := models.Frequency(f)
		if _, err := s.cron.Cron(expr).Tag(f).Do(s.run, frequency); err != nil {
			return fmt.Errorf("failed to schedule %s with %q: %w", f, expr, err)
		}
		s.logger.Infof("Scheduled %s runs at %q", f, expr)
	}
	return nil
}

func (s *Scheduler) run(frequency models.Frequency) {
	resp := s.trigger.HandleTrigger(s.ctx, batch.TriggerEvent{Frequency: frequency, Source: "scheduler"})
	if resp.StatusCode >= 300 {
		s.logger.WithField("run_id", resp.Body.RunID).Errorf("Scheduled %s run failed: %s", frequency, resp.Body.Error)
	}
}

func (s *Scheduler) Jobs() int {
	return s.cron.Len()
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
	s.logger.Infof("Scheduler started with %d jobs", s.cron.Len())
}

// Stop cancels in-flight runs and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
	s.logger.Infof("Scheduler stopped")
}
