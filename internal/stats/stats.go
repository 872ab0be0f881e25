// Package stats accumulates per-run counters. Safe for concurrent use.
package stats

import "sync/atomic"

// Snapshot is the immutable view returned with a run result.
type Snapshot struct {
	TotalAlerts       int64 `json:"totalAlerts"`
	ProcessedAlerts   int64 `json:"processedAlerts"`
	SkippedDisabled   int64 `json:"skippedDisabled"`
	SkippedOffHours   int64 `json:"skippedOffHours"`
	ConditionsMet     int64 `json:"conditionsMet"`
	NotificationsSent int64 `json:"notificationsSent"`
	Errors            int64 `json:"errors"`
}

type Accumulator struct {
	total             atomic.Int64
	processed         atomic.Int64
	skippedDisabled   atomic.Int64
	skippedOffHours   atomic.Int64
	conditionsMet     atomic.Int64
	notificationsSent atomic.Int64
	errors            atomic.Int64
}

func New() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) SetTotal(n int)    { a.total.Store(int64(n)) }
func (a *Accumulator) Processed()        { a.processed.Add(1) }
func (a *Accumulator) SkippedDisabled()  { a.skippedDisabled.Add(1) }
func (a *Accumulator) SkippedOffHours()  { a.skippedOffHours.Add(1) }
func (a *Accumulator) ConditionMet()     { a.conditionsMet.Add(1) }
func (a *Accumulator) NotificationSent() { a.notificationsSent.Add(1) }
func (a *Accumulator) Error()            { a.errors.Add(1) }

func (a *Accumulator) Snapshot() Snapshot {
	return Snapshot{
		TotalAlerts:       a.total.Load(),
		ProcessedAlerts:   a.processed.Load(),
		SkippedDisabled:   a.skippedDisabled.Load(),
		SkippedOffHours:   a.skippedOffHours.Load(),
		ConditionsMet:     a.conditionsMet.Load(),
		NotificationsSent: a.notificationsSent.Load(),
		Errors:            a.errors.Load(),
	}
}
