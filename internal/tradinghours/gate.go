// Package tradinghours decides whether an exchange is open at a given instant.
package tradinghours

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	// Zone data is embedded so lookups work on images without /usr/share/zoneinfo.
	_ "time/tzdata"

	"market-alert-service/internal/models"
)

// ErrCrossMidnight is returned for windows that wrap past local midnight. They are not supported.
var ErrCrossMidnight = errors.New("trading window crosses midnight")

// IsTradingHours reports whether now falls in [Start, End) of the exchange's local day.
func IsTradingHours(exchange models.Exchange, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(exchange.Timezone)
	if err != nil {
		return false, fmt.Errorf("exchange %s: invalid timezone %q: %w", exchange.ExchangeID, exchange.Timezone, err)
	}
	start, err := parseClock(exchange.Start)
	if err != nil {
		return false, fmt.Errorf("exchange %s: invalid start: %w", exchange.ExchangeID, err)
	}
	end, err := parseClock(exchange.End)
	if err != nil {
		return false, fmt.Errorf("exchange %s: invalid end: %w", exchange.ExchangeID, err)
	}
	if start >= end {
		return false, fmt.Errorf("exchange %s %s-%s: %w", exchange.ExchangeID, exchange.Start, exchange.End, ErrCrossMidnight)
	}

	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	return minute >= start && minute < end, nil
}

// parseClock turns HH:MM into minutes after midnight.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("%q has an invalid minute", s)
	}
	return h*60 + m, nil
}
