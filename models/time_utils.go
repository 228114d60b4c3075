package models

import (
	"fmt"
	"time"
)

var intervalDurations = map[string]time.Duration{
	"1min":  time.Minute,
	"5min":  5 * time.Minute,
	"15min": 15 * time.Minute,
	"30min": 30 * time.Minute,
	"45min": 45 * time.Minute,
	"1h":    time.Hour,
	"2h":    2 * time.Hour,
	"4h":    4 * time.Hour,
	"8h":    8 * time.Hour,
	"1day":  24 * time.Hour,
	"1week": 7 * 24 * time.Hour,
}

// IntervalDuration converts a vendor interval name ("15min", "1h", "1day") to a duration.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervalDurations[interval]
	if !ok {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	return d, nil
}

// CandlesForDays returns how many bars of the interval cover the given number
// of days, with a 10% buffer for gaps.
func CandlesForDays(interval string, days int) int {
	d, err := IntervalDuration(interval)
	if err != nil || days <= 0 {
		return 0
	}
	perDay := float64(24*time.Hour) / float64(d)
	n := int(perDay * float64(days) * 1.1)
	if n < 1 {
		n = 1
	}
	return n
}
