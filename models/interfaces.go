package models

import (
	"context"
	"time"
)

// CandleProvider fetches bars from a market-data vendor.
type CandleProvider interface {
	Name() string
	Candles(ctx context.Context, symbol, interval string, count int) (Series, error)
}

// Calendar answers economic-calendar queries for the temporal pillar.
// Implementations must not block on upstream I/O.
type Calendar interface {
	HasUpcomingHighImpactEvent(inst Instrument, window time.Duration) (bool, []CalendarEvent, error)
	MarketSentiment() (Sentiment, error)
}

// Notifier delivers a produced signal.
type Notifier interface {
	Notify(ctx context.Context, sig *Signal) error
}
