// Package marketdata fetches OHLCV series from vendors behind a provider chain.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

var (
	ErrNoProviders = errors.New("marketdata: no providers configured")
	ErrNoAPIKey    = errors.New("marketdata: api key not configured")
	ErrEmptySeries = errors.New("marketdata: provider returned no bars")
)

// Chain tries providers in order; the first non-empty series wins.
type Chain struct {
	providers []models.CandleProvider
	logger    zerolog.Logger
}

// NewChain creates a provider chain.
func NewChain(providers ...models.CandleProvider) *Chain {
	return &Chain{
		providers: providers,
		logger:    log.With().Str("component", "marketdata_chain").Logger(),
	}
}

// Name implements models.CandleProvider
func (c *Chain) Name() string { return "chain" }

// Candles returns the first successful provider's series. All failures are joined.
func (c *Chain) Candles(ctx context.Context, symbol, interval string, count int) (models.Series, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProviders
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := p.Candles(ctx, symbol, interval, count)
		if err == nil && series.Empty() {
			err = ErrEmptySeries
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("provider failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		return series, nil
	}

	return nil, errors.Join(errs...)
}

// Intervals maps each timeframe to a vendor interval name.
type Intervals map[models.Timeframe]string

// FetchInstrument fetches all timeframes in parallel. A failed primary fetch
// is returned as an error; failed secondary or tertiary fetches leave that
// timeframe absent.
func FetchInstrument(ctx context.Context, provider models.CandleProvider, symbol string, intervals Intervals, count int) (models.MarketData, error) {
	logger := log.With().Str("component", "marketdata").Str("symbol", symbol).Logger()
	result := make(models.MarketData, len(intervals))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var primaryErr error

	for tf, interval := range intervals {
		wg.Add(1)

		go func(tf models.Timeframe, interval string) {
			defer wg.Done()

			series, err := provider.Candles(ctx, symbol, interval, count)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if tf == models.Primary {
					primaryErr = fmt.Errorf("failed to fetch %s candles: %w", tf, err)
					return
				}
				logger.Warn().Err(err).Str("timeframe", string(tf)).Msg("timeframe unavailable")
				return
			}
			result[tf] = series
		}(tf, interval)
	}

	wg.Wait()

	if primaryErr != nil {
		return nil, primaryErr
	}
	return result, nil
}
