// Package pipeline runs the fetch, analyse and notify cycle for every configured instrument.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/internal/analyze"
	"github.com/Alias1177/oracle/internal/marketdata"
	"github.com/Alias1177/oracle/internal/metrics"
	"github.com/Alias1177/oracle/models"
)

// Options configures a Runner.
type Options struct {
	Provider    models.CandleProvider
	Analyzer    *analyze.Analyzer
	Notifier    models.Notifier
	Metrics     *metrics.Recorder
	Instruments []models.Instrument
	Intervals   marketdata.Intervals
	CandleCount int
}

// Runner executes evaluation cycles and keeps the latest signal per instrument.
type Runner struct {
	opts   Options
	logger zerolog.Logger

	mu     sync.RWMutex
	latest map[string]*models.Signal
	last   time.Time
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		opts:   opts,
		logger: log.With().Str("component", "pipeline").Logger(),
		latest: make(map[string]*models.Signal),
	}
}

// RunOnce fetches every instrument concurrently, analyses the batch and delivers the signals.
// Per-instrument failures are logged and counted; the returned error joins them.
func (r *Runner) RunOnce(ctx context.Context) ([]analyze.Result, error) {
	start := time.Now()

	reqs, errs := r.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := r.opts.Analyzer.AnalyzeBatch(reqs)
	for _, res := range results {
		if r.opts.Metrics != nil {
			r.opts.Metrics.RecordLatency("analyze", res.Duration)
		}
		if res.Err != nil {
			r.recordError("analyze")
			errs = append(errs, res.Err)
			continue
		}
		if res.Signal == nil {
			r.logger.Warn().Str("symbol", res.Instrument.Symbol).Msg("No signal produced")
			continue
		}

		r.store(res.Signal)
		if r.opts.Metrics != nil {
			r.opts.Metrics.RecordSignal(res.Signal)
		}
		if r.opts.Notifier != nil {
			if err := r.opts.Notifier.Notify(ctx, res.Signal); err != nil {
				r.logger.Error().Err(err).Str("symbol", res.Instrument.Symbol).Msg("Failed to deliver signal")
				r.recordError("notify")
				errs = append(errs, err)
			}
		}
	}

	took := time.Since(start)
	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordLatency("cycle", took)
	}
	r.mu.Lock()
	r.last = time.Now()
	r.mu.Unlock()

	r.logger.Info().
		Int("instruments", len(r.opts.Instruments)).
		Int("analysed", len(results)).
		Dur("took", took).
		Msg("Cycle complete")

	return results, errors.Join(errs...)
}

// fetchAll runs one goroutine per instrument. Requests keep the configured order;
// the provider's rate limiter bounds upstream calls.
func (r *Runner) fetchAll(ctx context.Context) ([]analyze.Request, []error) {
	insts := r.opts.Instruments
	data := make([]models.MarketData, len(insts))
	fetchErrs := make([]error, len(insts))

	var wg sync.WaitGroup
	for i, inst := range insts {
		wg.Add(1)
		go func(i int, inst models.Instrument) {
			defer wg.Done()
			data[i], fetchErrs[i] = marketdata.FetchInstrument(ctx, r.opts.Provider, inst.Symbol, r.opts.Intervals, r.opts.CandleCount)
		}(i, inst)
	}
	wg.Wait()

	reqs := make([]analyze.Request, 0, len(insts))
	var errs []error
	for i, inst := range insts {
		if err := fetchErrs[i]; err != nil {
			r.logger.Error().Err(err).Str("symbol", inst.Symbol).Msg("Failed to fetch market data")
			r.recordError("fetch")
			errs = append(errs, err)
			continue
		}
		reqs = append(reqs, analyze.Request{Instrument: inst, Data: data[i]})
	}
	return reqs, errs
}

// Run executes a cycle immediately and then every interval until ctx is done.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn().Err(err).Msg("Cycle finished with errors")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Latest returns the most recent signal per instrument, in configured order.
func (r *Runner) Latest() []*models.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Signal, 0, len(r.latest))
	for _, inst := range r.opts.Instruments {
		if s, ok := r.latest[inst.Symbol]; ok {
			out = append(out, s)
		}
	}
	return out
}

// LastCycle returns when the last cycle finished; zero before the first.
func (r *Runner) LastCycle() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Runner) store(s *models.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[s.Instrument.Symbol] = s
}

func (r *Runner) recordError(stage string) {
	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordError(stage)
	}
}
