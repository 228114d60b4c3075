// Package analyze composes per-instrument signals from multi-timeframe series.
package analyze

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/internal/calculate"
	"github.com/Alias1177/oracle/internal/patterns"
	"github.com/Alias1177/oracle/internal/trading/risk"
	"github.com/Alias1177/oracle/internal/vti"
	"github.com/Alias1177/oracle/models"
)

// signalNamespace seeds deterministic signal IDs.
var signalNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Alias1177/oracle/signal"))

// Analyzer turns market data into signals. It holds no mutable state and is
// safe for concurrent use.
type Analyzer struct {
	cfg       models.AnalysisConfig
	validator *vti.Validator
	risk      *risk.Manager
	logger    zerolog.Logger
}

// NewAnalyzer wires the validator and risk manager from one configuration.
func NewAnalyzer(cfg models.AnalysisConfig, calendar models.Calendar) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		validator: vti.NewValidator(cfg, calendar),
		risk:      risk.NewManager(cfg.Risk),
		logger:    log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze produces the signal for one instrument. It returns (nil, false)
// when the primary series is missing or empty.
func (a *Analyzer) Analyze(inst models.Instrument, data models.MarketData) (*models.Signal, bool) {
	primary := models.NewSeries(data[models.Primary])
	if primary.Empty() {
		a.logger.Debug().Str("symbol", inst.Symbol).Msg("primary series empty, no signal")
		return nil, false
	}

	primaryInd := calculate.Compute(primary, a.cfg.Indicators)
	trend := patterns.ClassifyTrend(primary, primaryInd, a.cfg.Indicators)
	frames := vti.Frames{
		Primary:   vti.NewFrame(primary, primaryInd, trend, a.cfg.Patterns.Window),
		Secondary: a.frame(data[models.Secondary]),
		Tertiary:  a.frame(data[models.Tertiary]),
	}

	report := a.validator.Validate(inst, frames)
	last := primaryInd.Last()
	bar := primary.Last()
	levels := patterns.LocateLevels(primary, a.cfg.Patterns)
	volatility := patterns.ClassifyVolatility(primaryInd, a.cfg.Patterns)
	confirmations := Confirmations(primary, primaryInd, a.cfg)

	direction := DetermineDirection(trend, last, a.cfg.Indicators)
	if direction != models.Flat && report.Score < a.cfg.VTI.ValidationThreshold {
		confirmations = append(confirmations, fmt.Sprintf("%s vetoed: VTI %d/3 below %d", direction, report.Score, a.cfg.VTI.ValidationThreshold))
		direction = models.Flat
	}

	var plan *models.RiskPlan
	if direction != models.Flat {
		p, err := a.risk.Plan(direction, bar.Close, last.ATR, levels)
		if err != nil {
			a.logger.Debug().Err(err).Str("symbol", inst.Symbol).Msg("risk plan rejected")
			confirmations = append(confirmations, fmt.Sprintf("%s vetoed: %v", direction, err))
			direction = models.Flat
		} else {
			plan = p
		}
	}

	sig := &models.Signal{
		ID:            SignalID(inst.Symbol, bar.Timestamp),
		Instrument:    inst,
		Timestamp:     bar.Timestamp,
		Price:         bar.Close,
		Direction:     direction,
		Trend:         trend,
		Pattern:       patterns.DetectPattern(primary, a.cfg.Patterns),
		Volatility:    volatility,
		Levels:        levels,
		Confirmations: confirmations,
		VTI:           report,
		Risk:          plan,
		RiskLevel:     GradeRisk(report.Score, volatility),
	}

	a.logger.Debug().
		Str("symbol", inst.Symbol).
		Str("direction", string(sig.Direction)).
		Int("vti", report.Score).
		Msg("signal composed")

	return sig, true
}

func (a *Analyzer) frame(series models.Series) vti.Frame {
	candles := models.NewSeries(series)
	if candles.Empty() {
		return vti.Frame{Trend: models.TrendUnknown, Flow: calculate.FlowUnknown}
	}
	ind := calculate.Compute(candles, a.cfg.Indicators)
	trend := patterns.ClassifyTrend(candles, ind, a.cfg.Indicators)
	return vti.NewFrame(candles, ind, trend, a.cfg.Patterns.Window)
}

// SignalID derives a stable identifier from the instrument and bar time.
func SignalID(symbol string, ts time.Time) string {
	key := fmt.Sprintf("%s|%s", symbol, ts.UTC().Format(time.RFC3339Nano))
	return uuid.NewSHA1(signalNamespace, []byte(key)).String()
}

// Request is one instrument's input to a batch.
type Request struct {
	Instrument models.Instrument
	Data       models.MarketData
}

// Result is one instrument's outcome. Signal is nil when no signal was
// produced; Err is set only when the analysis panicked.
type Result struct {
	Instrument models.Instrument
	Signal     *models.Signal
	Duration   time.Duration
	Err        error
}

// AnalyzeBatch analyses instruments in parallel and returns results in input order.
// A panic in one instrument is recovered and reported in its Result.
func (a *Analyzer) AnalyzeBatch(reqs []Request) []Result {
	results := make([]Result, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error().
						Str("symbol", req.Instrument.Symbol).
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("analysis panicked")
					results[i] = Result{
						Instrument: req.Instrument,
						Duration:   time.Since(start),
						Err:        fmt.Errorf("analysis of %s panicked: %v", req.Instrument.Symbol, r),
					}
				}
			}()

			sig, _ := a.Analyze(req.Instrument, req.Data)
			results[i] = Result{Instrument: req.Instrument, Signal: sig, Duration: time.Since(start)}
		}(i, req)
	}
	wg.Wait()

	return results
}
