package calculate

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/Alias1177/oracle/models"
)

// Compute calculates every indicator of the set over one series.
// Output slices are aligned with the series; bars before a window is
// populated hold NaN. Short series never panic, they produce NaN slices.
func Compute(series models.Series, cfg models.IndicatorConfig) *models.IndicatorSet {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	set := &models.IndicatorSet{
		RSI:      rsi(closes, cfg.RSIPeriod),
		ATR:      atr(highs, lows, closes, cfg.ATRPeriod),
		EMAFast:  ema(closes, cfg.EMAFastPeriod),
		EMAMid:   ema(closes, cfg.EMAMidPeriod),
		EMASlow:  ema(closes, cfg.EMASlowPeriod),
		VolumeMA: sma(volumes, cfg.VolumeMAPeriod),
	}

	set.MACD, set.MACDSignal, set.MACDHist = macd(closes, cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod)
	set.BBUpper, set.BBMiddle, set.BBLower = bollinger(closes, cfg.BBPeriod, cfg.BBStdDev)
	set.StochK, set.StochD = Stochastic(series, cfg.StochKPeriod, cfg.StochDPeriod)

	return set
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// mask blanks the first lookback entries; talib leaves them as zero.
func mask(values []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func ema(closes []float64, period int) []float64 {
	lookback := period - 1
	if period < 2 || len(closes) <= lookback {
		return undefined(len(closes))
	}
	return mask(talib.Ema(closes, period), lookback)
}

func sma(values []float64, period int) []float64 {
	lookback := period - 1
	if period < 1 || len(values) <= lookback {
		return undefined(len(values))
	}
	if period == 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	return mask(talib.Sma(values, period), lookback)
}

func rsi(closes []float64, period int) []float64 {
	lookback := period
	if period < 2 || len(closes) <= lookback {
		return undefined(len(closes))
	}
	return mask(talib.Rsi(closes, period), lookback)
}

func atr(highs, lows, closes []float64, period int) []float64 {
	lookback := period
	if period < 1 || len(closes) <= lookback {
		return undefined(len(closes))
	}
	return mask(talib.Atr(highs, lows, closes, period), lookback)
}

func macd(closes []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	n := len(closes)
	lookback := (slow - 1) + (signal - 1)
	if fast < 2 || slow <= fast || signal < 1 || n <= lookback {
		return undefined(n), undefined(n), undefined(n)
	}
	line, sig, hist := talib.Macd(closes, fast, slow, signal)
	return mask(line, lookback), mask(sig, lookback), mask(hist, lookback)
}

func bollinger(closes []float64, period int, dev float64) ([]float64, []float64, []float64) {
	n := len(closes)
	lookback := period - 1
	if period < 2 || n <= lookback {
		return undefined(n), undefined(n), undefined(n)
	}
	upper, middle, lower := talib.BBands(closes, period, dev, dev, talib.SMA)
	return mask(upper, lookback), mask(middle, lookback), mask(lower, lookback)
}
