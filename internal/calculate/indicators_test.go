package calculate

import (
	"math"
	"testing"
	"time"

	"github.com/Alias1177/oracle/models"
)

func generateTestCandles(n int, generator func(int) models.Candle) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make(models.Series, n)
	for i := 0; i < n; i++ {
		c := generator(i)
		c.Timestamp = start.Add(time.Duration(i) * time.Hour)
		candles[i] = c
	}
	return candles
}

func risingCandles(n int) models.Series {
	return generateTestCandles(n, func(i int) models.Candle {
		price := 100 + float64(i)*0.5
		return models.Candle{Open: price - 0.2, High: price + 0.5, Low: price - 0.5, Close: price, Volume: 1000}
	})
}

func allUndefined(values []float64) bool {
	for _, v := range values {
		if models.Defined(v) {
			return false
		}
	}
	return true
}

func TestComputeAlignment(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().Indicators

	tests := []struct {
		name string
		bars int
	}{
		{"empty", 0},
		{"single bar", 1},
		{"shorter than rsi", 10},
		{"shorter than slow ema", 120},
		{"full history", 260},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Compute(risingCandles(tt.bars), cfg)
			slices := map[string][]float64{
				"rsi": set.RSI, "macd": set.MACD, "macd_signal": set.MACDSignal, "macd_hist": set.MACDHist,
				"bb_upper": set.BBUpper, "bb_middle": set.BBMiddle, "bb_lower": set.BBLower,
				"atr": set.ATR, "ema_fast": set.EMAFast, "ema_mid": set.EMAMid, "ema_slow": set.EMASlow,
				"volume_ma": set.VolumeMA, "stoch_k": set.StochK, "stoch_d": set.StochD,
			}
			for name, s := range slices {
				if len(s) != tt.bars {
					t.Errorf("%s length = %d, want %d", name, len(s), tt.bars)
				}
			}
		})
	}
}

func TestComputeInsufficientHistory(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().Indicators
	set := Compute(risingCandles(cfg.RSIPeriod), cfg)

	if !allUndefined(set.RSI) {
		t.Errorf("RSI should be undefined with %d bars", cfg.RSIPeriod)
	}
	if !allUndefined(set.EMASlow) {
		t.Error("slow EMA should be undefined")
	}
	if !allUndefined(set.MACDHist) {
		t.Error("MACD histogram should be undefined")
	}
	if !allUndefined(set.ATR) {
		t.Error("ATR should be undefined")
	}
	if models.Defined(set.Last().EMAFast) {
		t.Error("fast EMA should be undefined")
	}
}

func TestComputeLeadingWindowUndefined(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().Indicators
	set := Compute(risingCandles(260), cfg)

	tests := []struct {
		name         string
		values       []float64
		firstDefined int
	}{
		{"ema fast", set.EMAFast, cfg.EMAFastPeriod - 1},
		{"ema mid", set.EMAMid, cfg.EMAMidPeriod - 1},
		{"ema slow", set.EMASlow, cfg.EMASlowPeriod - 1},
		{"rsi", set.RSI, cfg.RSIPeriod},
		{"atr", set.ATR, cfg.ATRPeriod},
		{"bollinger", set.BBMiddle, cfg.BBPeriod - 1},
		{"volume ma", set.VolumeMA, cfg.VolumeMAPeriod - 1},
		{"macd", set.MACD, cfg.MACDSlowPeriod - 1 + cfg.MACDSignalPeriod - 1},
		{"stoch k", set.StochK, cfg.StochKPeriod - 1},
		{"stoch d", set.StochD, cfg.StochKPeriod - 1 + cfg.StochDPeriod - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if models.Defined(tt.values[tt.firstDefined-1]) {
				t.Errorf("index %d should be undefined", tt.firstDefined-1)
			}
			if !models.Defined(tt.values[tt.firstDefined]) {
				t.Errorf("index %d should be defined", tt.firstDefined)
			}
			if !models.Defined(tt.values[len(tt.values)-1]) {
				t.Error("last value should be defined")
			}
		})
	}
}

func TestComputeRisingSeries(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().Indicators
	last := Compute(risingCandles(260), cfg).Last()

	if last.RSI <= 50 {
		t.Errorf("RSI = %.2f, want > 50 for a rising series", last.RSI)
	}
	if !(last.EMAFast > last.EMAMid && last.EMAMid > last.EMASlow) {
		t.Errorf("EMA ordering broken: fast %.2f mid %.2f slow %.2f", last.EMAFast, last.EMAMid, last.EMASlow)
	}
	if last.MACD <= 0 {
		t.Errorf("MACD = %.4f, want positive", last.MACD)
	}
	if !(last.BBUpper > last.BBMiddle && last.BBMiddle > last.BBLower) {
		t.Error("Bollinger bands out of order")
	}
	if math.Abs(last.ATR-1.0) > 1e-6 {
		t.Errorf("ATR = %.6f, want 1.0 for constant 1.0 ranges", last.ATR)
	}
	if math.Abs(last.VolumeMA-1000) > 1e-9 {
		t.Errorf("volume MA = %.2f, want 1000", last.VolumeMA)
	}
}

func TestComputeDeterministic(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().Indicators
	series := generateTestCandles(220, func(i int) models.Candle {
		price := 100 + math.Sin(float64(i)/7)*5 + float64(i%4)
		return models.Candle{Open: price, High: price + 1, Low: price - 1, Close: price, Volume: float64(1000 + i%13*10)}
	})

	a := Compute(series, cfg)
	b := Compute(series, cfg)
	for i := 0; i < a.Len(); i++ {
		sa, sb := a.At(i), b.At(i)
		if !sameFloat(sa.RSI, sb.RSI) || !sameFloat(sa.MACDHist, sb.MACDHist) || !sameFloat(sa.ATR, sb.ATR) || !sameFloat(sa.StochK, sb.StochK) {
			t.Fatalf("bar %d differs between runs", i)
		}
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
