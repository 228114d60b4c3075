package analyze

import (
	"fmt"

	"github.com/Alias1177/oracle/internal/patterns"
	"github.com/Alias1177/oracle/models"
)

// Confirmations lists notable oscillator and band conditions on the last bar, in a fixed order.
func Confirmations(candles models.Series, ind *models.IndicatorSet, cfg models.AnalysisConfig) []string {
	var out []string
	n := ind.Len()
	if candles.Empty() || n == 0 {
		return out
	}

	last := ind.Last()
	price := candles.Last().Close

	if models.Defined(last.RSI) {
		switch {
		case last.RSI <= cfg.Indicators.RSIOversold:
			out = append(out, fmt.Sprintf("RSI oversold (%.1f)", last.RSI))
		case last.RSI >= cfg.Indicators.RSIOverbought:
			out = append(out, fmt.Sprintf("RSI overbought (%.1f)", last.RSI))
		}
	}

	if n > 1 {
		prev := ind.At(n - 2)
		if models.Defined(prev.MACD) && models.Defined(prev.MACDSignal) && models.Defined(last.MACD) && models.Defined(last.MACDSignal) {
			switch {
			case prev.MACD <= prev.MACDSignal && last.MACD > last.MACDSignal:
				out = append(out, "MACD crossed above signal")
			case prev.MACD >= prev.MACDSignal && last.MACD < last.MACDSignal:
				out = append(out, "MACD crossed below signal")
			}
		}
	}

	if models.Defined(last.BBUpper) && models.Defined(last.BBLower) {
		switch {
		case price > last.BBUpper:
			out = append(out, "close above upper Bollinger band")
		case price < last.BBLower:
			out = append(out, "close below lower Bollinger band")
		}
	}

	if models.Defined(last.VolumeMA) && last.VolumeMA > 0 {
		if ratio := candles.Last().Volume / last.VolumeMA; ratio >= cfg.Patterns.VolumeSpikeRatio {
			out = append(out, fmt.Sprintf("volume spike %.2fx average", ratio))
		}
	}

	if d, ok := patterns.DetectDivergence(candles, ind.RSI); ok {
		out = append(out, d.String())
	}

	return out
}
