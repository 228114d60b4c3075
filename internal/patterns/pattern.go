package patterns

import (
	"github.com/Alias1177/oracle/models"
)

// DetectPattern classifies the trailing window by its share of up candles.
// A bar is an up candle when its close exceeds the previous close. Only bars
// inside the window are compared, so N bars give N-1 comparisons whatever the
// history before them; the ratio is still taken over N.
func DetectPattern(candles models.Series, cfg models.PatternConfig) models.PatternLabel {
	window := cfg.Window
	if window < 1 || len(candles) < window {
		return models.PatternUnknown
	}

	recent := candles[len(candles)-window:]
	up := 0
	for i := 1; i < len(recent); i++ {
		if recent[i].Close > recent[i-1].Close {
			up++
		}
	}

	ratio := float64(up) / float64(window)
	switch {
	case ratio >= cfg.ImpulseUpRatio:
		return models.PatternImpulseUp
	case ratio <= cfg.ImpulseDownRatio:
		return models.PatternImpulseDown
	default:
		return models.PatternConsolidation
	}
}
