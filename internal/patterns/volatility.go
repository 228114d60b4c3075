package patterns

import (
	"github.com/Alias1177/oracle/models"
)

// ClassifyVolatility compares the last ATR with the mean of its recent defined values.
func ClassifyVolatility(ind *models.IndicatorSet, cfg models.PatternConfig) models.VolatilityLabel {
	if ind.Len() == 0 {
		return models.VolatilityUnknown
	}

	current := ind.ATR[len(ind.ATR)-1]
	if !models.Defined(current) {
		return models.VolatilityUnknown
	}

	var sum float64
	count := 0
	for i := len(ind.ATR) - 1; i >= 0 && count < cfg.VolatilityLookback; i-- {
		if !models.Defined(ind.ATR[i]) {
			break
		}
		sum += ind.ATR[i]
		count++
	}

	avg := sum / float64(count)
	if avg <= 0 {
		return models.VolatilityUnknown
	}

	ratio := current / avg
	switch {
	case ratio > cfg.HighVolatilityATR:
		return models.VolatilityHigh
	case ratio < cfg.LowVolatilityATR:
		return models.VolatilityLow
	default:
		return models.VolatilityMedium
	}
}
