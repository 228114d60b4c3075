package patterns

import (
	"github.com/Alias1177/oracle/models"
)

// ClassifyTrend labels the last bar by EMA alignment.
// UNKNOWN when the series is shorter than the slow EMA window or any EMA is undefined.
// Ties fall to SIDEWAYS.
func ClassifyTrend(candles models.Series, ind *models.IndicatorSet, cfg models.IndicatorConfig) models.TrendLabel {
	if len(candles) < cfg.EMASlowPeriod || ind.Len() != len(candles) {
		return models.TrendUnknown
	}

	last := ind.Last()
	if !models.Defined(last.EMAFast) || !models.Defined(last.EMAMid) || !models.Defined(last.EMASlow) {
		return models.TrendUnknown
	}

	price := candles.Last().Close
	switch {
	case price > last.EMAFast && last.EMAFast > last.EMAMid && last.EMAMid > last.EMASlow:
		return models.TrendUp
	case price < last.EMAFast && last.EMAFast < last.EMAMid && last.EMAMid < last.EMASlow:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}
