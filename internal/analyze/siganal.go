package analyze

import (
	"github.com/Alias1177/oracle/models"
)

// DetermineDirection gates the primary trend with RSI and the MACD histogram.
// Undefined oscillators yield FLAT.
func DetermineDirection(trend models.TrendLabel, last models.IndicatorSnapshot, cfg models.IndicatorConfig) models.Direction {
	if !models.Defined(last.RSI) || !models.Defined(last.MACDHist) {
		return models.Flat
	}

	switch {
	case trend == models.TrendUp && last.RSI < cfg.RSIOverbought && last.MACDHist > 0:
		return models.Buy
	case trend == models.TrendDown && last.RSI > cfg.RSIOversold && last.MACDHist < 0:
		return models.Sell
	default:
		return models.Flat
	}
}

// GradeRisk grades a signal by VTI score and volatility.
func GradeRisk(score int, volatility models.VolatilityLabel) models.RiskLevel {
	calm := volatility == models.VolatilityLow || volatility == models.VolatilityMedium
	switch {
	case score >= 3 && calm:
		return models.RiskLow
	case score == 2 && calm:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}
