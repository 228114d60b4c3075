package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/oracle/models"
)

// DetermineStopLoss places the stop beyond the nearest level on the losing side,
// widened by the buffer. Without a usable level it falls back to k*ATR from price.
// The boolean reports whether a level was used.
func DetermineStopLoss(direction models.Direction, price, atr float64, levels models.LevelSet, cfg models.RiskConfig) (float64, bool) {
	buffer := cfg.StopBufferPercent / 100

	switch direction {
	case models.Buy:
		if support, ok := nearestBelow(levels.Supports, price); ok {
			return support * (1 - buffer), true
		}
		if models.Defined(atr) && atr > 0 {
			return price - cfg.ATRMultiplier*atr, false
		}
	case models.Sell:
		if resistance, ok := nearestAbove(levels.Resistances, price); ok {
			return resistance * (1 + buffer), true
		}
		if models.Defined(atr) && atr > 0 {
			return price + cfg.ATRMultiplier*atr, false
		}
	}
	return price, false
}

// nearestBelow returns the largest level strictly below price.
func nearestBelow(levels []float64, price float64) (float64, bool) {
	best, found := 0.0, false
	for _, l := range levels {
		if l < price && (!found || l > best) {
			best, found = l, true
		}
	}
	return best, found
}

// nearestAbove returns the smallest level strictly above price.
func nearestAbove(levels []float64, price float64) (float64, bool) {
	best, found := 0.0, false
	for _, l := range levels {
		if l > price && (!found || l < best) {
			best, found = l, true
		}
	}
	return best, found
}

// TakeProfits projects one target per multiple of the risk distance in the trade direction.
func TakeProfits(direction models.Direction, price, stop float64, multiples []float64) [3]models.TakeProfit {
	var targets [3]models.TakeProfit
	risk := math.Abs(price - stop)
	if risk == 0 {
		return targets
	}

	sign := 1.0
	if direction == models.Sell {
		sign = -1.0
	}

	for i := 0; i < len(targets) && i < len(multiples); i++ {
		tp := price + sign*multiples[i]*risk
		rr := decimal.NewFromFloat(math.Abs(tp-price) / risk).Round(2)
		targets[i] = models.TakeProfit{
			Price:      tp,
			RewardRisk: rr.InexactFloat64(),
		}
	}
	return targets
}
