package calculate

import (
	"github.com/markcheno/go-talib"

	"github.com/Alias1177/oracle/models"
)

// Stochastic returns %K and %D aligned with the series.
// %K is the close position inside the trailing kPeriod high-low range (50 when the range is flat).
// %D is the simple average of the last dPeriod %K values.
func Stochastic(candles models.Series, kPeriod, dPeriod int) ([]float64, []float64) {
	n := len(candles)
	lookback := kPeriod - 1
	if kPeriod < 1 || dPeriod < 1 || n <= lookback {
		return undefined(n), undefined(n)
	}

	highs, lows := candles.Highs(), candles.Lows()
	k, _ := talib.StochF(highs, lows, candles.Closes(), kPeriod, 1, talib.SMA)
	k = mask(k, lookback)

	// talib reports 0 for a flat range.
	for i := lookback; i < n; i++ {
		if flatRange(highs[i-lookback:i+1], lows[i-lookback:i+1]) {
			k[i] = 50
		}
	}

	d := undefined(n)
	if n-lookback < dPeriod {
		return k, d
	}
	copy(d[lookback:], mask(talib.Sma(k[lookback:], dPeriod), dPeriod-1))
	return k, d
}

func flatRange(highs, lows []float64) bool {
	for i := range highs {
		if highs[i] != highs[0] || lows[i] != highs[0] {
			return false
		}
	}
	return true
}
