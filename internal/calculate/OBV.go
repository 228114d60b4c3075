package calculate

import (
	"github.com/markcheno/go-talib"

	"github.com/Alias1177/oracle/models"
)

// FlowBias is the direction of volume flow inferred from price/volume co-movement.
type FlowBias string

const (
	FlowAccumulation FlowBias = "ACCUMULATION"
	FlowDistribution FlowBias = "DISTRIBUTION"
	FlowNeutral      FlowBias = "NEUTRAL"
	FlowUnknown      FlowBias = "UNKNOWN"
)

// VolumeFlow derives a flow proxy from the on-balance-volume change over the
// last lookback bars. It is a heuristic, not order-flow data.
func VolumeFlow(candles models.Series, lookback int) (FlowBias, float64) {
	if lookback < 1 || len(candles) <= lookback {
		return FlowUnknown, 0
	}
	if candles.Last().Volume == 0 {
		return FlowUnknown, 0
	}

	obv := talib.Obv(candles.Closes(), candles.Volumes())
	last := len(obv) - 1
	delta := obv[last] - obv[last-lookback]

	var traded float64
	for _, c := range candles[len(candles)-lookback:] {
		traded += c.Volume
	}
	if traded == 0 {
		return FlowNeutral, 0
	}

	// share of traded volume that moved with price
	ratio := delta / traded
	switch {
	case ratio > 0.2:
		return FlowAccumulation, ratio
	case ratio < -0.2:
		return FlowDistribution, ratio
	default:
		return FlowNeutral, ratio
	}
}
