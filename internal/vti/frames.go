package vti

import (
	"github.com/Alias1177/oracle/internal/calculate"
	"github.com/Alias1177/oracle/models"
)

// Frame is the per-timeframe input the pillars read.
type Frame struct {
	Available bool
	Trend     models.TrendLabel
	Last      models.IndicatorSnapshot
	Volume    float64
	Flow      calculate.FlowBias
}

// Frames groups the three timeframes of one instrument.
type Frames struct {
	Primary   Frame
	Secondary Frame
	Tertiary  Frame
}

// NewFrame summarises a series and its indicators. An empty series yields an unavailable frame.
func NewFrame(candles models.Series, ind *models.IndicatorSet, trend models.TrendLabel, flowLookback int) Frame {
	if candles.Empty() || ind.Len() == 0 {
		return Frame{Trend: models.TrendUnknown, Last: ind.Last(), Flow: calculate.FlowUnknown}
	}
	flow, _ := calculate.VolumeFlow(candles, flowLookback)
	return Frame{
		Available: true,
		Trend:     trend,
		Last:      ind.Last(),
		Volume:    candles.Last().Volume,
		Flow:      flow,
	}
}

// trendOf reports the frame's trend, UNKNOWN when unavailable.
func (f Frame) trendOf() models.TrendLabel {
	if !f.Available || f.Trend == "" {
		return models.TrendUnknown
	}
	return f.Trend
}
