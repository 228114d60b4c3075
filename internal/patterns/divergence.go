package patterns

import (
	"fmt"

	"github.com/Alias1177/oracle/models"
)

const (
	divergenceLookback = 50
	swingStrength      = 3
)

// Divergence is a disagreement between price swings and RSI at the same bars.
type Divergence struct {
	Kind    string // REGULAR or HIDDEN
	Bullish bool
	From    int
	To      int
}

func (d Divergence) String() string {
	bias := "bearish"
	if d.Bullish {
		bias = "bullish"
	}
	kind := "regular"
	if d.Kind == "HIDDEN" {
		kind = "hidden"
	}
	return fmt.Sprintf("%s %s divergence (price vs RSI)", bias, kind)
}

// DetectDivergence compares the last two swing highs and the last two swing
// lows in the trailing window against RSI at those bars. It returns the
// divergence whose second swing is the most recent.
func DetectDivergence(candles models.Series, rsi []float64) (Divergence, bool) {
	n := len(candles)
	if n != len(rsi) || n < 2*swingStrength+2 {
		return Divergence{}, false
	}
	start := n - divergenceLookback
	if start < 0 {
		start = 0
	}

	highs, lows := findSwingPoints(candles, start, swingStrength)

	var found []Divergence
	if p1, p2, ok := lastPair(highs, rsi); ok {
		switch {
		case candles[p2].High > candles[p1].High && rsi[p2] < rsi[p1]:
			found = append(found, Divergence{Kind: "REGULAR", From: p1, To: p2})
		case candles[p2].High < candles[p1].High && rsi[p2] > rsi[p1]:
			found = append(found, Divergence{Kind: "HIDDEN", From: p1, To: p2})
		}
	}
	if p1, p2, ok := lastPair(lows, rsi); ok {
		switch {
		case candles[p2].Low < candles[p1].Low && rsi[p2] > rsi[p1]:
			found = append(found, Divergence{Kind: "REGULAR", Bullish: true, From: p1, To: p2})
		case candles[p2].Low > candles[p1].Low && rsi[p2] < rsi[p1]:
			found = append(found, Divergence{Kind: "HIDDEN", Bullish: true, From: p1, To: p2})
		}
	}

	if len(found) == 0 {
		return Divergence{}, false
	}
	best := found[0]
	for _, d := range found[1:] {
		if d.To > best.To {
			best = d
		}
	}
	return best, true
}

// lastPair returns the last two swings with a defined RSI.
func lastPair(swings []int, rsi []float64) (int, int, bool) {
	var picked []int
	for i := len(swings) - 1; i >= 0 && len(picked) < 2; i-- {
		if models.Defined(rsi[swings[i]]) {
			picked = append(picked, swings[i])
		}
	}
	if len(picked) < 2 {
		return 0, 0, false
	}
	return picked[1], picked[0], true
}

// findSwingPoints returns indices of bars whose high (low) is not exceeded
// by the strength bars on either side.
func findSwingPoints(candles models.Series, start, strength int) ([]int, []int) {
	var swingHighs, swingLows []int
	if start < strength {
		start = strength
	}

	for i := start; i < len(candles)-strength; i++ {
		isHigh, isLow := true, true
		for j := i - strength; j <= i+strength; j++ {
			if j == i {
				continue
			}
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			swingHighs = append(swingHighs, i)
		}
		if isLow {
			swingLows = append(swingLows, i)
		}
	}
	return swingHighs, swingLows
}
