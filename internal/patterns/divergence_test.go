package patterns

import (
	"math"
	"testing"
)

// twoPeaks has swing highs at 5 and 15 and swing lows at 10 and 20.
func twoPeaks(secondPeak, secondTrough float64) []float64 {
	closes := []float64{100, 102, 104, 106, 108, 110, 108, 106, 104, 102, 100}
	for i := 1; i <= 5; i++ {
		closes = append(closes, 100+float64(i)*(secondPeak-100)/5)
	}
	for i := 4; i >= 0; i-- {
		closes = append(closes, secondTrough+float64(i)*(secondPeak-secondTrough)/5)
	}
	return append(closes, secondTrough+2, secondTrough+4, secondTrough+6)
}

func flatRSI(n int) []float64 {
	rsi := make([]float64, n)
	for i := range rsi {
		rsi[i] = 50
	}
	rsi[0], rsi[1], rsi[2] = math.NaN(), math.NaN(), math.NaN()
	return rsi
}

func TestDetectDivergence(t *testing.T) {
	tests := []struct {
		name      string
		closes    []float64
		rsiAt     map[int]float64
		wantFound bool
		want      Divergence
	}{
		{
			name:      "regular bearish",
			closes:    twoPeaks(112, 100),
			rsiAt:     map[int]float64{5: 70, 15: 60},
			wantFound: true,
			want:      Divergence{Kind: "REGULAR", From: 5, To: 15},
		},
		{
			name:      "hidden bearish",
			closes:    twoPeaks(108, 100),
			rsiAt:     map[int]float64{5: 60, 15: 70},
			wantFound: true,
			want:      Divergence{Kind: "HIDDEN", From: 5, To: 15},
		},
		{
			name:      "hidden bullish",
			closes:    twoPeaks(112, 101),
			rsiAt:     map[int]float64{10: 40, 20: 30},
			wantFound: true,
			want:      Divergence{Kind: "HIDDEN", Bullish: true, From: 10, To: 20},
		},
		{
			name:      "most recent swing wins",
			closes:    twoPeaks(112, 98),
			rsiAt:     map[int]float64{5: 70, 15: 60, 10: 30, 20: 40},
			wantFound: true,
			want:      Divergence{Kind: "REGULAR", Bullish: true, From: 10, To: 20},
		},
		{
			name:   "price and rsi agree",
			closes: twoPeaks(112, 98),
			rsiAt:  map[int]float64{5: 60, 15: 70, 10: 40, 20: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := closesSeries(tt.closes...)
			rsi := flatRSI(len(candles))
			for i, v := range tt.rsiAt {
				rsi[i] = v
			}

			got, ok := DetectDivergence(candles, rsi)
			if ok != tt.wantFound {
				t.Fatalf("found = %v (%+v), want %v", ok, got, tt.wantFound)
			}
			if ok && got != tt.want {
				t.Errorf("divergence = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, ok := DetectDivergence(closesSeries(twoPeaks(112, 100)...), flatRSI(5)); ok {
		t.Error("mismatched rsi length must not report a divergence")
	}
}

func TestDivergenceString(t *testing.T) {
	d := Divergence{Kind: "HIDDEN", Bullish: true}
	if got := d.String(); got != "bullish hidden divergence (price vs RSI)" {
		t.Errorf("String() = %q", got)
	}
}
