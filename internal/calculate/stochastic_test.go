package calculate

import (
	"math"
	"testing"

	"github.com/Alias1177/oracle/models"
)

func TestStochastic(t *testing.T) {
	tests := []struct {
		name    string
		candles models.Series
		wantK   float64
		wantD   float64
	}{
		{
			name: "flat range",
			candles: generateTestCandles(20, func(i int) models.Candle {
				return models.Candle{Open: 100, High: 100, Low: 100, Close: 100}
			}),
			wantK: 50,
			wantD: 50,
		},
		{
			name: "close at the high",
			candles: generateTestCandles(20, func(i int) models.Candle {
				p := 100 + float64(i)
				return models.Candle{Open: p - 1, High: p, Low: p - 2, Close: p}
			}),
			wantK: 100,
			wantD: 100,
		},
		{
			name: "close at the low",
			candles: generateTestCandles(20, func(i int) models.Candle {
				p := 100 - float64(i)
				return models.Candle{Open: p + 1, High: p + 2, Low: p, Close: p}
			}),
			wantK: 0,
			wantD: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, d := Stochastic(tt.candles, 14, 3)
			last := len(k) - 1
			if math.Abs(k[last]-tt.wantK) > 1e-9 {
				t.Errorf("%%K = %v, want %v", k[last], tt.wantK)
			}
			if math.Abs(d[last]-tt.wantD) > 1e-9 {
				t.Errorf("%%D = %v, want %v", d[last], tt.wantD)
			}
		})
	}
}

func TestStochasticAlignment(t *testing.T) {
	// 14 flat bars then a rally: %K leaves 50 once the range opens.
	candles := generateTestCandles(20, func(i int) models.Candle {
		if i < 14 {
			return models.Candle{Open: 100, High: 100, Low: 100, Close: 100}
		}
		p := 100 + float64(i-13)
		return models.Candle{Open: p - 1, High: p, Low: p - 1, Close: p}
	})

	k, d := Stochastic(candles, 14, 3)
	if models.Defined(k[12]) || !models.Defined(k[13]) {
		t.Fatalf("%%K definedness at 12/13 = %v/%v", k[12], k[13])
	}
	if k[13] != 50 {
		t.Errorf("flat window %%K = %v, want 50", k[13])
	}
	if math.Abs(k[14]-100) > 1e-9 {
		t.Errorf("breakout %%K = %v, want 100", k[14])
	}
	if models.Defined(d[14]) || !models.Defined(d[15]) {
		t.Fatalf("%%D definedness at 14/15 = %v/%v", d[14], d[15])
	}
	if want := (k[13] + k[14] + k[15]) / 3; math.Abs(d[15]-want) > 1e-9 {
		t.Errorf("%%D = %v, want %v", d[15], want)
	}
}

func TestStochasticShortSeries(t *testing.T) {
	candles := risingCandles(5)
	k, d := Stochastic(candles, 14, 3)
	if len(k) != 5 || len(d) != 5 {
		t.Fatalf("lengths = %d/%d, want 5", len(k), len(d))
	}
	if !allUndefined(k) || !allUndefined(d) {
		t.Error("values should be undefined for a short series")
	}
}

func TestVolumeFlow(t *testing.T) {
	tests := []struct {
		name    string
		candles models.Series
		want    FlowBias
	}{
		{"rising on volume", risingCandles(30), FlowAccumulation},
		{
			name: "falling on volume",
			candles: generateTestCandles(30, func(i int) models.Candle {
				p := 100 - float64(i)*0.5
				return models.Candle{Open: p, High: p + 0.5, Low: p - 0.5, Close: p, Volume: 1000}
			}),
			want: FlowDistribution,
		},
		{
			name: "no volume",
			candles: generateTestCandles(30, func(i int) models.Candle {
				return models.Candle{Open: 100, High: 101, Low: 99, Close: 100}
			}),
			want: FlowUnknown,
		},
		{"too short", risingCandles(5), FlowUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := VolumeFlow(tt.candles, 10)
			if got != tt.want {
				t.Errorf("VolumeFlow() = %v, want %v", got, tt.want)
			}
		})
	}
}
