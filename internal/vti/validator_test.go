package vti

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Alias1177/oracle/internal/calculate"
	"github.com/Alias1177/oracle/models"
)

type fakeCalendar struct {
	events    []models.CalendarEvent
	err       error
	sentiment models.Sentiment
}

func (f fakeCalendar) HasUpcomingHighImpactEvent(models.Instrument, time.Duration) (bool, []models.CalendarEvent, error) {
	if f.err != nil {
		return false, nil, f.err
	}
	return len(f.events) > 0, f.events, nil
}

func (f fakeCalendar) MarketSentiment() (models.Sentiment, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.sentiment == "" {
		return models.SentimentNormal, nil
	}
	return f.sentiment, nil
}

var eurusd = models.Instrument{Symbol: "EUR/USD", Name: "Euro / US Dollar", Class: models.ClassForex, Currencies: []string{"EUR", "USD"}}

func snapshot(rsi, hist, stochK, volumeMA float64) models.IndicatorSnapshot {
	nan := math.NaN()
	return models.IndicatorSnapshot{
		RSI: rsi, MACD: nan, MACDSignal: nan, MACDHist: hist,
		BBUpper: nan, BBMiddle: nan, BBLower: nan, ATR: nan,
		EMAFast: nan, EMAMid: nan, EMASlow: nan,
		VolumeMA: volumeMA, StochK: stochK, StochD: nan,
	}
}

func frame(trend models.TrendLabel, rsi, hist, stochK, volume, volumeMA float64) Frame {
	return Frame{
		Available: true,
		Trend:     trend,
		Last:      snapshot(rsi, hist, stochK, volumeMA),
		Volume:    volume,
		Flow:      calculate.FlowAccumulation,
	}
}

func bullishFrames() Frames {
	return Frames{
		Primary:   frame(models.TrendUp, 55, 0.2, 65, 1300, 1000),
		Secondary: frame(models.TrendUp, 58, 0.3, 70, 1300, 1000),
		Tertiary:  frame(models.TrendUp, 60, 0.4, 75, 1300, 1000),
	}
}

func highImpact(title string) models.CalendarEvent {
	return models.CalendarEvent{Title: title, Country: "United States", Currency: "USD", Impact: models.ImpactHigh, Time: time.Date(2024, 3, 1, 13, 30, 0, 0, time.UTC)}
}

func TestMacroBias(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().VTI

	tests := []struct {
		name      string
		frame     Frame
		wantScore int
		wantValid bool
	}{
		{"decisive trend with strong volume", frame(models.TrendUp, 50, 0, 50, 1300, 1000), 70, true},
		{"decisive trend with healthy volume", frame(models.TrendDown, 50, 0, 50, 1050, 1000), 55, true},
		{"decisive trend with weak volume", frame(models.TrendUp, 50, 0, 50, 800, 1000), 40, false},
		{"sideways with strong volume", frame(models.TrendSideways, 50, 0, 50, 1300, 1000), 50, true},
		{"unknown trend", frame(models.TrendUnknown, 50, 0, 50, 1300, 1000), 30, false},
		{"undefined volume average", frame(models.TrendUp, 50, 0, 50, 1300, math.NaN()), 40, false},
		{"missing timeframe", Frame{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MacroBias(eurusd, tt.frame, cfg)
			if got.Score != tt.wantScore || got.Valid != tt.wantValid {
				t.Errorf("MacroBias() = score %d valid %v, want %d %v", got.Score, got.Valid, tt.wantScore, tt.wantValid)
			}
			if got.Name != MacroPillar {
				t.Errorf("Name = %q", got.Name)
			}
		})
	}
}

func TestMacroBiasRiskLine(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().VTI
	gold := models.Instrument{Symbol: "XAU/USD", Name: "Gold", Class: models.ClassMetal, SafeHaven: true}

	tests := []struct {
		name  string
		inst  models.Instrument
		trend models.TrendLabel
		want  string
	}{
		{"risk asset rising", eurusd, models.TrendUp, "RISK_ON"},
		{"risk asset falling", eurusd, models.TrendDown, "RISK_OFF"},
		{"safe haven rising", gold, models.TrendUp, "RISK_OFF"},
		{"safe haven falling", gold, models.TrendDown, "RISK_ON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MacroBias(tt.inst, frame(tt.trend, 50, 0, 50, 1300, 1000), cfg)
			if !containsPrefix(got.Rationale, tt.want) {
				t.Errorf("rationale %v lacks %s", got.Rationale, tt.want)
			}
			if got.Score != 70 {
				t.Errorf("bias must not change the score, got %d", got.Score)
			}
		})
	}
}

func containsPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestStructuralFlow(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().VTI

	tests := []struct {
		name      string
		frames    Frames
		wantScore int
	}{
		{"fully confirmed", bullishFrames(), 100},
		{
			name: "confirmed by tertiary only",
			frames: Frames{
				Primary:   frame(models.TrendDown, 45, -0.1, 50, 0, 0),
				Secondary: frame(models.TrendSideways, 50, 0, 50, 0, 0),
				Tertiary:  frame(models.TrendDown, 45, -0.1, 50, 0, 0),
			},
			wantScore: 100,
		},
		{
			name: "lone primary trend",
			frames: Frames{
				Primary: frame(models.TrendUp, 55, 0.2, 50, 0, 0),
			},
			wantScore: 75,
		},
		{
			name: "overbought rsi",
			frames: Frames{
				Primary:   frame(models.TrendUp, 75, 0.2, 50, 0, 0),
				Secondary: frame(models.TrendUp, 75, 0.2, 50, 0, 0),
			},
			wantScore: 75,
		},
		{
			name: "macd disagrees",
			frames: Frames{
				Primary:   frame(models.TrendUp, 55, -0.2, 50, 0, 0),
				Secondary: frame(models.TrendUp, 55, 0.2, 50, 0, 0),
			},
			wantScore: 75,
		},
		{
			name: "sideways primary",
			frames: Frames{
				Primary:   frame(models.TrendSideways, 55, 0.2, 50, 0, 0),
				Secondary: frame(models.TrendSideways, 55, 0.2, 50, 0, 0),
			},
			wantScore: 0,
		},
		{"primary missing", Frames{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StructuralFlow(tt.frames, cfg)
			if got.Score != tt.wantScore {
				t.Errorf("StructuralFlow() score = %d, want %d (%v)", got.Score, tt.wantScore, got.Rationale)
			}
			if got.Valid != (tt.wantScore >= cfg.StructureThreshold) {
				t.Errorf("Valid = %v", got.Valid)
			}
		})
	}
}

func TestStructuralFlowLabelsProxy(t *testing.T) {
	got := StructuralFlow(bullishFrames(), models.DefaultAnalysisConfig().VTI)
	if !containsPrefix(got.Rationale, "volume flow proxy (heuristic)") {
		t.Errorf("rationale %v lacks the flow proxy line", got.Rationale)
	}
}

func TestTemporalHarmony(t *testing.T) {
	all := models.DefaultAnalysisConfig()
	cfg, ind := all.VTI, all.Indicators

	tests := []struct {
		name      string
		frames    Frames
		calendar  models.Calendar
		wantScore int
	}{
		{"aligned, room, clean calendar", bullishFrames(), fakeCalendar{}, 80},
		{"one event", bullishFrames(), fakeCalendar{events: []models.CalendarEvent{highImpact("CPI")}}, 50},
		{"penalty capped", bullishFrames(), fakeCalendar{events: []models.CalendarEvent{highImpact("CPI"), highImpact("NFP"), highImpact("FOMC")}}, 30},
		{"calendar error is neutral", bullishFrames(), fakeCalendar{err: errors.New("timeout")}, 70},
		{"no calendar is neutral", bullishFrames(), nil, 70},
		{"high volatility sentiment", bullishFrames(), fakeCalendar{sentiment: models.SentimentHighVolatility}, 70},
		{"elevated risk sentiment", bullishFrames(), fakeCalendar{sentiment: models.SentimentElevatedRisk}, 75},
		{
			name: "fast timeframes only",
			frames: Frames{
				Primary:   frame(models.TrendUp, 55, 0.2, 65, 0, 0),
				Secondary: frame(models.TrendUp, 55, 0.2, 65, 0, 0),
				Tertiary:  frame(models.TrendSideways, 55, 0.2, 65, 0, 0),
			},
			calendar:  fakeCalendar{},
			wantScore: 60,
		},
		{
			name: "exhausted stochastic",
			frames: Frames{
				Primary:   frame(models.TrendUp, 55, 0.2, 95, 0, 0),
				Secondary: frame(models.TrendUp, 55, 0.2, 95, 0, 0),
				Tertiary:  frame(models.TrendUp, 55, 0.2, 95, 0, 0),
			},
			calendar:  fakeCalendar{},
			wantScore: 60,
		},
		{
			name: "nothing aligned and events",
			frames: Frames{
				Primary: frame(models.TrendSideways, 55, 0.2, 50, 0, 0),
			},
			calendar:  fakeCalendar{events: []models.CalendarEvent{highImpact("CPI"), highImpact("NFP")}},
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TemporalHarmony(eurusd, tt.frames, tt.calendar, ind, cfg)
			if got.Score != tt.wantScore {
				t.Errorf("TemporalHarmony() score = %d, want %d (%v)", got.Score, tt.wantScore, got.Rationale)
			}
			if got.Valid != (tt.wantScore >= cfg.TemporalThreshold) {
				t.Errorf("Valid = %v", got.Valid)
			}
		})
	}
}

func TestTemporalHarmonyCalendarUnavailableRationale(t *testing.T) {
	all := models.DefaultAnalysisConfig()
	got := TemporalHarmony(eurusd, bullishFrames(), fakeCalendar{err: errors.New("down")}, all.Indicators, all.VTI)
	if !containsPrefix(got.Rationale, "calendar unavailable") {
		t.Errorf("rationale %v", got.Rationale)
	}
}

func TestValidate(t *testing.T) {
	cfg := models.DefaultAnalysisConfig()

	tests := []struct {
		name       string
		frames     Frames
		calendar   models.Calendar
		wantScore  int
		wantStatus models.VTIStatus
	}{
		{"all pillars pass", bullishFrames(), fakeCalendar{}, 3, models.VTIValidated},
		{"calendar event drops temporal", bullishFrames(), fakeCalendar{events: []models.CalendarEvent{highImpact("NFP")}}, 2, models.VTIConditional},
		{"primary only", Frames{Primary: frame(models.TrendUp, 55, 0.2, 65, 1300, 1000)}, fakeCalendar{}, 1, models.VTIInvalid},
		{"nothing available", Frames{}, nil, 0, models.VTIInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewValidator(cfg, tt.calendar).Validate(eurusd, tt.frames)
			if report.Score != tt.wantScore || report.Status != tt.wantStatus {
				t.Errorf("Validate() = %d %s, want %d %s", report.Score, report.Status, tt.wantScore, tt.wantStatus)
			}
			if report.Confidence != cfg.VTI.Confidence[report.Score] {
				t.Errorf("Confidence = %d, want %d", report.Confidence, cfg.VTI.Confidence[report.Score])
			}
		})
	}
}

func TestAggregateProperties(t *testing.T) {
	cfg := models.DefaultAnalysisConfig().VTI
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	pillar := func(valid bool, score int) models.PillarResult {
		return models.PillarResult{Valid: valid, Score: score}
	}

	properties.Property("score equals count of valid pillars", prop.ForAll(
		func(a, b, c bool, sa, sb, sc int) bool {
			report := Aggregate(pillar(a, sa), pillar(b, sb), pillar(c, sc), cfg)
			want := 0
			for _, v := range []bool{a, b, c} {
				if v {
					want++
				}
			}
			return report.Score == want && report.Score >= 0 && report.Score <= 3
		},
		gen.Bool(), gen.Bool(), gen.Bool(),
		gen.IntRange(0, 100), gen.IntRange(0, 100), gen.IntRange(0, 100),
	))

	properties.Property("status follows score", prop.ForAll(
		func(a, b, c bool) bool {
			report := Aggregate(pillar(a, 0), pillar(b, 0), pillar(c, 0), cfg)
			switch report.Score {
			case 3:
				return report.Status == models.VTIValidated
			case 2:
				return report.Status == models.VTIConditional
			default:
				return report.Status == models.VTIInvalid
			}
		},
		gen.Bool(), gen.Bool(), gen.Bool(),
	))

	properties.Property("pillar scores stay within bounds", prop.ForAll(
		func(rsi, hist, stoch, volume float64, events int) bool {
			f := frame(models.TrendUp, rsi, hist, stoch, volume, 1000)
			frames := Frames{Primary: f, Secondary: f, Tertiary: f}
			evs := make([]models.CalendarEvent, events)
			for i := range evs {
				evs[i] = highImpact("event")
			}
			cal := fakeCalendar{events: evs, sentiment: models.SentimentHighVolatility}
			for _, p := range []models.PillarResult{
				MacroBias(eurusd, f, cfg),
				StructuralFlow(frames, cfg),
				TemporalHarmony(eurusd, frames, cal, models.DefaultAnalysisConfig().Indicators, cfg),
			} {
				if p.Score < 0 || p.Score > 100 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 100), gen.Float64Range(-1, 1), gen.Float64Range(0, 100),
		gen.Float64Range(0, 5000), gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
