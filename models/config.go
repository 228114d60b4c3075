package models

import "time"

// AnalysisConfig holds every tunable of the analysis pipeline.
// It is passed by value into each component and never mutated after load.
type AnalysisConfig struct {
	Indicators IndicatorConfig `yaml:"indicators"`
	Patterns   PatternConfig   `yaml:"patterns"`
	VTI        VTIConfig       `yaml:"vti"`
	Risk       RiskConfig      `yaml:"risk"`
}

// IndicatorConfig contains indicator windows and oscillator bounds
type IndicatorConfig struct {
	RSIPeriod        int     `yaml:"rsi_period" default:"14" validate:"gte=2"`
	MACDFastPeriod   int     `yaml:"macd_fast_period" default:"12" validate:"gte=2"`
	MACDSlowPeriod   int     `yaml:"macd_slow_period" default:"26" validate:"gte=2"`
	MACDSignalPeriod int     `yaml:"macd_signal_period" default:"9" validate:"gte=1"`
	BBPeriod         int     `yaml:"bb_period" default:"20" validate:"gte=2"`
	BBStdDev         float64 `yaml:"bb_std_dev" default:"2" validate:"gt=0"`
	ATRPeriod        int     `yaml:"atr_period" default:"14" validate:"gte=1"`
	EMAFastPeriod    int     `yaml:"ema_fast_period" default:"20" validate:"gte=2"`
	EMAMidPeriod     int     `yaml:"ema_mid_period" default:"50" validate:"gte=2"`
	EMASlowPeriod    int     `yaml:"ema_slow_period" default:"200" validate:"gte=2"`
	VolumeMAPeriod   int     `yaml:"volume_ma_period" default:"20" validate:"gte=1"`
	StochKPeriod     int     `yaml:"stoch_k_period" default:"14" validate:"gte=1"`
	StochDPeriod     int     `yaml:"stoch_d_period" default:"3" validate:"gte=1"`

	RSIOverbought   float64 `yaml:"rsi_overbought" default:"70" validate:"gt=0,lt=100"`
	RSIOversold     float64 `yaml:"rsi_oversold" default:"30" validate:"gt=0,lt=100"`
	StochOverbought float64 `yaml:"stoch_overbought" default:"80" validate:"gt=0,lt=100"`
	StochOversold   float64 `yaml:"stoch_oversold" default:"20" validate:"gt=0,lt=100"`
}

// PatternConfig drives the pattern, level and volatility classifiers
type PatternConfig struct {
	Window           int     `yaml:"window" default:"10" validate:"gte=2"`
	ImpulseUpRatio   float64 `yaml:"impulse_up_ratio" default:"0.7" validate:"gt=0,lte=1"`
	ImpulseDownRatio float64 `yaml:"impulse_down_ratio" default:"0.3" validate:"gte=0,lt=1"`

	LevelWindow  int `yaml:"level_window" default:"100" validate:"gte=1"`
	LevelMinBars int `yaml:"level_min_bars" default:"50" validate:"gte=1"`
	MaxLevels    int `yaml:"max_levels" default:"3" validate:"gte=1"`

	VolatilityLookback int     `yaml:"volatility_lookback" default:"20" validate:"gte=1"`
	HighVolatilityATR  float64 `yaml:"high_volatility_atr" default:"1.5" validate:"gt=0"`
	LowVolatilityATR   float64 `yaml:"low_volatility_atr" default:"0.7" validate:"gt=0"`

	VolumeSpikeRatio float64 `yaml:"volume_spike_ratio" default:"1.5" validate:"gt=0"`
}

// VTIConfig holds pillar thresholds, scoring weights and the confidence table
type VTIConfig struct {
	MacroThreshold      int `yaml:"macro_threshold" default:"50" validate:"gte=0,lte=100"`
	StructureThreshold  int `yaml:"structure_threshold" default:"60" validate:"gte=0,lte=100"`
	TemporalThreshold   int `yaml:"temporal_threshold" default:"60" validate:"gte=0,lte=100"`
	ValidationThreshold int `yaml:"validation_threshold" default:"2" validate:"gte=0,lte=3"`

	// Confidence percentage indexed by aggregate score 0..3.
	Confidence []int `yaml:"confidence" default:"[25,40,65,85]" validate:"len=4,dive,gte=0,lte=100"`

	StrongVolumeRatio  float64 `yaml:"strong_volume_ratio" default:"1.2" validate:"gt=0"`
	HealthyVolumeRatio float64 `yaml:"healthy_volume_ratio" default:"1.0" validate:"gt=0"`

	EventWindow           time.Duration `yaml:"event_window" default:"6h" validate:"gt=0"`
	EventPenalty          int           `yaml:"event_penalty" default:"20" validate:"gte=0"`
	MaxEventPenalty       int           `yaml:"max_event_penalty" default:"40" validate:"gte=0"`
	CleanCalendarBonus    int           `yaml:"clean_calendar_bonus" default:"10" validate:"gte=0"`
	HighVolatilityPenalty int           `yaml:"high_volatility_penalty" default:"10" validate:"gte=0"`
	ElevatedRiskPenalty   int           `yaml:"elevated_risk_penalty" default:"5" validate:"gte=0"`
}

// ConfidenceFor maps an aggregate score to its confidence percentage.
func (c VTIConfig) ConfidenceFor(score int) int {
	if len(c.Confidence) == 0 {
		return 0
	}
	if score < 0 {
		score = 0
	}
	if score >= len(c.Confidence) {
		score = len(c.Confidence) - 1
	}
	return c.Confidence[score]
}

// RiskConfig holds account sizing and stop/target rules. Percentages are
// expressed as percent (1.5 means 1.5%).
type RiskConfig struct {
	AccountBalance      float64   `yaml:"account_balance" default:"10000" validate:"gt=0"`
	RiskPercent         float64   `yaml:"risk_percent" default:"1.5" validate:"gt=0,lte=100"`
	MaxPositionPercent  float64   `yaml:"max_position_percent" default:"2" validate:"gt=0,lte=100"`
	MinRiskReward       float64   `yaml:"min_risk_reward" default:"1.5" validate:"gte=0"`
	StopBufferPercent   float64   `yaml:"stop_buffer_percent" default:"0.2" validate:"gte=0,lt=100"`
	ATRMultiplier       float64   `yaml:"atr_multiplier" default:"1.5" validate:"gt=0"`
	TakeProfitMultiples []float64 `yaml:"take_profit_multiples" default:"[1.5,2.5,4.0]" validate:"len=3,dive,gt=0"`
}

// DefaultAnalysisConfig returns the built-in parameter set.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Indicators: IndicatorConfig{
			RSIPeriod:        14,
			MACDFastPeriod:   12,
			MACDSlowPeriod:   26,
			MACDSignalPeriod: 9,
			BBPeriod:         20,
			BBStdDev:         2,
			ATRPeriod:        14,
			EMAFastPeriod:    20,
			EMAMidPeriod:     50,
			EMASlowPeriod:    200,
			VolumeMAPeriod:   20,
			StochKPeriod:     14,
			StochDPeriod:     3,
			RSIOverbought:    70,
			RSIOversold:      30,
			StochOverbought:  80,
			StochOversold:    20,
		},
		Patterns: PatternConfig{
			Window:             10,
			ImpulseUpRatio:     0.7,
			ImpulseDownRatio:   0.3,
			LevelWindow:        100,
			LevelMinBars:       50,
			MaxLevels:          3,
			VolatilityLookback: 20,
			HighVolatilityATR:  1.5,
			LowVolatilityATR:   0.7,
			VolumeSpikeRatio:   1.5,
		},
		VTI: VTIConfig{
			MacroThreshold:        50,
			StructureThreshold:    60,
			TemporalThreshold:     60,
			ValidationThreshold:   2,
			Confidence:            []int{25, 40, 65, 85},
			StrongVolumeRatio:     1.2,
			HealthyVolumeRatio:    1.0,
			EventWindow:           6 * time.Hour,
			EventPenalty:          20,
			MaxEventPenalty:       40,
			CleanCalendarBonus:    10,
			HighVolatilityPenalty: 10,
			ElevatedRiskPenalty:   5,
		},
		Risk: RiskConfig{
			AccountBalance:      10000,
			RiskPercent:         1.5,
			MaxPositionPercent:  2,
			MinRiskReward:       1.5,
			StopBufferPercent:   0.2,
			ATRMultiplier:       1.5,
			TakeProfitMultiples: []float64{1.5, 2.5, 4.0},
		},
	}
}
