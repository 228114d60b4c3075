package models

import (
	"math"
	"sort"
	"time"
)

// Candle represents a single price candle
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// Series is an ordered run of candles for one timeframe, oldest first.
type Series []Candle

// NewSeries sorts candles by timestamp and drops duplicate timestamps.
// When two candles share a timestamp the later one in the input wins.
func NewSeries(candles []Candle) Series {
	if len(candles) == 0 {
		return nil
	}

	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make(Series, 0, len(sorted))
	for _, c := range sorted {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(c.Timestamp) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// Empty reports whether the series carries no candles.
func (s Series) Empty() bool {
	return len(s) == 0
}

// Last returns the most recent candle. Callers must check Empty first.
func (s Series) Last() Candle {
	return s[len(s)-1]
}

// Closes extracts close prices.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volumes.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Timeframe identifies one of the analysed bar intervals.
type Timeframe string

const (
	Primary   Timeframe = "primary"
	Secondary Timeframe = "secondary"
	Tertiary  Timeframe = "tertiary"
)

// Timeframes lists timeframes fastest first.
var Timeframes = []Timeframe{Primary, Secondary, Tertiary}

// MarketData maps timeframe to its series. Secondary and tertiary may be absent.
type MarketData map[Timeframe]Series

// Defined reports whether an indicator value is populated.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// IndicatorSet holds indicator values aligned index-for-index with a Series.
// Entries before an indicator's window is populated are NaN.
type IndicatorSet struct {
	RSI        []float64 `json:"rsi"`
	MACD       []float64 `json:"macd"`
	MACDSignal []float64 `json:"macd_signal"`
	MACDHist   []float64 `json:"macd_hist"`
	BBUpper    []float64 `json:"bb_upper"`
	BBMiddle   []float64 `json:"bb_middle"`
	BBLower    []float64 `json:"bb_lower"`
	ATR        []float64 `json:"atr"`
	EMAFast    []float64 `json:"ema_fast"`
	EMAMid     []float64 `json:"ema_mid"`
	EMASlow    []float64 `json:"ema_slow"`
	VolumeMA   []float64 `json:"volume_ma"`
	StochK     []float64 `json:"stoch_k"`
	StochD     []float64 `json:"stoch_d"`
}

// Len returns the number of bars covered.
func (s *IndicatorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.RSI)
}

// IndicatorSnapshot is the indicator state at a single bar.
type IndicatorSnapshot struct {
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	ATR        float64
	EMAFast    float64
	EMAMid     float64
	EMASlow    float64
	VolumeMA   float64
	StochK     float64
	StochD     float64
}

// At returns the snapshot at bar i; out of range yields all-undefined values.
func (s *IndicatorSet) At(i int) IndicatorSnapshot {
	if s == nil || i < 0 || i >= s.Len() {
		nan := math.NaN()
		return IndicatorSnapshot{nan, nan, nan, nan, nan, nan, nan, nan, nan, nan, nan, nan, nan, nan}
	}
	return IndicatorSnapshot{
		RSI:        s.RSI[i],
		MACD:       s.MACD[i],
		MACDSignal: s.MACDSignal[i],
		MACDHist:   s.MACDHist[i],
		BBUpper:    s.BBUpper[i],
		BBMiddle:   s.BBMiddle[i],
		BBLower:    s.BBLower[i],
		ATR:        s.ATR[i],
		EMAFast:    s.EMAFast[i],
		EMAMid:     s.EMAMid[i],
		EMASlow:    s.EMASlow[i],
		VolumeMA:   s.VolumeMA[i],
		StochK:     s.StochK[i],
		StochD:     s.StochD[i],
	}
}

// Last returns the snapshot of the most recent bar.
func (s *IndicatorSet) Last() IndicatorSnapshot {
	return s.At(s.Len() - 1)
}

// TrendLabel classifies EMA alignment.
type TrendLabel string

const (
	TrendUp       TrendLabel = "UP"
	TrendDown     TrendLabel = "DOWN"
	TrendSideways TrendLabel = "SIDEWAYS"
	TrendUnknown  TrendLabel = "UNKNOWN"
)

// Decisive reports whether the trend points one way.
func (t TrendLabel) Decisive() bool {
	return t == TrendUp || t == TrendDown
}

// PatternLabel classifies recent price action.
type PatternLabel string

const (
	PatternImpulseUp     PatternLabel = "IMPULSE_UP"
	PatternImpulseDown   PatternLabel = "IMPULSE_DOWN"
	PatternConsolidation PatternLabel = "CONSOLIDATION"
	PatternUnknown       PatternLabel = "UNKNOWN"
)

// VolatilityLabel classifies the current ATR against its recent average.
type VolatilityLabel string

const (
	VolatilityLow     VolatilityLabel = "LOW"
	VolatilityMedium  VolatilityLabel = "MEDIUM"
	VolatilityHigh    VolatilityLabel = "HIGH"
	VolatilityUnknown VolatilityLabel = "UNKNOWN"
)

// LevelSet holds support and resistance prices from a trailing window.
type LevelSet struct {
	Resistances []float64 `json:"resistances"` // descending
	Supports    []float64 `json:"supports"`    // ascending
}

// Empty reports whether no levels were located.
func (l LevelSet) Empty() bool {
	return len(l.Resistances) == 0 && len(l.Supports) == 0
}

// PillarResult is the verdict of a single VTI pillar.
type PillarResult struct {
	Name      string   `json:"name"`
	Valid     bool     `json:"valid"`
	Score     int      `json:"score"`
	Rationale []string `json:"rationale"`
}

// VTIStatus summarises the aggregate VTI score.
type VTIStatus string

const (
	VTIValidated   VTIStatus = "VALIDATED"
	VTIConditional VTIStatus = "CONDITIONAL"
	VTIInvalid     VTIStatus = "INVALID"
)

// VTIReport combines the three pillar verdicts.
type VTIReport struct {
	Macro      PillarResult `json:"macro"`
	Structure  PillarResult `json:"structure"`
	Temporal   PillarResult `json:"temporal"`
	Score      int          `json:"score"`
	Status     VTIStatus    `json:"status"`
	Confidence int          `json:"confidence"`
}

// Pillars returns the pillars in evaluation order.
func (r VTIReport) Pillars() []PillarResult {
	return []PillarResult{r.Macro, r.Structure, r.Temporal}
}

// Direction is the traded side.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	Flat Direction = "FLAT"
)

// TakeProfit is one profit target with its realised reward:risk.
type TakeProfit struct {
	Price      float64 `json:"price"`
	RewardRisk float64 `json:"reward_risk"`
}

// RiskPlan is the stop, targets and sizing attached to a tradable signal.
type RiskPlan struct {
	StopLoss      float64       `json:"stop_loss"`
	StopDistance  float64       `json:"stop_distance"`
	TakeProfits   [3]TakeProfit `json:"take_profits"`
	PositionSize  float64       `json:"position_size"`
	PositionValue float64       `json:"position_value"`
	RiskAmount    float64       `json:"risk_amount"`
	RiskPercent   float64       `json:"risk_percent"`
}

// RiskLevel grades a signal by VTI score and volatility.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Signal is the outcome of one evaluation cycle for one instrument.
type Signal struct {
	ID            string          `json:"id"`
	Instrument    Instrument      `json:"instrument"`
	Timestamp     time.Time       `json:"timestamp"`
	Price         float64         `json:"price"`
	Direction     Direction       `json:"direction"`
	Trend         TrendLabel      `json:"trend"`
	Pattern       PatternLabel    `json:"pattern"`
	Volatility    VolatilityLabel `json:"volatility"`
	Levels        LevelSet        `json:"levels"`
	Confirmations []string        `json:"confirmations"`
	VTI           VTIReport       `json:"vti"`
	Risk          *RiskPlan       `json:"risk,omitempty"`
	RiskLevel     RiskLevel       `json:"risk_level"`
}

// Actionable reports whether the signal carries a trade.
func (s *Signal) Actionable() bool {
	return s != nil && s.Direction != Flat && s.Risk != nil
}

// AssetClass groups instruments for macro bias.
type AssetClass string

const (
	ClassForex  AssetClass = "FOREX"
	ClassMetal  AssetClass = "METAL"
	ClassCrypto AssetClass = "CRYPTO"
	ClassIndex  AssetClass = "INDEX"
)

// Instrument is the metadata supplied alongside an instrument's series.
type Instrument struct {
	Symbol     string     `json:"symbol" yaml:"symbol" validate:"required"`
	Name       string     `json:"name" yaml:"name"`
	Class      AssetClass `json:"class" yaml:"class" validate:"omitempty,oneof=FOREX METAL CRYPTO INDEX"`
	SafeHaven  bool       `json:"safe_haven" yaml:"safe_haven"`
	Currencies []string   `json:"currencies" yaml:"currencies"`
}

// DisplayName returns Name, falling back to Symbol.
func (i Instrument) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Symbol
}

// Impact grades an economic calendar event.
type Impact string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"
)

// CalendarEvent is one scheduled economic release.
type CalendarEvent struct {
	Title    string    `json:"title"`
	Country  string    `json:"country"`
	Currency string    `json:"currency,omitempty"`
	Time     time.Time `json:"time"`
	Impact   Impact    `json:"impact"`
	Actual   string    `json:"actual,omitempty"`
	Forecast string    `json:"forecast,omitempty"`
	Previous string    `json:"previous,omitempty"`
}

// Sentiment is the calendar-wide risk flag.
type Sentiment string

const (
	SentimentNormal         Sentiment = "NORMAL"
	SentimentElevatedRisk   Sentiment = "ELEVATED_RISK"
	SentimentHighVolatility Sentiment = "HIGH_VOLATILITY"
)
