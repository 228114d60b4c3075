package vti

import (
	"fmt"

	"github.com/Alias1177/oracle/models"
)

const (
	MacroPillar     = "MACRO_BIAS"
	StructurePillar = "STRUCTURAL_FLOW"
	TemporalPillar  = "TEMPORAL_FUNDAMENTAL"
)

// Score weights shared by the pillars.
const (
	decisiveTrendScore  = 40
	sidewaysTrendScore  = 20
	strongVolumeScore   = 30
	healthyVolumeScore  = 15
	confirmedTrendScore = 50
	lonePrimaryScore    = 25
	healthyRSIScore     = 25
	macdAgreementScore  = 25
	fullAlignmentScore  = 50
	fastAlignmentScore  = 30
	stochasticRoomScore = 20
)

// Healthy RSI bands per trend direction.
const (
	upRSILow    = 40.0
	upRSIHigh   = 70.0
	downRSILow  = 30.0
	downRSIHigh = 60.0
)

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func finish(name string, score, threshold int, rationale []string) models.PillarResult {
	score = clamp(score)
	return models.PillarResult{
		Name:      name,
		Valid:     score >= threshold,
		Score:     score,
		Rationale: rationale,
	}
}

// MacroBias scores the highest timeframe: trend decisiveness plus volume participation.
func MacroBias(inst models.Instrument, tertiary Frame, cfg models.VTIConfig) models.PillarResult {
	var rationale []string
	score := 0

	if !tertiary.Available {
		rationale = append(rationale, "tertiary timeframe unavailable")
		return finish(MacroPillar, score, cfg.MacroThreshold, rationale)
	}

	trend := tertiary.trendOf()
	switch {
	case trend.Decisive():
		score += decisiveTrendScore
		rationale = append(rationale, fmt.Sprintf("tertiary trend %s", trend))
	case trend == models.TrendSideways:
		score += sidewaysTrendScore
		rationale = append(rationale, "tertiary trend SIDEWAYS")
	default:
		rationale = append(rationale, "tertiary trend UNKNOWN")
	}

	if models.Defined(tertiary.Last.VolumeMA) && tertiary.Last.VolumeMA > 0 && tertiary.Volume > 0 {
		ratio := tertiary.Volume / tertiary.Last.VolumeMA
		switch {
		case ratio >= cfg.StrongVolumeRatio:
			score += strongVolumeScore
			rationale = append(rationale, fmt.Sprintf("volume %.2fx average (strong)", ratio))
		case ratio >= cfg.HealthyVolumeRatio:
			score += healthyVolumeScore
			rationale = append(rationale, fmt.Sprintf("volume %.2fx average", ratio))
		default:
			rationale = append(rationale, fmt.Sprintf("volume %.2fx average (weak)", ratio))
		}
	} else {
		rationale = append(rationale, "volume unavailable")
	}

	if bias := riskBias(inst, trend); bias != "" {
		rationale = append(rationale, bias)
	}

	return finish(MacroPillar, score, cfg.MacroThreshold, rationale)
}

// riskBias reads risk appetite from the instrument's safe-haven flag and trend.
func riskBias(inst models.Instrument, trend models.TrendLabel) string {
	if !trend.Decisive() {
		return ""
	}
	riskOff := (trend == models.TrendUp) == inst.SafeHaven
	if riskOff {
		return fmt.Sprintf("RISK_OFF bias (%s %s)", inst.DisplayName(), trend)
	}
	return fmt.Sprintf("RISK_ON bias (%s %s)", inst.DisplayName(), trend)
}

// StructuralFlow scores primary-trend confirmation and oscillator health.
func StructuralFlow(frames Frames, cfg models.VTIConfig) models.PillarResult {
	var rationale []string
	score := 0

	primary := frames.Primary
	if !primary.Available {
		rationale = append(rationale, "primary timeframe unavailable")
		return finish(StructurePillar, score, cfg.StructureThreshold, rationale)
	}

	trend := primary.trendOf()
	if !trend.Decisive() {
		rationale = append(rationale, fmt.Sprintf("primary trend %s, no structure", trend))
		rationale = append(rationale, flowLine(primary))
		return finish(StructurePillar, score, cfg.StructureThreshold, rationale)
	}

	switch {
	case frames.Secondary.trendOf() == trend:
		score += confirmedTrendScore
		rationale = append(rationale, fmt.Sprintf("primary %s confirmed by secondary", trend))
	case frames.Tertiary.trendOf() == trend:
		score += confirmedTrendScore
		rationale = append(rationale, fmt.Sprintf("primary %s confirmed by tertiary", trend))
	default:
		score += lonePrimaryScore
		rationale = append(rationale, fmt.Sprintf("primary %s unconfirmed by higher timeframes", trend))
	}

	rsi := primary.Last.RSI
	if models.Defined(rsi) {
		healthy := (trend == models.TrendUp && rsi > upRSILow && rsi < upRSIHigh) ||
			(trend == models.TrendDown && rsi > downRSILow && rsi < downRSIHigh)
		if healthy {
			score += healthyRSIScore
			rationale = append(rationale, fmt.Sprintf("RSI %.1f healthy", rsi))
		} else {
			rationale = append(rationale, fmt.Sprintf("RSI %.1f outside healthy band", rsi))
		}
	} else {
		rationale = append(rationale, "RSI undefined")
	}

	hist := primary.Last.MACDHist
	if models.Defined(hist) {
		if (trend == models.TrendUp && hist > 0) || (trend == models.TrendDown && hist < 0) {
			score += macdAgreementScore
			rationale = append(rationale, fmt.Sprintf("MACD histogram %.5f agrees", hist))
		} else {
			rationale = append(rationale, fmt.Sprintf("MACD histogram %.5f disagrees", hist))
		}
	} else {
		rationale = append(rationale, "MACD undefined")
	}

	rationale = append(rationale, flowLine(primary))
	return finish(StructurePillar, score, cfg.StructureThreshold, rationale)
}

func flowLine(f Frame) string {
	return fmt.Sprintf("volume flow proxy (heuristic): %s", f.Flow)
}

// TemporalHarmony scores cross-timeframe alignment, stochastic room and the calendar.
// A nil calendar or a calendar error leaves the score unadjusted.
func TemporalHarmony(inst models.Instrument, frames Frames, cal models.Calendar, ind models.IndicatorConfig, cfg models.VTIConfig) models.PillarResult {
	var rationale []string
	score := 0

	p, s, t := frames.Primary.trendOf(), frames.Secondary.trendOf(), frames.Tertiary.trendOf()
	switch {
	case p.Decisive() && p == s && s == t:
		score += fullAlignmentScore
		rationale = append(rationale, fmt.Sprintf("all timeframes %s", p))
	case p.Decisive() && p == s:
		score += fastAlignmentScore
		rationale = append(rationale, fmt.Sprintf("primary and secondary %s", p))
	default:
		rationale = append(rationale, "timeframes not aligned")
	}

	k := frames.Primary.Last.StochK
	if frames.Primary.Available && models.Defined(k) && p.Decisive() {
		if (p == models.TrendUp && k < ind.StochOverbought) || (p == models.TrendDown && k > ind.StochOversold) {
			score += stochasticRoomScore
			rationale = append(rationale, fmt.Sprintf("stochastic %.1f has room", k))
		} else {
			rationale = append(rationale, fmt.Sprintf("stochastic %.1f exhausted", k))
		}
	}

	if cal == nil {
		rationale = append(rationale, "calendar unavailable")
		return finish(TemporalPillar, score, cfg.TemporalThreshold, rationale)
	}

	has, events, err := cal.HasUpcomingHighImpactEvent(inst, cfg.EventWindow)
	switch {
	case err != nil:
		rationale = append(rationale, "calendar unavailable")
	case has:
		count := len(events)
		if count == 0 {
			count = 1
		}
		penalty := cfg.EventPenalty * count
		if penalty > cfg.MaxEventPenalty {
			penalty = cfg.MaxEventPenalty
		}
		score -= penalty
		rationale = append(rationale, fmt.Sprintf("%d high-impact event(s) within %s", count, cfg.EventWindow))
		for _, e := range events {
			rationale = append(rationale, fmt.Sprintf("event: %s (%s) at %s", e.Title, e.Country, e.Time.UTC().Format("2006-01-02 15:04 MST")))
		}
	default:
		score += cfg.CleanCalendarBonus
		rationale = append(rationale, fmt.Sprintf("no high-impact events within %s", cfg.EventWindow))
	}

	if err == nil {
		sentiment, serr := cal.MarketSentiment()
		switch {
		case serr != nil:
		case sentiment == models.SentimentHighVolatility:
			score -= cfg.HighVolatilityPenalty
			rationale = append(rationale, "market sentiment HIGH_VOLATILITY")
		case sentiment == models.SentimentElevatedRisk:
			score -= cfg.ElevatedRiskPenalty
			rationale = append(rationale, "market sentiment ELEVATED_RISK")
		}
	}

	return finish(TemporalPillar, score, cfg.TemporalThreshold, rationale)
}
