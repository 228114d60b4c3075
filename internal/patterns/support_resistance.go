package patterns

import (
	"sort"

	"github.com/Alias1177/oracle/models"
)

// LocateLevels returns the highest distinct highs as resistances (descending)
// and the lowest distinct lows as supports (ascending) over the trailing window.
func LocateLevels(candles models.Series, cfg models.PatternConfig) models.LevelSet {
	if len(candles) < cfg.LevelMinBars || cfg.MaxLevels < 1 {
		return models.LevelSet{}
	}

	window := candles
	if cfg.LevelWindow > 0 && len(window) > cfg.LevelWindow {
		window = window[len(window)-cfg.LevelWindow:]
	}

	highs := distinct(window.Highs())
	sort.Sort(sort.Reverse(sort.Float64Slice(highs)))

	lows := distinct(window.Lows())
	sort.Float64s(lows)

	return models.LevelSet{
		Resistances: head(highs, cfg.MaxLevels),
		Supports:    head(lows, cfg.MaxLevels),
	}
}

func distinct(values []float64) []float64 {
	seen := make(map[float64]struct{}, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func head(values []float64, n int) []float64 {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
