// Package risk derives stop-loss, take-profit targets and position size for a
// directional signal.
package risk

import (
	"errors"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

var (
	ErrNoDirection      = errors.New("risk: signal has no direction")
	ErrInvalidPrice     = errors.New("risk: invalid entry price")
	ErrNoStopDistance   = errors.New("risk: stop distance is not positive")
	ErrRiskRewardTooLow = errors.New("risk: reward to risk below minimum")
	ErrPositionTooSmall = errors.New("risk: position size rounds to zero")
)

// Manager builds risk plans from a fixed configuration.
type Manager struct {
	cfg    models.RiskConfig
	logger zerolog.Logger
}

// NewManager creates a risk manager.
func NewManager(cfg models.RiskConfig) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: log.With().Str("component", "risk").Logger(),
	}
}

// Plan returns the stop, three targets and sizing for a BUY or SELL at price.
// It rejects the trade when no positive stop distance exists or when the
// second target's reward:risk is below the configured minimum.
func (m *Manager) Plan(direction models.Direction, price, atr float64, levels models.LevelSet) (*models.RiskPlan, error) {
	if direction != models.Buy && direction != models.Sell {
		return nil, ErrNoDirection
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, ErrInvalidPrice
	}

	stop, fromLevel := DetermineStopLoss(direction, price, atr, levels, m.cfg)
	distance := price - stop
	if direction == models.Sell {
		distance = stop - price
	}
	if !(distance > 0) {
		return nil, ErrNoStopDistance
	}

	targets := TakeProfits(direction, price, stop, m.cfg.TakeProfitMultiples)
	if targets[1].RewardRisk < m.cfg.MinRiskReward {
		return nil, ErrRiskRewardTooLow
	}

	sizing := CalculatePositionSize(price, distance, m.cfg.AccountBalance, m.cfg.RiskPercent, m.cfg.MaxPositionPercent)
	if sizing.PositionSize <= 0 {
		return nil, ErrPositionTooSmall
	}

	m.logger.Debug().
		Str("direction", string(direction)).
		Float64("price", price).
		Float64("stop", stop).
		Bool("level_stop", fromLevel).
		Bool("capped", sizing.Capped).
		Msg("risk plan built")

	return &models.RiskPlan{
		StopLoss:      stop,
		StopDistance:  distance,
		TakeProfits:   targets,
		PositionSize:  sizing.PositionSize,
		PositionValue: sizing.PositionValue,
		RiskAmount:    sizing.RiskAmount,
		RiskPercent:   m.cfg.RiskPercent,
	}, nil
}
