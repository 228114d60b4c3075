// Package notify delivers signals to Telegram, Kafka and the log.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

// Multi fans a signal out to every notifier. One failing sink does not stop the others.
type Multi []models.Notifier

// Notify implements models.Notifier
func (m Multi) Notify(ctx context.Context, s *models.Signal) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes a one-line summary of each signal.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log notifier.
func NewLog() *Log {
	return &Log{logger: log.With().Str("component", "signal_log").Logger()}
}

// Notify implements models.Notifier
func (l *Log) Notify(_ context.Context, s *models.Signal) error {
	event := l.logger.Info().
		Str("id", s.ID).
		Str("symbol", s.Instrument.Symbol).
		Str("direction", string(s.Direction)).
		Float64("price", s.Price).
		Int("vti_score", s.VTI.Score).
		Str("vti_status", string(s.VTI.Status)).
		Str("risk_level", string(s.RiskLevel))
	if s.Risk != nil {
		event = event.Float64("stop_loss", s.Risk.StopLoss).Float64("position_size", s.Risk.PositionSize)
	}
	event.Msg("Signal")
	return nil
}
