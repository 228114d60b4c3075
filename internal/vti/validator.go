// Package vti scores a multi-timeframe setup with three independent pillars
// (macro bias, structural flow, temporal-fundamental harmony) and aggregates
// them into a validation status.
package vti

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

// Validator runs the three pillars for one instrument.
type Validator struct {
	cfg      models.AnalysisConfig
	calendar models.Calendar
	logger   zerolog.Logger
}

// NewValidator creates a validator. A nil calendar is treated as unavailable.
func NewValidator(cfg models.AnalysisConfig, calendar models.Calendar) *Validator {
	return &Validator{
		cfg:      cfg,
		calendar: calendar,
		logger:   log.With().Str("component", "vti").Logger(),
	}
}

// Validate scores the frames. It never fails: missing inputs lower the affected pillar.
func (v *Validator) Validate(inst models.Instrument, frames Frames) models.VTIReport {
	macro := MacroBias(inst, frames.Tertiary, v.cfg.VTI)
	structure := StructuralFlow(frames, v.cfg.VTI)
	temporal := TemporalHarmony(inst, frames, v.calendar, v.cfg.Indicators, v.cfg.VTI)

	report := Aggregate(macro, structure, temporal, v.cfg.VTI)

	v.logger.Debug().
		Str("symbol", inst.Symbol).
		Int("macro", macro.Score).
		Int("structure", structure.Score).
		Int("temporal", temporal.Score).
		Int("score", report.Score).
		Str("status", string(report.Status)).
		Msg("vti evaluated")

	return report
}

// Aggregate counts valid pillars and maps the count to status and confidence.
func Aggregate(macro, structure, temporal models.PillarResult, cfg models.VTIConfig) models.VTIReport {
	report := models.VTIReport{
		Macro:     macro,
		Structure: structure,
		Temporal:  temporal,
	}

	for _, p := range report.Pillars() {
		if p.Valid {
			report.Score++
		}
	}

	switch {
	case report.Score == 3:
		report.Status = models.VTIValidated
	case report.Score == 2:
		report.Status = models.VTIConditional
	default:
		report.Status = models.VTIInvalid
	}
	report.Confidence = cfg.ConfidenceFor(report.Score)

	return report
}
