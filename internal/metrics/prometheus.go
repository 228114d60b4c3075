// Package metrics exposes pipeline counters and gauges for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Alias1177/oracle/models"
)

// Recorder records signal pipeline metrics.
type Recorder struct {
	signals         *prometheus.CounterVec
	vtiScore        *prometheus.GaugeVec
	pillarValid     *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
	calendarRefresh *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_signals_total",
				Help: "Signals produced by instrument and direction",
			},
			[]string{"symbol", "direction"},
		),
		vtiScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oracle_vti_score",
				Help: "Last VTI score per instrument",
			},
			[]string{"symbol"},
		),
		pillarValid: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oracle_vti_pillar_valid",
				Help: "1 when the pillar validated on the last evaluation",
			},
			[]string{"symbol", "pillar"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_errors_total",
				Help: "Errors by stage",
			},
			[]string{"stage"},
		),
		calendarRefresh: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_calendar_refresh_total",
				Help: "Calendar refresh attempts by result",
			},
			[]string{"result"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oracle_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records one produced signal.
func (r *Recorder) RecordSignal(s *models.Signal) {
	symbol := s.Instrument.Symbol
	r.signals.WithLabelValues(symbol, string(s.Direction)).Inc()
	r.vtiScore.WithLabelValues(symbol).Set(float64(s.VTI.Score))
	for _, p := range s.VTI.Pillars() {
		v := 0.0
		if p.Valid {
			v = 1
		}
		r.pillarValid.WithLabelValues(symbol, p.Name).Set(v)
	}
}

// RecordError records a failure in stage.
func (r *Recorder) RecordError(stage string) {
	r.errorsTotal.WithLabelValues(stage).Inc()
}

// RecordCalendarRefresh matches calendar.CacheOptions.OnRefresh.
func (r *Recorder) RecordCalendarRefresh(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.calendarRefresh.WithLabelValues(result).Inc()
	r.latency.WithLabelValues("calendar_refresh").Observe(took.Seconds())
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, took time.Duration) {
	r.latency.WithLabelValues(op).Observe(took.Seconds())
}
