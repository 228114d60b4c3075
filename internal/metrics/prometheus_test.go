package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Alias1177/oracle/models"
)

func TestRecordSignal(t *testing.T) {
	r := New(prometheus.NewRegistry())

	s := &models.Signal{
		Instrument: models.Instrument{Symbol: "EUR/USD"},
		Direction:  models.Buy,
		VTI: models.VTIReport{
			Macro:     models.PillarResult{Name: "MACRO_BIAS", Valid: true},
			Structure: models.PillarResult{Name: "STRUCTURAL_FLOW", Valid: false},
			Temporal:  models.PillarResult{Name: "TEMPORAL_FUNDAMENTAL", Valid: true},
			Score:     72,
		},
	}
	r.RecordSignal(s)
	r.RecordSignal(s)

	if got := testutil.ToFloat64(r.signals.WithLabelValues("EUR/USD", "BUY")); got != 2 {
		t.Errorf("signals = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.vtiScore.WithLabelValues("EUR/USD")); got != 72 {
		t.Errorf("vti score = %v, want 72", got)
	}
	if got := testutil.ToFloat64(r.pillarValid.WithLabelValues("EUR/USD", "STRUCTURAL_FLOW")); got != 0 {
		t.Errorf("structural flow = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.pillarValid.WithLabelValues("EUR/USD", "MACRO_BIAS")); got != 1 {
		t.Errorf("macro bias = %v, want 1", got)
	}
}

func TestRecordCalendarRefresh(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordCalendarRefresh(time.Second, nil)
	r.RecordCalendarRefresh(time.Second, errors.New("down"))
	r.RecordCalendarRefresh(time.Second, errors.New("down"))
	r.RecordError("fetch")

	if got := testutil.ToFloat64(r.calendarRefresh.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.calendarRefresh.WithLabelValues("error")); got != 2 {
		t.Errorf("error = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("fetch")); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.latency); got != 1 {
		t.Errorf("latency series = %d, want 1", got)
	}
}
