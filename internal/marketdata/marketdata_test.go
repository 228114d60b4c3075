package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alias1177/oracle/models"
)

const twelveBody = `{
  "meta": {"symbol": "EUR/USD", "interval": "1h"},
  "values": [
    {"datetime": "2024-03-01 12:00:00", "open": "1.0830", "high": "1.0850", "low": "1.0820", "close": "1.0845", "volume": "1200"},
    {"datetime": "2024-03-01 11:00:00", "open": "1.0810", "high": "1.0835", "low": "1.0805", "close": "1.0830"},
    {"datetime": "not a date", "open": "1.0", "high": "1.0", "low": "1.0", "close": "1.0"},
    {"datetime": "2024-03-01 10:00:00", "open": "abc", "high": "1.0", "low": "1.0", "close": "1.0"},
    {"datetime": "2024-03-01 09:00:00", "open": "1.08", "high": "1.07", "low": "1.09", "close": "1.08"}
  ],
  "status": "ok"
}`

func TestTwelveDataCandles(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		body      string
		status    int
		wantBars  int
		wantErr   bool
		errTarget error
	}{
		{name: "parses and skips malformed rows", apiKey: "k", body: twelveBody, status: 200, wantBars: 2},
		{name: "api error payload", apiKey: "k", body: `{"code":400,"message":"bad symbol","status":"error"}`, status: 200, wantErr: true},
		{name: "empty values", apiKey: "k", body: `{"values":[],"status":"ok"}`, status: 200, wantErr: true, errTarget: ErrEmptySeries},
		{name: "missing api key", apiKey: "", body: twelveBody, status: 200, wantErr: true, errTarget: ErrNoAPIKey},
		{name: "client error status", apiKey: "k", body: `{}`, status: 401, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/time_series" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.URL.Query().Get("apikey") != tt.apiKey {
					t.Errorf("apikey = %q", r.URL.Query().Get("apikey"))
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			td := NewTwelveData(TwelveDataOptions{APIKey: tt.apiKey, BaseURL: srv.URL, RequestsPerSec: 100, RequestTimeout: time.Second})
			series, err := td.Candles(context.Background(), "EUR/USD", "1h", 10)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.errTarget != nil && !errors.Is(err, tt.errTarget) {
					t.Errorf("err = %v, want %v", err, tt.errTarget)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(series) != tt.wantBars {
				t.Fatalf("got %d bars, want %d", len(series), tt.wantBars)
			}
			if !series[0].Timestamp.Before(series[1].Timestamp) {
				t.Error("series must be oldest first")
			}
			if series[1].Volume != 1200 || series[0].Volume != 0 {
				t.Errorf("volumes = %v, %v", series[0].Volume, series[1].Volume)
			}
		})
	}
}

func TestAlphaVantageCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "FX_INTRADAY" || q.Get("interval") != "60min" || q.Get("from_symbol") != "EUR" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"Time Series FX (60min)": {
			"2024-03-01 12:00:00": {"1. open": "1.0830", "2. high": "1.0850", "3. low": "1.0820", "4. close": "1.0845"},
			"2024-03-01 11:00:00": {"1. open": "1.0810", "2. high": "1.0835", "3. low": "1.0805", "4. close": "1.0830"},
			"2024-03-01 10:00:00": {"1. open": "1.0800", "2. high": "1.0815", "3. low": "1.0795", "4. close": "1.0810"}
		}}`))
	}))
	defer srv.Close()

	av := NewAlphaVantage("k", srv.URL, time.Second)
	series, err := av.Candles(context.Background(), "EUR/USD", "1h", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 || series[1].Close != 1.0845 {
		t.Errorf("series = %+v", series)
	}

	if _, err := av.Candles(context.Background(), "XAUUSD", "1h", 2); err == nil {
		t.Error("expected error for a non-pair symbol")
	}
}

func TestParseBars(t *testing.T) {
	const stamp = "2024-03-01 12:00:00"
	row := func(o, h, l, c string) twelveValue {
		return twelveValue{Datetime: stamp, Open: o, High: h, Low: l, Close: c}
	}

	tests := []struct {
		name     string
		value    twelveValue
		wantSkip string
	}{
		{name: "valid", value: row("1.08", "1.09", "1.07", "1.085")},
		{name: "nan prices", value: row("NaN", "NaN", "NaN", "NaN"), wantSkip: "bad_price"},
		{name: "infinite high", value: row("1.08", "+Inf", "1.07", "1.085"), wantSkip: "bad_price"},
		{name: "negative infinity close", value: row("1.08", "1.09", "1.07", "-Inf"), wantSkip: "bad_price"},
		{name: "zero open", value: row("0", "1.09", "1.07", "1.085"), wantSkip: "bad_price"},
		{name: "nan volume", value: twelveValue{Datetime: stamp, Open: "1.08", High: "1.09", Low: "1.07", Close: "1.085", Volume: "NaN"}, wantSkip: "bad_volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTwelveValue(tt.value)
			if got.skip != tt.wantSkip {
				t.Errorf("twelve skip = %q, want %q", got.skip, tt.wantSkip)
			}

			if tt.value.Volume != "" {
				return
			}
			alpha := parseAlphaRow(stamp, map[string]string{
				"1. open": tt.value.Open, "2. high": tt.value.High, "3. low": tt.value.Low, "4. close": tt.value.Close,
			})
			if alpha.skip != tt.wantSkip {
				t.Errorf("alpha skip = %q, want %q", alpha.skip, tt.wantSkip)
			}
		})
	}
}

type fakeProvider struct {
	name   string
	series models.Series
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Candles(ctx context.Context, symbol, interval string, count int) (models.Series, error) {
	f.calls++
	return f.series, f.err
}

func bars(n int) models.Series {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.Series, n)
	for i := range out {
		out[i] = models.Candle{Timestamp: t0.Add(time.Duration(i) * time.Hour), Open: 1, High: 1, Low: 1, Close: 1}
	}
	return out
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		providers []*fakeProvider
		wantBars  int
		wantErr   error
		wantCalls []int
	}{
		{
			name:      "first success wins",
			providers: []*fakeProvider{{name: "a", series: bars(3)}, {name: "b", series: bars(5)}},
			wantBars:  3,
			wantCalls: []int{1, 0},
		},
		{
			name:      "falls back on error",
			providers: []*fakeProvider{{name: "a", err: boom}, {name: "b", series: bars(5)}},
			wantBars:  5,
			wantCalls: []int{1, 1},
		},
		{
			name:      "empty series counts as failure",
			providers: []*fakeProvider{{name: "a"}, {name: "b", series: bars(2)}},
			wantBars:  2,
			wantCalls: []int{1, 1},
		},
		{
			name:      "all fail",
			providers: []*fakeProvider{{name: "a", err: boom}, {name: "b"}},
			wantErr:   boom,
			wantCalls: []int{1, 1},
		},
		{
			name:    "no providers",
			wantErr: ErrNoProviders,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var providers []models.CandleProvider
			for _, p := range tt.providers {
				providers = append(providers, p)
			}

			series, err := NewChain(providers...).Candles(context.Background(), "EUR/USD", "1h", 10)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(series) != tt.wantBars {
				t.Errorf("got %d bars, want %d", len(series), tt.wantBars)
			}
			for i, p := range tt.providers {
				if p.calls != tt.wantCalls[i] {
					t.Errorf("provider %s calls = %d, want %d", p.name, p.calls, tt.wantCalls[i])
				}
			}
		})
	}
}

type intervalProvider map[string]error

func (p intervalProvider) Name() string { return "intervals" }

func (p intervalProvider) Candles(ctx context.Context, symbol, interval string, count int) (models.Series, error) {
	if err := p[interval]; err != nil {
		return nil, err
	}
	return bars(count), nil
}

func TestFetchInstrument(t *testing.T) {
	intervals := Intervals{models.Primary: "15min", models.Secondary: "1h", models.Tertiary: "4h"}
	down := errors.New("down")

	data, err := FetchInstrument(context.Background(), intervalProvider{"4h": down}, "EUR/USD", intervals, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data[models.Primary]) != 50 || len(data[models.Secondary]) != 50 {
		t.Errorf("primary/secondary = %d/%d bars", len(data[models.Primary]), len(data[models.Secondary]))
	}
	if _, ok := data[models.Tertiary]; ok {
		t.Error("failed tertiary fetch must leave the timeframe absent")
	}

	_, err = FetchInstrument(context.Background(), intervalProvider{"15min": down}, "EUR/USD", intervals, 50)
	if !errors.Is(err, down) {
		t.Errorf("err = %v, want primary failure", err)
	}
}
