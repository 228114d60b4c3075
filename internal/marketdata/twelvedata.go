package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/oracle/internal/platform/http"
	"github.com/Alias1177/oracle/models"
)

const twelveDataURL = "https://api.twelvedata.com"

var twelveDataLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// twelveResponse represents the time_series response from Twelve Data
type twelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []twelveValue `json:"values"`
	Status  string       `json:"status"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
}

type twelveValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// TwelveData is the Twelve Data candle provider
type TwelveData struct {
	apiKey  string
	baseURL string
	client  *httpClient.Client
	logger  zerolog.Logger
}

// TwelveDataOptions holds options for creating a TwelveData provider
type TwelveDataOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec float64
	MaxRetries     uint64
}

// NewTwelveData creates a new Twelve Data provider
func NewTwelveData(opts TwelveDataOptions) *TwelveData {
	base := opts.BaseURL
	if base == "" {
		base = twelveDataURL
	}
	return &TwelveData{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		client: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        opts.RequestTimeout,
			RequestsPerSec: opts.RequestsPerSec,
			MaxRetries:     opts.MaxRetries,
		}),
		logger: log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// Name implements models.CandleProvider
func (t *TwelveData) Name() string { return "twelvedata" }

// Candles fetches count bars of interval for symbol, oldest first.
func (t *TwelveData) Candles(ctx context.Context, symbol, interval string, count int) (models.Series, error) {
	if t.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("outputsize", strconv.Itoa(count))
	query.Set("timezone", "UTC")
	query.Set("apikey", t.apiKey)

	t.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("count", count).Msg("Fetching candles")

	body, err := t.client.GetJSONBody(ctx, t.baseURL+"/time_series", query)
	if err != nil {
		return nil, fmt.Errorf("twelvedata %s %s: %w", symbol, interval, err)
	}

	var data twelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing twelvedata response: %w", err)
	}
	if data.Status == "error" {
		return nil, fmt.Errorf("twelvedata API error %d: %s", data.Code, data.Message)
	}
	if len(data.Values) == 0 {
		return nil, ErrEmptySeries
	}

	candles := make([]models.Candle, 0, len(data.Values))
	skipped := map[string]int{}
	for _, v := range data.Values {
		parsed := parseTwelveValue(v)
		if parsed.skip != "" {
			skipped[parsed.skip]++
			continue
		}
		candles = append(candles, parsed.candle)
	}
	if len(skipped) > 0 {
		event := t.logger.Warn().Str("symbol", symbol)
		for reason, n := range skipped {
			event = event.Int(reason, n)
		}
		event.Msg("Skipped malformed bars")
	}
	if len(candles) == 0 {
		return nil, ErrEmptySeries
	}

	series := models.NewSeries(candles)
	t.logger.Debug().Int("count", len(series)).Msg("Fetched candles")
	return series, nil
}

// parsedBar is one vendor row: a candle or the reason it was skipped.
type parsedBar struct {
	candle models.Candle
	skip   string
}

func parseTwelveValue(v twelveValue) parsedBar {
	ts, ok := parseTwelveTime(v.Datetime)
	if !ok {
		return parsedBar{skip: "bad_datetime"}
	}

	var prices [4]float64
	for i, raw := range []string{v.Open, v.High, v.Low, v.Close} {
		p, ok := parsePrice(raw)
		if !ok {
			return parsedBar{skip: "bad_price"}
		}
		prices[i] = p
	}
	if prices[1] < prices[2] {
		return parsedBar{skip: "high_below_low"}
	}

	var volume float64
	if v.Volume != "" {
		vol, err := strconv.ParseFloat(v.Volume, 64)
		if err != nil || vol < 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
			return parsedBar{skip: "bad_volume"}
		}
		volume = vol
	}

	return parsedBar{candle: models.Candle{
		Timestamp: ts,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    volume,
	}}
}

// parsePrice accepts finite positive prices only. ParseFloat takes "NaN" and "Inf".
func parsePrice(raw string) (float64, bool) {
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return 0, false
	}
	return p, true
}

func parseTwelveTime(raw string) (time.Time, bool) {
	for _, layout := range twelveDataLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
