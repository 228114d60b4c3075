package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/oracle/internal/platform/http"
	"github.com/Alias1177/oracle/models"
)

const alphaVantageURL = "https://www.alphavantage.co/query"

var alphaIntraday = map[string]string{
	"1min":  "1min",
	"5min":  "5min",
	"15min": "15min",
	"30min": "30min",
	"1h":    "60min",
}

// AlphaVantage serves FX bars from the Alpha Vantage FX endpoints. Volume is not provided.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *httpClient.Client
	logger  zerolog.Logger
}

// NewAlphaVantage creates an Alpha Vantage provider. An empty baseURL selects the public endpoint.
func NewAlphaVantage(apiKey, baseURL string, timeout time.Duration) *AlphaVantage {
	if baseURL == "" {
		baseURL = alphaVantageURL
	}
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        timeout,
			RequestsPerSec: 1,
			MaxRetries:     2,
		}),
		logger: log.With().Str("component", "alphavantage_client").Logger(),
	}
}

// Name implements models.CandleProvider
func (a *AlphaVantage) Name() string { return "alphavantage" }

// Candles implements models.CandleProvider for FX pairs written as "EUR/USD".
func (a *AlphaVantage) Candles(ctx context.Context, symbol, interval string, count int) (models.Series, error) {
	if a.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	from, to, ok := strings.Cut(symbol, "/")
	if !ok || len(from) != 3 || len(to) != 3 {
		return nil, fmt.Errorf("alphavantage: %q is not an FX pair", symbol)
	}

	query := url.Values{}
	query.Set("from_symbol", from)
	query.Set("to_symbol", to)
	query.Set("outputsize", "full")
	query.Set("apikey", a.apiKey)

	var key string
	if av, ok := alphaIntraday[interval]; ok {
		query.Set("function", "FX_INTRADAY")
		query.Set("interval", av)
		key = fmt.Sprintf("Time Series FX (%s)", av)
	} else if interval == "1day" {
		query.Set("function", "FX_DAILY")
		key = "Time Series FX (Daily)"
	} else {
		return nil, fmt.Errorf("alphavantage: unsupported interval %q", interval)
	}

	body, err := a.client.GetJSONBody(ctx, a.baseURL, query)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s %s: %w", symbol, interval, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing alphavantage response: %w", err)
	}
	if msg, ok := raw["Error Message"]; ok {
		return nil, fmt.Errorf("alphavantage API error: %s", msg)
	}

	var rows map[string]map[string]string
	if err := json.Unmarshal(raw[key], &rows); err != nil || len(rows) == 0 {
		return nil, ErrEmptySeries
	}

	candles := make([]models.Candle, 0, len(rows))
	skipped := 0
	for stamp, row := range rows {
		parsed := parseAlphaRow(stamp, row)
		if parsed.skip != "" {
			skipped++
			continue
		}
		candles = append(candles, parsed.candle)
	}
	if skipped > 0 {
		a.logger.Warn().Str("symbol", symbol).Int("skipped", skipped).Msg("Skipped malformed bars")
	}

	series := models.NewSeries(candles)
	if count > 0 && len(series) > count {
		series = series[len(series)-count:]
	}
	if series.Empty() {
		return nil, ErrEmptySeries
	}
	return series, nil
}

func parseAlphaRow(stamp string, row map[string]string) parsedBar {
	ts, ok := parseTwelveTime(stamp)
	if !ok {
		return parsedBar{skip: "bad_datetime"}
	}

	var prices [4]float64
	for i, field := range []string{"1. open", "2. high", "3. low", "4. close"} {
		p, ok := parsePrice(row[field])
		if !ok {
			return parsedBar{skip: "bad_price"}
		}
		prices[i] = p
	}
	if prices[1] < prices[2] {
		return parsedBar{skip: "high_below_low"}
	}

	return parsedBar{candle: models.Candle{
		Timestamp: ts,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
	}}
}
