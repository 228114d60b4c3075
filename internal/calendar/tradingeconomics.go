package calendar

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

const tradingEconomicsURL = "https://api.tradingeconomics.com"

var teLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999", time.RFC3339}

// teEvent is one row of the Trading Economics calendar response
type teEvent struct {
	Country    string `json:"Country"`
	Event      string `json:"Event"`
	Category   string `json:"Category"`
	Currency   string `json:"Currency"`
	Date       string `json:"Date"`
	Importance int    `json:"Importance"`
	Actual     string `json:"Actual"`
	Forecast   string `json:"Forecast"`
	Previous   string `json:"Previous"`
}

// TradingEconomics fetches medium and high importance events from Trading Economics
type TradingEconomics struct {
	apiKey    string
	baseURL   string
	countries []string
	client    *httpClient.Client
	logger    zerolog.Logger
}

// NewTradingEconomics creates a fetcher. countries limits the returned events; empty means all.
func NewTradingEconomics(apiKey, baseURL string, countries []string, timeout time.Duration) *TradingEconomics {
	if baseURL == "" {
		baseURL = tradingEconomicsURL
	}
	return &TradingEconomics{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		countries: countries,
		client: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        timeout,
			RequestsPerSec: 1,
			MaxRetries:     2,
		}),
		logger: log.With().Str("component", "tradingeconomics_client").Logger(),
	}
}

// Fetch returns events between from and to.
func (t *TradingEconomics) Fetch(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	if t.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	query := url.Values{}
	query.Set("c", t.apiKey)
	query.Set("d1", from.UTC().Format("2006-01-02"))
	query.Set("d2", to.UTC().Format("2006-01-02"))
	query.Set("importance", "2,3")
	query.Set("f", "json")

	body, err := t.client.GetJSONBody(ctx, t.baseURL+"/calendar", query)
	if err != nil {
		return nil, fmt.Errorf("tradingeconomics calendar: %w", err)
	}

	var raw []teEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing tradingeconomics response: %w", err)
	}

	allowed := make(map[string]bool, len(t.countries))
	for _, c := range t.countries {
		allowed[strings.ToLower(c)] = true
	}

	events := make([]models.CalendarEvent, 0, len(raw))
	skipped := map[string]int{}
	for _, r := range raw {
		parsed := parseTEEvent(r, allowed)
		if parsed.skip != "" {
			skipped[parsed.skip]++
			continue
		}
		events = append(events, parsed.event)
	}

	t.logger.Info().
		Int("received", len(raw)).
		Int("kept", len(events)).
		Interface("skipped", skipped).
		Msg("Calendar fetched")

	return events, nil
}

// parsedEvent is one calendar row: an event or the reason it was skipped.
type parsedEvent struct {
	event models.CalendarEvent
	skip  string
}

func parseTEEvent(r teEvent, allowed map[string]bool) parsedEvent {
	if len(allowed) > 0 && !allowed[strings.ToLower(r.Country)] {
		return parsedEvent{skip: "country"}
	}
	if r.Event == "" {
		return parsedEvent{skip: "untitled"}
	}

	var ts time.Time
	ok := false
	for _, layout := range teLayouts {
		if parsed, err := time.ParseInLocation(layout, r.Date, time.UTC); err == nil {
			ts, ok = parsed.UTC(), true
			break
		}
	}
	if !ok {
		return parsedEvent{skip: "bad_date"}
	}

	return parsedEvent{event: models.CalendarEvent{
		Title:    r.Event,
		Country:  r.Country,
		Currency: strings.ToUpper(r.Currency),
		Time:     ts,
		Impact:   impactFromImportance(r.Importance),
		Actual:   r.Actual,
		Forecast: r.Forecast,
		Previous: r.Previous,
	}}
}

func impactFromImportance(importance int) models.Impact {
	switch {
	case importance >= 3:
		return models.ImpactHigh
	case importance == 2:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}
