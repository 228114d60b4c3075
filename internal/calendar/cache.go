// Package calendar serves economic calendar lookups from a background-refreshed snapshot.
package calendar

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/models"
)

var (
	ErrNoAPIKey    = errors.New("calendar: api key not configured")
	ErrUnavailable = errors.New("calendar: no snapshot loaded")
	ErrRefreshBusy = errors.New("calendar: refresh already running")
	ErrNoFetcher   = errors.New("calendar: no fetcher configured")
)

const sentimentWindow = 24 * time.Hour

// Fetcher loads events in a time range.
type Fetcher interface {
	Fetch(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error)
}

// currencyCountries maps a currency to the economies whose releases move it.
var currencyCountries = map[string][]string{
	"USD": {"United States"},
	"EUR": {"Euro Area", "Germany", "France", "Italy", "Spain"},
	"GBP": {"United Kingdom"},
	"JPY": {"Japan"},
	"CHF": {"Switzerland"},
	"CAD": {"Canada"},
	"AUD": {"Australia"},
	"NZD": {"New Zealand"},
	"CNY": {"China"},
}

// Countries returns the calendar countries relevant to the given currencies.
func Countries(currencies []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, cur := range currencies {
		for _, c := range currencyCountries[strings.ToUpper(cur)] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

type snapshot struct {
	events    []models.CalendarEvent
	fetchedAt time.Time
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	TTL            time.Duration
	Horizon        time.Duration
	RefreshTimeout time.Duration
	// OnRefresh is called after every fetch attempt.
	OnRefresh func(took time.Duration, err error)
	// Store, when set, receives every new snapshot and seeds Warm.
	Store Store
	Now   func() time.Time
}

// Cache implements models.Calendar. Lookups read the current snapshot and
// never wait on the network; a stale snapshot triggers one background refresh.
type Cache struct {
	fetcher Fetcher
	opts    CacheOptions

	snap       atomic.Pointer[snapshot]
	refreshing atomic.Bool
	wg         sync.WaitGroup
	logger     zerolog.Logger
}

// NewCache creates a calendar cache. Call Refresh to load the first snapshot.
func NewCache(fetcher Fetcher, opts CacheOptions) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = 4 * time.Hour
	}
	if opts.Horizon <= 0 {
		opts.Horizon = 48 * time.Hour
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		fetcher: fetcher,
		opts:    opts,
		logger:  log.With().Str("component", "calendar").Logger(),
	}
}

// Refresh fetches a new snapshot synchronously. A failed fetch keeps the previous snapshot.
func (c *Cache) Refresh(ctx context.Context) error {
	if !c.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshBusy
	}
	defer c.refreshing.Store(false)
	return c.load(ctx)
}

func (c *Cache) load(ctx context.Context) error {
	if c.fetcher == nil {
		return ErrNoFetcher
	}

	began := time.Now()
	from := c.opts.Now()
	events, err := c.fetcher.Fetch(ctx, from, from.Add(c.opts.Horizon))
	if c.opts.OnRefresh != nil {
		c.opts.OnRefresh(time.Since(began), err)
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Calendar refresh failed, keeping previous snapshot")
		return err
	}

	fetchedAt := c.opts.Now()
	c.publish(events, fetchedAt)
	c.logger.Info().Int("events", len(events)).Msg("Calendar snapshot updated")

	if c.opts.Store != nil {
		if err := c.opts.Store.Save(ctx, events, fetchedAt); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to persist calendar snapshot")
		}
	}
	return nil
}

func (c *Cache) publish(events []models.CalendarEvent, fetchedAt time.Time) {
	c.snap.Store(newSnapshot(events, fetchedAt))
}

func newSnapshot(events []models.CalendarEvent, fetchedAt time.Time) *snapshot {
	sorted := append([]models.CalendarEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return &snapshot{events: sorted, fetchedAt: fetchedAt}
}

// Warm seeds an empty cache from the Store. The stored fetch time is kept,
// so an old snapshot is served but refreshed on first use.
func (c *Cache) Warm(ctx context.Context) error {
	if c.opts.Store == nil {
		return ErrNotStored
	}
	events, fetchedAt, err := c.opts.Store.Load(ctx)
	if err != nil {
		return err
	}
	if !c.snap.CompareAndSwap(nil, newSnapshot(events, fetchedAt)) {
		return nil
	}
	c.logger.Info().Int("events", len(events)).Time("fetched_at", fetchedAt).Msg("Calendar snapshot restored")
	return nil
}

// refreshAsync starts a background refresh unless one is already running.
func (c *Cache) refreshAsync() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), c.opts.RefreshTimeout)
		defer cancel()
		_ = c.load(ctx)
	}()
}

// Wait blocks until background refreshes finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// current returns the snapshot, scheduling a refresh when it is missing or stale.
func (c *Cache) current() (*snapshot, error) {
	s := c.snap.Load()
	if s == nil || c.opts.Now().Sub(s.fetchedAt) >= c.opts.TTL {
		c.refreshAsync()
	}
	if s == nil {
		return nil, ErrUnavailable
	}
	return s, nil
}

// Events returns a copy of the snapshot.
func (c *Cache) Events() ([]models.CalendarEvent, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return append([]models.CalendarEvent(nil), s.events...), nil
}

// HasUpcomingHighImpactEvent implements models.Calendar. An instrument with no
// currencies is affected by every high impact event.
func (c *Cache) HasUpcomingHighImpactEvent(inst models.Instrument, window time.Duration) (bool, []models.CalendarEvent, error) {
	s, err := c.current()
	if err != nil {
		return false, nil, err
	}

	now := c.opts.Now()
	until := now.Add(window)
	currencies := map[string]bool{}
	for _, cur := range inst.Currencies {
		currencies[strings.ToUpper(cur)] = true
	}
	countries := map[string]bool{}
	for _, country := range Countries(inst.Currencies) {
		countries[strings.ToLower(country)] = true
	}

	var hits []models.CalendarEvent
	for _, e := range s.events {
		if e.Impact != models.ImpactHigh || e.Time.Before(now) || e.Time.After(until) {
			continue
		}
		if len(currencies) > 0 && !currencies[e.Currency] && !countries[strings.ToLower(e.Country)] {
			continue
		}
		hits = append(hits, e)
	}
	return len(hits) > 0, hits, nil
}

// MarketSentiment implements models.Calendar from the number of high impact
// events in the next 24 hours.
func (c *Cache) MarketSentiment() (models.Sentiment, error) {
	s, err := c.current()
	if err != nil {
		return models.SentimentNormal, err
	}

	now := c.opts.Now()
	until := now.Add(sentimentWindow)
	high := 0
	for _, e := range s.events {
		if e.Impact == models.ImpactHigh && !e.Time.Before(now) && !e.Time.After(until) {
			high++
		}
	}

	switch {
	case high >= 3:
		return models.SentimentHighVolatility, nil
	case high >= 1:
		return models.SentimentElevatedRisk, nil
	default:
		return models.SentimentNormal, nil
	}
}
