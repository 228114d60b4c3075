package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oracle/internal/analyze"
	"github.com/Alias1177/oracle/internal/api"
	"github.com/Alias1177/oracle/internal/calendar"
	"github.com/Alias1177/oracle/internal/config"
	"github.com/Alias1177/oracle/internal/database"
	"github.com/Alias1177/oracle/internal/marketdata"
	"github.com/Alias1177/oracle/internal/metrics"
	"github.com/Alias1177/oracle/internal/notify"
	"github.com/Alias1177/oracle/internal/pipeline"
	"github.com/Alias1177/oracle/models"
)

func main() {
	configPath := flag.String("config", os.Getenv("ORACLE_CONFIG"), "path to the YAML config file")
	once := flag.Bool("once", false, "run one evaluation cycle and exit")
	flag.Parse()

	// 1. Config and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		setupLogging("info")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)
	printConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(reg)

	// 3. Market data
	provider := buildProvider(cfg)

	// 4. Economic calendar
	var cal models.Calendar
	var calCache *calendar.Cache
	if !cfg.Calendar.Disabled && cfg.Calendar.APIKey != "" {
		var closeStore func()
		calCache, closeStore = buildCalendar(ctx, cfg, recorder)
		defer closeStore()
		defer calCache.Wait()
		cal = calCache
	} else {
		log.Warn().Msg("Economic calendar disabled, temporal pillar will skip event checks")
	}

	// 5. Delivery
	sinks := notify.Multi{notify.NewLog()}
	var history api.History

	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
		}
		tg.All = cfg.Telegram.All
		sinks = append(sinks, tg)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.NewKafka(notify.KafkaOptions{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			Compression: cfg.Kafka.Compression,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Kafka producer")
		}
		defer producer.Close()
		sinks = append(sinks, producer)
	}

	if cfg.Database.DSN != "" {
		db, err := database.New(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		sinks = append(sinks, db)
		history = db
	}

	// 6. Pipeline
	runner := pipeline.NewRunner(pipeline.Options{
		Provider:    provider,
		Analyzer:    analyze.NewAnalyzer(cfg.Analysis, cal),
		Notifier:    sinks,
		Metrics:     recorder,
		Instruments: cfg.Instruments,
		Intervals:   cfg.Intervals(),
		CandleCount: cfg.CandleCount,
	})

	if *once {
		if _, err := runner.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Cycle finished with errors")
			os.Exit(1)
		}
		return
	}

	// 7. HTTP server
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Options{
			Latest:     runner,
			History:    history,
			Gatherer:   reg,
			StaleAfter: 3 * cfg.Interval,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	if err := runner.Run(ctx, cfg.Interval); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Pipeline stopped")
	}

	log.Info().Msg("Shutdown signal received, exiting...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown")
	}
}

func buildProvider(cfg *config.Config) models.CandleProvider {
	var providers []models.CandleProvider
	if cfg.MarketData.TwelveAPIKey != "" {
		providers = append(providers, marketdata.NewTwelveData(marketdata.TwelveDataOptions{
			APIKey:         cfg.MarketData.TwelveAPIKey,
			RequestTimeout: cfg.MarketData.RequestTimeout,
			RequestsPerSec: cfg.MarketData.RequestsPerSec,
			MaxRetries:     cfg.MarketData.MaxRetries,
		}))
	}
	if cfg.MarketData.AlphaVantageAPIKey != "" {
		providers = append(providers, marketdata.NewAlphaVantage(cfg.MarketData.AlphaVantageAPIKey, "", cfg.MarketData.RequestTimeout))
	}
	return marketdata.NewChain(providers...)
}

func buildCalendar(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder) (*calendar.Cache, func()) {
	var currencies []string
	for _, inst := range cfg.Instruments {
		currencies = append(currencies, inst.Currencies...)
	}
	fetcher := calendar.NewTradingEconomics(cfg.Calendar.APIKey, cfg.Calendar.BaseURL, calendar.Countries(currencies), cfg.Calendar.RequestTimeout)

	opts := calendar.CacheOptions{
		TTL:       cfg.Calendar.TTL,
		Horizon:   cfg.Calendar.Horizon,
		OnRefresh: recorder.RecordCalendarRefresh,
	}
	closeStore := func() {}
	if cfg.Redis.Addr != "" {
		store, err := calendar.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Calendar.Horizon)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, calendar snapshots will not persist")
		} else {
			opts.Store = store
			closeStore = func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close Redis client")
				}
			}
		}
	}

	cache := calendar.NewCache(fetcher, opts)
	if opts.Store != nil {
		if err := cache.Warm(ctx); err != nil && !errors.Is(err, calendar.ErrNotStored) {
			log.Warn().Err(err).Msg("Failed to restore calendar snapshot")
		}
	}
	if err := cache.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial calendar load failed, will retry in background")
	}
	return cache, closeStore
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the effective configuration without secrets
func printConfig(cfg *config.Config) {
	symbols := make([]string, len(cfg.Instruments))
	for i, inst := range cfg.Instruments {
		symbols[i] = inst.Symbol
	}
	log.Info().
		Strs("Instruments", symbols).
		Str("Primary", cfg.Timeframes.Primary).
		Str("Secondary", cfg.Timeframes.Secondary).
		Str("Tertiary", cfg.Timeframes.Tertiary).
		Int("CandleCount", cfg.CandleCount).
		Dur("Interval", cfg.Interval).
		Bool("Calendar", !cfg.Calendar.Disabled && cfg.Calendar.APIKey != "").
		Bool("Telegram", cfg.Telegram.Token != "").
		Bool("Kafka", len(cfg.Kafka.Brokers) > 0).
		Bool("Journal", cfg.Database.DSN != "").
		Int("ValidationThreshold", cfg.Analysis.VTI.ValidationThreshold).
		Float64("RiskPercent", cfg.Analysis.Risk.RiskPercent).
		Msg("Configuration loaded")
}
