package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/oracle/models"
)

// Config holds all application configuration
type Config struct {
	LogLevel    string        `yaml:"log_level" default:"info" validate:"oneof=trace debug info warn error"`
	HTTPAddr    string        `yaml:"http_addr" default:":9090"`
	Interval    time.Duration `yaml:"interval" default:"15m" validate:"gt=0"`
	CandleCount int           `yaml:"candle_count" default:"300" validate:"gte=50,lte=5000"`

	Timeframes  Timeframes          `yaml:"timeframes"`
	Instruments []models.Instrument `yaml:"instruments" validate:"dive"`
	MarketData  MarketData          `yaml:"market_data"`
	Calendar    Calendar            `yaml:"calendar"`
	Telegram    Telegram            `yaml:"telegram"`
	Kafka       Kafka               `yaml:"kafka"`
	Database    Database            `yaml:"database"`
	Redis       Redis               `yaml:"redis"`

	Analysis models.AnalysisConfig `yaml:"analysis"`
}

// Timeframes names the vendor interval for each analysed timeframe
type Timeframes struct {
	Primary   string `yaml:"primary" default:"15min"`
	Secondary string `yaml:"secondary" default:"1h"`
	Tertiary  string `yaml:"tertiary" default:"4h"`
}

// MarketData configures the candle providers
type MarketData struct {
	TwelveAPIKey       string        `yaml:"twelve_api_key"`
	AlphaVantageAPIKey string        `yaml:"alphavantage_api_key"`
	RequestTimeout     time.Duration `yaml:"request_timeout" default:"30s" validate:"gt=0"`
	RequestsPerSec     float64       `yaml:"requests_per_sec" default:"0.13" validate:"gt=0"`
	MaxRetries         uint64        `yaml:"max_retries" default:"3"`
}

// Calendar configures the economic calendar
type Calendar struct {
	Disabled       bool          `yaml:"disabled"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	TTL            time.Duration `yaml:"ttl" default:"4h" validate:"gt=0"`
	Horizon        time.Duration `yaml:"horizon" default:"48h" validate:"gt=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"20s" validate:"gt=0"`
}

// Telegram configures signal delivery to a chat
type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	// All also sends FLAT signals.
	All bool `yaml:"all"`
}

// Kafka configures the signal topic
type Kafka struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic" default:"oracle.signals"`
	Compression string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
}

// Database configures the PostgreSQL signal journal; empty DSN disables it
type Database struct {
	DSN string `yaml:"dsn"`
}

// Redis configures calendar snapshot persistence; empty Addr disables it
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// DefaultInstruments is used when neither the file nor SYMBOLS lists any.
func DefaultInstruments() []models.Instrument {
	return []models.Instrument{
		{Symbol: "EUR/USD", Name: "Euro / US Dollar", Class: models.ClassForex, Currencies: []string{"EUR", "USD"}},
		{Symbol: "GBP/USD", Name: "British Pound / US Dollar", Class: models.ClassForex, Currencies: []string{"GBP", "USD"}},
		{Symbol: "USD/JPY", Name: "US Dollar / Japanese Yen", Class: models.ClassForex, SafeHaven: true, Currencies: []string{"USD", "JPY"}},
		{Symbol: "USD/CHF", Name: "US Dollar / Swiss Franc", Class: models.ClassForex, SafeHaven: true, Currencies: []string{"USD", "CHF"}},
		{Symbol: "XAU/USD", Name: "Gold", Class: models.ClassMetal, SafeHaven: true, Currencies: []string{"USD"}},
	}
}

var validate = validator.New()

// Load reads the YAML file at path (optional when empty), applies defaults,
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if inferred := cfg.normalize(); len(inferred) > 0 {
		log.Warn().
			Strs("symbols", inferred).
			Msg("Instrument metadata inferred from symbol names, set currencies and class explicitly")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TWELVE_API_KEY"); v != "" {
		c.MarketData.TwelveAPIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.MarketData.AlphaVantageAPIKey = v
	}
	if v := os.Getenv("TE_API_KEY"); v != "" {
		c.Calendar.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Instruments = selectInstruments(c.Instruments, splitList(v))
	}
	return nil
}

// selectInstruments keeps the listed symbols, taking metadata from the
// configured or built-in catalogue where available.
func selectInstruments(configured []models.Instrument, symbols []string) []models.Instrument {
	catalogue := map[string]models.Instrument{}
	for _, inst := range DefaultInstruments() {
		catalogue[inst.Symbol] = inst
	}
	for _, inst := range configured {
		catalogue[inst.Symbol] = inst
	}

	out := make([]models.Instrument, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(s)
		if inst, ok := catalogue[s]; ok {
			out = append(out, inst)
			continue
		}
		out = append(out, models.Instrument{Symbol: s})
	}
	return out
}

// normalize fills instrument metadata the config left out and returns the
// symbols whose currencies or class had to be guessed from the symbol text.
func (c *Config) normalize() []string {
	if len(c.Instruments) == 0 {
		c.Instruments = DefaultInstruments()
	}
	var inferred []string
	for i := range c.Instruments {
		inst := &c.Instruments[i]
		inst.Symbol = strings.ToUpper(strings.TrimSpace(inst.Symbol))
		guessed := false
		if len(inst.Currencies) == 0 {
			if base, quote, ok := strings.Cut(inst.Symbol, "/"); ok {
				inst.Currencies = []string{base, quote}
				guessed = true
			}
		}
		if inst.Class == "" && len(inst.Currencies) == 2 && len(inst.Currencies[0]) == 3 && len(inst.Currencies[1]) == 3 {
			inst.Class = models.ClassForex
			guessed = true
		}
		if guessed {
			inferred = append(inferred, inst.Symbol)
		}
	}
	return inferred
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	ind := c.Analysis.Indicators
	check(ind.MACDFastPeriod < ind.MACDSlowPeriod, "indicators: macd_fast_period must be below macd_slow_period")
	check(ind.EMAFastPeriod < ind.EMAMidPeriod && ind.EMAMidPeriod < ind.EMASlowPeriod, "indicators: ema periods must be increasing")
	check(ind.RSIOversold < ind.RSIOverbought, "indicators: rsi_oversold must be below rsi_overbought")
	check(ind.StochOversold < ind.StochOverbought, "indicators: stoch_oversold must be below stoch_overbought")
	check(c.CandleCount > ind.EMASlowPeriod, "candle_count %d must exceed ema_slow_period %d", c.CandleCount, ind.EMASlowPeriod)

	pat := c.Analysis.Patterns
	check(pat.ImpulseDownRatio < pat.ImpulseUpRatio, "patterns: impulse_down_ratio must be below impulse_up_ratio")
	check(pat.LowVolatilityATR < pat.HighVolatilityATR, "patterns: low_volatility_atr must be below high_volatility_atr")

	conf := c.Analysis.VTI.Confidence
	for i := 1; i < len(conf); i++ {
		check(conf[i-1] < conf[i], "vti: confidence must be strictly increasing")
	}

	tp := c.Analysis.Risk.TakeProfitMultiples
	for i := 1; i < len(tp); i++ {
		check(tp[i-1] < tp[i], "risk: take_profit_multiples must be increasing")
	}

	var prev time.Duration
	for _, tf := range []struct{ name, interval string }{
		{"primary", c.Timeframes.Primary},
		{"secondary", c.Timeframes.Secondary},
		{"tertiary", c.Timeframes.Tertiary},
	} {
		d, err := models.IntervalDuration(tf.interval)
		if err != nil {
			errs = append(errs, fmt.Errorf("timeframes.%s: %w", tf.name, err))
			continue
		}
		check(d > prev, "timeframes.%s must be longer than the previous timeframe", tf.name)
		prev = d
	}

	check(c.MarketData.TwelveAPIKey != "" || c.MarketData.AlphaVantageAPIKey != "", "market_data: TWELVE_API_KEY or ALPHAVANTAGE_API_KEY is required")
	check(c.Telegram.Token == "" || c.Telegram.ChatID != 0, "telegram: chat_id is required with a token")

	return errors.Join(errs...)
}

// Intervals returns the vendor interval per timeframe.
func (c *Config) Intervals() map[models.Timeframe]string {
	return map[models.Timeframe]string{
		models.Primary:   c.Timeframes.Primary,
		models.Secondary: c.Timeframes.Secondary,
		models.Tertiary:  c.Timeframes.Tertiary,
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
