// Package config loads the agent configuration from a yaml file plus
// credentials from the environment. Secrets never live in the yaml.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultCycleInterval  = time.Hour
	defaultMaxDailyTrades = 10
	defaultMinConfidence  = 60
	defaultKlineInterval  = "15m"
	defaultMaxExposure    = "10000"
	defaultWALDir         = "./wal/cycles"
)

// Config is the fully resolved agent configuration.
type Config struct {
	AIProvider   string
	Model        string
	APIURL       string
	SystemPrompt string

	TradingPairs         []string
	CycleInterval        time.Duration
	MaxDailyTrades       int
	MinConfidence        int
	MaxPortfolioExposure decimal.Decimal
	MaxSymbolExposure    decimal.Decimal // zero disables the per-symbol cap
	KlineInterval        string
	DryRun               bool
	WALDir               string

	AIAPIKey         string
	BinanceAPIKey    string
	BinanceSecretKey string
	TelegramBotToken string
	TelegramChatID   string
}

type configTmp struct {
	AIProvider              string        `yaml:"ai_provider"`
	Model                   string        `yaml:"model"`
	APIURL                  string        `yaml:"api_url,omitempty"`
	TradingPairs            []string      `yaml:"trading_pairs"`
	CycleInterval           time.Duration `yaml:"cycle_interval,omitempty"`
	MaxDailyTrades          int           `yaml:"max_daily_trades,omitempty"`
	MinConfidence           *int          `yaml:"min_confidence,omitempty"`
	MaxPortfolioExposureStr string        `yaml:"max_portfolio_exposure,omitempty"`
	MaxSymbolExposureStr    string        `yaml:"max_symbol_exposure,omitempty"`
	KlineInterval           string        `yaml:"kline_interval,omitempty"`
	DryRun                  bool          `yaml:"dry_run,omitempty"`
	WALDir                  string        `yaml:"wal_dir,omitempty"`
}

// Get reads the config path from the -config flag and loads it.
func Get() (*Config, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	return Load(*path)
}

// Load reads and validates the configuration at the given path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var tmp configTmp
	if err := yaml.Unmarshal(raw, &tmp); err != nil {
		return nil, fmt.Errorf("failed to parse yaml config: %w", err)
	}

	cfg := &Config{
		AIProvider:     tmp.AIProvider,
		Model:          tmp.Model,
		APIURL:         tmp.APIURL,
		TradingPairs:   tmp.TradingPairs,
		CycleInterval:  tmp.CycleInterval,
		MaxDailyTrades: tmp.MaxDailyTrades,
		KlineInterval:  tmp.KlineInterval,
		DryRun:         tmp.DryRun,
		WALDir:         tmp.WALDir,

		AIAPIKey:         os.Getenv("AI_API_KEY"),
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
	}

	if cfg.CycleInterval == 0 {
		cfg.CycleInterval = defaultCycleInterval
	}
	if cfg.MaxDailyTrades == 0 {
		cfg.MaxDailyTrades = defaultMaxDailyTrades
	}
	if tmp.MinConfidence != nil {
		cfg.MinConfidence = *tmp.MinConfidence
	} else {
		cfg.MinConfidence = defaultMinConfidence
	}
	if cfg.KlineInterval == "" {
		cfg.KlineInterval = defaultKlineInterval
	}
	if cfg.WALDir == "" {
		cfg.WALDir = defaultWALDir
	}

	exposureStr := tmp.MaxPortfolioExposureStr
	if exposureStr == "" {
		exposureStr = defaultMaxExposure
	}
	cfg.MaxPortfolioExposure, err = decimal.NewFromString(exposureStr)
	if err != nil {
		return nil, fmt.Errorf("incorrect 'max_portfolio_exposure' param in yaml config (must be a decimal): %w", err)
	}

	if tmp.MaxSymbolExposureStr != "" {
		cfg.MaxSymbolExposure, err = decimal.NewFromString(tmp.MaxSymbolExposureStr)
		if err != nil {
			return nil, fmt.Errorf("incorrect 'max_symbol_exposure' param in yaml config (must be a decimal): %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AIProvider == "" {
		return fmt.Errorf("'ai_provider' is required")
	}
	if c.Model == "" {
		return fmt.Errorf("'model' is required")
	}
	if len(c.TradingPairs) == 0 {
		return fmt.Errorf("'trading_pairs' must list at least one symbol")
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("'cycle_interval' must be positive")
	}
	if c.MaxDailyTrades <= 0 {
		return fmt.Errorf("'max_daily_trades' must be positive")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("'min_confidence' must be between 0 and 100")
	}
	if c.MaxPortfolioExposure.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("'max_portfolio_exposure' must be positive")
	}
	if c.MaxSymbolExposure.IsNegative() {
		return fmt.Errorf("'max_symbol_exposure' must not be negative")
	}
	if c.AIAPIKey == "" {
		return fmt.Errorf("AI_API_KEY environment variable is required")
	}
	if !c.DryRun && (c.BinanceAPIKey == "" || c.BinanceSecretKey == "") {
		return fmt.Errorf("BINANCE_API_KEY and BINANCE_SECRET_KEY are required unless dry_run is set")
	}
	return nil
}
