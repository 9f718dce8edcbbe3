package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("AI_API_KEY", "ai-key")
	t.Setenv("BINANCE_API_KEY", "binance-key")
	t.Setenv("BINANCE_SECRET_KEY", "binance-secret")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setCredentials(t)
	path := writeConfig(t, `
ai_provider: openai
model: gpt-4o
trading_pairs:
  - BTCUSDT
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.CycleInterval)
	assert.Equal(t, 10, cfg.MaxDailyTrades)
	assert.Equal(t, 60, cfg.MinConfidence)
	assert.Equal(t, "15m", cfg.KlineInterval)
	assert.True(t, cfg.MaxPortfolioExposure.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "ai-key", cfg.AIAPIKey)
}

func TestLoadExplicitValues(t *testing.T) {
	setCredentials(t)
	path := writeConfig(t, `
ai_provider: anthropic
model: claude-sonnet-4-20250514
trading_pairs:
  - BTCUSDT
  - ETHUSDT
cycle_interval: 30m
max_daily_trades: 3
min_confidence: 75
max_portfolio_exposure: "2500.50"
max_symbol_exposure: "1000"
kline_interval: 1h
dry_run: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.CycleInterval)
	assert.Equal(t, 3, cfg.MaxDailyTrades)
	assert.Equal(t, 75, cfg.MinConfidence)
	assert.True(t, cfg.MaxPortfolioExposure.Equal(decimal.RequireFromString("2500.50")))
	assert.True(t, cfg.MaxSymbolExposure.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.TradingPairs)
}

func TestLoadZeroMinConfidenceIsKept(t *testing.T) {
	setCredentials(t)
	path := writeConfig(t, `
ai_provider: openai
model: gpt-4o
trading_pairs: [BTCUSDT]
min_confidence: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MinConfidence)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing provider",
			yaml:    "model: gpt-4o\ntrading_pairs: [BTCUSDT]",
			wantErr: "ai_provider",
		},
		{
			name:    "missing model",
			yaml:    "ai_provider: openai\ntrading_pairs: [BTCUSDT]",
			wantErr: "model",
		},
		{
			name:    "no trading pairs",
			yaml:    "ai_provider: openai\nmodel: gpt-4o",
			wantErr: "trading_pairs",
		},
		{
			name:    "confidence out of range",
			yaml:    "ai_provider: openai\nmodel: gpt-4o\ntrading_pairs: [BTCUSDT]\nmin_confidence: 150",
			wantErr: "min_confidence",
		},
		{
			name:    "negative exposure",
			yaml:    "ai_provider: openai\nmodel: gpt-4o\ntrading_pairs: [BTCUSDT]\nmax_portfolio_exposure: \"-5\"",
			wantErr: "max_portfolio_exposure",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setCredentials(t)
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadRequiresExchangeCredentialsUnlessDryRun(t *testing.T) {
	t.Setenv("AI_API_KEY", "ai-key")
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_SECRET_KEY", "")

	live := "ai_provider: openai\nmodel: gpt-4o\ntrading_pairs: [BTCUSDT]"
	_, err := Load(writeConfig(t, live))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BINANCE_API_KEY")

	dry := live + "\ndry_run: true"
	_, err = Load(writeConfig(t, dry))
	require.NoError(t, err)
}
