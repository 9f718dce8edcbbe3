// Command tradeloop runs the LLM-driven futures trading agent. Once per
// cycle it snapshots the Binance account and market state, asks the
// configured model for TRADE_DECISION blocks, and executes the decoded
// instructions that survive validation and the risk check.
//
// Usage:
//
//	tradeloop --config config.yaml
//
// Required environment variables:
//
//	AI_API_KEY                            model provider key
//	BINANCE_API_KEY, BINANCE_SECRET_KEY   exchange keys (unless dry_run)
//	TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID  optional notifications
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/config"
	"github.com/dkoval/tradeloop/internal/clients"
	"github.com/dkoval/tradeloop/internal/orchestrator"
	"github.com/dkoval/tradeloop/internal/services/executor"
	"github.com/dkoval/tradeloop/internal/services/market"
	"github.com/dkoval/tradeloop/internal/services/notifier"
	"github.com/dkoval/tradeloop/internal/services/promptbuilder"
	"github.com/dkoval/tradeloop/internal/services/risk"
	"github.com/dkoval/tradeloop/internal/storage/cycles"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	provider, err := clients.NewModelProvider(clients.ProviderConfig{
		Kind:         clients.ProviderKind(cfg.AIProvider),
		APIKey:       cfg.AIAPIKey,
		APIURL:       cfg.APIURL,
		Model:        cfg.Model,
		SystemPrompt: promptbuilder.SystemPrompt,
	})
	if err != nil {
		logger.Fatal("failed to create model provider", zap.Error(err))
	}

	futuresClient := clients.NewBinanceFuturesClient(cfg.BinanceAPIKey, cfg.BinanceSecretKey)
	collectorOpts := []market.Option{market.WithKlineInterval(cfg.KlineInterval)}
	if cfg.DryRun && cfg.BinanceAPIKey == "" {
		logger.Info("no exchange keys, gathering public market data only")
		collectorOpts = append(collectorOpts, market.WithoutAccountData())
	}
	collector := market.NewCollector(
		market.NewBinanceExchange(futuresClient),
		cfg.TradingPairs,
		logger,
		collectorOpts...,
	)

	var exec orchestrator.Executor
	if cfg.DryRun {
		logger.Info("dry run mode, no orders will be placed")
		exec = executor.NewDryRunExecutor(logger)
	} else {
		exec = executor.NewBinanceExecutor(futuresClient, logger)
	}

	store, err := cycles.NewWALStore(cfg.WALDir)
	if err != nil {
		logger.Fatal("failed to open cycle store", zap.Error(err))
	}
	defer store.Close()

	tg := notifier.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)

	orch := orchestrator.New(orchestrator.Config{
		Interval:       cfg.CycleInterval,
		MaxDailyTrades: cfg.MaxDailyTrades,
		MinConfidence:  cfg.MinConfidence,
		TradingPairs:   cfg.TradingPairs,
	}, orchestrator.Deps{
		Collector: collector,
		Provider:  provider,
		Prompt:    promptbuilder.NewBuilder(cfg.TradingPairs),
		Risk: risk.NewManager(cfg.MaxPortfolioExposure, logger,
			risk.WithMaxSymbolExposure(cfg.MaxSymbolExposure)),
		Executor:  exec,
		Store:     store,
		Notifier:  tg,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := orch.Start(ctx); err != nil {
		logger.Fatal("failed to start orchestrator", zap.Error(err))
	}
	tg.NotifyStart(provider.Name(), cfg.TradingPairs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	orch.Stop()
}
