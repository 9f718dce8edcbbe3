// Package market implements the data-gathering phase of a trading cycle:
// account state, open positions and a per-symbol price/indicator snapshot,
// fetched concurrently and joined before the prompt is built.
package market

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dkoval/tradeloop/internal/domain"
)

const (
	defaultKlineInterval = "15m"
	defaultKlineLimit    = 100
	gatherTimeout        = 30 * time.Second
)

// Candle is one OHLCV bar fetched from the exchange.
type Candle struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// ExchangeAPI is the slice of the exchange the collector needs. The
// Binance futures implementation is the production one; tests substitute
// a fake.
type ExchangeAPI interface {
	Account(ctx context.Context) (*futures.Account, error)
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// Collector gathers market and account data for the configured symbols.
type Collector struct {
	api         ExchangeAPI
	symbols     []string
	interval    string
	limit       int
	skipAccount bool
	logger      *zap.Logger
}

// Option tunes the collector.
type Option func(*Collector)

// WithKlineInterval overrides the candle interval used for indicators.
func WithKlineInterval(interval string) Option {
	return func(c *Collector) {
		if interval != "" {
			c.interval = interval
		}
	}
}

// WithoutAccountData skips the authenticated account fetch. Balances and
// positions stay empty in the snapshot. Meant for dry runs without API
// credentials, where only the public market endpoints are reachable.
func WithoutAccountData() Option {
	return func(c *Collector) {
		c.skipAccount = true
	}
}

// NewCollector creates a collector over the given exchange API.
func NewCollector(api ExchangeAPI, symbols []string, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		api:      api,
		symbols:  symbols,
		interval: defaultKlineInterval,
		limit:    defaultKlineLimit,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gather fetches account info and per-symbol snapshots concurrently and
// joins on all of them. A failed account or price read fails the whole
// gather; a failed kline/indicator read degrades that symbol to neutral
// defaults instead.
func (c *Collector) Gather(ctx context.Context) (*domain.MarketData, error) {
	ctx, cancel := context.WithTimeout(ctx, gatherTimeout)
	defer cancel()

	md := &domain.MarketData{
		Timestamp: time.Now(),
		Symbols:   make([]domain.SymbolSnapshot, len(c.symbols)),
	}

	g, ctx := errgroup.WithContext(ctx)

	if !c.skipAccount {
		g.Go(func() error {
			account, err := c.api.Account(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to fetch account")
			}

			balances, positions, err := convertAccount(account)
			if err != nil {
				return errors.Wrap(err, "failed to parse account")
			}

			md.Balances = balances
			md.Positions = positions
			return nil
		})
	}

	for i, symbol := range c.symbols {
		g.Go(func() error {
			snapshot, err := c.gatherSymbol(ctx, symbol)
			if err != nil {
				return err
			}
			md.Symbols[i] = snapshot
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return md, nil
}

func (c *Collector) gatherSymbol(ctx context.Context, symbol string) (domain.SymbolSnapshot, error) {
	price, err := c.api.Price(ctx, symbol)
	if err != nil {
		return domain.SymbolSnapshot{}, errors.Wrapf(err, "failed to fetch price for %s", symbol)
	}

	snapshot := domain.SymbolSnapshot{
		Symbol: symbol,
		Price:  price,
	}

	candles, err := c.api.Klines(ctx, symbol, c.interval, c.limit)
	if err == nil {
		snapshot.Indicators, err = computeIndicators(candles)
	}
	if err != nil {
		// indicator degradation is per-symbol and non-fatal
		c.logger.Warn("indicator data unavailable, using neutral defaults",
			zap.String("symbol", symbol),
			zap.Error(err))
		snapshot.Indicators = neutralIndicators(price)
	}

	return snapshot, nil
}

func convertAccount(account *futures.Account) ([]domain.AssetBalance, []domain.OpenPosition, error) {
	var balances []domain.AssetBalance
	for _, asset := range account.Assets {
		wallet, err := decimal.NewFromString(asset.WalletBalance)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse wallet balance for %s", asset.Asset)
		}
		available, err := decimal.NewFromString(asset.AvailableBalance)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse available balance for %s", asset.Asset)
		}
		if wallet.IsZero() {
			continue
		}
		balances = append(balances, domain.AssetBalance{
			Asset:  asset.Asset,
			Free:   available,
			Locked: wallet.Sub(available),
		})
	}

	var positions []domain.OpenPosition
	for _, pos := range account.Positions {
		quantity, err := decimal.NewFromString(pos.PositionAmt)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse position amount for %s", pos.Symbol)
		}
		if quantity.IsZero() {
			continue
		}
		entryPrice, err := decimal.NewFromString(pos.EntryPrice)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse entry price for %s", pos.Symbol)
		}
		pnl, err := decimal.NewFromString(pos.UnrealizedProfit)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse unrealized pnl for %s", pos.Symbol)
		}
		leverage, err := decimal.NewFromString(pos.Leverage)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse leverage for %s", pos.Symbol)
		}

		side := "LONG"
		if quantity.IsNegative() {
			side = "SHORT"
		}

		positions = append(positions, domain.OpenPosition{
			Symbol:        pos.Symbol,
			Side:          side,
			Quantity:      quantity.Abs(),
			EntryPrice:    entryPrice,
			UnrealizedPnL: pnl,
			Leverage:      int(leverage.IntPart()),
		})
	}

	return balances, positions, nil
}

// BinanceExchange adapts the Binance USDT-M futures client to ExchangeAPI.
type BinanceExchange struct {
	client *futures.Client
}

// NewBinanceExchange wraps a futures client.
func NewBinanceExchange(client *futures.Client) *BinanceExchange {
	return &BinanceExchange{client: client}
}

// Account fetches the futures account state.
func (e *BinanceExchange) Account(ctx context.Context) (*futures.Account, error) {
	return e.client.NewGetAccountService().Do(ctx)
}

// Price fetches the latest price for a symbol.
func (e *BinanceExchange) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := e.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to fetch price from Binance for %s", symbol)
	}
	if len(prices) == 0 {
		return decimal.Zero, errors.Errorf("no price returned for %s", symbol)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to parse price for %s", symbol)
	}

	return price, nil
}

// Klines fetches historical candles for a symbol.
func (e *BinanceExchange) Klines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	klines, err := e.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", symbol)
	}

	result := make([]Candle, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		result[i] = Candle{
			OpenTime:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.Unix(0, k.CloseTime*int64(time.Millisecond)),
		}
	}

	return result, nil
}
