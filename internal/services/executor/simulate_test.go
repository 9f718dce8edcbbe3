package executor

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/internal/domain"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func dryRunMarketData() *domain.MarketData {
	return &domain.MarketData{
		Symbols: []domain.SymbolSnapshot{
			{Symbol: "BTCUSDT", Price: decimal.NewFromInt(50000)},
		},
		Positions: []domain.OpenPosition{
			{Symbol: "BTCUSDT", Side: "LONG", Quantity: decimal.RequireFromString("0.5"),
				EntryPrice: decimal.NewFromInt(48000)},
		},
	}
}

func TestDryRunFillsMarketOrderAtSnapshotPrice(t *testing.T) {
	exec := NewDryRunExecutor(zap.NewNop())

	res := exec.Execute(context.Background(), domain.TradingInstruction{
		Action:   domain.ActionBuy,
		Symbol:   "BTCUSDT",
		Quantity: dec("0.1"),
	}, dryRunMarketData())

	require.True(t, res.Success)
	require.NotNil(t, res.ExecutedPrice)
	assert.True(t, res.ExecutedPrice.Equal(decimal.NewFromInt(50000)))
	assert.True(t, res.ExecutedQuantity.Equal(decimal.RequireFromString("0.1")))
	assert.NotZero(t, res.BinanceOrderID)
}

func TestDryRunLimitOrderUsesInstructionPrice(t *testing.T) {
	exec := NewDryRunExecutor(zap.NewNop())

	res := exec.Execute(context.Background(), domain.TradingInstruction{
		Action:   domain.ActionSell,
		Symbol:   "BTCUSDT",
		Quantity: dec("0.1"),
		Price:    dec("51000"),
	}, dryRunMarketData())

	require.True(t, res.Success)
	assert.True(t, res.ExecutedPrice.Equal(decimal.NewFromInt(51000)))
}

func TestDryRunRejectsCloseWithoutPosition(t *testing.T) {
	exec := NewDryRunExecutor(zap.NewNop())

	res := exec.Execute(context.Background(), domain.TradingInstruction{
		Action: domain.ActionClose,
		Symbol: "ETHUSDT",
	}, dryRunMarketData())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no open position")
}

func TestDryRunOrderIDsAreUnique(t *testing.T) {
	exec := NewDryRunExecutor(zap.NewNop())
	md := dryRunMarketData()

	first := exec.Execute(context.Background(), domain.TradingInstruction{
		Action: domain.ActionBuy, Symbol: "BTCUSDT", Quantity: dec("0.1"),
	}, md)
	second := exec.Execute(context.Background(), domain.TradingInstruction{
		Action: domain.ActionBuy, Symbol: "BTCUSDT", Quantity: dec("0.1"),
	}, md)

	assert.NotEqual(t, first.BinanceOrderID, second.BinanceOrderID)
}
