package decoder

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoval/tradeloop/internal/domain"
)

const wellFormedBlock = `TRADE_DECISION:
Action: BUY
Symbol: BTCUSDT
Quantity: 0.5
Leverage: 5
Entry Price: 45000
Stop Loss: 44000
Take Profit: 48000
Confidence: 80
Priority: HIGH
Reason: strong momentum
Risk Reward: 1:3
---`

func TestDecodeWellFormedBlock(t *testing.T) {
	result := Decode(wellFormedBlock)

	require.Len(t, result.Instructions, 1)
	require.Len(t, result.ValidInstructions, 1)
	assert.Empty(t, result.InvalidInstructions)
	assert.Empty(t, result.ParseErrors)

	instr := result.Instructions[0]
	assert.Equal(t, domain.ActionBuy, instr.Action)
	assert.Equal(t, "BTCUSDT", instr.Symbol)
	require.NotNil(t, instr.Quantity)
	assert.True(t, instr.Quantity.Equal(decimal.RequireFromString("0.5")))
	require.NotNil(t, instr.Leverage)
	assert.Equal(t, 5, *instr.Leverage)
	require.NotNil(t, instr.Price)
	assert.True(t, instr.Price.Equal(decimal.NewFromInt(45000)))
	require.NotNil(t, instr.StopLoss)
	assert.True(t, instr.StopLoss.Equal(decimal.NewFromInt(44000)))
	require.NotNil(t, instr.TakeProfit)
	assert.True(t, instr.TakeProfit.Equal(decimal.NewFromInt(48000)))
	assert.Equal(t, 80, instr.Confidence)
	assert.Equal(t, domain.PriorityHigh, instr.Priority)
	assert.Equal(t, "strong momentum", instr.Reason)
	assert.Equal(t, "1:3", instr.RiskReward)
}

func TestDecodeTwoBlocksSplitByValidity(t *testing.T) {
	raw := `TRADE_DECISION:
Action: BUY
Symbol: BTCUSDT
Quantity: 0.5
Confidence: 80
Reason: breakout
---
TRADE_DECISION:
Action: SELL
Symbol: ETHUSDT
Leverage: 100
Quantity: 2
Confidence: 70
Reason: overextended
---`

	result := Decode(raw)

	require.Len(t, result.Instructions, 2)
	require.Len(t, result.ValidInstructions, 1)
	require.Len(t, result.InvalidInstructions, 1)

	assert.Equal(t, domain.ActionBuy, result.ValidInstructions[0].Action)
	invalid := result.InvalidInstructions[0]
	assert.Equal(t, domain.ActionSell, invalid.Instruction.Action)
	require.Len(t, invalid.Errors, 1)
	assert.Contains(t, invalid.Errors[0], "leverage")
}

func TestDecodeHoldOnlyBlockCarriesDefaults(t *testing.T) {
	result := Decode("TRADE_DECISION:\nAction: HOLD\n---")

	require.Len(t, result.Instructions, 1)
	instr := result.Instructions[0]
	assert.Equal(t, domain.ActionHold, instr.Action)
	assert.NotEmpty(t, instr.Reason)
	assert.Equal(t, 50, instr.Confidence)
	assert.Equal(t, domain.PriorityLow, instr.Priority)
}

func TestDecodeActionSynonyms(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Action
	}{
		{"LONG", domain.ActionBuy},
		{"short", domain.ActionSell},
		{"Exit", domain.ActionClose},
		{"WAIT", domain.ActionHold},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			result := Decode("TRADE_DECISION:\nAction: " + tt.raw + "\nSymbol: BTCUSDT\nQuantity: 1\n---")
			require.Len(t, result.Instructions, 1)
			assert.Equal(t, tt.want, result.Instructions[0].Action)
		})
	}
}

func TestDecodeBlockWithoutActionOrSymbolIsDropped(t *testing.T) {
	raw := `TRADE_DECISION:
Quantity: 0.5
Confidence: 90
---`

	result := Decode(raw)

	assert.Empty(t, result.Instructions)
	// a dropped block is not a parse error, and blocks were found
	assert.Empty(t, result.ParseErrors)
}

func TestDecodeMarketEntryPriceMeansNoPrice(t *testing.T) {
	raw := `TRADE_DECISION:
Action: BUY
Symbol: BTCUSDT
Quantity: 0.1
Entry Price: market
---`

	result := Decode(raw)

	require.Len(t, result.Instructions, 1)
	assert.Nil(t, result.Instructions[0].Price)
}

func TestDecodeDuplicateKeysLastWins(t *testing.T) {
	raw := `TRADE_DECISION:
Action: BUY
Symbol: BTCUSDT
Quantity: 1
Confidence: 40
Confidence: 75
---`

	result := Decode(raw)

	require.Len(t, result.Instructions, 1)
	assert.Equal(t, 75, result.Instructions[0].Confidence)
}

func TestDecodeNumericStrip(t *testing.T) {
	raw := `TRADE_DECISION:
Action: BUY
Symbol: BTCUSDT
Quantity: approx 0.25 BTC
Entry Price: $45,000.50
---`

	result := Decode(raw)

	require.Len(t, result.Instructions, 1)
	instr := result.Instructions[0]
	require.NotNil(t, instr.Quantity)
	assert.True(t, instr.Quantity.Equal(decimal.RequireFromString("0.25")))
	require.NotNil(t, instr.Price)
	assert.True(t, instr.Price.Equal(decimal.RequireFromString("45000.50")))
}

func TestDecodeStripsMarkdownNoise(t *testing.T) {
	raw := "```\n## TRADE_DECISION:\n**Action**: BUY\n*Symbol*: btc\nQuantity: 1\n```"

	result := Decode(raw)

	require.Len(t, result.Instructions, 1)
	instr := result.Instructions[0]
	assert.Equal(t, domain.ActionBuy, instr.Action)
	assert.Equal(t, "BTCUSDT", instr.Symbol)
}

func TestDecodeFallbackHoldIntent(t *testing.T) {
	result := Decode("Market conditions are unclear, no trade recommended today.")

	require.Len(t, result.Instructions, 1)
	instr := result.Instructions[0]
	assert.Equal(t, domain.ActionHold, instr.Action)
	assert.NotEmpty(t, instr.Reason)
	assert.Equal(t, 50, instr.Confidence)
	assert.Equal(t, domain.PriorityLow, instr.Priority)

	require.Len(t, result.ParseErrors, 1)
	assert.Contains(t, result.ParseErrors[0], "no TRADE_DECISION blocks found")
}

func TestDecodeFallbackDirectional(t *testing.T) {
	result := Decode("I would buy BTCUSDT at these levels given the momentum.")

	require.Len(t, result.Instructions, 1)
	instr := result.Instructions[0]
	assert.Equal(t, domain.ActionBuy, instr.Action)
	assert.Equal(t, "BTCUSDT", instr.Symbol)
	assert.Equal(t, 30, instr.Confidence)
	require.Len(t, result.ParseErrors, 1)
}

func TestDecodeFallbackNothingRecognized(t *testing.T) {
	result := Decode("The market moved sideways overnight.")

	assert.Empty(t, result.Instructions)
	require.Len(t, result.ParseErrors, 1)
	assert.Contains(t, result.ParseErrors[0], "no TRADE_DECISION blocks found")
}

func TestDecodeBlockTerminatedByNextMarker(t *testing.T) {
	raw := `TRADE_DECISION:
Action: BUY
Symbol: BTCUSDT
Quantity: 1
TRADE_DECISION:
Action: SELL
Symbol: ETHUSDT
Quantity: 2`

	result := Decode(raw)

	require.Len(t, result.Instructions, 2)
	assert.Equal(t, domain.ActionBuy, result.Instructions[0].Action)
	assert.Equal(t, domain.ActionSell, result.Instructions[1].Action)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := "```markdown\n# Analysis\n**TRADE_DECISION:**\nAction: BUY\n```"

	once := Normalize(raw)
	twice := Normalize(once)

	assert.Equal(t, once, twice)
}

func TestDecodeIdempotentOnNormalizedText(t *testing.T) {
	normalized := Normalize(wellFormedBlock)

	first := Decode(normalized)
	second := Decode(normalized)

	require.Len(t, first.Instructions, len(second.Instructions))
	for i := range first.Instructions {
		a, b := first.Instructions[i], second.Instructions[i]
		// timestamps are assigned at decode time, everything else must match
		a.Timestamp = b.Timestamp
		assert.Equal(t, a, b)
	}
	assert.Equal(t, first.ParseErrors, second.ParseErrors)
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"btc", "BTCUSDT"},
		{"FUTURES_ETHUSDT", "ETHUSDT"},
		{"SPOT_BNBUSDT", "BNBUSDT"},
		{"ethusdt", "ETHUSDT"},
		{"BTCBUSD", "BTCBUSD"},
		{"  sol  ", "SOLUSDT"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSymbol(tt.in))
		})
	}
}
